package syncer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kazuki/feedhub/internal/model"
)

// --- グローバル同期のテスト ---

func TestService_SyncAll_AggregatesOutcomes(t *testing.T) {
	feed1 := syncableFeed(1)
	feed2 := syncableFeed(2)
	feed3 := syncableFeed(3)

	feeds := &mockFeedRepo{
		feeds: map[int64]*model.Feed{1: feed1, 2: feed2, 3: feed3},
		listAllFunc: func(_ context.Context) ([]*model.Feed, error) {
			return []*model.Feed{feed1, feed2, feed3}, nil
		},
	}

	// feed2のみフェッチに失敗させる
	fetcher := &mockEntryFetcher{
		fetchFunc: func(_ context.Context, url string) ([]model.ParsedEntry, error) {
			if url == feed2.URL {
				return nil, &model.FetchError{URL: url, Err: errors.New("unreachable")}
			}
			return []model.ParsedEntry{
				{Link: url + "/article", Title: "A"},
			}, nil
		},
	}

	svc, _ := newTestService(feeds, &mockArticleRepo{}, fetcher)

	report, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll() がエラーを返した: %v", err)
	}

	if report.TotalFeeds != 3 {
		t.Errorf("TotalFeeds = %d, want 3", report.TotalFeeds)
	}
	if report.SuccessfulSyncs != 2 {
		t.Errorf("SuccessfulSyncs = %d, want 2", report.SuccessfulSyncs)
	}
	if report.FailedSyncs != 1 {
		t.Errorf("FailedSyncs = %d, want 1", report.FailedSyncs)
	}
	if report.NewArticles != 2 {
		t.Errorf("NewArticles = %d, want 2", report.NewArticles)
	}
	if len(report.Outcomes) != 3 {
		t.Fatalf("Outcomes数 = %d, want 3", len(report.Outcomes))
	}

	// 結果の順序は走査順序（ID昇順）と一致すること
	for i, wantID := range []int64{1, 2, 3} {
		if report.Outcomes[i].FeedID != wantID {
			t.Errorf("Outcomes[%d].FeedID = %d, want %d", i, report.Outcomes[i].FeedID, wantID)
		}
	}

	// 失敗フィードの結果にはエラーメッセージが含まれること
	failed := report.Outcomes[1]
	if failed.Status != model.SyncStatusError {
		t.Errorf("Outcomes[1].Status = %q, want %q", failed.Status, model.SyncStatusError)
	}
	if failed.Error == "" {
		t.Error("失敗フィードの Error は空であってはならない")
	}

	// 成功フィードの結果にエラーメッセージは含まれないこと
	if report.Outcomes[0].Error != "" {
		t.Errorf("成功フィードの Error = %q, want 空", report.Outcomes[0].Error)
	}

	if report.FinishedAt.Before(report.StartedAt) {
		t.Error("FinishedAt は StartedAt 以降であるべき")
	}
}

func TestService_SyncAll_FailureIsolation(t *testing.T) {
	// 全5フィード中、2と4が失敗しても残りは処理される
	var feedList []*model.Feed
	feedMap := make(map[int64]*model.Feed)
	for id := int64(1); id <= 5; id++ {
		f := syncableFeed(id)
		feedList = append(feedList, f)
		feedMap[id] = f
	}

	feeds := &mockFeedRepo{
		feeds: feedMap,
		listAllFunc: func(_ context.Context) ([]*model.Feed, error) {
			return feedList, nil
		},
	}

	fetcher := &mockEntryFetcher{
		fetchFunc: func(_ context.Context, url string) ([]model.ParsedEntry, error) {
			if url == feedMap[2].URL || url == feedMap[4].URL {
				return nil, &model.ParseError{URL: url, Err: errors.New("broken")}
			}
			return nil, nil
		},
	}

	svc, _ := newTestService(feeds, &mockArticleRepo{}, fetcher)

	report, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll() がエラーを返した: %v", err)
	}

	if report.SuccessfulSyncs != 3 || report.FailedSyncs != 2 {
		t.Errorf("successful=%d failed=%d, want 3/2", report.SuccessfulSyncs, report.FailedSyncs)
	}

	// 全フィードがフェッチ対象になったこと（失敗が後続を止めない）
	if len(fetcher.fetchCalls) != 5 {
		t.Errorf("フェッチ回数 = %d, want 5", len(fetcher.fetchCalls))
	}
}

func TestService_SyncAll_GatedFeedsAreSkippedAsSuccess(t *testing.T) {
	// feed1は直前に同期済み、feed2は未同期
	feed1 := syncableFeed(1)
	recent := time.Now().Add(-30 * time.Second)
	feed1.LastSyncedAt = &recent
	feed2 := syncableFeed(2)

	feeds := &mockFeedRepo{
		feeds: map[int64]*model.Feed{1: feed1, 2: feed2},
		listAllFunc: func(_ context.Context) ([]*model.Feed, error) {
			return []*model.Feed{feed1, feed2}, nil
		},
	}

	fetcher := &mockEntryFetcher{
		fetchFunc: func(_ context.Context, _ string) ([]model.ParsedEntry, error) {
			return []model.ParsedEntry{{Link: "https://example.com/new", Title: "N"}}, nil
		},
	}

	svc, _ := newTestService(feeds, &mockArticleRepo{}, fetcher)

	report, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll() がエラーを返した: %v", err)
	}

	// ゲートによるスキップは失敗ではなく記事数0の成功
	if report.SuccessfulSyncs != 2 || report.FailedSyncs != 0 {
		t.Errorf("successful=%d failed=%d, want 2/0", report.SuccessfulSyncs, report.FailedSyncs)
	}
	if report.Outcomes[0].ArticlesCount != 0 {
		t.Errorf("ゲート対象の ArticlesCount = %d, want 0", report.Outcomes[0].ArticlesCount)
	}
	if report.NewArticles != 1 {
		t.Errorf("NewArticles = %d, want 1", report.NewArticles)
	}

	// ゲート対象のフィードはフェッチされないこと（グローバル同期はforceしない）
	if len(fetcher.fetchCalls) != 1 {
		t.Errorf("フェッチ回数 = %d, want 1", len(fetcher.fetchCalls))
	}
	if len(fetcher.fetchCalls) == 1 && fetcher.fetchCalls[0] != feed2.URL {
		t.Errorf("フェッチ対象 = %q, want %q", fetcher.fetchCalls[0], feed2.URL)
	}
}

func TestService_SyncAll_EmptyFeedList(t *testing.T) {
	feeds := &mockFeedRepo{
		listAllFunc: func(_ context.Context) ([]*model.Feed, error) {
			return nil, nil
		},
	}

	svc, _ := newTestService(feeds, &mockArticleRepo{}, &mockEntryFetcher{})

	report, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll() がエラーを返した: %v", err)
	}

	if report.TotalFeeds != 0 || len(report.Outcomes) != 0 {
		t.Errorf("空のフィード一覧に対して TotalFeeds=%d Outcomes=%d", report.TotalFeeds, len(report.Outcomes))
	}
}

func TestService_SyncAll_ListFailure(t *testing.T) {
	feeds := &mockFeedRepo{
		listAllFunc: func(_ context.Context) ([]*model.Feed, error) {
			return nil, errors.New("connection lost")
		},
	}

	svc, _ := newTestService(feeds, &mockArticleRepo{}, &mockEntryFetcher{})

	_, err := svc.SyncAll(context.Background())

	var dbErr *model.DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("エラー型 = %T, want *model.DatabaseError", err)
	}
}

// --- スケジューラのテスト ---

// mockSynchronizer はGlobalSynchronizerのテスト用モック。
type mockSynchronizer struct {
	calls chan struct{}
	err   error
}

func (m *mockSynchronizer) SyncAll(_ context.Context) (*model.GlobalSyncReport, error) {
	m.calls <- struct{}{}
	if m.err != nil {
		return nil, m.err
	}
	return &model.GlobalSyncReport{}, nil
}

func TestScheduler_Start_RunsImmediatelyAndPeriodically(t *testing.T) {
	gs := &mockSynchronizer{calls: make(chan struct{}, 10)}

	var buf bytes.Buffer
	scheduler := NewScheduler(gs, newTestLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scheduler.Start(ctx, 20*time.Millisecond)
		close(done)
	}()

	// 起動直後の1回 + ティッカーによる1回以上を待つ
	for i := 0; i < 2; i++ {
		select {
		case <-gs.calls:
		case <-time.After(2 * time.Second):
			t.Fatal("SyncAll が期待回数呼ばれなかった")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("キャンセル後にスケジューラが停止しなかった")
	}
}

func TestScheduler_Start_ContinuesAfterFailure(t *testing.T) {
	gs := &mockSynchronizer{
		calls: make(chan struct{}, 10),
		err:   errors.New("sync failed"),
	}

	var buf bytes.Buffer
	scheduler := NewScheduler(gs, newTestLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go scheduler.Start(ctx, 20*time.Millisecond)

	// 失敗してもスケジューラが停止せず、次の実行が行われること
	for i := 0; i < 2; i++ {
		select {
		case <-gs.calls:
		case <-time.After(2 * time.Second):
			t.Fatal("失敗後に SyncAll が再実行されなかった")
		}
	}
}
