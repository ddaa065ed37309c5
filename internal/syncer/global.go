package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kazuki/feedhub/internal/model"
)

// SyncAll は全フィードに対して同期パスを1回ずつ実行し、集計レポートを返す。
//
// フィードはID昇順で走査し、semaphoreパターンで最大並列数を制御しながら
// 並列にフェッチする。結果はフィードごとにインデックス固定のスロットへ
// 書き込むため、レポートの順序は走査順序と常に一致する。
//
// フィード単位の障害は分離される: あるフィードのフェッチ・パース・
// ストレージ障害はerror結果として記録され、残りのフィードの処理を
// 中断させない。ゲートにより不適格なフィードは記事数0のsuccess結果として
// 記録される（スキップは失敗ではない）。グローバル同期がforceフラグを
// 使うことはない。
//
// 一括書き込みのトランザクション境界はフィード単位のままであり、
// フィード間をまたぐ単一トランザクションにはしない。
func (s *Service) SyncAll(ctx context.Context) (*model.GlobalSyncReport, error) {
	startedAt := time.Now()

	feeds, err := s.feeds.ListAll(ctx)
	if err != nil {
		return nil, &model.DatabaseError{Op: "全フィードのロード", Err: err}
	}

	s.logger.Info("グローバル同期を開始します",
		slog.Int("feed_count", len(feeds)),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	outcomes := make([]model.SyncOutcome, len(feeds))

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for i, feed := range feeds {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, f *model.Feed) {
			defer wg.Done()
			defer func() { <-sem }()

			outcomes[idx] = s.syncOne(ctx, f)
		}(i, feed)
	}

	wg.Wait()

	report := &model.GlobalSyncReport{
		TotalFeeds: len(feeds),
		Outcomes:   outcomes,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	for _, outcome := range outcomes {
		if outcome.Status == model.SyncStatusSuccess {
			report.SuccessfulSyncs++
			report.NewArticles += outcome.ArticlesCount
		} else {
			report.FailedSyncs++
		}
	}

	s.logger.Info("グローバル同期が完了しました",
		slog.Int("total_feeds", report.TotalFeeds),
		slog.Int("successful_syncs", report.SuccessfulSyncs),
		slog.Int("failed_syncs", report.FailedSyncs),
		slog.Int("new_articles", report.NewArticles),
		slog.Float64("duration_ms", float64(report.FinishedAt.Sub(report.StartedAt).Milliseconds())),
	)

	return report, nil
}

// syncOne はグローバル同期におけるフィード1件分の処理を行い、結果に変換する。
// SyncFeedが返すあらゆるエラーはここで捕捉され、error結果に降格される。
func (s *Service) syncOne(ctx context.Context, feed *model.Feed) model.SyncOutcome {
	outcome := model.SyncOutcome{
		FeedID:  feed.ID,
		FeedURL: feed.URL,
	}

	// ゲート評価: 不適格なフィードはフェッチせず、記事数0の成功として記録する
	decision := EvaluateGate(feed.LastSyncedAt, false, time.Now())
	if !decision.Eligible {
		outcome.Status = model.SyncStatusSuccess
		return outcome
	}

	result, err := s.SyncFeed(ctx, feed.ID, false)
	if err != nil {
		// ゲート評価とSyncFeed内部の再評価の間で別パスが同期を終えた場合も
		// スキップ扱いとし、失敗には数えない
		var rateLimited *model.RateLimitedError
		var inProgress *model.SyncInProgressError
		if errors.As(err, &rateLimited) || errors.As(err, &inProgress) {
			outcome.Status = model.SyncStatusSuccess
			return outcome
		}

		s.logger.Error("フィード同期に失敗しました",
			slog.Int64("feed_id", feed.ID),
			slog.String("feed_url", feed.URL),
			slog.String("error", err.Error()),
		)
		outcome.Status = model.SyncStatusError
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Status = model.SyncStatusSuccess
	outcome.ArticlesCount = result.InsertedCount
	return outcome
}
