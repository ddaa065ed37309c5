package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kazuki/feedhub/internal/model"
	"github.com/kazuki/feedhub/internal/repository"
)

// EntryFetcher はフィードのフェッチとパースのインターフェース。
type EntryFetcher interface {
	// Fetch はフィードURLを取得し、パース済みエントリの列を返す。
	Fetch(ctx context.Context, feedURL string) ([]model.ParsedEntry, error)
}

// MetricsRecorder は同期メトリクス収集のインターフェース。
type MetricsRecorder interface {
	RecordSyncSuccess()
	RecordSyncFailure()
	RecordParseFailure()
	RecordArticlesInserted(count int)
	RecordSyncDuration(d time.Duration)
}

// Service はフィード同期エンジンの本体。
// 単一フィード同期（手動）とグローバル同期（全フィード走査）の両方を提供する。
type Service struct {
	feeds      repository.FeedRepository
	articles   repository.ArticleRepository
	fetcher    EntryFetcher
	normalizer *Normalizer
	metrics    MetricsRecorder
	logger     *slog.Logger

	maxConcurrency int

	// inFlight は実行中の同期パスをフィードIDで追跡する。
	// 1つのフィードIDに対して同時に2つの同期パスは走らない。
	inFlight sync.Map
}

// NewService はServiceの新しいインスタンスを生成する。
// maxConcurrencyはグローバル同期の最大並列数。0以下の場合はデフォルト値10を使用する。
func NewService(
	feeds repository.FeedRepository,
	articles repository.ArticleRepository,
	fetcher EntryFetcher,
	normalizer *Normalizer,
	metrics MetricsRecorder,
	logger *slog.Logger,
	maxConcurrency int,
) *Service {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	return &Service{
		feeds:          feeds,
		articles:       articles,
		fetcher:        fetcher,
		normalizer:     normalizer,
		metrics:        metrics,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// SyncFeed は指定フィードの同期パスを1回実行する。
//
// 処理は線形でリトライを持たない:
//  1. フィードをロード（存在しない場合はmodel.FeedNotFoundError）
//  2. 同期ゲートを評価（不適格の場合はmodel.RateLimitedError。forceで迂回可能）
//  3. フェッチ + パース（失敗はmodel.FetchError / model.ParseError。状態は変更しない）
//  4. ノーマライズして一括書き込み（失敗はmodel.DatabaseError）
//  5. 最終同期日時を現在時刻に更新
//
// (4)成功後(5)以前に中断された場合、最終同期日時は次のパスまで古いままとなるが、
// ゲートは頻度のみを制御し、一括書き込みの冪等性が再処理を吸収するため許容される。
func (s *Service) SyncFeed(ctx context.Context, feedID int64, force bool) (*model.SyncResult, error) {
	if _, loaded := s.inFlight.LoadOrStore(feedID, struct{}{}); loaded {
		return nil, &model.SyncInProgressError{FeedID: feedID}
	}
	defer s.inFlight.Delete(feedID)

	start := time.Now()

	feed, err := s.feeds.FindByID(ctx, feedID)
	if err != nil {
		return nil, &model.DatabaseError{Op: "フィードのロード", Err: err}
	}
	if feed == nil {
		return nil, &model.FeedNotFoundError{FeedID: feedID}
	}

	decision := EvaluateGate(feed.LastSyncedAt, force, time.Now())
	if !decision.Eligible {
		return nil, &model.RateLimitedError{FeedID: feedID, Remaining: decision.Remaining}
	}

	entries, err := s.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	articles := s.normalizer.Normalize(feed.ID, entries)

	inserted, err := s.articles.BulkCreate(ctx, articles)
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	syncedAt := time.Now()
	if err := s.feeds.UpdateLastSyncedAt(ctx, feed.ID, syncedAt); err != nil {
		s.recordFailure(err)
		return nil, &model.DatabaseError{Op: "最終同期日時の更新", Err: err}
	}

	duration := time.Since(start)
	s.metrics.RecordSyncSuccess()
	s.metrics.RecordArticlesInserted(inserted)
	s.metrics.RecordSyncDuration(duration)

	s.logger.Info("フィード同期が完了しました",
		slog.Int64("feed_id", feed.ID),
		slog.String("feed_url", feed.URL),
		slog.Int("entries_total", len(entries)),
		slog.Int("articles_inserted", inserted),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return &model.SyncResult{
		FeedID:        feed.ID,
		InsertedCount: inserted,
		SyncedAt:      syncedAt,
	}, nil
}

// recordFailure は失敗メトリクスを記録する。
// パース失敗は専用カウンタにも計上する。
func (s *Service) recordFailure(err error) {
	s.metrics.RecordSyncFailure()
	var parseErr *model.ParseError
	if errors.As(err, &parseErr) {
		s.metrics.RecordParseFailure()
	}
}
