package syncer

import (
	"context"
	"log/slog"
	"time"

	"github.com/kazuki/feedhub/internal/model"
)

// GlobalSynchronizer はグローバル同期の実行インターフェース。
type GlobalSynchronizer interface {
	// SyncAll は全フィードに対して同期パスを1回ずつ実行し、集計レポートを返す。
	SyncAll(ctx context.Context) (*model.GlobalSyncReport, error)
}

// Scheduler はグローバル同期の定期実行を行う。
// ティッカー間隔ごとにSyncAllを起動し、コンテキストがキャンセルされるまで
// 実行を継続する。
type Scheduler struct {
	synchronizer GlobalSynchronizer
	logger       *slog.Logger
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(synchronizer GlobalSynchronizer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		synchronizer: synchronizer,
		logger:       logger,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// 起動直後に1回実行し、以降はティッカーごとに実行する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("同期スケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("同期スケジューラを停止しました")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce はグローバル同期を1回実行する。
// 失敗してもスケジューラ自体は停止しない。
func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.synchronizer.SyncAll(ctx); err != nil {
		s.logger.Error("グローバル同期の実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}
