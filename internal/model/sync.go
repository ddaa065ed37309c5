// Package model はドメインモデルを定義する。
package model

import "time"

// SyncStatus はフィード単位の同期結果の状態を表す。
type SyncStatus string

const (
	// SyncStatusSuccess は同期成功（ゲートによるスキップを含む）。
	SyncStatusSuccess SyncStatus = "success"
	// SyncStatusError は同期失敗。
	SyncStatusError SyncStatus = "error"
)

// SyncResult は単一フィード同期の成功結果を表す。
type SyncResult struct {
	FeedID        int64
	InsertedCount int
	SyncedAt      time.Time
}

// SyncOutcome はグローバル同期におけるフィード1件分の結果を表す。
// 永続化されず、1回のグローバル同期ごとにフィードあたり1件生成される。
type SyncOutcome struct {
	FeedID        int64      `json:"feed_id"`
	FeedURL       string     `json:"feed_url"`
	ArticlesCount int        `json:"articles_count"`
	Status        SyncStatus `json:"status"`
	Error         string     `json:"error,omitempty"`
}

// GlobalSyncReport はグローバル同期1回分の集計レポートを表す。
// Outcomesの順序はフィードの走査順序（ID昇順）と一致する。
type GlobalSyncReport struct {
	TotalFeeds      int           `json:"total_feeds"`
	SuccessfulSyncs int           `json:"successful_syncs"`
	FailedSyncs     int           `json:"failed_syncs"`
	NewArticles     int           `json:"new_articles"`
	Outcomes        []SyncOutcome `json:"outcomes"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
}
