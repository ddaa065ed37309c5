// Package model はドメインモデルを定義する。
package model

import "time"

// Feed は購読中のRSS/Atomフィードを表す。
// (UserID, URL) の組は一意であり、同一ユーザーが
// 同じURLを二重に購読することはできない。
type Feed struct {
	ID           int64
	UserID       int64
	Title        string
	URL          string
	Description  string
	Category     string
	LastSyncedAt *time.Time // 未同期の場合はnil。同期エンジンのみが更新する。
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
