// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Favorite はユーザーと記事のお気に入り関係を表す。
// (UserID, ArticleID) の組は一意。
type Favorite struct {
	ID        int64
	UserID    int64
	ArticleID int64
	CreatedAt time.Time
}
