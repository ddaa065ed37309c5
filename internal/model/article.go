// Package model はドメインモデルを定義する。
package model

import "time"

// Article はフィードから取り込んだ記事を表す。
// Linkが同一性キーであり、全フィードを通じてグローバルに一意。
// 同期エンジンは作成のみを行い、取り込み後に更新することはない。
type Article struct {
	ID          int64
	FeedID      int64
	Link        string // 同一性キー。エントリのlink、なければGUIDを採用する。
	Title       string
	Description string // サニタイズ済み
	Content     string // サニタイズ済みHTML
	Author      string
	PublishedAt *time.Time // 日付が欠落・解析不能の場合はnil
	CreatedAt   time.Time
}

// ParsedEntry はフィードパーサーが返す未保存のエントリを表す。
// フェッチャーがパースした後、ノーマライザに渡される。
type ParsedEntry struct {
	Link        string
	GUID        string
	Title       string
	Description string // 未サニタイズ
	Content     string // 未サニタイズのHTML
	Author      string
	PublishedAt *time.Time
}

// ArticleFilter は記事一覧の検索条件を表す。
// UserID以外のフィールドは省略可能で、境界で1回だけ検証する。
type ArticleFilter struct {
	UserID int64 // 閲覧ユーザー。クライアント入力ではなくサービス層が設定する。
	FeedID *int64
	From   *time.Time
	To     *time.Time
	Search string // タイトル・説明文に対する部分一致
	Limit  int
	Offset int
}

// defaultArticlesPerPage は記事一覧の1回の取得件数（デフォルト）。
const defaultArticlesPerPage = 50

// maxArticlesPerPage は記事一覧の1回の取得件数の上限。
const maxArticlesPerPage = 200

// Validate はフィルタの整合性を検証し、未指定のページネーション値を補完する。
func (f *ArticleFilter) Validate() error {
	if f.Limit <= 0 {
		f.Limit = defaultArticlesPerPage
	}
	if f.Limit > maxArticlesPerPage {
		f.Limit = maxArticlesPerPage
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.FeedID != nil && *f.FeedID <= 0 {
		return NewInvalidFilterError("feed_idは正の整数を指定してください")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return NewInvalidFilterError("fromはto以前の日時を指定してください")
	}
	return nil
}
