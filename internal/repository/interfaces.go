// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/kazuki/feedhub/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDをuser.IDに設定する。
	Create(ctx context.Context, user *model.User) error
}

// FeedRepository はフィードデータの永続化インターフェース。
type FeedRepository interface {
	// FindByID は指定IDのフィードを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Feed, error)

	// FindByUserAndURL はユーザーIDとURLでフィードを検索する。見つからない場合はnilを返す。
	FindByUserAndURL(ctx context.Context, userID int64, url string) (*model.Feed, error)

	// ListByUserID はユーザーのフィード一覧をID昇順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.Feed, error)

	// ListAll は全フィードをID昇順で返す。グローバル同期の走査順序を定める。
	ListAll(ctx context.Context) ([]*model.Feed, error)

	// Create はフィードを作成し、採番されたIDをfeed.IDに設定する。
	Create(ctx context.Context, feed *model.Feed) error

	// Update はフィードのタイトル・URL・説明・カテゴリを更新する。
	Update(ctx context.Context, feed *model.Feed) error

	// UpdateLastSyncedAt はフィードの最終同期日時を更新する。
	// 同期エンジンのみが呼び出す。
	UpdateLastSyncedAt(ctx context.Context, id int64, syncedAt time.Time) error

	// Delete は指定IDのフィードを削除する。記事はCASCADE削除される。
	Delete(ctx context.Context, id int64) error
}

// ArticleRepository は記事データの永続化インターフェース。
type ArticleRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Article, error)

	// BulkCreate は記事のバッチを単一トランザクションで冪等に挿入する。
	// 同一性キー（link）が既存の記事は黙ってスキップされ、エラーにならない。
	// 戻り値は実際に挿入された行数（入力件数ではない）。
	// 重複検出の唯一の責務担当であり、呼び出し側は事前フィルタしない。
	BulkCreate(ctx context.Context, articles []*model.Article) (int, error)

	// List はフィルタ条件に一致する記事をpublished_at降順で返す。
	// filterは呼び出し前にValidate済みであること。
	List(ctx context.Context, filter model.ArticleFilter) ([]*model.Article, error)
}

// FavoriteRepository はお気に入りデータの永続化インターフェース。
type FavoriteRepository interface {
	// Create はお気に入りを作成する。既に存在する場合は何もしない（冪等）。
	Create(ctx context.Context, userID, articleID int64) error

	// Delete はユーザーIDと記事IDでお気に入りを削除する。
	// 削除対象が存在した場合はtrueを返す。
	Delete(ctx context.Context, userID, articleID int64) (bool, error)

	// ListArticlesByUserID はユーザーがお気に入り登録した記事一覧を
	// 登録日時降順で返す。
	ListArticlesByUserID(ctx context.Context, userID int64, limit, offset int) ([]*model.Article, error)
}
