package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kazuki/feedhub/internal/model"
)

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
type PostgresFavoriteRepo struct {
	db *sql.DB
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

// Create はお気に入りを作成する。
// UNIQUE(user_id, article_id)制約を利用したINSERT ON CONFLICT DO NOTHINGにより、
// 既に存在する場合は何もしない（冪等）。
func (r *PostgresFavoriteRepo) Create(ctx context.Context, userID, articleID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, article_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, article_id) DO NOTHING`,
		userID, articleID,
	)
	if err != nil {
		return fmt.Errorf("お気に入りの作成に失敗しました: %w", err)
	}
	return nil
}

// Delete はユーザーIDと記事IDでお気に入りを削除する。
// 削除対象が存在した場合はtrueを返す。
func (r *PostgresFavoriteRepo) Delete(ctx context.Context, userID, articleID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND article_id = $2`,
		userID, articleID,
	)
	if err != nil {
		return false, fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// ListArticlesByUserID はユーザーがお気に入り登録した記事一覧を登録日時降順で返す。
func (r *PostgresFavoriteRepo) ListArticlesByUserID(ctx context.Context, userID int64, limit, offset int) ([]*model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.feed_id, a.link, a.title, a.description, a.content, a.author, a.published_at, a.created_at
		 FROM favorites f
		 JOIN articles a ON a.id = f.article_id
		 WHERE f.user_id = $1
		 ORDER BY f.created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("お気に入り記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var articles []*model.Article
	for rows.Next() {
		article := &model.Article{}
		var publishedAt sql.NullTime
		err := rows.Scan(
			&article.ID, &article.FeedID, &article.Link, &article.Title,
			&article.Description, &article.Content, &article.Author,
			&publishedAt, &article.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("お気に入り記事行のスキャンに失敗しました: %w", err)
		}
		if publishedAt.Valid {
			article.PublishedAt = &publishedAt.Time
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("お気に入り記事一覧の走査に失敗しました: %w", err)
	}
	return articles, nil
}
