package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kazuki/feedhub/internal/model"
)

// PostgresFeedRepo はPostgreSQLを使用したフィードリポジトリ。
type PostgresFeedRepo struct {
	db *sql.DB
}

// NewPostgresFeedRepo はPostgresFeedRepoを生成する。
func NewPostgresFeedRepo(db *sql.DB) *PostgresFeedRepo {
	return &PostgresFeedRepo{db: db}
}

const feedColumns = `id, user_id, title, url, description, category, last_synced_at, created_at, updated_at`

// scanFeed は1行分のフィードをスキャンする。
func scanFeed(row interface {
	Scan(dest ...interface{}) error
}) (*model.Feed, error) {
	feed := &model.Feed{}
	var lastSyncedAt sql.NullTime

	err := row.Scan(
		&feed.ID, &feed.UserID, &feed.Title, &feed.URL,
		&feed.Description, &feed.Category, &lastSyncedAt,
		&feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastSyncedAt.Valid {
		feed.LastSyncedAt = &lastSyncedAt.Time
	}
	return feed, nil
}

// FindByID は指定IDのフィードを取得する。見つからない場合はnilを返す。
func (r *PostgresFeedRepo) FindByID(ctx context.Context, id int64) (*model.Feed, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+feedColumns+` FROM feeds WHERE id = $1`, id)

	feed, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("フィードの取得に失敗しました: %w", err)
	}
	return feed, nil
}

// FindByUserAndURL はユーザーIDとURLでフィードを検索する。見つからない場合はnilを返す。
func (r *PostgresFeedRepo) FindByUserAndURL(ctx context.Context, userID int64, url string) (*model.Feed, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+feedColumns+` FROM feeds WHERE user_id = $1 AND url = $2`, userID, url)

	feed, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("URLによるフィードの検索に失敗しました: %w", err)
	}
	return feed, nil
}

// ListByUserID はユーザーのフィード一覧をID昇順で返す。
func (r *PostgresFeedRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Feed, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+feedColumns+` FROM feeds WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("フィード一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectFeeds(rows)
}

// ListAll は全フィードをID昇順で返す。
// ID昇順がグローバル同期の走査順序となる。
func (r *PostgresFeedRepo) ListAll(ctx context.Context) ([]*model.Feed, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+feedColumns+` FROM feeds ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("全フィードの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectFeeds(rows)
}

// collectFeeds は結果セットの全行をスキャンして返す。
func collectFeeds(rows *sql.Rows) ([]*model.Feed, error) {
	var feeds []*model.Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("フィード行のスキャンに失敗しました: %w", err)
		}
		feeds = append(feeds, feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フィード一覧の走査に失敗しました: %w", err)
	}
	return feeds, nil
}

// Create はフィードを作成し、採番されたIDをfeed.IDに設定する。
func (r *PostgresFeedRepo) Create(ctx context.Context, feed *model.Feed) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO feeds (user_id, title, url, description, category)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		feed.UserID, feed.Title, feed.URL, feed.Description, feed.Category,
	).Scan(&feed.ID, &feed.CreatedAt, &feed.UpdatedAt)
	if err != nil {
		return fmt.Errorf("フィードの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はフィードのタイトル・URL・説明・カテゴリを更新する。
func (r *PostgresFeedRepo) Update(ctx context.Context, feed *model.Feed) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE feeds
		 SET title = $1, url = $2, description = $3, category = $4, updated_at = now()
		 WHERE id = $5`,
		feed.Title, feed.URL, feed.Description, feed.Category, feed.ID,
	)
	if err != nil {
		return fmt.Errorf("フィードの更新に失敗しました: %w", err)
	}
	return nil
}

// UpdateLastSyncedAt はフィードの最終同期日時を更新する。
func (r *PostgresFeedRepo) UpdateLastSyncedAt(ctx context.Context, id int64, syncedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE feeds SET last_synced_at = $1, updated_at = now() WHERE id = $2`,
		syncedAt, id,
	)
	if err != nil {
		return fmt.Errorf("最終同期日時の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのフィードを削除する。記事はCASCADE削除される。
func (r *PostgresFeedRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM feeds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("フィードの削除に失敗しました: %w", err)
	}
	return nil
}
