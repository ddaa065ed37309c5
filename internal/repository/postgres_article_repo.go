package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kazuki/feedhub/internal/model"
)

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

const articleColumns = `id, feed_id, link, title, description, content, author, published_at, created_at`

// scanArticle は1行分の記事をスキャンする。
func scanArticle(row interface {
	Scan(dest ...interface{}) error
}) (*model.Article, error) {
	article := &model.Article{}
	var publishedAt sql.NullTime

	err := row.Scan(
		&article.ID, &article.FeedID, &article.Link, &article.Title,
		&article.Description, &article.Content, &article.Author,
		&publishedAt, &article.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		article.PublishedAt = &publishedAt.Time
	}
	return article, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindByID(ctx context.Context, id int64) (*model.Article, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	return article, nil
}

// BulkCreate は記事のバッチを単一トランザクションで冪等に挿入する。
// linkの一意制約を利用したINSERT ON CONFLICT DO NOTHINGにより、
// 既存の同一性キーを持つ記事は黙ってスキップされる。
// 戻り値は実際に挿入された行数。途中でストレージ障害が発生した場合は
// 全件ロールバックし、model.DatabaseErrorとして返す。
func (r *PostgresArticleRepo) BulkCreate(ctx context.Context, articles []*model.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &model.DatabaseError{Op: "トランザクション開始", Err: err}
	}
	defer tx.Rollback()

	inserted := 0
	for _, article := range articles {
		var publishedAt sql.NullTime
		if article.PublishedAt != nil {
			publishedAt = sql.NullTime{Time: *article.PublishedAt, Valid: true}
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO articles (feed_id, link, title, description, content, author, published_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (link) DO NOTHING`,
			article.FeedID, article.Link, article.Title,
			article.Description, article.Content, article.Author, publishedAt,
		)
		if err != nil {
			return 0, &model.DatabaseError{Op: "記事の挿入", Err: err}
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return 0, &model.DatabaseError{Op: "挿入件数の取得", Err: err}
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, &model.DatabaseError{Op: "トランザクションコミット", Err: err}
	}

	return inserted, nil
}

// List はフィルタ条件に一致する記事をpublished_at降順で返す。
// UserIDが設定されている場合、当該ユーザーが所有するフィードの記事に限定する。
func (r *PostgresArticleRepo) List(ctx context.Context, filter model.ArticleFilter) ([]*model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE 1=1`
	var args []interface{}
	argIndex := 1

	if filter.UserID != 0 {
		query += fmt.Sprintf(" AND feed_id IN (SELECT id FROM feeds WHERE user_id = $%d)", argIndex)
		args = append(args, filter.UserID)
		argIndex++
	}
	if filter.FeedID != nil {
		query += fmt.Sprintf(" AND feed_id = $%d", argIndex)
		args = append(args, *filter.FeedID)
		argIndex++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND published_at >= $%d", argIndex)
		args = append(args, *filter.From)
		argIndex++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND published_at <= $%d", argIndex)
		args = append(args, *filter.To)
		argIndex++
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY published_at DESC NULLS LAST, id DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var articles []*model.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("記事行のスキャンに失敗しました: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}
	return articles, nil
}
