// Package favorite はユーザーごとのお気に入り記事の管理機能を提供する。
package favorite

import (
	"context"

	"github.com/kazuki/feedhub/internal/model"
	"github.com/kazuki/feedhub/internal/repository"
)

// Service はお気に入りの追加・削除・一覧を提供する。
type Service struct {
	favorites repository.FavoriteRepository
	articles  repository.ArticleRepository
	feeds     repository.FeedRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(favorites repository.FavoriteRepository, articles repository.ArticleRepository, feeds repository.FeedRepository) *Service {
	return &Service{
		favorites: favorites,
		articles:  articles,
		feeds:     feeds,
	}
}

// Add は記事をお気に入りに追加する。既に追加済みの場合も成功を返す（冪等）。
// 記事の属するフィードの所有者以外には記事が存在しないものとして扱う。
func (s *Service) Add(ctx context.Context, userID, articleID int64) error {
	article, err := s.articles.FindByID(ctx, articleID)
	if err != nil {
		return err
	}
	if article == nil {
		return model.NewArticleNotFoundError(articleID)
	}

	feed, err := s.feeds.FindByID(ctx, article.FeedID)
	if err != nil {
		return err
	}
	if feed == nil || feed.UserID != userID {
		return model.NewArticleNotFoundError(articleID)
	}

	return s.favorites.Create(ctx, userID, articleID)
}

// Remove は記事をお気に入りから削除する。
// お気に入りに存在しない場合はFavoriteNotFoundエラーを返す。
func (s *Service) Remove(ctx context.Context, userID, articleID int64) error {
	deleted, err := s.favorites.Delete(ctx, userID, articleID)
	if err != nil {
		return err
	}
	if !deleted {
		return &model.APIError{
			Code:     model.ErrCodeFavoriteNotFound,
			Message:  "指定された記事はお気に入りに登録されていません。",
			Category: "feed",
			Action:   "お気に入り一覧を確認してください。",
		}
	}
	return nil
}

// List はユーザーのお気に入り記事一覧を登録日時降順で返す。
func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]*model.Article, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.favorites.ListArticlesByUserID(ctx, userID, limit, offset)
}
