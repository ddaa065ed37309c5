// Package article は記事の参照機能を提供する。
// 記事の作成は同期エンジン（syncerパッケージ）のみが行う。
package article

import (
	"context"

	"github.com/kazuki/feedhub/internal/model"
	"github.com/kazuki/feedhub/internal/repository"
)

// Service は記事の一覧・詳細取得を提供する。
type Service struct {
	articles repository.ArticleRepository
	feeds    repository.FeedRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(articles repository.ArticleRepository, feeds repository.FeedRepository) *Service {
	return &Service{
		articles: articles,
		feeds:    feeds,
	}
}

// List はフィルタ条件に一致する記事一覧を返す。
// フィルタは境界で1回だけ検証する。結果は常に閲覧ユーザーが所有する
// フィードの記事に限定され、feed_id指定時は明示的な所有者チェックも行う。
func (s *Service) List(ctx context.Context, userID int64, filter model.ArticleFilter) ([]*model.Article, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	if filter.FeedID != nil {
		feed, err := s.feeds.FindByID(ctx, *filter.FeedID)
		if err != nil {
			return nil, err
		}
		if feed == nil || feed.UserID != userID {
			return nil, model.NewFeedNotFoundError(*filter.FeedID)
		}
	}

	filter.UserID = userID
	return s.articles.List(ctx, filter)
}

// Get は指定IDの記事を取得する。
// 記事の属するフィードの所有者のみが参照できる。
func (s *Service) Get(ctx context.Context, userID, articleID int64) (*model.Article, error) {
	article, err := s.articles.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, model.NewArticleNotFoundError(articleID)
	}

	feed, err := s.feeds.FindByID(ctx, article.FeedID)
	if err != nil {
		return nil, err
	}
	if feed == nil || feed.UserID != userID {
		return nil, model.NewArticleNotFoundError(articleID)
	}
	return article, nil
}
