// Package feed はフィード登録・管理のドメインロジックを提供する。
package feed

import (
	"context"

	"github.com/kazuki/feedhub/internal/model"
	"github.com/kazuki/feedhub/internal/repository"
)

// FeedDetector はフィードURL自動検出のインターフェース。
type FeedDetector interface {
	// Detect は入力URLからフィードURLを解決する。
	Detect(ctx context.Context, inputURL string) (string, error)
}

// CreateInput はフィード登録の入力を表す。
type CreateInput struct {
	Title       string
	URL         string
	Description string
	Category    string
}

// UpdateInput はフィード更新の入力を表す。nilフィールドは変更しない。
type UpdateInput struct {
	Title       *string
	URL         *string
	Description *string
	Category    *string
}

// Service はフィードのCRUDを提供する。
type Service struct {
	feeds    repository.FeedRepository
	detector FeedDetector
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(feeds repository.FeedRepository, detector FeedDetector) *Service {
	return &Service{
		feeds:    feeds,
		detector: detector,
	}
}

// Create はフィードを登録する。
// 入力URLはフィード自動検出で解決され、HTMLページのURLでも登録できる。
// 同一ユーザーが同じURLを既に購読している場合はDuplicateFeedエラーを返す。
func (s *Service) Create(ctx context.Context, userID int64, input CreateInput) (*model.Feed, error) {
	if input.URL == "" {
		return nil, model.NewInvalidURLError("URLが空です")
	}

	feedURL, err := s.detector.Detect(ctx, input.URL)
	if err != nil {
		return nil, err
	}

	existing, err := s.feeds.FindByUserAndURL(ctx, userID, feedURL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewDuplicateFeedError(feedURL)
	}

	title := input.Title
	if title == "" {
		title = feedURL
	}

	feed := &model.Feed{
		UserID:      userID,
		Title:       title,
		URL:         feedURL,
		Description: input.Description,
		Category:    input.Category,
	}
	if err := s.feeds.Create(ctx, feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// Get は指定IDのフィードを取得する。
// 他ユーザーのフィードは存在しないものとして扱う。
func (s *Service) Get(ctx context.Context, userID, feedID int64) (*model.Feed, error) {
	feed, err := s.feeds.FindByID(ctx, feedID)
	if err != nil {
		return nil, err
	}
	if feed == nil || feed.UserID != userID {
		return nil, model.NewFeedNotFoundError(feedID)
	}
	return feed, nil
}

// List はユーザーのフィード一覧をID昇順で返す。
func (s *Service) List(ctx context.Context, userID int64) ([]*model.Feed, error) {
	return s.feeds.ListByUserID(ctx, userID)
}

// Update はフィードの属性を部分更新する。
// URLを変更する場合は重複チェックを再度行う。
func (s *Service) Update(ctx context.Context, userID, feedID int64, input UpdateInput) (*model.Feed, error) {
	feed, err := s.Get(ctx, userID, feedID)
	if err != nil {
		return nil, err
	}

	if input.URL != nil && *input.URL != feed.URL {
		existing, err := s.feeds.FindByUserAndURL(ctx, userID, *input.URL)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, model.NewDuplicateFeedError(*input.URL)
		}
		feed.URL = *input.URL
	}
	if input.Title != nil {
		feed.Title = *input.Title
	}
	if input.Description != nil {
		feed.Description = *input.Description
	}
	if input.Category != nil {
		feed.Category = *input.Category
	}

	if err := s.feeds.Update(ctx, feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// Delete はフィードを削除する。記事はCASCADE削除される。
func (s *Service) Delete(ctx context.Context, userID, feedID int64) error {
	if _, err := s.Get(ctx, userID, feedID); err != nil {
		return err
	}
	return s.feeds.Delete(ctx, feedID)
}
