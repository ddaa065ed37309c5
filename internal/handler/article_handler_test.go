package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kazuki/feedhub/internal/model"
)

// mockArticleService はArticleServiceInterfaceのテスト用モック。
type mockArticleService struct {
	listFunc func(ctx context.Context, userID int64, filter model.ArticleFilter) ([]*model.Article, error)
	getFunc  func(ctx context.Context, userID, articleID int64) (*model.Article, error)
}

func (m *mockArticleService) List(ctx context.Context, userID int64, filter model.ArticleFilter) ([]*model.Article, error) {
	return m.listFunc(ctx, userID, filter)
}

func (m *mockArticleService) Get(ctx context.Context, userID, articleID int64) (*model.Article, error) {
	return m.getFunc(ctx, userID, articleID)
}

func newArticleTestRouter(svc ArticleServiceInterface) http.Handler {
	h := NewArticleHandler(svc)
	r := chi.NewRouter()
	r.Get("/api/articles", h.ListArticles)
	r.Get("/api/articles/{id}", h.GetArticle)
	return r
}

func TestArticleHandler_ListArticles_FilterParsing(t *testing.T) {
	var got model.ArticleFilter
	svc := &mockArticleService{
		listFunc: func(_ context.Context, _ int64, filter model.ArticleFilter) ([]*model.Article, error) {
			got = filter
			return nil, nil
		},
	}
	router := newArticleTestRouter(svc)

	target := "/api/articles?feed_id=3&from=2025-05-01T00:00:00Z&to=2025-06-01T00:00:00Z&q=golang&limit=20&offset=40"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedJSONRequest(http.MethodGet, target, ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	if got.FeedID == nil || *got.FeedID != 3 {
		t.Errorf("FeedID = %v, want 3", got.FeedID)
	}
	wantFrom := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	if got.From == nil || !got.From.Equal(wantFrom) {
		t.Errorf("From = %v, want %v", got.From, wantFrom)
	}
	if got.Search != "golang" {
		t.Errorf("Search = %q, want %q", got.Search, "golang")
	}
	if got.Limit != 20 || got.Offset != 40 {
		t.Errorf("Limit/Offset = %d/%d, want 20/40", got.Limit, got.Offset)
	}
}

func TestArticleHandler_ListArticles_InvalidFilter(t *testing.T) {
	svc := &mockArticleService{
		listFunc: func(_ context.Context, _ int64, _ model.ArticleFilter) ([]*model.Article, error) {
			t.Error("不正なフィルタでサービスが呼ばれてはならない")
			return nil, nil
		},
	}
	router := newArticleTestRouter(svc)

	tests := []string{
		"/api/articles?feed_id=abc",
		"/api/articles?feed_id=-1",
		"/api/articles?from=not-a-date",
		"/api/articles?limit=xyz",
	}

	for _, target := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedJSONRequest(http.MethodGet, target, ""))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestArticleHandler_ListArticles_ReturnsArticles(t *testing.T) {
	published := time.Date(2025, 5, 15, 9, 0, 0, 0, time.UTC)
	svc := &mockArticleService{
		listFunc: func(_ context.Context, _ int64, _ model.ArticleFilter) ([]*model.Article, error) {
			return []*model.Article{
				{ID: 1, FeedID: 3, Link: "https://example.com/a", Title: "A", PublishedAt: &published},
				{ID: 2, FeedID: 3, Link: "https://example.com/b", Title: "B"},
			}, nil
		},
	}
	router := newArticleTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedJSONRequest(http.MethodGet, "/api/articles", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp []articleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("記事数 = %d, want 2", len(resp))
	}
	if resp[1].PublishedAt != nil {
		t.Error("公開日時のない記事の published_at は null であるべき")
	}
}

func TestArticleHandler_GetArticle_NotFound(t *testing.T) {
	svc := &mockArticleService{
		getFunc: func(_ context.Context, _, articleID int64) (*model.Article, error) {
			return nil, model.NewArticleNotFoundError(articleID)
		},
	}
	router := newArticleTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedJSONRequest(http.MethodGet, "/api/articles/99", ""))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
