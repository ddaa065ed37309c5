package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/kazuki/feedhub/internal/middleware"
	"github.com/kazuki/feedhub/internal/model"
)

// ArticleServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type ArticleServiceInterface interface {
	// List はフィルタ条件に合致する記事一覧を返す。
	List(ctx context.Context, userID int64, filter model.ArticleFilter) ([]*model.Article, error)
	// Get は記事詳細を取得する。
	Get(ctx context.Context, userID, articleID int64) (*model.Article, error)
}

// ArticleHandler は記事閲覧のHTTPハンドラー。
type ArticleHandler struct {
	service ArticleServiceInterface
}

// NewArticleHandler はArticleHandlerを生成する。
func NewArticleHandler(service ArticleServiceInterface) *ArticleHandler {
	return &ArticleHandler{service: service}
}

// articleResponse は記事情報のAPIレスポンス。
type articleResponse struct {
	ID          int64      `json:"id"`
	FeedID      int64      `json:"feed_id"`
	Link        string     `json:"link"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	Author      string     `json:"author"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ListArticles は記事一覧を取得する。
// GET /api/articles?feed_id=&from=&to=&q=&limit=&offset=
func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	filter, err := parseArticleFilter(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	articles, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]articleResponse, len(articles))
	for i, a := range articles {
		results[i] = toArticleResponse(a)
	}

	writeJSON(w, http.StatusOK, results)
}

// GetArticle は記事詳細を取得する。
// GET /api/articles/:id
func (h *ArticleHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	articleID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	a, err := h.service.Get(r.Context(), userID, articleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArticleResponse(a))
}

// parseArticleFilter はクエリパラメータからArticleFilterを組み立てる。
// 値の検証はサービス層のfilter.Validateに委ねる。
func parseArticleFilter(r *http.Request) (model.ArticleFilter, error) {
	var filter model.ArticleFilter
	q := r.URL.Query()

	if raw := q.Get("feed_id"); raw != "" {
		feedID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || feedID <= 0 {
			return filter, model.NewInvalidFilterError("feed_idは正の整数で指定してください")
		}
		filter.FeedID = &feedID
	}

	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, model.NewInvalidFilterError("fromはRFC3339形式で指定してください")
		}
		filter.From = &from
	}

	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, model.NewInvalidFilterError("toはRFC3339形式で指定してください")
		}
		filter.To = &to
	}

	filter.Search = q.Get("q")

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, model.NewInvalidFilterError("limitは整数で指定してください")
		}
		filter.Limit = limit
	}

	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return filter, model.NewInvalidFilterError("offsetは整数で指定してください")
		}
		filter.Offset = offset
	}

	return filter, nil
}

// toArticleResponse はmodel.ArticleからAPIレスポンスに変換する。
func toArticleResponse(a *model.Article) articleResponse {
	return articleResponse{
		ID:          a.ID,
		FeedID:      a.FeedID,
		Link:        a.Link,
		Title:       a.Title,
		Description: a.Description,
		Content:     a.Content,
		Author:      a.Author,
		PublishedAt: a.PublishedAt,
		CreatedAt:   a.CreatedAt,
	}
}
