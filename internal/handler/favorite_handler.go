package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kazuki/feedhub/internal/middleware"
	"github.com/kazuki/feedhub/internal/model"
)

// FavoriteServiceInterface はお気に入りハンドラーが必要とするサービスインターフェース。
type FavoriteServiceInterface interface {
	// Add は記事をお気に入りに追加する。冪等。
	Add(ctx context.Context, userID, articleID int64) error
	// Remove は記事をお気に入りから削除する。
	Remove(ctx context.Context, userID, articleID int64) error
	// List はお気に入り記事の一覧を返す。
	List(ctx context.Context, userID int64, limit, offset int) ([]*model.Article, error)
}

// FavoriteHandler はお気に入り管理のHTTPハンドラー。
type FavoriteHandler struct {
	service FavoriteServiceInterface
}

// NewFavoriteHandler はFavoriteHandlerを生成する。
func NewFavoriteHandler(service FavoriteServiceInterface) *FavoriteHandler {
	return &FavoriteHandler{service: service}
}

// AddFavorite は記事をお気に入りに追加する。
// POST /api/articles/:id/favorite
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	articleID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Add(r.Context(), userID, articleID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveFavorite は記事をお気に入りから削除する。
// DELETE /api/articles/:id/favorite
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	articleID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), userID, articleID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFavorites はお気に入り記事の一覧を取得する。
// GET /api/favorites?limit=&offset=
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	articles, err := h.service.List(r.Context(), userID, limit, offset)
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
