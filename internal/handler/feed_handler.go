package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kazuki/feedhub/internal/feed"
	"github.com/kazuki/feedhub/internal/middleware"
	"github.com/kazuki/feedhub/internal/model"
)

// FeedServiceInterface はフィードハンドラーが必要とするサービスインターフェース。
type FeedServiceInterface interface {
	// Create はフィードを登録する。
	Create(ctx context.Context, userID int64, input feed.CreateInput) (*model.Feed, error)
	// Get はフィード情報を取得する。
	Get(ctx context.Context, userID, feedID int64) (*model.Feed, error)
	// List はユーザーの全フィードを返す。
	List(ctx context.Context, userID int64) ([]*model.Feed, error)
	// Update はフィード情報を部分更新する。
	Update(ctx context.Context, userID, feedID int64, input feed.UpdateInput) (*model.Feed, error)
	// Delete はフィードと配下の記事を削除する。
	Delete(ctx context.Context, userID, feedID int64) error
}

// FeedHandler はフィード管理のHTTPハンドラー。
type FeedHandler struct {
	service FeedServiceInterface
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service FeedServiceInterface) *FeedHandler {
	return &FeedHandler{service: service}
}

// createFeedRequest はフィード登録リクエストのボディ。
type createFeedRequest struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// updateFeedRequest はフィード更新リクエストのボディ。nilフィールドは変更しない。
type updateFeedRequest struct {
	Title       *string `json:"title"`
	URL         *string `json:"url"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

// feedResponse はフィード情報のAPIレスポンス。
type feedResponse struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateFeed はフィード登録を処理する。
// POST /api/feeds
func (h *FeedHandler) CreateFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	if req.URL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("URLが空です"))
		return
	}

	created, err := h.service.Create(r.Context(), userID, feed.CreateInput{
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFeedResponse(created))
}

// GetFeed はフィード詳細を取得する。
// GET /api/feeds/:id
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	feedID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	f, err := h.service.Get(r.Context(), userID, feedID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFeedResponse(f))
}

// ListFeeds はユーザーのフィード一覧を取得する。
// GET /api/feeds
func (h *FeedHandler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	feeds, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]feedResponse, len(feeds))
	for i, f := range feeds {
		results[i] = toFeedResponse(f)
	}

	writeJSON(w, http.StatusOK, results)
}

// UpdateFeed はフィード情報を部分更新する。
// PATCH /api/feeds/:id
func (h *FeedHandler) UpdateFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	feedID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req updateFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), userID, feedID, feed.UpdateInput{
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFeedResponse(updated))
}

// DeleteFeed はフィードを削除する。配下の記事もカスケード削除される。
// DELETE /api/feeds/:id
func (h *FeedHandler) DeleteFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	feedID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, feedID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseIDParam はURLパスの:idパラメータをint64として解析する。
// 不正な場合は404を書き込みfalseを返す。
func parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "INVALID_ID",
			Message:  "IDの形式が不正です。",
			Category: "validation",
			Action:   "数値のIDを指定してください。",
		})
		return 0, false
	}
	return id, true
}

// toFeedResponse はmodel.FeedからAPIレスポンスに変換する。
func toFeedResponse(f *model.Feed) feedResponse {
	return feedResponse{
		ID:           f.ID,
		Title:        f.Title,
		URL:          f.URL,
		Description:  f.Description,
		Category:     f.Category,
		LastSyncedAt: f.LastSyncedAt,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}
