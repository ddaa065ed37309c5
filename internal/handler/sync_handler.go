package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/kazuki/feedhub/internal/middleware"
	"github.com/kazuki/feedhub/internal/model"
)

// SyncServiceInterface は同期ハンドラーが必要とする同期エンジンのインターフェース。
type SyncServiceInterface interface {
	// SyncFeed は単一フィードを同期する。
	SyncFeed(ctx context.Context, feedID int64, force bool) (*model.SyncResult, error)
	// SyncAll は全フィードを同期し、集計レポートを返す。
	SyncAll(ctx context.Context) (*model.GlobalSyncReport, error)
}

// FeedOwnershipChecker はフィードの所有者検証に必要なインターフェース。
// feed.Serviceの部分集合として定義する。
type FeedOwnershipChecker interface {
	Get(ctx context.Context, userID, feedID int64) (*model.Feed, error)
}

// SyncHandler は手動同期のHTTPハンドラー。
type SyncHandler struct {
	syncer SyncServiceInterface
	feeds  FeedOwnershipChecker
}

// NewSyncHandler はSyncHandlerを生成する。
func NewSyncHandler(syncer SyncServiceInterface, feeds FeedOwnershipChecker) *SyncHandler {
	return &SyncHandler{
		syncer: syncer,
		feeds:  feeds,
	}
}

// syncFeedRequest は単一フィード同期リクエストのボディ。ボディは省略可能。
type syncFeedRequest struct {
	Force bool `json:"force"`
}

// syncResultResponse は単一フィード同期のAPIレスポンス。
type syncResultResponse struct {
	FeedID        int64     `json:"feed_id"`
	InsertedCount int       `json:"inserted_count"`
	SyncedAt      time.Time `json:"synced_at"`
}

// SyncFeed は単一フィードの手動同期を処理する。
// POST /api/feeds/:id/sync
//
// ボディで force=true を指定すると最小同期間隔のゲートを無視する。
func (h *SyncHandler) SyncFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	feedID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	// ボディは省略可能。EOFはforce=falseとして扱う。
	var req syncFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeInvalidBody(w)
		return
	}

	// 他ユーザーのフィードは存在しないものとして扱う
	if _, err := h.feeds.Get(r.Context(), userID, feedID); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.syncer.SyncFeed(r.Context(), feedID, req.Force)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, syncResultResponse{
		FeedID:        result.FeedID,
		InsertedCount: result.InsertedCount,
		SyncedAt:      result.SyncedAt,
	})
}

// SyncAll は全フィードの一括同期を処理する。
// POST /api/sync
//
// 一部のフィードが失敗しても処理は継続し、フィードごとの結果を含む
// 集計レポートを200で返す。
func (h *SyncHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.syncer.SyncAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
