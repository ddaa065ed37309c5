// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/kazuki/feedhub/internal/model"
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
// RetryAfterSecondsは429レスポンスのみで設定される。
type apiErrorResponse struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	Category          string `json:"category"`
	Action            string `json:"action"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeRateLimitedResponse は同期ゲート拒否の429レスポンスを書き込む。
// 残り待機時間を retry_after_seconds フィールドと Retry-After ヘッダで
// 機械可読に返す（秒単位に切り上げ、最低1秒）。
func writeRateLimitedResponse(w http.ResponseWriter, remaining time.Duration) {
	retryAfter := int(math.Ceil(remaining.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}

	apiErr := model.NewSyncTooRecentError(remaining)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:              apiErr.Code,
		Message:           apiErr.Message,
		Category:          apiErr.Category,
		Action:            apiErr.Action,
		RetryAfterSeconds: retryAfter,
	})
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeUnauthorized は401レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeInvalidBody はリクエストボディの解析失敗で400レスポンスを書き込む。
func writeInvalidBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層・同期エンジンから返されたエラーを
// 適切なHTTPステータスコードに変換する。
// 同期エンジンの型付きエラーは対応するAPIErrorに翻訳してから書き込む。
func handleServiceError(w http.ResponseWriter, err error) {
	// 同期エンジンの型付きエラーを先に判定する
	var notFound *model.FeedNotFoundError
	if errors.As(err, &notFound) {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewFeedNotFoundError(notFound.FeedID))
		return
	}

	var rateLimited *model.RateLimitedError
	if errors.As(err, &rateLimited) {
		writeRateLimitedResponse(w, rateLimited.Remaining)
		return
	}

	var inProgress *model.SyncInProgressError
	if errors.As(err, &inProgress) {
		writeAPIErrorResponse(w, http.StatusConflict, model.NewSyncInProgressAPIError(inProgress.FeedID))
		return
	}

	var fetchErr *model.FetchError
	if errors.As(err, &fetchErr) {
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewFetchFailedError(fetchErr.Error()))
		return
	}

	var parseErr *model.ParseError
	if errors.As(err, &parseErr) {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, model.NewParseFailedError())
		return
	}

	var dbErr *model.DatabaseError
	if errors.As(err, &dbErr) {
		slog.Error("database error", slog.String("op", dbErr.Op), slog.String("error", dbErr.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewDatabaseAPIError())
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeFeedNotFound, model.ErrCodeArticleNotFound, model.ErrCodeFavoriteNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateFeed, model.ErrCodeDuplicateEmail, model.ErrCodeSyncInProgress:
		return http.StatusConflict
	case model.ErrCodeInvalidURL, model.ErrCodeInvalidFilter:
		return http.StatusBadRequest
	case model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeFetchFailed:
		return http.StatusBadGateway
	case model.ErrCodeParseFailed, model.ErrCodeFeedNotDetected:
		return http.StatusUnprocessableEntity
	case model.ErrCodeSyncTooRecent:
		return http.StatusTooManyRequests
	case model.ErrCodeInvalidCredential:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
