// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, feed, sync, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeFeedNotFound      = "FEED_NOT_FOUND"
	ErrCodeArticleNotFound   = "ARTICLE_NOT_FOUND"
	ErrCodeFavoriteNotFound  = "FAVORITE_NOT_FOUND"
	ErrCodeDuplicateFeed     = "DUPLICATE_FEED"
	ErrCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	ErrCodeInvalidURL        = "INVALID_URL"
	ErrCodeSSRFBlocked       = "SSRF_BLOCKED"
	ErrCodeFetchFailed       = "FETCH_FAILED"
	ErrCodeParseFailed       = "PARSE_FAILED"
	ErrCodeFeedNotDetected   = "FEED_NOT_DETECTED"
	ErrCodeSyncTooRecent     = "SYNC_TOO_RECENT"
	ErrCodeSyncInProgress    = "SYNC_IN_PROGRESS"
	ErrCodeInvalidFilter     = "INVALID_FILTER"
	ErrCodeInvalidCredential = "INVALID_CREDENTIAL"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
)

// --- 同期エンジンの型付きエラー ---
//
// フェッチ層・パース層が失敗の発生箇所で生成する値であり、
// 下流でエラーメッセージの文字列から種別を推測することはない。
// errors.As で検査できる。

// FetchError はフィードURLの取得失敗を表す。
// ネットワーク障害、非2xxステータス、無効なURLを含む。
type FetchError struct {
	URL string
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *FetchError) Error() string {
	return fmt.Sprintf("フィードの取得に失敗しました (%s): %v", e.URL, e.Err)
}

// Unwrap は内包するエラーを返す。
func (e *FetchError) Unwrap() error { return e.Err }

// ParseError は取得したドキュメントがRSS/Atomとして解析できないことを表す。
type ParseError struct {
	URL string
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *ParseError) Error() string {
	return fmt.Sprintf("フィードの解析に失敗しました (%s): %v", e.URL, e.Err)
}

// Unwrap は内包するエラーを返す。
func (e *ParseError) Unwrap() error { return e.Err }

// DatabaseError は記事の一括書き込みやフィードメタデータ更新の
// 予期しないストレージ障害を表す。
type DatabaseError struct {
	Op  string // 失敗した操作の説明
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *DatabaseError) Error() string {
	return fmt.Sprintf("データベース操作に失敗しました (%s): %v", e.Op, e.Err)
}

// Unwrap は内包するエラーを返す。
func (e *DatabaseError) Unwrap() error { return e.Err }

// FeedNotFoundError は参照されたフィードが存在しないことを表す。
type FeedNotFoundError struct {
	FeedID int64
}

// Error はerrorインターフェースを実装する。
func (e *FeedNotFoundError) Error() string {
	return fmt.Sprintf("指定されたフィードが見つかりません: %d", e.FeedID)
}

// RateLimitedError は同期ゲートによる拒否（直近に同期済み）を表す。
// Remainingは再試行可能になるまでの残り待機時間。
type RateLimitedError struct {
	FeedID    int64
	Remaining time.Duration
}

// Error はerrorインターフェースを実装する。
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("フィード %d は直近に同期済みです。%d秒後に再試行できます", e.FeedID, int(e.Remaining.Seconds()))
}

// SyncInProgressError は同一フィードの同期が既に実行中であることを表す。
// 1つのフィードIDに対して同時に2つの同期パスは走らない。
type SyncInProgressError struct {
	FeedID int64
}

// Error はerrorインターフェースを実装する。
func (e *SyncInProgressError) Error() string {
	return fmt.Sprintf("フィード %d の同期は既に実行中です", e.FeedID)
}

// --- APIErrorコンストラクタ ---

// NewFeedNotFoundError はフィード未検出エラーを生成する。
func NewFeedNotFoundError(feedID int64) *APIError {
	return &APIError{
		Code:     ErrCodeFeedNotFound,
		Message:  fmt.Sprintf("指定されたフィードが見つかりません: %d", feedID),
		Category: "feed",
		Action:   "フィードIDを確認してください。",
	}
}

// NewArticleNotFoundError は記事未検出エラーを生成する。
func NewArticleNotFoundError(articleID int64) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %d", articleID),
		Category: "feed",
		Action:   "記事IDを確認してください。",
	}
}

// NewDuplicateFeedError は既に購読済みのURLを再度登録しようとした場合のエラーを生成する。
func NewDuplicateFeedError(url string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateFeed,
		Message:  fmt.Sprintf("このURLは既に購読しています: %s", url),
		Category: "feed",
		Action:   "フィード一覧から該当フィードを確認してください。",
	}
}

// NewDuplicateEmailError はメールアドレスが登録済みの場合のエラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。",
	}
}

// NewFetchFailedError はフェッチ失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("フィードURLの取得に失敗しました: %s", reason),
		Category: "sync",
		Action:   "URLが正しいか確認し、しばらく待ってから再度お試しください。",
	}
}

// NewParseFailedError はパース失敗エラーを生成する。
func NewParseFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeParseFailed,
		Message:  "フィードの解析に失敗しました。",
		Category: "sync",
		Action:   "有効なRSS/Atomフィードかどうか確認してください。",
	}
}

// NewSyncTooRecentError は同期ゲート拒否エラーを生成する。
// remainingは再試行可能になるまでの残り待機時間。
func NewSyncTooRecentError(remaining time.Duration) *APIError {
	return &APIError{
		Code:     ErrCodeSyncTooRecent,
		Message:  fmt.Sprintf("このフィードは直近に同期済みです。%d秒後に再試行できます。", int(remaining.Seconds())),
		Category: "sync",
		Action:   "しばらく待ってから再度同期するか、forceフラグを指定してください。",
	}
}

// NewSyncInProgressAPIError は同期実行中エラーを生成する。
func NewSyncInProgressAPIError(feedID int64) *APIError {
	return &APIError{
		Code:     ErrCodeSyncInProgress,
		Message:  fmt.Sprintf("フィード %d の同期は既に実行中です。", feedID),
		Category: "sync",
		Action:   "実行中の同期が完了するまでお待ちください。",
	}
}

// NewInvalidFilterError は無効なフィルタエラーを生成する。
func NewInvalidFilterError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFilter,
		Message:  fmt.Sprintf("無効なフィルタです: %s", reason),
		Category: "validation",
		Action:   "フィルタの指定内容を確認してください。",
	}
}

// NewInvalidCredentialError は認証情報不一致エラーを生成する。
func NewInvalidCredentialError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredential,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewDatabaseAPIError はストレージ障害エラーを生成する。
func NewDatabaseAPIError() *APIError {
	return &APIError{
		Code:     ErrCodeDatabaseError,
		Message:  "データベース処理でエラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
