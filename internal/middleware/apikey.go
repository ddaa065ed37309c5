package middleware

import (
	"crypto/subtle"
	"net/http"
)

const apiKeyHeader = "X-API-Key"

// NewAPIKeyMiddleware はX-API-Keyヘッダーを検証するミドルウェアを返す。
// 管理系エンドポイント（全フィード同期など）の保護に使う。
// 比較はタイミング攻撃を避けるため定数時間で行う。
func NewAPIKeyMiddleware(apiKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(apiKeyHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
