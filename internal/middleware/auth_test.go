package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kazuki/feedhub/internal/auth"
)

func newAuthTestHandler(t *testing.T, tokens *auth.TokenManager) (http.Handler, *int64) {
	t.Helper()

	var gotUserID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("コンテキストからユーザーIDが取得できない: %v", err)
		}
		gotUserID = userID
		w.WriteHeader(http.StatusOK)
	})

	return NewAuthMiddleware(tokens)(next), &gotUserID
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	token, err := tokens.Generate(42)
	if err != nil {
		t.Fatalf("トークン生成に失敗: %v", err)
	}

	handler, gotUserID := newAuthTestHandler(t, tokens)

	req := httptest.NewRequest(http.MethodGet, "/api/feeds", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if *gotUserID != 42 {
		t.Errorf("userID = %d, want 42", *gotUserID)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("未認証リクエストで next が呼ばれてはならない")
	})
	handler := NewAuthMiddleware(tokens)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/feeds", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	token, _ := tokens.Generate(1)

	handler := NewAuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("不正なヘッダー形式で next が呼ばれてはならない")
	}))

	// Bearerプレフィックスなし
	req := httptest.NewRequest(http.MethodGet, "/api/feeds", nil)
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	otherTokens := auth.NewTokenManager("other-secret", time.Hour)
	token, _ := otherTokens.Generate(1)

	handler := NewAuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("無効なトークンで next が呼ばれてはならない")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/feeds", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Error("未設定のコンテキストはエラーを返すべき")
	}
}
