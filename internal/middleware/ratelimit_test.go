package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestRateLimiter(generalBurst, syncBurst int) *RateLimiter {
	// トークン補充をほぼ停止させ、バーストだけで判定する
	return NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001),
		GeneralBurst:    generalBurst,
		SyncRate:        rate.Limit(0.001),
		SyncBurst:       syncBurst,
		CleanupInterval: time.Hour,
	})
}

func authedRequest(userID int64) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/feeds", nil)
	return req.WithContext(WithUserID(req.Context(), userID))
}

func TestRateLimiter_GeneralMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := newTestRateLimiter(3, 1)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(1))
		if rec.Code != http.StatusOK {
			t.Fatalf("%d回目: status = %d, want 200", i+1, rec.Code)
		}
	}

	// バースト超過で429
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(1))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("バースト超過: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429レスポンスには Retry-After ヘッダーが必要")
	}
}

func TestRateLimiter_LimitsArePerUser(t *testing.T) {
	rl := newTestRateLimiter(1, 1)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// user1 がバーストを使い切る
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(1))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(1))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("user1 2回目: status = %d, want 429", rec.Code)
	}

	// user2 には影響しない
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(2))
	if rec.Code != http.StatusOK {
		t.Errorf("user2: status = %d, want 200", rec.Code)
	}

	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("リミッターエントリ数 = %d, want 2", rl.GeneralLimiterCount())
	}
}

func TestRateLimiter_SyncMiddleware_IndependentOfGeneral(t *testing.T) {
	rl := newTestRateLimiter(1, 2)
	defer rl.Stop()

	general := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	sync := rl.SyncMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// generalのバーストを使い切る
	rec := httptest.NewRecorder()
	general.ServeHTTP(rec, authedRequest(1))
	rec = httptest.NewRecorder()
	general.ServeHTTP(rec, authedRequest(1))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("general 2回目: status = %d, want 429", rec.Code)
	}

	// sync側は独立して許可される
	rec = httptest.NewRecorder()
	sync.ServeHTTP(rec, authedRequest(1))
	if rec.Code != http.StatusOK {
		t.Errorf("sync: status = %d, want 200", rec.Code)
	}
}

func TestRateLimiter_RejectsUnauthenticated(t *testing.T) {
	rl := newTestRateLimiter(1, 1)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("未認証リクエストで next が呼ばれてはならない")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/feeds", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestNewRateLimiterConfig(t *testing.T) {
	cfg := NewRateLimiterConfig(120, 10)

	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.SyncBurst != 10 {
		t.Errorf("SyncBurst = %d, want 10", cfg.SyncBurst)
	}
	if cfg.GeneralRate != rate.Limit(2.0) {
		t.Errorf("GeneralRate = %v, want 2 req/sec", cfg.GeneralRate)
	}
}
