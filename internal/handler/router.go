package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kazuki/feedhub/internal/auth"
	"github.com/kazuki/feedhub/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenManager      *auth.TokenManager
	APIKey            string
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// サービス
	UserService     UserServiceInterface
	FeedService     FeedServiceInterface
	ArticleService  ArticleServiceInterface
	FavoriteService FavoriteServiceInterface
	SyncService     SyncServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → AuthMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 認証ルート（/auth/*）と/healthはミドルウェアチェーンの外に配置する。
// 全フィード一括同期（POST /api/sync）はAPIキー認証のみを要求する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	userHandler := NewUserHandler(deps.UserService)
	feedHandler := NewFeedHandler(deps.FeedService)
	articleHandler := NewArticleHandler(deps.ArticleService)
	favoriteHandler := NewFavoriteHandler(deps.FavoriteService)
	syncHandler := NewSyncHandler(deps.SyncService, deps.FeedService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
	})

	// --- APIキー認証のルート（運用・バッチ向け） ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAPIKeyMiddleware(deps.APIKey))

		// POST /api/sync - 全フィード一括同期
		r.Post("/api/sync", syncHandler.SyncAll)
	})

	// --- JWT認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenManager))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// フィード管理
		r.Route("/api/feeds", func(r chi.Router) {
			r.Get("/", feedHandler.ListFeeds)
			r.Post("/", feedHandler.CreateFeed)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", feedHandler.GetFeed)
				r.Patch("/", feedHandler.UpdateFeed)
				r.Delete("/", feedHandler.DeleteFeed)

				// POST /api/feeds/{id}/sync - 手動同期（同期専用レート制限を追加）
				r.With(deps.RateLimiter.SyncMiddleware()).Post("/sync", syncHandler.SyncFeed)
			})
		})

		// 記事閲覧
		r.Route("/api/articles", func(r chi.Router) {
			r.Get("/", articleHandler.ListArticles)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", articleHandler.GetArticle)
				r.Post("/favorite", favoriteHandler.AddFavorite)
				r.Delete("/favorite", favoriteHandler.RemoveFavorite)
			})
		})

		// お気に入り
		r.Get("/api/favorites", favoriteHandler.ListFavorites)
	})

	return r
}
