// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kazuki/feedhub/internal/article"
	"github.com/kazuki/feedhub/internal/auth"
	"github.com/kazuki/feedhub/internal/config"
	"github.com/kazuki/feedhub/internal/database"
	"github.com/kazuki/feedhub/internal/favorite"
	"github.com/kazuki/feedhub/internal/feed"
	"github.com/kazuki/feedhub/internal/handler"
	"github.com/kazuki/feedhub/internal/logger"
	"github.com/kazuki/feedhub/internal/metrics"
	"github.com/kazuki/feedhub/internal/middleware"
	"github.com/kazuki/feedhub/internal/repository"
	"github.com/kazuki/feedhub/internal/security"
	"github.com/kazuki/feedhub/internal/syncer"
	"github.com/kazuki/feedhub/internal/user"
	"github.com/kazuki/feedhub/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg, args[1:])
	default:
		return runServe(cfg)
	}
}

// openDB はDB接続を開き、疎通確認を行う。
func openDB(databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// newSyncService は同期エンジン一式をワイヤリングする。
func newSyncService(
	db *sql.DB,
	cfg *config.Config,
	collector *metrics.Collector,
) *syncer.Service {
	feedRepo := repository.NewPostgresFeedRepo(db)
	articleRepo := repository.NewPostgresArticleRepo(db)

	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	fetcher := syncer.NewFetcher(ssrfGuard, slog.Default(), cfg.FetchTimeout, cfg.FetchMaxSize)
	normalizer := syncer.NewNormalizer(sanitizer)

	return syncer.NewService(
		feedRepo, articleRepo, fetcher, normalizer,
		collector, slog.Default(), cfg.SyncMaxConcurrent,
	)
}

// startMetricsServer はPrometheusメトリクスのHTTPサーバーをバックグラウンドで起動する。
func startMetricsServer(port string, gatherer prometheus.Gatherer) *http.Server {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: metrics.SetupMetricsRoute(gatherer),
	}

	go func() {
		slog.Info("metrics server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	return server
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	feedRepo := repository.NewPostgresFeedRepo(db)
	articleRepo := repository.NewPostgresArticleRepo(db)
	favoriteRepo := repository.NewPostgresFavoriteRepo(db)

	// 3. セキュリティ・認証サービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	// 4. ドメインサービスの初期化
	detector := feed.NewDetector(ssrfGuard, cfg.FetchTimeout, cfg.FetchMaxSize)
	userService := user.NewService(userRepo, tokenManager)
	feedService := feed.NewService(feedRepo, detector)
	articleService := article.NewService(articleRepo, feedRepo)
	favoriteService := favorite.NewService(favoriteRepo, articleRepo, feedRepo)

	// 5. 同期エンジンの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	syncService := newSyncService(db, cfg, collector)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitSync),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		TokenManager:      tokenManager,
		APIKey:            cfg.APIKey,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		UserService:     userService,
		FeedService:     feedService,
		ArticleService:  articleService,
		FavoriteService: favoriteService,
		SyncService:     syncService,
	}

	router := middleware.NewRecoveryMiddleware()(
		middleware.NewLoggingMiddleware(slog.Default())(handler.NewRouter(deps)),
	)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	metricsServer := startMetricsServer(cfg.MetricsPort, registry)

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(ctx); err != nil {
		slog.Error("metrics server shutdown failed", slog.String("error", err.Error()))
	}

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、定期同期スケジューラとクリーンアップジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	// 2. 同期エンジンの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	syncService := newSyncService(db, cfg, collector)

	// 3. スケジューラの初期化
	scheduler := syncer.NewScheduler(syncService, slog.Default())

	// 4. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())
	cleanupJob.RetentionDays = cfg.RetentionDays

	// 5. メトリクスサーバーの起動
	metricsServer := startMetricsServer(cfg.MetricsPort, registry)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("sync_interval", cfg.SyncInterval),
		slog.Int("max_concurrent", cfg.SyncMaxConcurrent),
	)

	// クリーンアップジョブを日次でバックグラウンド実行
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// 同期スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.SyncInterval)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics server shutdown failed", slog.String("error", err.Error()))
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// 引数なしの場合はすべての未適用マイグレーションを順番に適用し、
// "down" を指定した場合は直近の1段階だけ戻す。
func runMigrate(cfg *config.Config, args []string) error {
	if len(args) > 0 && args[0] == "down" {
		slog.Info("rolling back last migration",
			slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		)
		if err := database.RollbackLast(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		slog.Info("rollback completed successfully")
		return nil
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
