package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bookshelf/internal/auth"
	"github.com/hitoshi/bookshelf/internal/catalog"
	"github.com/hitoshi/bookshelf/internal/circulation"
	"github.com/hitoshi/bookshelf/internal/config"
	"github.com/hitoshi/bookshelf/internal/database"
	"github.com/hitoshi/bookshelf/internal/handler"
	"github.com/hitoshi/bookshelf/internal/logger"
	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/repository"
	"github.com/hitoshi/bookshelf/internal/security"
	"github.com/hitoshi/bookshelf/internal/user"
	"github.com/hitoshi/bookshelf/internal/worker/cleanup"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPサーバーのタイムアウト
const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

// rateLimitKeyPrefix はRedisに保存するレート制限キーの接頭辞。
const rateLimitKeyPrefix = "bookshelf:ratelimit"

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
	logger.SetLevel(cfg.LogLevel)

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
		slog.Bool("read_only", cfg.ReadOnly),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// openDB はDB接続を開き、疎通を確認する。
func openDB(databaseURL string) (*sqlx.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return repository.NewDB(db), nil
}

// services はリポジトリから組み立てたドメインサービスの集合。
type services struct {
	catalog     *catalog.Service
	circulation *circulation.Service
	users       *user.Service
	login       *auth.LoginService
	tokens      *auth.TokenService
}

// newServices はリポジトリとドメインサービスを初期化する。
func newServices(cfg *config.Config, db *sqlx.DB) *services {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)

	// 2. セキュリティサービスの初期化
	sanitizer := security.NewTextSanitizer()
	hasher := security.NewBcryptHasher()

	// 3. ドメインサービスの初期化
	return &services{
		catalog: catalog.NewService(catalog.Repositories{
			Books:      repository.NewPostgresBookRepo(db),
			Authors:    repository.NewPostgresAuthorRepo(db),
			Bbks:       repository.NewPostgresBbkRepo(db),
			Apus:       repository.NewPostgresApuRepo(db),
			Publishers: repository.NewPostgresPublisherRepo(db),
		}, sanitizer),
		circulation: circulation.NewService(circulation.Repositories{
			Reservations: repository.NewPostgresReservationRepo(db),
			Queue:        repository.NewPostgresQueueRepo(db),
			Issuances:    repository.NewPostgresIssuanceRepo(db),
			Favorites:    repository.NewPostgresFavoriteRepo(db),
		}, circulation.Config{
			ReservationTTL: cfg.ReservationTTL,
			LoanPeriod:     cfg.LoanPeriod,
		}),
		users: user.NewService(userRepo, hasher, sanitizer),
		login: auth.NewLoginService(userRepo, hasher),
		tokens: auth.NewTokenService(auth.TokenConfig{
			Secret:   []byte(cfg.JWTSecret),
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			TTL:      cfg.JWTTTL,
		}),
	}
}

// newLimiters はレート制限のリミッターを生成する。
// REDIS_URLが設定されている場合はRedis、それ以外はプロセス内のリミッターを使用する。
// 返り値のcloseは終了時に呼び出す。
func newLimiters(cfg *config.Config) (general, login middleware.Limiter, closeFn func(), err error) {
	if cfg.RedisURL != "" {
		client, redisErr := middleware.NewRedisClient(cfg.RedisURL)
		if redisErr != nil {
			return nil, nil, nil, redisErr
		}
		slog.Info("rate limiter backend: redis")
		general = middleware.NewRedisLimiter(client, rateLimitKeyPrefix, cfg.RateLimitGeneral)
		login = middleware.NewRedisLimiter(client, rateLimitKeyPrefix, cfg.RateLimitLogin)
		return general, login, func() { client.Close() }, nil
	}

	slog.Info("rate limiter backend: memory")
	g := middleware.NewMemoryLimiter(cfg.RateLimitGeneral, 5*time.Minute)
	l := middleware.NewMemoryLimiter(cfg.RateLimitLogin, 5*time.Minute)
	return g, l, func() { g.Stop(); l.Stop() }, nil
}

// newRouter は設定とサービスからAPIルーターを構築する。
func newRouter(cfg *config.Config, db *sqlx.DB, svc *services, reg *prometheus.Registry, general, login middleware.Limiter) http.Handler {
	c := svc.catalog
	circ := svc.circulation
	u := svc.users

	return handler.NewRouter(&handler.RouterDeps{
		HealthChecker:     db,
		TokenVerifier:     svc.tokens,
		Metrics:           metrics.NewCollector(reg),
		MetricsGatherer:   reg,
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		ReadOnly:          cfg.ReadOnly,
		APIV1Enabled:      cfg.APIV1Enabled,
		GeneralLimiter:    general,
		LoginLimiter:      login,

		Login:  svc.login,
		Tokens: svc.tokens,

		Books: handler.BookUseCases{
			Create: c, Update: c, Delete: c, ReadByID: c, Read: c,
			ReadByAuthor: c, ReadByBbk: c, ReadByPublisher: c, ReadBySearch: c,
		},
		Authors:    handler.AuthorUseCases{Create: c, Update: c, Delete: c, ReadByID: c, Read: c},
		Bbks:       handler.BbkUseCases{Create: c, Update: c, Delete: c, ReadByID: c, Read: c},
		Apus:       handler.ApuUseCases{Create: c, Update: c, Delete: c, ReadByID: c, Read: c},
		Publishers: handler.PublisherUseCases{Create: c, Update: c, Delete: c, ReadByID: c, Read: c},

		Users: handler.UserUseCases{Create: u, Update: u, Delete: u, ReadByID: u, Read: u},

		Reservations: handler.ReservationUseCases{Create: circ, Update: circ, Delete: circ, Read: circ},
		Queue:        handler.QueueUseCases{Create: circ, Update: circ, Delete: circ, Read: circ},
		Issuances:    handler.IssuanceUseCases{Create: circ, Update: circ, Delete: circ, Read: circ},
		Favorites:    handler.FavoriteUseCases{Add: circ, Remove: circ, ReadBooks: circ},
	})
}

// newRegistry はプロセス・ランタイムのメトリクスを含むレジストリを生成する。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	general, login, closeLimiters, err := newLimiters(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize rate limiter: %w", err)
	}
	defer closeLimiters()

	router := newRouter(cfg, db, newServices(cfg, db), newRegistry(), general, login)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.Bool("api_v1_enabled", cfg.APIV1Enabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れ取り置きのクリーンアップジョブを定期実行し、
// /health と /metrics のみを公開する管理用HTTPサーバーを併せて起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	reg := newRegistry()
	collector := metrics.NewCollector(reg)
	job := cleanup.NewReservationExpiryJob(newServices(cfg, db).circulation, collector, slog.Default(), cfg.CleanupInterval)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      newWorkerRouter(db, reg),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker admin server error", slog.String("error", err.Error()))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// コンテキストがキャンセルされるまでブロックする
	job.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("worker admin server shutdown failed: %w", err)
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// newWorkerRouter はワーカー用の管理ルーターを返す。
func newWorkerRouter(db handler.HealthChecker, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(reg))
	return r
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
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
