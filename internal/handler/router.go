package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
)

// healthCheckTimeout は/healthでのDB疎通確認のタイムアウト。
const healthCheckTimeout = 2 * time.Second

// HealthChecker はヘルスチェックで疎通を確認する依存先。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	TokenVerifier     middleware.TokenVerifier
	Metrics           metrics.MetricsCollector
	MetricsGatherer   prometheus.Gatherer
	Logger            *slog.Logger
	CORSAllowedOrigin string
	ReadOnly          bool
	APIV1Enabled      bool
	GeneralLimiter    middleware.Limiter
	LoginLimiter      middleware.Limiter

	// 認証
	Login  usecase.LoginUser
	Tokens usecase.IssueToken

	// カタログ
	Books      BookUseCases
	Authors    AuthorUseCases
	Bbks       BbkUseCases
	Apus       ApuUseCases
	Publishers PublisherUseCases

	// 利用者
	Users UserUseCases

	// 貸出業務
	Reservations ReservationUseCases
	Queue        QueueUseCases
	Issuances    IssuanceUseCases
	Favorites    FavoriteUseCases
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したhttp.Handlerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → ReadOnly → (v2のみ Auth) → Logging → RateLimit
//
// 読み取り専用ゲートは認証より前に評価し、認証結果に関わらず変更系を拒否する。
// /api/v1 は蔵書ルートのみを認証なしで提供する互換APIで、APIV1Enabledがtrueの場合のみ公開する。
func NewRouter(deps *RouterDeps) http.Handler {
	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.NopCollector{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewMetricsMiddleware(recorder))

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewReadOnlyMiddleware(deps.ReadOnly, recorder))

		r.Route("/api/v2", func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, recorder))
			r.Use(middleware.NewLoggingMiddleware(logger))
			mountAPI(r, deps, NewGuard(true))
		})

		if deps.APIV1Enabled {
			r.Route("/api/v1", func(r chi.Router) {
				r.Use(middleware.NewLoggingMiddleware(logger))
				mountLegacyAPI(r, deps)
			})
		}
	})

	return r
}

func useGeneralLimit(r chi.Router, deps *RouterDeps) {
	if deps.GeneralLimiter != nil {
		r.Use(middleware.NewRateLimitMiddleware(deps.GeneralLimiter, "general", middleware.KeyByPrincipalOrIP))
	}
}

// mountLegacyAPI は/api/v1のエンドポイントを登録する。
// v1は蔵書ルートのみで、認証とロール確認を行わない。
func mountLegacyAPI(r chi.Router, deps *RouterDeps) {
	useGeneralLimit(r, deps)
	mountBookRoutes(r, r, NewBookHandler(deps.Books, NewGuard(false)))
}

// mountBookRoutes は蔵書ルートを登録する。参照系はreadsに登録する。
func mountBookRoutes(r, reads chi.Router, h *BookHandler) {
	reads.Get("/book", h.ListBooks)
	reads.Get("/book/search", h.SearchBooks)
	reads.Post("/book/search", h.SearchBooks)
	reads.Get("/book/{id}", h.GetBook)
	r.Post("/book", h.CreateBook)
	r.Put("/book", h.UpdateBook)
	r.Delete("/book/{id}", h.DeleteBook)
}

// mountAPI は/api/v2のエンドポイントを登録する。
func mountAPI(r chi.Router, deps *RouterDeps, guard Guard) {
	useGeneralLimit(r, deps)

	authHandler := NewAuthHandler(deps.Login, deps.Tokens)
	bookHandler := NewBookHandler(deps.Books, guard)
	authorHandler := NewAuthorHandler(deps.Authors, guard)
	classHandler := NewClassificationHandler(deps.Bbks, deps.Apus, guard)
	publisherHandler := NewPublisherHandler(deps.Publishers, guard)
	userHandler := NewUserHandler(deps.Users, guard)
	circHandler := NewCirculationHandler(deps.Reservations, deps.Queue, deps.Issuances, guard)
	favoriteHandler := NewFavoriteHandler(deps.Favorites, guard)

	// 認証が必要な参照系ルート
	authenticated := r.With()
	if guard.enforce {
		authenticated = r.With(middleware.RequireAuth)
	}

	// --- 認証 ---
	login := r.With()
	if deps.LoginLimiter != nil {
		login = r.With(middleware.NewRateLimitMiddleware(deps.LoginLimiter, "login", middleware.KeyByIP))
	}
	login.Post("/auth/login", authHandler.Login)

	// --- 蔵書 ---
	mountBookRoutes(r, authenticated, bookHandler)

	// --- 著者 ---
	r.Route("/authors", func(r chi.Router) {
		r.Get("/", authorHandler.ListAuthors)
		r.Post("/", authorHandler.CreateAuthor)
		r.Get("/{id}", authorHandler.GetAuthor)
		r.Patch("/{id}", authorHandler.UpdateAuthor)
		r.Delete("/{id}", authorHandler.DeleteAuthor)
	})

	// --- 分類 ---
	r.Route("/bbks", func(r chi.Router) {
		r.Get("/", classHandler.ListBbks)
		r.Post("/", classHandler.CreateBbk)
		r.Patch("/", classHandler.UpdateBbk)
		r.Get("/{id}", classHandler.GetBbk)
		r.Delete("/{id}", classHandler.DeleteBbk)
	})
	r.Route("/apus", func(r chi.Router) {
		r.Get("/", classHandler.ListApus)
		r.Post("/", classHandler.CreateApu)
		r.Get("/{id}", classHandler.GetApu)
		r.Patch("/{id}", classHandler.UpdateApu)
		r.Delete("/{id}", classHandler.DeleteApu)
	})

	// --- 出版社 ---
	authenticated.Get("/publishers", publisherHandler.ListPublishers)
	authenticated.Get("/publishers/{id}", publisherHandler.GetPublisher)
	r.Post("/publishers", publisherHandler.CreatePublisher)
	r.Patch("/publishers/{id}", publisherHandler.UpdatePublisher)
	r.Delete("/publishers/{id}", publisherHandler.DeletePublisher)

	// --- 利用者 ---
	r.Route("/users", func(r chi.Router) {
		r.Get("/", userHandler.ListUsers)
		r.Post("/", userHandler.CreateUser)
		r.Get("/{id}", userHandler.GetUser)
		r.Patch("/{id}", userHandler.UpdateUser)
		r.Delete("/{id}", userHandler.DeleteUser)
	})

	// --- 取り置き・待ち行列・貸出 ---
	authenticated.Get("/reservations", circHandler.ListReservations)
	r.Post("/reservations", circHandler.CreateReservation)
	r.Patch("/reservations/{id}", circHandler.UpdateReservation)
	r.Delete("/reservations/{id}", circHandler.DeleteReservation)

	authenticated.Get("/queues", circHandler.ListQueueEntries)
	r.Post("/queues", circHandler.CreateQueueEntry)
	r.Patch("/queues/{id}", circHandler.UpdateQueueEntry)
	r.Delete("/queues/{id}", circHandler.DeleteQueueEntry)

	r.Get("/issuances", circHandler.ListIssuances)
	r.Post("/issuances", circHandler.CreateIssuance)
	r.Patch("/issuances/{id}", circHandler.UpdateIssuance)
	r.Delete("/issuances/{id}", circHandler.DeleteIssuance)

	// --- お気に入り ---
	r.Route("/user/{userId}/favorites", func(r chi.Router) {
		r.Get("/", favoriteHandler.ListFavorites)
		r.Post("/{bookId}", favoriteHandler.AddFavorite)
		r.Delete("/{bookId}", favoriteHandler.RemoveFavorite)
	})
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
