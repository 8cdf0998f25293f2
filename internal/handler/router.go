package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ARAVINDH-1505/my-portfolio/internal/metrics"
	"github.com/ARAVINDH-1505/my-portfolio/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	TrustProxyHeaders bool
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 問い合わせ
	ContactValidator ContactValidatorInterface
	ContactService   ContactServiceInterface

	// 監視
	HealthChecker   HealthChecker
	Metrics         metrics.MetricsCollector
	MetricsGatherer prometheus.Gatherer

	// 静的ファイル
	StaticDir  string
	ResumeFile string
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP(TrustProxyHeaders時のみ) → Recovery → Logging → SecurityHeaders → CORS
//
// レート制限はPOST /api/contactにのみ適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// X-Forwarded-For等はリバースプロキシ配下でのみ信頼する
	if deps.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	contactHandler := NewContactHandler(deps.ContactValidator, deps.ContactService, deps.Metrics, logger)
	healthHandler := NewHealthHandler(deps.HealthChecker)
	staticHandler := NewStaticHandler(deps.StaticDir, deps.ResumeFile)

	// --- 監視 ---
	r.Get("/health", healthHandler.Health)
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- 問い合わせAPI ---
	r.Route("/api", func(r chi.Router) {
		r.With(deps.RateLimiter.Middleware(deps.Metrics)).Post("/contact", contactHandler.Submit)
	})

	// --- 静的ファイル ---
	r.Get("/", staticHandler.Index)
	r.Get(staticHandler.ResumePath(), staticHandler.Resume)
	for _, dir := range []string{"css", "js", "assets"} {
		prefix := "/" + dir + "/"
		r.Handle(prefix+"*", staticHandler.Directory(prefix, dir))
	}

	return r
}
