package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ARAVINDH-1505/my-portfolio/internal/config"
	"github.com/ARAVINDH-1505/my-portfolio/internal/contact"
	"github.com/ARAVINDH-1505/my-portfolio/internal/database"
	"github.com/ARAVINDH-1505/my-portfolio/internal/handler"
	"github.com/ARAVINDH-1505/my-portfolio/internal/logger"
	"github.com/ARAVINDH-1505/my-portfolio/internal/metrics"
	"github.com/ARAVINDH-1505/my-portfolio/internal/middleware"
	"github.com/ARAVINDH-1505/my-portfolio/internal/notify"
	"github.com/ARAVINDH-1505/my-portfolio/internal/repository"
	"github.com/ARAVINDH-1505/my-portfolio/internal/security"
	"github.com/ARAVINDH-1505/my-portfolio/internal/worker/cleanup"
)

// shutdownTimeout は処理中リクエストの完了を待つ上限。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, "INFO")

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再構成する
	logger.SetupDefault(w, cfg.LogLevel)

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
			port = "8000"
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
		slog.String("log_level", cfg.LogLevel),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if cfg.AutoMigrate {
		if err := runMigrate(cfg); err != nil {
			return err
		}
	}

	if cfg.ResendAPIKey == "" {
		slog.Warn("RESEND_API_KEY is not set; contact submissions will be stored but email delivery will fail")
	}

	// 2. ルーターの構築
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		MaxRequests:     cfg.RateLimitMaxRequests,
		Window:          cfg.RateLimitWindow,
		CleanupInterval: cfg.RateLimitCleanupInterval,
	})
	defer rl.Stop()

	router := buildRouter(cfg, db, rl, prometheus.NewRegistry())

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.EmailSendTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. 保持期間を過ぎた問い合わせの削除（設定時のみ）
	if cfg.MessageRetentionDays > 0 {
		job := cleanup.NewCleanupJob(db, slog.Default(), cfg.MessageRetentionDays)
		go job.Start(ctx, cleanup.DefaultInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildRouter は問い合わせ処理の依存関係を組み立て、ルーターを返す。
// regにはプロセス・ランタイムのメトリクスも登録する。
func buildRouter(cfg *config.Config, db *sql.DB, rl *middleware.RateLimiter, reg *prometheus.Registry) http.Handler {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)
	collector.RegisterRateLimiterKeys(rl.ClientCount)

	repo := repository.NewPostgresContactRepo(db)

	notifier := notify.NewNotifier(
		notify.NewResendSender(cfg.ResendAPIKey),
		security.NewMessageSanitizer(),
		notify.Config{
			SenderEmail:    cfg.SenderEmail,
			RecipientEmail: cfg.RecipientEmail,
			SendRate:       cfg.EmailSendRate,
			SendTimeout:    cfg.EmailSendTimeout,
		},
		slog.Default(),
	)

	service := contact.NewService(repo, notifier, collector, slog.Default())

	return handler.NewRouter(&handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		RateLimiter:       rl,
		Logger:            slog.Default(),

		ContactValidator: contact.NewValidator(),
		ContactService:   service,

		HealthChecker:   db,
		Metrics:         collector,
		MetricsGatherer: reg,

		StaticDir:  cfg.StaticDir,
		ResumeFile: cfg.ResumeFile,
	})
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
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// URLとして解釈できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
