package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// デフォルトの送信元・送信先アドレス。
// 送信元はResendのテスト用ドメイン。独自ドメインを検証済みの場合はSENDER_EMAILで上書きする。
const (
	DefaultSenderEmail    = "onboarding@resend.dev"
	DefaultRecipientEmail = "srinivasaaravindh15@gmail.com"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL          string
	AutoMigrate          bool
	MessageRetentionDays int // 0の場合は削除しない

	// Email
	ResendAPIKey     string
	SenderEmail      string
	RecipientEmail   string
	EmailSendRate    float64       // プロバイダへの送信レート（req/sec）
	EmailSendTimeout time.Duration // 0の場合はタイムアウトなし

	// Rate Limit
	RateLimitMaxRequests     int
	RateLimitWindow          time.Duration
	RateLimitCleanupInterval time.Duration
	TrustProxyHeaders        bool

	// Server
	ServerPort string
	LogLevel   string

	// Static files
	StaticDir  string
	ResumeFile string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
// 必須の環境変数はない。RESEND_API_KEYが未設定でも起動は成功し、送信時に失敗する。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = buildDatabaseURL(
			getEnvString("DB_USER", "postgres"),
			getEnvString("DB_PASSWORD", "password"),
			getEnvString("DB_HOST", "127.0.0.1"),
			getEnvString("DB_PORT", "5432"),
			getEnvString("DB_NAME", "portfolio_db"),
			getEnvString("DB_SSLMODE", "disable"),
		)
	}
	cfg.AutoMigrate = getEnvBool("AUTO_MIGRATE", false)
	cfg.MessageRetentionDays = getEnvInt("MESSAGE_RETENTION_DAYS", 0)

	cfg.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	cfg.SenderEmail = getEnvString("SENDER_EMAIL", DefaultSenderEmail)
	cfg.RecipientEmail = getEnvString("RECIPIENT_EMAIL", DefaultRecipientEmail)
	cfg.EmailSendRate = getEnvFloat("EMAIL_SEND_RATE", 2)
	cfg.EmailSendTimeout = getEnvDuration("EMAIL_SEND_TIMEOUT", 10*time.Second)

	cfg.RateLimitMaxRequests = getEnvInt("RATE_LIMIT_MAX_REQUESTS", 3)
	cfg.RateLimitWindow = getEnvDuration("RATE_LIMIT_WINDOW", 60*time.Second)
	cfg.RateLimitCleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute)
	cfg.TrustProxyHeaders = getEnvBool("TRUST_PROXY_HEADERS", false)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8000")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "INFO")

	cfg.StaticDir = getEnvString("STATIC_DIR", ".")
	cfg.ResumeFile = getEnvString("RESUME_FILE", "AR-Resume_2026.pdf")

	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	if cfg.RateLimitMaxRequests < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive: %d", cfg.RateLimitMaxRequests)
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive: %s", cfg.RateLimitWindow)
	}
	if cfg.MessageRetentionDays < 0 {
		return nil, fmt.Errorf("MESSAGE_RETENTION_DAYS must not be negative: %d", cfg.MessageRetentionDays)
	}
	if cfg.EmailSendRate <= 0 {
		return nil, fmt.Errorf("EMAIL_SEND_RATE must be positive: %v", cfg.EmailSendRate)
	}

	return cfg, nil
}

// buildDatabaseURL は個別の接続パラメータからPostgreSQLの接続URLを組み立てる。
// パスワードに'@'などの記号が含まれていてもエスケープされる。
func buildDatabaseURL(user, password, host, port, name, sslmode string) string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   host + ":" + port,
		Path:   "/" + name,
	}
	if sslmode != "" {
		q := url.Values{}
		q.Set("sslmode", sslmode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
