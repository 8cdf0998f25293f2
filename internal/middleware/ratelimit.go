package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ARAVINDH-1505/my-portfolio/internal/metrics"
	"github.com/ARAVINDH-1505/my-portfolio/internal/model"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	MaxRequests     int           // ウィンドウ内で許可する最大リクエスト数
	Window          time.Duration // スライディングウィンドウの長さ
	CleanupInterval time.Duration // 古いクライアントエントリの掃除間隔。0以下で無効
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 1クライアントあたり60秒に3回まで。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		MaxRequests:     3,
		Window:          60 * time.Second,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientLog はクライアントごとの受付時刻の履歴。
// timestampsは古い順に並び、長さはMaxRequestsを超えない。
type clientLog struct {
	mu         sync.Mutex
	timestamps []time.Time
	evicted    atomic.Bool // 掃除で削除対象になった
}

// RateLimiter はクライアントキーごとのスライディングログ方式のレート制限を管理する。
// キーのマップとキーごとの履歴は別々のロックで保護し、両方を同時に保持しない。
type RateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*clientLog

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter は新しいRateLimiterを生成する。
// CleanupIntervalが正の場合、バックグラウンドで古いエントリの掃除を開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := newRateLimiter(config, time.Now)
	if config.CleanupInterval > 0 {
		go rl.cleanupLoop()
	}
	return rl
}

func newRateLimiter(config RateLimiterConfig, now func() time.Time) *RateLimiter {
	if config.MaxRequests < 1 {
		config.MaxRequests = 1
	}
	return &RateLimiter{
		config:  config,
		now:     now,
		clients: make(map[string]*clientLog),
		stopCh:  make(chan struct{}),
	}
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。複数回呼んでもよい。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}

// Allow はclientKeyからのリクエストを受け付けるかを判定する。
// 受け付けた場合のみ現在時刻を記録する。
func (rl *RateLimiter) Allow(clientKey string) bool {
	ok, _ := rl.admit(clientKey)
	return ok
}

// admit はAllowの本体。拒否した場合は最も古い記録がウィンドウから外れるまでの時間も返す。
func (rl *RateLimiter) admit(clientKey string) (bool, time.Duration) {
	for {
		cl := rl.getOrCreate(clientKey)

		cl.mu.Lock()
		if cl.evicted.Load() {
			// 取得後に掃除された。作り直して再試行する
			cl.mu.Unlock()
			continue
		}

		now := rl.now()
		cutoff := now.Add(-rl.config.Window)

		drop := 0
		for drop < len(cl.timestamps) && cl.timestamps[drop].Before(cutoff) {
			drop++
		}
		if drop > 0 {
			n := copy(cl.timestamps, cl.timestamps[drop:])
			cl.timestamps = cl.timestamps[:n]
		}

		if len(cl.timestamps) >= rl.config.MaxRequests {
			retryAfter := cl.timestamps[0].Add(rl.config.Window).Sub(now)
			cl.mu.Unlock()
			return false, retryAfter
		}

		cl.timestamps = append(cl.timestamps, now)
		cl.mu.Unlock()
		return true, 0
	}
}

func (rl *RateLimiter) getOrCreate(clientKey string) *clientLog {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[clientKey]
	// 掃除中でマップからの削除前のエントリは新しいものに置き換える
	if !ok || cl.evicted.Load() {
		cl = &clientLog{timestamps: make([]time.Time, 0, rl.config.MaxRequests)}
		rl.clients[clientKey] = cl
	}
	return cl
}

// ClientCount は現在管理されているクライアントキーの数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// cleanupLoop はバックグラウンドで古いエントリを定期的に掃除する。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopCh:
			return
		}
	}
}

// sweep は最新の記録がウィンドウより古いクライアントを削除する。
// そのようなクライアントは次回のリクエストで必ず受け付けられるため、削除しても判定は変わらない。
func (rl *RateLimiter) sweep() int {
	rl.mu.Lock()
	candidates := make(map[string]*clientLog, len(rl.clients))
	for key, cl := range rl.clients {
		candidates[key] = cl
	}
	rl.mu.Unlock()

	removed := 0
	for key, cl := range candidates {
		cl.mu.Lock()
		cutoff := rl.now().Add(-rl.config.Window)
		stale := len(cl.timestamps) == 0 || cl.timestamps[len(cl.timestamps)-1].Before(cutoff)
		if stale {
			cl.evicted.Store(true)
		}
		cl.mu.Unlock()

		if !stale {
			continue
		}

		rl.mu.Lock()
		if rl.clients[key] == cl {
			delete(rl.clients, key)
			removed++
		}
		rl.mu.Unlock()
	}
	return removed
}

// Middleware はクライアントのIPアドレスをキーとしてレート制限するミドルウェアを返す。
// 拒否時は429とRetry-Afterヘッダーを返し、後続のハンドラーは呼び出さない。
func (rl *RateLimiter) Middleware(mc metrics.MetricsCollector) func(next http.Handler) http.Handler {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientKey(r)

			ok, retryAfter := rl.admit(key)
			if !ok {
				mc.RecordSubmission(metrics.OutcomeRateLimited)
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", key),
					slog.String("path", r.URL.Path),
				)
				writeRateLimitResponse(w, retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey はリクエスト元のIPアドレスを返す。
// プロキシヘッダーを信頼する場合は前段のRealIPミドルウェアがRemoteAddrを書き換える。
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーには最も古い記録がウィンドウから外れるまでの秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, retryAfter time.Duration) {
	retryAfterSec := int(math.Ceil(retryAfter.Seconds()))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitAPIError())
}
