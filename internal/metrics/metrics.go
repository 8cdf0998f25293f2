// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 問い合わせ処理の結果ラベル
const (
	OutcomeAccepted       = "accepted"
	OutcomeRateLimited    = "rate_limited"
	OutcomeInvalid        = "invalid"
	OutcomeDeliveryFailed = "delivery_failed"
	OutcomeStorageFailed  = "storage_failed"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、ハンドラー、サービス層から利用する。
type MetricsCollector interface {
	RecordSubmission(outcome string)
	RecordDeliveryLatency(duration time.Duration, success bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	reg             prometheus.Registerer
	submissions     *prometheus.CounterVec
	deliveryLatency *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		reg: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_contact_submissions_total",
			Help: "問い合わせ送信の処理結果別の件数",
		}, []string{"outcome"}),
		deliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portfolio_email_delivery_seconds",
			Help:    "通知メール送信のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.submissions,
		c.deliveryLatency,
	)

	// 全ラベルを0で初期化しておく
	for _, o := range []string{OutcomeAccepted, OutcomeRateLimited, OutcomeInvalid, OutcomeDeliveryFailed, OutcomeStorageFailed} {
		c.submissions.WithLabelValues(o)
	}

	return c
}

// RecordSubmission は問い合わせの処理結果を記録する。
func (c *Collector) RecordSubmission(outcome string) {
	c.submissions.WithLabelValues(outcome).Inc()
}

// RecordDeliveryLatency は通知メール送信のレイテンシを記録する。
func (c *Collector) RecordDeliveryLatency(duration time.Duration, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.deliveryLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// RegisterRateLimiterKeys はレートリミッターが追跡中のクライアント数をゲージとして登録する。
func (c *Collector) RegisterRateLimiterKeys(count func() int) {
	c.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "portfolio_rate_limiter_tracked_clients",
		Help: "レートリミッターが保持しているクライアントキーの数",
	}, func() float64 {
		return float64(count())
	}))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。
type NopCollector struct{}

// RecordSubmission は何もしない。
func (NopCollector) RecordSubmission(string) {}

// RecordDeliveryLatency は何もしない。
func (NopCollector) RecordDeliveryLatency(time.Duration, bool) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
