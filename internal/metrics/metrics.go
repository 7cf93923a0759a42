// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアとワーカーから利用する。
type MetricsCollector interface {
	RecordRequest(method string, statusCode int, duration time.Duration)
	RecordAuthFailure(reason string)
	RecordReadOnlyRejection()
	RecordReservationsExpired(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requests            *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	authFailures        *prometheus.CounterVec
	readOnlyRejections  prometheus.Counter
	reservationsExpired prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_http_requests_total",
			Help: "メソッドとステータスコード別のHTTPリクエスト数",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookshelf_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_auth_failures_total",
			Help: "トークン検証失敗の理由別件数",
		}, []string{"reason"}),
		readOnlyRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookshelf_readonly_rejections_total",
			Help: "読み取り専用モードで拒否した変更リクエスト数",
		}),
		reservationsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookshelf_reservations_expired_total",
			Help: "期限切れで削除した取り置きの合計数",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.authFailures,
		c.readOnlyRejections,
		c.reservationsExpired,
	)

	return c
}

// RecordRequest はリクエスト数と処理時間を記録する。
func (c *Collector) RecordRequest(method string, statusCode int, duration time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordAuthFailure はトークン検証失敗を記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordReadOnlyRejection は読み取り専用モードによる拒否を記録する。
func (c *Collector) RecordReadOnlyRejection() {
	c.readOnlyRejections.Inc()
}

// RecordReservationsExpired は期限切れで削除した取り置き数を記録する。
func (c *Collector) RecordReservationsExpired(count int64) {
	c.reservationsExpired.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type NopCollector struct{}

func (NopCollector) RecordRequest(string, int, time.Duration) {}
func (NopCollector) RecordAuthFailure(string)                 {}
func (NopCollector) RecordReadOnlyRejection()                 {}
func (NopCollector) RecordReservationsExpired(int64)          {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
