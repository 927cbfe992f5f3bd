// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス収集のインターフェース。
// プランストア・チェックアウト・Enterprise相談の各クライアントから利用する。
type Recorder interface {
	RecordPlanFetch(success bool)
	RecordCheckout(result string)
	RecordInquiry(result string)
	RecordHTTPStatus(statusCode int)
	RecordUpstreamLatency(operation string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	planFetchSuccess prometheus.Counter
	planFetchFail    prometheus.Counter
	checkout         *prometheus.CounterVec
	inquiry          *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		planFetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compass_lp_plan_fetch_success_total",
			Help: "プラン設定の取得成功の合計数",
		}),
		planFetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compass_lp_plan_fetch_fail_total",
			Help: "プラン設定の取得失敗の合計数",
		}),
		checkout: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_lp_checkout_total",
			Help: "結果別のチェックアウトリクエスト数",
		}, []string{"result"}),
		inquiry: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_lp_inquiry_total",
			Help: "結果別のEnterprise相談送信数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_lp_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "compass_lp_upstream_latency_seconds",
			Help:    "上流APIのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.planFetchSuccess,
		c.planFetchFail,
		c.checkout,
		c.inquiry,
		c.httpStatus,
		c.upstreamLatency,
	)

	return c
}

// RecordPlanFetch はプラン設定の取得結果を記録する。
func (c *Collector) RecordPlanFetch(success bool) {
	if success {
		c.planFetchSuccess.Inc()
		return
	}
	c.planFetchFail.Inc()
}

// RecordCheckout はチェックアウトリクエストの結果を記録する。
func (c *Collector) RecordCheckout(result string) {
	c.checkout.WithLabelValues(result).Inc()
}

// RecordInquiry はEnterprise相談送信の結果を記録する。
func (c *Collector) RecordInquiry(result string) {
	c.inquiry.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamLatency は上流API呼び出しのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(operation string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// NopRecorder は何も記録しないRecorder。CLIサブコマンドやテストで利用する。
type NopRecorder struct{}

// RecordPlanFetch は何もしない。
func (NopRecorder) RecordPlanFetch(success bool) {}

// RecordCheckout は何もしない。
func (NopRecorder) RecordCheckout(result string) {}

// RecordInquiry は何もしない。
func (NopRecorder) RecordInquiry(result string) {}

// RecordHTTPStatus は何もしない。
func (NopRecorder) RecordHTTPStatus(statusCode int) {}

// RecordUpstreamLatency は何もしない。
func (NopRecorder) RecordUpstreamLatency(operation string, duration time.Duration) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
