package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue はレジストリから指定メトリクスのカウンタ値を取り出す。
// ラベル付きメトリクスは全ラベルの合計を返す。見つからない場合は-1。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		total := 0.0
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	return -1
}

func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func TestRecordPlanFetch_SplitsBySuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPlanFetch(true)
	c.RecordPlanFetch(true)
	c.RecordPlanFetch(false)

	if got := counterValue(t, reg, "compass_lp_plan_fetch_success_total"); got != 2 {
		t.Errorf("plan_fetch_success_total = %v, want 2", got)
	}
	if got := counterValue(t, reg, "compass_lp_plan_fetch_fail_total"); got != 1 {
		t.Errorf("plan_fetch_fail_total = %v, want 1", got)
	}
}

func TestRecordCheckout_CountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCheckout("redirect")
	c.RecordCheckout("redirect")
	c.RecordCheckout("url_missing")

	if got := counterValue(t, reg, "compass_lp_checkout_total"); got != 3 {
		t.Errorf("checkout_total = %v, want 3", got)
	}
}

func TestRecordInquiry_CountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordInquiry("submitted")
	c.RecordInquiry("network_error")

	if got := counterValue(t, reg, "compass_lp_inquiry_total"); got != 2 {
		t.Errorf("inquiry_total = %v, want 2", got)
	}
}

func TestRecordHTTPStatus_CountsByStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(502)

	if got := counterValue(t, reg, "compass_lp_http_status_total"); got != 3 {
		t.Errorf("http_status_total = %v, want 3", got)
	}
}

func TestRecordUpstreamLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamLatency("plans", 150*time.Millisecond)
	c.RecordUpstreamLatency("checkout", 2*time.Second)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "compass_lp_upstream_latency_seconds" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Errorf("expected 2 labeled series, got %d", len(mf.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("compass_lp_upstream_latency_seconds metric not found")
	}
}

func TestHandler_ServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordPlanFetch(true)

	server := httptest.NewServer(Handler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "compass_lp_plan_fetch_success_total 1") {
		t.Errorf("metrics output missing counter:\n%s", body)
	}
}

func TestNopRecorder_ImplementsRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}

	// panicしないことだけを確認する
	r.RecordPlanFetch(true)
	r.RecordCheckout("redirect")
	r.RecordInquiry("submitted")
	r.RecordHTTPStatus(200)
	r.RecordUpstreamLatency("plans", time.Second)
}
