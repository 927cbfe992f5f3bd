package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/compasshq/lp-backend/internal/checkout"
	"github.com/compasshq/lp-backend/internal/inquiry"
	"github.com/compasshq/lp-backend/internal/metrics"
	"github.com/compasshq/lp-backend/internal/middleware"
	"github.com/compasshq/lp-backend/internal/model"
	"github.com/compasshq/lp-backend/internal/plan"
	"github.com/compasshq/lp-backend/internal/security"
)

// newTestRouter は偽の上流APIに接続した完全なルーターを構築する。
func newTestRouter(t *testing.T, upstreamURL string) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	httpClient := &http.Client{Timeout: 5 * time.Second}
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	sanitizer := security.NewFormSanitizer()

	normalizer := plan.NewNormalizer(model.ModeTiered, sanitizer)
	store := plan.NewStore(upstreamURL, httpClient, normalizer, 1048576, logger, collector)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("store.Load() error = %v", err)
	}

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		Logger:            logger,
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       rl,
		CrashDir:          t.TempDir(),
		Metrics:           collector,
		Gatherer:          registry,
		PlanProvider:      store,
		CheckoutStarter:   checkout.NewClient(upstreamURL, httpClient, 1048576, logger, collector),
		InquirySubmitter:  inquiry.NewClient(upstreamURL, httpClient, 1048576, logger, collector),
		Sanitizer:         sanitizer,
		MaxBodyBytes:      1048576,
		StaticDir:         "",
	})
}

// newFakeUpstream はチェックアウトAPIの偽実装を返す。
func newFakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/public/checkout/plans", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"small": {"name": "Remote Small", "price": 6000}}`))
	})
	mux.HandleFunc("/api/public/checkout", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url": "https://checkout.stripe.com/session/abc"}`))
	})
	mux.HandleFunc("/api/public/enterprise-inquiry", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := newTestRouter(t, newFakeUpstream(t).URL)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestRouter_PlansEndToEnd(t *testing.T) {
	router := newTestRouter(t, newFakeUpstream(t).URL)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/plans", nil))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}

	var resp struct {
		Plans map[string]struct {
			Name string `json:"name"`
		} `json:"plans"`
		Degraded bool `json:"degraded"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Plans["small"].Name != "Remote Small" {
		t.Errorf("small.name = %q, want remote value", resp.Plans["small"].Name)
	}
	if resp.Degraded {
		t.Error("degraded = true, want false")
	}
}

func TestRouter_CheckoutEndToEnd(t *testing.T) {
	router := newTestRouter(t, newFakeUpstream(t).URL)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout",
		strings.NewReader(`{"email": "taro@example.com", "tier": "small"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.URL != "https://checkout.stripe.com/session/abc" {
		t.Errorf("url = %q", body.URL)
	}
}

func TestRouter_InquiryEndToEnd(t *testing.T) {
	router := newTestRouter(t, newFakeUpstream(t).URL)

	req := httptest.NewRequest(http.MethodPost, "/api/enterprise-inquiry",
		strings.NewReader(validInquiryBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, newFakeUpstream(t).URL)

	// 1リクエスト処理してからスクレイプする
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/plans", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}

	body, err := io.ReadAll(w.Result().Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "compass_lp_plan_fetch_success_total") {
		t.Error("metrics output missing plan fetch counter")
	}
}

func TestRouter_SetsRequestIDAndSecurityHeaders(t *testing.T) {
	router := newTestRouter(t, newFakeUpstream(t).URL)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/plans", nil))

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("X-Content-Type-Options header missing")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("CORS header missing")
	}
}

func TestRouter_UnknownPathWithoutStaticDirIs404(t *testing.T) {
	router := newTestRouter(t, newFakeUpstream(t).URL)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/terms", nil))

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Result().StatusCode)
	}
}

func TestRouter_ServesStaticSPA(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	sanitizer := security.NewFormSanitizer()
	upstream := newFakeUpstream(t)
	httpClient := &http.Client{Timeout: 5 * time.Second}

	normalizer := plan.NewNormalizer(model.ModeTiered, sanitizer)
	store := plan.NewStore(upstream.URL, httpClient, normalizer, 1048576, logger, collector)

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	router := NewRouter(&RouterDeps{
		Logger:            logger,
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       rl,
		CrashDir:          t.TempDir(),
		Metrics:           collector,
		Gatherer:          registry,
		PlanProvider:      store,
		CheckoutStarter:   checkout.NewClient(upstream.URL, httpClient, 1048576, logger, collector),
		InquirySubmitter:  inquiry.NewClient(upstream.URL, httpClient, 1048576, logger, collector),
		Sanitizer:         sanitizer,
		MaxBodyBytes:      1048576,
		StaticDir:         newStaticDir(t),
	})

	for _, path := range []string{"/", "/terms", "/privacy"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, w.Result().StatusCode)
		}
	}
}
