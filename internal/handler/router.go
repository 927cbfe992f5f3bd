package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/compasshq/lp-backend/internal/checkout"
	"github.com/compasshq/lp-backend/internal/inquiry"
	"github.com/compasshq/lp-backend/internal/metrics"
	"github.com/compasshq/lp-backend/internal/middleware"
	"github.com/compasshq/lp-backend/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CrashDir          string

	// メトリクス
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer

	// プラン
	PlanProvider PlanProviderInterface
	DemoURL      string

	// 申し込み・Enterprise相談
	CheckoutStarter  checkout.Starter
	InquirySubmitter inquiry.Submitter
	Sanitizer        security.TextSanitizerService
	MaxBodyBytes     int64

	// 静的配信
	StaticDir string
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → SecurityHeaders → CORS
//
// /healthと/metricsはレート制限の外に配置する。APIルートには全般レート制限、
// 送信系エンドポイント（チェックアウト・Enterprise相談）には送信専用の
// レート制限を追加で適用する。マッチしないパスはSPAの静的配信が受ける。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger, deps.CrashDir))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	planHandler := NewPlanHandler(deps.PlanProvider, deps.DemoURL)
	checkoutHandler := NewCheckoutHandler(deps.CheckoutStarter, deps.PlanProvider, deps.Logger)
	inquiryHandler := NewInquiryHandler(deps.InquirySubmitter, deps.Sanitizer, deps.MaxBodyBytes)

	// --- 監視用のルート（レート制限の外） ---

	r.Get("/health", HealthCheck)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// プラン表示・学生判定
		r.Get("/api/plans", planHandler.ListPlans)
		r.Get("/api/eligibility", planHandler.CheckEligibility)

		// 送信系（送信専用レート制限を追加）
		r.With(deps.RateLimiter.SubmitMiddleware()).Post("/api/checkout", checkoutHandler.Start)
		r.With(deps.RateLimiter.SubmitMiddleware()).Post("/api/enterprise-inquiry", inquiryHandler.Submit)
	})

	// --- SPAの静的配信（規約ページ等のクライアントサイドルートを含む） ---

	r.NotFound(NewStaticHandler(deps.StaticDir).ServeHTTP)

	return r
}

// HealthCheck はサービスの稼働確認エンドポイント。
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
