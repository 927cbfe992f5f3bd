// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/compasshq/lp-backend/internal/model"
	"github.com/compasshq/lp-backend/internal/plan"
)

// PlanProviderInterface はプランハンドラーが必要とするプランデータのインターフェース。
type PlanProviderInterface interface {
	// Plans は現在のプランデータのコピーを返す。
	Plans() model.CheckoutPlans
	// Degraded はフォールバック表示中かどうかと警告文を返す。
	Degraded() (bool, string)
	// Mode は料金体系を返す。
	Mode() model.PricingMode
}

// PlanHandler は料金プラン関連のHTTPハンドラー。
type PlanHandler struct {
	provider PlanProviderInterface
	demoURL  string
}

// NewPlanHandler はPlanHandlerを生成する。
func NewPlanHandler(provider PlanProviderInterface, demoURL string) *PlanHandler {
	return &PlanHandler{provider: provider, demoURL: demoURL}
}

// planEntry はプラン1件のAPIレスポンス。表示用の整形済み価格を含む。
type planEntry struct {
	model.Plan
	DisplayPrice string `json:"displayPrice"`
}

// plansResponse はプラン一覧のAPIレスポンス。
type plansResponse struct {
	Mode     model.PricingMode        `json:"mode"`
	Plans    map[model.Tier]planEntry `json:"plans"`
	Degraded bool                     `json:"degraded"`
	Warning  string                   `json:"warning,omitempty"`
	DemoURL  string                   `json:"demoUrl,omitempty"`
}

// ListPlans は現在の料金プラン一覧を返す。
// プラン取得に失敗している場合もフォールバック値とともに200を返し、
// degradedフラグと警告文で参考値であることを伝える。
// GET /api/plans
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans := h.provider.Plans()
	degraded, warning := h.provider.Degraded()

	entries := make(map[model.Tier]planEntry, len(plans))
	for tier, p := range plans {
		entries[tier] = planEntry{
			Plan:         p,
			DisplayPrice: plan.FormatPrice(p.Price, p.Currency),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(plansResponse{
		Mode:     h.provider.Mode(),
		Plans:    entries,
		Degraded: degraded,
		Warning:  warning,
		DemoURL:  h.demoURL,
	})
}

// eligibilityResponse は学生プラン判定のAPIレスポンス。
type eligibilityResponse struct {
	Student bool `json:"student"`
}

// CheckEligibility はメールアドレスが学生プランの対象かを判定する。
// 対象ドメインは学生プランのeligibleDomains（無ければデフォルト）を使用する。
// GET /api/eligibility?email=...
func (h *PlanHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("emailパラメータが必要です"))
		return
	}

	domains := plan.EligibleDomains(h.provider.Plans())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(eligibilityResponse{
		Student: plan.IsStudentEmail(email, domains),
	})
}
