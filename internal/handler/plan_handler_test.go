package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/compasshq/lp-backend/internal/model"
	"github.com/compasshq/lp-backend/internal/plan"
)

// stubPlanProvider はテスト用のPlanProviderInterface実装。
type stubPlanProvider struct {
	plans    model.CheckoutPlans
	degraded bool
	warning  string
	mode     model.PricingMode
}

func (s *stubPlanProvider) Plans() model.CheckoutPlans { return s.plans.Clone() }
func (s *stubPlanProvider) Degraded() (bool, string)   { return s.degraded, s.warning }
func (s *stubPlanProvider) Mode() model.PricingMode    { return s.mode }

func defaultProvider() *stubPlanProvider {
	return &stubPlanProvider{
		plans: plan.DefaultPlans(model.ModeTiered),
		mode:  model.ModeTiered,
	}
}

func TestListPlans_ReturnsAllTiersWithDisplayPrice(t *testing.T) {
	h := NewPlanHandler(defaultProvider(), "https://compass-demo.web.app/")

	w := httptest.NewRecorder()
	h.ListPlans(w, httptest.NewRequest(http.MethodGet, "/api/plans", nil))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}

	var resp struct {
		Mode     string `json:"mode"`
		Degraded bool   `json:"degraded"`
		Warning  string `json:"warning"`
		DemoURL  string `json:"demoUrl"`
		Plans    map[string]struct {
			Name         string  `json:"name"`
			Price        float64 `json:"price"`
			DisplayPrice string  `json:"displayPrice"`
		} `json:"plans"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Mode != "tiered" {
		t.Errorf("mode = %q, want tiered", resp.Mode)
	}
	if resp.Degraded {
		t.Error("degraded = true, want false")
	}
	if len(resp.Plans) != 3 {
		t.Fatalf("plan count = %d, want 3", len(resp.Plans))
	}
	if resp.Plans["small"].DisplayPrice != "¥5,000" {
		t.Errorf("small.displayPrice = %q, want ¥5,000", resp.Plans["small"].DisplayPrice)
	}
	if resp.Plans["student"].DisplayPrice != "無料" {
		t.Errorf("student.displayPrice = %q, want 無料", resp.Plans["student"].DisplayPrice)
	}
	if resp.DemoURL != "https://compass-demo.web.app/" {
		t.Errorf("demoUrl = %q", resp.DemoURL)
	}
}

func TestListPlans_DegradedIncludesWarning(t *testing.T) {
	provider := defaultProvider()
	provider.degraded = true
	provider.warning = plan.FetchWarning

	h := NewPlanHandler(provider, "")

	w := httptest.NewRecorder()
	h.ListPlans(w, httptest.NewRequest(http.MethodGet, "/api/plans", nil))

	// フォールバック表示でも200を返す
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}

	var resp struct {
		Degraded bool   `json:"degraded"`
		Warning  string `json:"warning"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Degraded {
		t.Error("degraded = false, want true")
	}
	if resp.Warning != plan.FetchWarning {
		t.Errorf("warning = %q, want %q", resp.Warning, plan.FetchWarning)
	}
}

func TestCheckEligibility(t *testing.T) {
	h := NewPlanHandler(defaultProvider(), "")

	tests := []struct {
		email string
		want  bool
	}{
		{"taro@u-tokyo.ac.jp", true},
		{"jane@mit.edu", true},
		{"taro@example.com", false},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		h.CheckEligibility(w, httptest.NewRequest(http.MethodGet, "/api/eligibility?email="+tt.email, nil))

		if w.Result().StatusCode != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", tt.email, w.Result().StatusCode)
		}

		var resp struct {
			Student bool `json:"student"`
		}
		if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Student != tt.want {
			t.Errorf("student(%q) = %v, want %v", tt.email, resp.Student, tt.want)
		}
	}
}

func TestCheckEligibility_MissingEmailIs400(t *testing.T) {
	h := NewPlanHandler(defaultProvider(), "")

	w := httptest.NewRecorder()
	h.CheckEligibility(w, httptest.NewRequest(http.MethodGet, "/api/eligibility", nil))

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
}

func TestCheckEligibility_UsesRemoteDomains(t *testing.T) {
	provider := defaultProvider()
	plans := provider.plans
	student := plans[model.TierStudent]
	student.EligibleDomains = []string{".example.edu"}
	plans[model.TierStudent] = student

	h := NewPlanHandler(provider, "")

	w := httptest.NewRecorder()
	h.CheckEligibility(w, httptest.NewRequest(http.MethodGet, "/api/eligibility?email=x@u-tokyo.ac.jp", nil))

	var resp struct {
		Student bool `json:"student"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// リモート設定が.example.eduのみの場合、.ac.jpは対象外
	if resp.Student {
		t.Error("student = true, want false with remote domains")
	}
}
