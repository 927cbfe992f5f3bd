package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/compasshq/lp-backend/internal/checkout"
	"github.com/compasshq/lp-backend/internal/middleware"
	"github.com/compasshq/lp-backend/internal/model"
	"github.com/compasshq/lp-backend/internal/plan"
)

// CheckoutHandler は申し込みのHTTPハンドラー。
// リクエストごとに申し込みフローの状態機械を生成して駆動する。
type CheckoutHandler struct {
	starter  checkout.Starter
	provider PlanProviderInterface
	logger   *slog.Logger
}

// NewCheckoutHandler はCheckoutHandlerを生成する。
func NewCheckoutHandler(starter checkout.Starter, provider PlanProviderInterface, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		starter:  starter,
		provider: provider,
		logger:   logger,
	}
}

// checkoutRequest は申し込みリクエストのボディ。
// tiered体系ではtier、seat体系ではquantityを指定する。
type checkoutRequest struct {
	Email    string  `json:"email"`
	Tier     string  `json:"tier"`
	Quantity float64 `json:"quantity"`
}

// checkoutResponse は申し込み成功時のレスポンス。決済ページへのリダイレクトURLを返す。
type checkoutResponse struct {
	URL string `json:"url"`
}

// Start は申し込みを受け付け、決済ページのURLを返す。
// POST /api/checkout
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	mode := h.provider.Mode()

	flow := checkout.NewFlow(h.starter, mode)
	var err error
	if mode == model.ModeSeat {
		err = flow.OpenSeat(req.Quantity)
	} else {
		err = flow.Open(model.Tier(req.Tier))
	}
	if err != nil {
		handleFlowError(w, err)
		return
	}

	if err := flow.SetEmail(req.Email); err != nil {
		handleFlowError(w, err)
		return
	}

	url, err := flow.Submit(r.Context())
	if err != nil {
		handleFlowError(w, err)
		return
	}

	// 学生ドメインからの有料プラン申し込みは学生プランの案内対象として記録する
	domains := plan.EligibleDomains(h.provider.Plans())
	h.logger.Info("チェックアウトを受け付けました",
		slog.String("mode", string(mode)),
		slog.String("tier", string(flow.SelectedTier())),
		slog.Int("seats", flow.SeatCount()),
		slog.Bool("student_eligible", plan.IsStudentEmail(req.Email, domains)),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(checkoutResponse{URL: url})
}
