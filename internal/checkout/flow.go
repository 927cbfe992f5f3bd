package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/compasshq/lp-backend/internal/model"
	"github.com/compasshq/lp-backend/internal/plan"
)

// State は申し込みフローの状態を表す。
type State string

const (
	// StateClosed はモーダルが閉じている状態。
	StateClosed State = "closed"
	// StateEntering はプラン・メールアドレスの入力中。
	StateEntering State = "entering"
	// StateSubmitting は送信中（送信操作は無効化される）。
	StateSubmitting State = "submitting"
	// StateRedirecting は決済ページURLの取得に成功した終端状態。
	StateRedirecting State = "redirecting"
	// StateError は送信失敗。エラー表示付きで再入力・再送信が可能。
	StateError State = "error"
)

// Starter はチェックアウト開始のインターフェース。Clientが実装する。
type Starter interface {
	Start(ctx context.Context, req StartRequest) (string, error)
}

// Flow は申し込みモーダルの状態機械。
//
//	Closed → Entering → Submitting → Redirecting（終端）
//	                              ↘ Error →（再入力で）Entering
//
// Closeはどの状態からでも可能で、入力中の状態をすべて破棄する。
// Close後に完了した送信の結果はエポック比較で破棄され、状態に反映されない。
type Flow struct {
	mu      sync.Mutex
	starter Starter
	mode    model.PricingMode

	state   State
	email   string
	tier    model.Tier
	seats   int
	lastErr *model.APIError
	url     string
	epoch   int
}

// NewFlow はClosed状態のFlowを生成する。
func NewFlow(starter Starter, mode model.PricingMode) *Flow {
	return &Flow{
		starter: starter,
		mode:    mode,
		state:   StateClosed,
		tier:    model.TierSmall,
		seats:   1,
	}
}

// Open はプランを指定してモーダルを開く（tiered体系）。
// 何度開き直してもメールアドレスとエラーはリセットされる。
func (f *Flow) Open(tier model.Tier) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mode != model.ModeTiered {
		return model.NewInvalidFlowStateError("open", string(f.state))
	}
	if !isSelectable(tier, f.mode) {
		return model.NewInvalidTierError(string(tier))
	}

	f.reset()
	f.tier = tier
	f.state = StateEntering
	return nil
}

// OpenSeat はシート数を指定してモーダルを開く（seat体系）。
// シート数は[1, 100]に丸められる。
func (f *Flow) OpenSeat(seats float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mode != model.ModeSeat {
		return model.NewInvalidFlowStateError("open_seat", string(f.state))
	}

	f.reset()
	f.seats = plan.ClampSeats(seats)
	f.state = StateEntering
	return nil
}

// SelectTier は入力中のプラン選択を変更する。
func (f *Flow) SelectTier(tier model.Tier) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mode != model.ModeTiered {
		return model.NewInvalidFlowStateError("select_tier", string(f.state))
	}
	if !f.editable() {
		return model.NewInvalidFlowStateError("select_tier", string(f.state))
	}
	if !isSelectable(tier, f.mode) {
		return model.NewInvalidTierError(string(tier))
	}

	f.tier = tier
	return nil
}

// SetSeatCount は入力中のシート数を変更する。[1, 100]に丸められる。
func (f *Flow) SetSeatCount(seats float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mode != model.ModeSeat || !f.editable() {
		return model.NewInvalidFlowStateError("set_seat_count", string(f.state))
	}

	f.seats = plan.ClampSeats(seats)
	return nil
}

// SetEmail は入力中のメールアドレスを変更する。
// Error状態からの編集はEnteringに戻す。
func (f *Flow) SetEmail(email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.editable() {
		return model.NewInvalidFlowStateError("set_email", string(f.state))
	}

	f.email = email
	if f.state == StateError {
		f.state = StateEntering
	}
	return nil
}

// Submit は申し込みを送信し、成功時は決済ページURLを返す。
//
// メールアドレス未入力では送信しない。送信中は状態がSubmittingになり、
// 多重送信は拒否される。成功でRedirecting（終端）、失敗でErrorに遷移する。
// 送信中にCloseされた場合、結果は返すが状態には反映しない。
func (f *Flow) Submit(ctx context.Context) (string, error) {
	f.mu.Lock()
	if !f.editable() {
		f.mu.Unlock()
		return "", model.NewInvalidFlowStateError("submit", string(f.state))
	}
	if f.email == "" {
		f.mu.Unlock()
		return "", model.NewInvalidEmailError()
	}

	f.state = StateSubmitting
	f.lastErr = nil
	epoch := f.epoch
	req := f.buildRequest()
	f.mu.Unlock()

	url, err := f.starter.Start(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()

	// Close（またはreopen）済みなら結果を破棄する
	if f.epoch != epoch {
		return url, err
	}

	if err != nil {
		f.state = StateError
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			f.lastErr = apiErr
		} else {
			f.lastErr = model.NewCheckoutFailedError("")
		}
		return "", err
	}

	f.state = StateRedirecting
	f.url = url
	return url, nil
}

// Close はモーダルを閉じ、入力中の状態をすべて破棄する。
// どの状態からでも呼び出せる。送信中のリクエストは中断しないが、
// その結果は状態に反映されない。
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
	f.state = StateClosed
}

// State は現在の状態を返す。
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Email は入力中のメールアドレスを返す。
func (f *Flow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// SelectedTier は選択中のプランを返す。
func (f *Flow) SelectedTier() model.Tier {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tier
}

// SeatCount は入力中のシート数を返す。
func (f *Flow) SeatCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seats
}

// Err は直近の送信エラーを返す。エラーが無ければnil。
func (f *Flow) Err() *model.APIError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// RedirectURL は取得済みの決済ページURLを返す。Redirecting状態でのみ非空。
func (f *Flow) RedirectURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

// reset は入力内容・エラー・URLを破棄し、エポックを進める。
// ロック保持中に呼ぶこと。
func (f *Flow) reset() {
	f.email = ""
	f.lastErr = nil
	f.url = ""
	f.tier = model.TierSmall
	f.seats = 1
	f.epoch++
}

// editable は入力操作を受け付ける状態かを返す。ロック保持中に呼ぶこと。
func (f *Flow) editable() bool {
	return f.state == StateEntering || f.state == StateError
}

// buildRequest は現在の入力からStartRequestを構築する。ロック保持中に呼ぶこと。
func (f *Flow) buildRequest() StartRequest {
	if f.mode == model.ModeSeat {
		return StartRequest{Email: f.email, Quantity: f.seats}
	}
	return StartRequest{Email: f.email, Tier: f.tier}
}

// isSelectable はプランが申し込みモーダルで選択可能かを返す。
func isSelectable(tier model.Tier, mode model.PricingMode) bool {
	for _, t := range model.SelectableTiers(mode) {
		if t == tier {
			return true
		}
	}
	return false
}
