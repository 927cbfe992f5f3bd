package inquiry

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/compasshq/lp-backend/internal/model"
)

// State はEnterprise相談フローの状態を表す。
type State string

const (
	// StateEntering はフォーム入力中。
	StateEntering State = "entering"
	// StateSubmitting は送信中（送信操作は無効化される）。
	StateSubmitting State = "submitting"
	// StateSubmitted は送信成功の終端状態。以降の送信は行われない。
	StateSubmitted State = "submitted"
	// StateError は送信失敗。エラー表示付きで再送信が可能。
	StateError State = "error"
)

// Submitter はEnterprise相談送信のインターフェース。Clientが実装する。
type Submitter interface {
	Submit(ctx context.Context, form model.EnterpriseInquiry) error
}

// Flow はEnterprise相談フォームの状態機械。
//
//	Entering → Submitting → Submitted（終端）
//	                     ↘ Error → Entering（再送信）
//
// 一度Submittedになると以降のSubmitは何もしない（リクエストも送らない）。
// 申し込みフローと違い、成功時のリダイレクトは無く、完了表示のみ。
type Flow struct {
	mu        sync.Mutex
	submitter Submitter

	state   State
	lastErr *model.APIError
}

// NewFlow はEntering状態のFlowを生成する。
func NewFlow(submitter Submitter) *Flow {
	return &Flow{
		submitter: submitter,
		state:     StateEntering,
	}
}

// Submit はフォームを検証して送信する。
//
// Submitted後の呼び出しは何もせずnilを返す（送信ロック）。
// 検証エラー・送信エラーはError状態に遷移し、再送信を受け付ける。
func (f *Flow) Submit(ctx context.Context, form model.EnterpriseInquiry) error {
	f.mu.Lock()
	if f.state == StateSubmitted {
		f.mu.Unlock()
		return nil
	}
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return model.NewInvalidFlowStateError("submit", string(StateSubmitting))
	}

	if err := Validate(form); err != nil {
		f.state = StateError
		f.lastErr = err
		f.mu.Unlock()
		return err
	}

	f.state = StateSubmitting
	f.lastErr = nil
	f.mu.Unlock()

	err := f.submitter.Submit(ctx, form)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.state = StateError
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			f.lastErr = apiErr
		} else {
			f.lastErr = model.NewInquiryFailedError("")
		}
		return err
	}

	f.state = StateSubmitted
	return nil
}

// State は現在の状態を返す。
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err は直近の送信エラーを返す。エラーが無ければnil。
func (f *Flow) Err() *model.APIError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Submitted は送信完了済みかを返す。
func (f *Flow) Submitted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == StateSubmitted
}

// Validate はフォーム入力を検証する。
// 必須項目（会社名・担当者名・メールアドレス・相談内容）の存在、
// メールアドレスの形式、想定利用人数が16以上の数値であることを確認する。
// 電話番号のみ任意。
func Validate(form model.EnterpriseInquiry) *model.APIError {
	if strings.TrimSpace(form.CompanyName) == "" {
		return model.NewInvalidInquiryError("会社名は必須です")
	}
	if strings.TrimSpace(form.ContactName) == "" {
		return model.NewInvalidInquiryError("担当者名は必須です")
	}
	email := strings.TrimSpace(form.Email)
	if email == "" || !strings.Contains(email, "@") {
		return model.NewInvalidInquiryError("メールアドレスを正しく入力してください")
	}
	if strings.TrimSpace(form.Message) == "" {
		return model.NewInvalidInquiryError("相談内容は必須です")
	}

	size, err := strconv.Atoi(strings.TrimSpace(form.TeamSize))
	if err != nil || size < model.MinEnterpriseTeamSize {
		return model.NewInvalidTeamSizeError()
	}

	return nil
}
