package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, plan, checkout, inquiry, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidTier        = "INVALID_TIER"
	ErrCodeInvalidEmail       = "INVALID_EMAIL"
	ErrCodeInvalidFlowState   = "INVALID_FLOW_STATE"
	ErrCodePlanFetchFailed    = "PLAN_FETCH_FAILED"
	ErrCodeCheckoutFailed     = "CHECKOUT_FAILED"
	ErrCodeCheckoutURLMissing = "CHECKOUT_URL_MISSING"
	ErrCodeInvalidInquiry     = "INVALID_INQUIRY"
	ErrCodeInquiryFailed      = "INQUIRY_FAILED"
)

// NewInvalidRequestError はリクエストボディ不正のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストの解析に失敗しました: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidTierError は選択不可能なプランが指定された場合のエラーを生成する。
func NewInvalidTierError(tier string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTier,
		Message:  fmt.Sprintf("無効なプランです: %s", tier),
		Category: "validation",
		Action:   "small または standard のいずれかを指定してください。",
	}
}

// NewInvalidEmailError はメールアドレス未入力のエラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "メールアドレスを入力してください。",
		Category: "validation",
		Action:   "メールアドレスを入力してから送信してください。",
	}
}

// NewInvalidFlowStateError は不正な状態遷移が要求された場合のエラーを生成する。
func NewInvalidFlowStateError(op, state string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFlowState,
		Message:  fmt.Sprintf("この状態では操作できません: %s (state=%s)", op, state),
		Category: "system",
		Action:   "フォームを開き直してから再度お試しください。",
	}
}

// NewPlanFetchFailedError はプラン設定の取得失敗エラーを生成する。
// フォールバック値での表示は継続されるため、非ブロッキングの警告として扱う。
func NewPlanFetchFailedError() *APIError {
	return &APIError{
		Code:     ErrCodePlanFetchFailed,
		Message:  "プラン情報の取得に失敗しました（表示は参考値です）",
		Category: "plan",
		Action:   "しばらく待ってからページを再読み込みしてください。",
	}
}

// NewCheckoutFailedError は申し込み処理の失敗エラーを生成する。
// reasonが空の場合は汎用メッセージを使用する。
func NewCheckoutFailedError(reason string) *APIError {
	if reason == "" {
		reason = "申し込み処理に失敗しました"
	}
	return &APIError{
		Code:     ErrCodeCheckoutFailed,
		Message:  reason,
		Category: "checkout",
		Action:   "入力内容を確認のうえ、再度お試しください。",
	}
}

// NewCheckoutURLMissingError は決済ページURLが取得できなかった場合のエラーを生成する。
// 2xx応答でもurlフィールドが欠落していれば失敗として扱う。
func NewCheckoutURLMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeCheckoutURLMissing,
		Message:  "決済ページのURLを取得できませんでした",
		Category: "checkout",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidInquiryError はEnterprise相談フォームの入力不備エラーを生成する。
func NewInvalidInquiryError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInquiry,
		Message:  fmt.Sprintf("入力内容に不備があります: %s", reason),
		Category: "validation",
		Action:   "必須項目をすべて入力してから送信してください。",
	}
}

// NewInvalidTeamSizeError は想定利用人数の不備エラーを生成する。
func NewInvalidTeamSizeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInquiry,
		Message:  fmt.Sprintf("想定利用人数は%d名以上で入力してください。", MinEnterpriseTeamSize),
		Category: "validation",
		Action:   "16名未満の場合はセルフサーブプランをご利用ください。",
	}
}

// NewInquiryFailedError はEnterprise相談の送信失敗エラーを生成する。
// reasonが空の場合は汎用メッセージを使用する。
func NewInquiryFailedError(reason string) *APIError {
	if reason == "" {
		reason = "送信に失敗しました"
	}
	return &APIError{
		Code:     ErrCodeInquiryFailed,
		Message:  reason,
		Category: "inquiry",
		Action:   "時間をおいて再度お試しください。",
	}
}

// NewInquiryNetworkError はEnterprise相談のネットワーク起因の失敗エラーを生成する。
func NewInquiryNetworkError() *APIError {
	return &APIError{
		Code:     ErrCodeInquiryFailed,
		Message:  "送信に失敗しました。時間をおいて再度お試しください。",
		Category: "inquiry",
		Action:   "時間をおいて再度お試しください。",
	}
}
