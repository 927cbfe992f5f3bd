package model

// EnterpriseInquiry はEnterprise相談フォームの入力内容を表す。
// TeamSizeは数値文字列で、送信時に16以上であることが要求される。
// Phoneのみ任意項目。
type EnterpriseInquiry struct {
	CompanyName string `json:"companyName"`
	ContactName string `json:"contactName"`
	Email       string `json:"email"`
	TeamSize    string `json:"teamSize"`
	Phone       string `json:"phone"`
	Message     string `json:"message"`
}

// MinEnterpriseTeamSize はEnterprise相談の最小想定利用人数。
// セルフサーブプランの上限（15名）を超える組織が対象。
const MinEnterpriseTeamSize = 16
