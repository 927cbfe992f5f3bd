package plan

import (
	"math"
	"strings"

	"github.com/compasshq/lp-backend/internal/model"
)

// IsStudentEmail はメールアドレスが学生プランの対象かを判定する。
// メールアドレスを小文字化し、対象ドメインサフィックスのいずれかで
// 終わる場合に真を返す（論理OR）。
//
// 判定はサフィックス一致であり、ドメイン完全一致ではない。
// "xfake.ac.jp" も "real.ac.jp" もどちらも一致する（既定のポリシー）。
// ネットワークやI/Oを伴わない純粋な述語。
func IsStudentEmail(email string, domains []string) bool {
	lower := strings.ToLower(email)
	for _, d := range domains {
		if strings.HasSuffix(lower, d) {
			return true
		}
	}
	return false
}

// EligibleDomains は学生プランの対象ドメインサフィックスを返す。
// プランに設定が無い場合は組み込みの既定値を返す。
func EligibleDomains(plans model.CheckoutPlans) []string {
	student, ok := plans[model.TierStudent]
	if !ok || len(student.EligibleDomains) == 0 {
		return DefaultEligibleDomains()
	}
	return student.EligibleDomains
}

// ClampSeats はシート数を[1, 100]の範囲に丸める。
// NaN・±Infといった非有限値と1未満の入力は1、有限の100超は100になる。
func ClampSeats(n float64) int {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 1 {
		return 1
	}
	if n > 100 {
		return 100
	}
	return int(n)
}
