package plan

import (
	"math"

	"github.com/compasshq/lp-backend/internal/model"
)

// TextSanitizer は表示文字列のサニタイズのインターフェース。
// リモート設定のプラン名・機能リストはフロントエンドがそのまま描画するため、
// 正規化の段階でHTMLタグを除去する。
type TextSanitizer interface {
	SanitizeText(input string) string
}

// Normalizer はリモートのプラン設定をフィールド単位に検証・正規化する。
//
// 入力はパース済みJSONの任意の値（any）。型が合わないフィールドは
// フォールバックプランの値に、オブジェクトでないプランはプラン丸ごと
// フォールバックに置き換える。例外は発生させず、どんな入力に対しても
// Tiers(mode)の全キーを持つ完全なCheckoutPlansを返す（全域性）。
//
// フィールド粒度のフォールバックのため、priceが正しくfeaturesが壊れている
// 応答では、実際のpriceとデフォルトのfeaturesが併用される。
type Normalizer struct {
	mode      model.PricingMode
	sanitizer TextSanitizer
}

// NewNormalizer はNormalizerの新しいインスタンスを生成する。
func NewNormalizer(mode model.PricingMode, sanitizer TextSanitizer) *Normalizer {
	return &Normalizer{mode: mode, sanitizer: sanitizer}
}

// Mode は正規化対象の料金体系を返す。
func (n *Normalizer) Mode() model.PricingMode {
	return n.mode
}

// Normalize は任意のJSON値を安全なCheckoutPlansに正規化する。
// 純粋関数であり、副作用を持たない。
func (n *Normalizer) Normalize(value any) model.CheckoutPlans {
	defaults := DefaultPlans(n.mode)

	candidate, ok := value.(map[string]any)
	if !ok {
		candidate = map[string]any{}
	}

	out := make(model.CheckoutPlans, len(defaults))
	for _, tier := range model.Tiers(n.mode) {
		out[tier] = n.normalizePlan(candidate[string(tier)], defaults[tier])
	}
	return out
}

// normalizePlan は1プラン分の値をフィールド単位に正規化する。
// オブジェクトでない値はフォールバックをそのまま返す。
func (n *Normalizer) normalizePlan(value any, fallback model.Plan) model.Plan {
	candidate, ok := value.(map[string]any)
	if !ok {
		return fallback.Clone()
	}

	features := n.toStringList(candidate["features"], fallback.Features)
	eligibleDomains := n.toStringList(candidate["eligibleDomains"], fallback.EligibleDomains)

	return model.Plan{
		Name:            n.toText(candidate["name"], fallback.Name),
		Price:           toFiniteNumber(candidate["price"], fallback.Price),
		MaxMembers:      toNonNegativeInt(candidate["maxMembers"], fallback.MaxMembers),
		Currency:        n.toText(candidate["currency"], fallback.Currency),
		Interval:        n.toText(candidate["interval"], fallback.Interval),
		TrialDays:       toNonNegativeInt(candidate["trialDays"], fallback.TrialDays),
		Features:        features,
		EligibleDomains: eligibleDomains,
	}
}

// toFiniteNumber は有限かつ非負の数値のみ受け入れ、それ以外はフォールバックを返す。
func toFiniteNumber(value any, fallback float64) float64 {
	f, ok := value.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return fallback
	}
	return f
}

// toNonNegativeInt は有限かつ非負の数値を整数に切り捨てて受け入れる。
func toNonNegativeInt(value any, fallback int) int {
	f, ok := value.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return fallback
	}
	return int(f)
}

// toText は文字列のみ受け入れ、サニタイズして返す。
// サニタイズ後に空になった場合もフォールバックを返す。
func (n *Normalizer) toText(value any, fallback string) string {
	s, ok := value.(string)
	if !ok {
		return fallback
	}
	cleaned := n.sanitizer.SanitizeText(s)
	if cleaned == "" && fallback != "" {
		return fallback
	}
	return cleaned
}

// toStringList は配列の文字列要素のみを抽出しサニタイズする。
// 配列でない・抽出結果が空の場合はフォールバックのコピーを返す
// （機能リストを空のまま表示させない）。
func (n *Normalizer) toStringList(value any, fallback []string) []string {
	items, ok := value.([]any)
	if !ok {
		return append([]string(nil), fallback...)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		cleaned := n.sanitizer.SanitizeText(s)
		if cleaned == "" {
			continue
		}
		out = append(out, cleaned)
	}

	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
