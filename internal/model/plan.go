// Package model はドメインモデルを定義する。
package model

// PricingMode は料金体系のバリアントを表す。
// tiered（small/standard/studentの固定プラン）とseat（シート課金）の
// 2つの体系をデプロイ単位で切り替える。
type PricingMode string

const (
	// ModeTiered は固定プラン体系（small/standard/student）を示す。
	ModeTiered PricingMode = "tiered"
	// ModeSeat はシート課金体系（standard/student）を示す。
	ModeSeat PricingMode = "seat"
)

// IsValid は料金体系が定義済みの値かを検証する。
func (m PricingMode) IsValid() bool {
	return m == ModeTiered || m == ModeSeat
}

// Tier はプラン名のキーを表す。
type Tier string

const (
	// TierSmall はSmallプラン（tiered体系のみ）。
	TierSmall Tier = "small"
	// TierStandard はStandardプラン。
	TierStandard Tier = "standard"
	// TierStudent は学生プラン。
	TierStudent Tier = "student"
)

// Tiers は料金体系ごとの必須プランキーを返す。
// 正規化後のCheckoutPlansはこのキー集合を過不足なく持つ。
func Tiers(mode PricingMode) []Tier {
	if mode == ModeSeat {
		return []Tier{TierStandard, TierStudent}
	}
	return []Tier{TierSmall, TierStandard, TierStudent}
}

// SelectableTiers は申し込みモーダルで選択可能なプランキーを返す。
// 学生プランは申し込み対象外（メールドメインで自動判定される案内用プラン）。
func SelectableTiers(mode PricingMode) []Tier {
	if mode == ModeSeat {
		return []Tier{TierStandard}
	}
	return []Tier{TierSmall, TierStandard}
}

// Plan は1つの料金プランを表す。
// Priceはtiered体系では月額、seat体系では1シートあたりの月額。
type Plan struct {
	Name            string   `json:"name"`
	Price           float64  `json:"price"`
	MaxMembers      int      `json:"maxMembers"`
	Currency        string   `json:"currency,omitempty"`
	Interval        string   `json:"interval,omitempty"`
	TrialDays       int      `json:"trialDays,omitempty"`
	Features        []string `json:"features"`
	EligibleDomains []string `json:"eligibleDomains,omitempty"`
}

// Clone はPlanのディープコピーを返す。
func (p Plan) Clone() Plan {
	c := p
	c.Features = append([]string(nil), p.Features...)
	c.EligibleDomains = append([]string(nil), p.EligibleDomains...)
	return c
}

// CheckoutPlans はプランキーからPlanへの固定キーマッピング。
// 正規化を通過した値は、Tiers(mode)のキーをすべて持つことが保証される。
type CheckoutPlans map[Tier]Plan

// Clone はCheckoutPlansのディープコピーを返す。
func (cp CheckoutPlans) Clone() CheckoutPlans {
	out := make(CheckoutPlans, len(cp))
	for tier, plan := range cp {
		out[tier] = plan.Clone()
	}
	return out
}
