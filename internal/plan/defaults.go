// Package plan は料金プランの正規化・フォールバック・学生判定を提供する。
//
// リモートのプラン設定は信用しない。取得したJSONはNormalizerでフィールド単位に
// 検証し、不正な値はハードコードされたデフォルトに置き換える。
package plan

import "github.com/compasshq/lp-backend/internal/model"

// defaultEligibleDomains は学生プランの対象ドメインサフィックスの組み込み既定値。
// リモート設定にeligibleDomainsが無い・不正な場合に使用する。
var defaultEligibleDomains = []string{".ac.jp", ".edu", ".ed.jp"}

// DefaultEligibleDomains は組み込みの学生対象ドメインサフィックスを返す。
func DefaultEligibleDomains() []string {
	return append([]string(nil), defaultEligibleDomains...)
}

// DefaultPlans は料金体系ごとのフォールバックプランを返す。
// 呼び出しごとに新しいコピーを返すため、呼び出し側が変更しても安全。
func DefaultPlans(mode model.PricingMode) model.CheckoutPlans {
	if mode == model.ModeSeat {
		return model.CheckoutPlans{
			model.TierStandard: {
				Name:       "Compass Standard",
				Price:      1200,
				MaxMembers: 100,
				Currency:   "JPY",
				Interval:   "month",
				TrialDays:  14,
				Features: []string{
					"全機能が使える",
					"1名あたり月額¥1,200",
					"14日間の無料トライアル",
				},
			},
			model.TierStudent: studentDefault(),
		}
	}

	return model.CheckoutPlans{
		model.TierSmall: {
			Name:       "Compass Small",
			Price:      5000,
			MaxMembers: 5,
			Currency:   "JPY",
			Interval:   "month",
			TrialDays:  14,
			Features: []string{
				"全機能が使える",
				"最大5名まで",
				"14日間の無料トライアル",
			},
		},
		model.TierStandard: {
			Name:       "Compass Standard",
			Price:      15000,
			MaxMembers: 15,
			Currency:   "JPY",
			Interval:   "month",
			TrialDays:  14,
			Features: []string{
				"全機能が使える",
				"最大15名まで",
				"14日間の無料トライアル",
			},
		},
		model.TierStudent: studentDefault(),
	}
}

// studentDefault は学生プランのフォールバック値を返す。
// 両方の料金体系で共通。
func studentDefault() model.Plan {
	return model.Plan{
		Name:       "Compass 学生プラン",
		Price:      0,
		MaxMembers: 5,
		Currency:   "JPY",
		Interval:   "month",
		TrialDays:  0,
		Features: []string{
			"全機能が使える",
			"学生は永久無料",
			".ac.jp / .edu / .ed.jp ドメインが対象",
		},
		EligibleDomains: DefaultEligibleDomains(),
	}
}
