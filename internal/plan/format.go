package plan

import (
	"math"
	"strconv"
	"strings"
)

// FormatPrice は価格を表示用文字列に整形する。
// 0は「無料」、JPYは「¥5,000」形式、それ以外の通貨は「5,000 USD」形式。
// 有限でない価格は0として扱う。
func FormatPrice(price float64, currency string) string {
	safe := price
	if math.IsNaN(safe) || math.IsInf(safe, 0) {
		safe = 0
	}
	if safe == 0 {
		return "無料"
	}

	formatted := groupThousands(safe)
	if currency == "" || currency == "JPY" {
		return "¥" + formatted
	}
	return formatted + " " + currency
}

// groupThousands は数値の整数部を3桁区切りで整形する。
func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
		fracPart = s[i:]
	}

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign = "-"
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	return sign + b.String() + fracPart
}
