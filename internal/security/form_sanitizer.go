package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はプレーンテキスト入力のサニタイズ機能のインターフェース。
// フォーム入力の転送前と、リモートから取得したプラン表示文字列の正規化時に使用する。
type TextSanitizerService interface {
	// SanitizeText は入力からすべてのHTMLタグを除去し、前後の空白を削除した
	// プレーンテキストを返す。エンティティ化された文字は元のテキストに戻す。
	// 空文字列の入力には空文字列を返す。同一入力に対して常に同一出力を返す。
	SanitizeText(input string) string
}

// formSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicy（全タグ除去）を保持し、スレッドセーフに動作する。
type formSanitizer struct {
	policy *bluemonday.Policy
}

// NewFormSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
func NewFormSanitizer() *formSanitizer {
	return &formSanitizer{policy: bluemonday.StrictPolicy()}
}

// SanitizeText は入力からHTMLタグを除去したプレーンテキストを返す。
// StrictPolicyはタグ除去後の文字をエンティティ化するため、
// "&amp;" 等をhtml.UnescapeStringで元のテキストに戻してから返す。
func (s *formSanitizer) SanitizeText(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(input)))
}
