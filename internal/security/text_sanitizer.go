// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は目録の自由入力テキストを保存前に無害化する。
// PasswordHasher は利用者パスワードのハッシュ化と照合を行う。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由入力テキストのサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Plain は全てのマークアップを除去したプレーンテキストを返す。
	// 書名、著者名、コードなど一行のフィールドに使用する。
	Plain(s string) string
	// Rich は段落や強調など最小限のタグのみを残したHTMLを返す。
	// 書籍の注記や著者の略歴に使用する。
	Rich(s string) string
}

type textSanitizer struct {
	plain *bluemonday.Policy
	rich  *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements("p", "br", "ul", "ol", "li", "blockquote", "strong", "em")

	return &textSanitizer{
		plain: bluemonday.StrictPolicy(),
		rich:  rich,
	}
}

// Plain はタグを除去し、前後の空白を取り除く。
// StrictPolicyがエスケープした実体参照は元の文字に戻す。
func (s *textSanitizer) Plain(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(in)))
}

// Rich は許可タグ以外を除去する。
func (s *textSanitizer) Rich(in string) string {
	return strings.TrimSpace(s.rich.Sanitize(in))
}
