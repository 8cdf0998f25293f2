// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MessageSanitizer は問い合わせ本文を通知メールに埋め込めるHTML断片に変換する。
// 本文はエスケープ後に改行を<br>へ置換し、bluemondayの許可リストで
// br以外のタグが残らないことを保証する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MessageSanitizer は問い合わせ本文のHTML化機能のインターフェースを定義する。
type MessageSanitizer interface {
	// Sanitize はプレーンテキストの本文を安全なHTML断片に変換する。
	// 出力に含まれるタグはbrのみ。同一入力に対して常に同一出力を返す。
	Sanitize(message string) string
}

// messageSanitizer はMessageSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなので共有して使う。
type messageSanitizer struct {
	policy *bluemonday.Policy
}

var newlineReplacer = strings.NewReplacer("\r\n", "<br>", "\r", "<br>", "\n", "<br>")

// NewMessageSanitizer はMessageSanitizerの新しいインスタンスを生成する。
func NewMessageSanitizer() *messageSanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("br")

	return &messageSanitizer{
		policy: p,
	}
}

// Sanitize は本文をエスケープし、改行を<br>に置換したうえでポリシーを適用する。
func (s *messageSanitizer) Sanitize(message string) string {
	if message == "" {
		return ""
	}
	escaped := html.EscapeString(message)
	return s.policy.Sanitize(newlineReplacer.Replace(escaped))
}

var _ MessageSanitizer = (*messageSanitizer)(nil)
