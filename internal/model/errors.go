// Package model はドメインモデルとエラー分類を定義する。
package model

import (
	"fmt"
	"strings"
)

// 定義済みエラーコード
const (
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeDeliveryFailed    = "DELIVERY_FAILED"
	ErrCodeStorageFailed     = "STORAGE_FAILED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// エラーカテゴリ
const (
	CategoryValidation = "validation"
	CategoryRateLimit  = "rate_limit"
	CategorySystem     = "system"
)

// FieldError はフィールド単位のバリデーションエラー。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError は入力値の不備を表す。問題のあるフィールドをすべて列挙する。
type ValidationError struct {
	Fields []FieldError
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasField は指定フィールドのエラーが含まれるかを返す。
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// NewValidationError は単一フィールドのValidationErrorを生成する。
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// DeliveryError は通知メールの送信失敗を表す。
// 原因はサーバーログにのみ記録し、利用者には返さない。
type DeliveryError struct {
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

// Unwrap は原因エラーを返す。
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// StorageError は問い合わせの永続化失敗を表す。
// DeliveryErrorと同様、詳細は利用者に返さない。
type StorageError struct {
	Op  string
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

// Unwrap は原因エラーを返す。
func (e *StorageError) Unwrap() error {
	return e.Err
}

// APIError はHTTPレスポンス用の統一エラーフォーマットを表す。
type APIError struct {
	Code     string       // エラーコード
	Detail   string       // 利用者向けメッセージ
	Category string       // カテゴリ: validation, rate_limit, system
	Fields   []FieldError // バリデーションエラー時のみ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Detail)
}

// NewRateLimitAPIError はレート制限超過のAPIErrorを生成する。
func NewRateLimitAPIError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Detail:   "Too many requests. Please try again later.",
		Category: CategoryRateLimit,
	}
}

// NewValidationAPIError はValidationErrorからAPIErrorを生成する。
func NewValidationAPIError(ve *ValidationError) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Detail:   "Invalid contact submission.",
		Category: CategoryValidation,
		Fields:   ve.Fields,
	}
}

// NewSendFailedAPIError は送信失敗時の汎用APIErrorを生成する。
// DeliveryErrorとStorageErrorのどちらも同じ文言を返す。
func NewSendFailedAPIError(code string) *APIError {
	return &APIError{
		Code:     code,
		Detail:   "Failed to send message. Please try again later.",
		Category: CategorySystem,
	}
}
