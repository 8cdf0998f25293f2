package model

import "time"

// DeliveryStatus は問い合わせ通知メールの配信状態を表す。
type DeliveryStatus string

const (
	// DeliveryStatusPending は保存済みで通知未送信の状態。
	DeliveryStatusPending DeliveryStatus = "pending"
	// DeliveryStatusDelivered は配信プロバイダが通知を受理した状態。
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	// DeliveryStatusUndelivered は通知の送信に失敗した状態。
	DeliveryStatusUndelivered DeliveryStatus = "undelivered"
)

// ContactInput はPOST /api/contactのリクエストボディ。
// バリデーション前の値を保持する。
type ContactInput struct {
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"required,email,max=255"`
	Phone   *string `json:"phone" validate:"omitempty"`
	Message string  `json:"message" validate:"required"`
}

// ContactSubmission は永続化される問い合わせを表す。
// ID、CreatedAtは作成時に一度だけ設定され、以降変更されない。
type ContactSubmission struct {
	ID        string
	Name      string
	Email     string
	Phone     *string // 任意。未入力の場合はnil
	Message   string
	CreatedAt time.Time

	DeliveryStatus    DeliveryStatus
	ProviderMessageID string
}

// PhoneOrDefault は電話番号を返す。未入力の場合はfallbackを返す。
func (s *ContactSubmission) PhoneOrDefault(fallback string) string {
	if s.Phone == nil || *s.Phone == "" {
		return fallback
	}
	return *s.Phone
}

// SubmitResult は問い合わせ送信の結果。
type SubmitResult struct {
	SubmissionID string
	MessageID    string // 配信プロバイダのメッセージID
}
