package repository

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/ARAVINDH-1505/my-portfolio/internal/model"
)

// maxDeliveryErrorLength はdelivery_errorに保存するエラー文字列の最大バイト数。
const maxDeliveryErrorLength = 1000

// PostgresContactRepo はPostgreSQLを使用した問い合わせリポジトリ。
type PostgresContactRepo struct {
	db Executor
}

// NewPostgresContactRepo はPostgresContactRepoを生成する。
func NewPostgresContactRepo(db Executor) *PostgresContactRepo {
	return &PostgresContactRepo{db: db}
}

// Create は問い合わせを1件INSERTする。
// phoneがnilの場合はNULLとして保存される。
func (r *PostgresContactRepo) Create(ctx context.Context, s *model.ContactSubmission) error {
	status := s.DeliveryStatus
	if status == "" {
		status = model.DeliveryStatusPending
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contact_messages (id, name, email, phone, message, created_at, delivery_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.Name, s.Email, s.Phone, s.Message, s.CreatedAt, string(status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert contact message: %w", err)
	}

	return nil
}

// MarkDelivered は配信成功とプロバイダのメッセージIDを記録する。
func (r *PostgresContactRepo) MarkDelivered(ctx context.Context, id, providerMessageID string, deliveredAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE contact_messages
		 SET delivery_status = $2, provider_message_id = $3, delivered_at = $4, delivery_error = NULL
		 WHERE id = $1`,
		id, string(model.DeliveryStatusDelivered), providerMessageID, deliveredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to mark contact message delivered: %w", err)
	}
	return expectOneRow(result, id)
}

// MarkUndelivered は配信失敗と原因を記録する。
// 失敗した問い合わせは後から再送できるよう、行自体は残す。
func (r *PostgresContactRepo) MarkUndelivered(ctx context.Context, id, reason string) error {
	reason = truncateUTF8(reason, maxDeliveryErrorLength)

	result, err := r.db.ExecContext(ctx,
		`UPDATE contact_messages
		 SET delivery_status = $2, delivery_error = $3
		 WHERE id = $1`,
		id, string(model.DeliveryStatusUndelivered), reason,
	)
	if err != nil {
		return fmt.Errorf("failed to mark contact message undelivered: %w", err)
	}
	return expectOneRow(result, id)
}

// truncateUTF8 はsを最大maxBytesバイトに切り詰める。
// マルチバイト文字の途中では切らない。
func truncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func expectOneRow(result rowsAffecter, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("contact message not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ ContactRepository = (*PostgresContactRepo)(nil)
