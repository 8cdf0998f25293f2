// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ARAVINDH-1505/my-portfolio/internal/model"
)

// ContactRepository は問い合わせデータの永続化インターフェース。
// 書き込み経路はCreateのみ。配信状態の更新は問い合わせ本体のカラムを変更しない。
type ContactRepository interface {
	// Create は問い合わせを1件INSERTする。IDとCreatedAtは呼び出し側で設定済みであること。
	Create(ctx context.Context, submission *model.ContactSubmission) error

	// MarkDelivered は配信成功を記録する。
	MarkDelivered(ctx context.Context, id, providerMessageID string, deliveredAt time.Time) error

	// MarkUndelivered は配信失敗を記録する。reasonはサーバー側でのみ参照する。
	MarkUndelivered(ctx context.Context, id, reason string) error
}

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}
