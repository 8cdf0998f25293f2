// Package notify は問い合わせ通知メールの生成と送信を提供する。
// 本文はhtml/templateで組み立て、Resend経由でサイト管理者に送信する。
package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
	"golang.org/x/time/rate"

	"github.com/ARAVINDH-1505/my-portfolio/internal/model"
	"github.com/ARAVINDH-1505/my-portfolio/internal/security"
)

const (
	// senderDisplayName は送信元の表示名。
	senderDisplayName = "Portfolio Contact"
	// phoneNotProvided は電話番号が未入力の場合の表示文字列。
	phoneNotProvided = "Not provided"
	// timestampLayout はメール末尾に表示する送信日時の書式。
	timestampLayout = "2006-01-02 15:04:05"
)

//go:embed templates/notification.html
var templatesFS embed.FS

var notificationTemplate = template.Must(template.ParseFS(templatesFS, "templates/notification.html"))

// EmailSender はメール送信APIのインターフェース。
// resend-goのEmailsSvcが満たす。テストではモックに差し替える。
type EmailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// NewResendSender はResendのAPIキーからEmailSenderを生成する。
func NewResendSender(apiKey string) EmailSender {
	return resend.NewClient(apiKey).Emails
}

// Config は通知の送信設定。
type Config struct {
	SenderEmail    string
	RecipientEmail string
	SendRate       float64       // 送信APIの呼び出しレート（回/秒）
	SendTimeout    time.Duration // 0の場合はタイムアウトなし
}

// Notifier は問い合わせを通知メールとして送信する。
type Notifier struct {
	sender    EmailSender
	sanitizer security.MessageSanitizer
	limiter   *rate.Limiter
	cfg       Config
	logger    *slog.Logger
}

// NewNotifier は新しいNotifierを生成する。
// 送信APIの呼び出しはcfg.SendRateで全体として直列化される。
func NewNotifier(sender EmailSender, sanitizer security.MessageSanitizer, cfg Config, logger *slog.Logger) *Notifier {
	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		sender:    sender,
		sanitizer: sanitizer,
		limiter:   rate.NewLimiter(limit, 1),
		cfg:       cfg,
		logger:    logger,
	}
}

// notificationData はテンプレートに渡す値。
type notificationData struct {
	Name      string
	Email     string
	Phone     string
	Message   template.HTML
	Timestamp string
}

// Render は通知メールのHTML本文を生成する。
func (n *Notifier) Render(s *model.ContactSubmission) (string, error) {
	data := notificationData{
		Name:  s.Name,
		Email: s.Email,
		Phone: s.PhoneOrDefault(phoneNotProvided),
		// サニタイザの出力はbrタグのみを含む
		Message:   template.HTML(n.sanitizer.Sanitize(s.Message)),
		Timestamp: s.CreatedAt.Format(timestampLayout),
	}

	var buf bytes.Buffer
	if err := notificationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("通知テンプレートの描画に失敗しました: %w", err)
	}
	return buf.String(), nil
}

// Notify は問い合わせの通知メールを送信し、プロバイダのメッセージIDを返す。
// 失敗時は*model.DeliveryErrorを返す。原因はログにのみ記録する。
func (n *Notifier) Notify(ctx context.Context, s *model.ContactSubmission) (string, error) {
	body, err := n.Render(s)
	if err != nil {
		return "", &model.DeliveryError{Err: err}
	}

	if n.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.SendTimeout)
		defer cancel()
	}

	if err := n.limiter.Wait(ctx); err != nil {
		n.logger.Error("メール送信の待機中に中断されました",
			slog.String("submission_id", s.ID),
			slog.String("error", err.Error()),
		)
		return "", &model.DeliveryError{Err: err}
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", senderDisplayName, n.cfg.SenderEmail),
		To:      []string{n.cfg.RecipientEmail},
		Subject: "New Contact: " + s.Name,
		Html:    body,
		ReplyTo: s.Email,
	}

	resp, err := n.sender.SendWithContext(ctx, params)
	if err != nil {
		n.logger.Error("通知メールの送信に失敗しました",
			slog.String("submission_id", s.ID),
			slog.String("error", err.Error()),
		)
		return "", &model.DeliveryError{Err: err}
	}
	if resp == nil || resp.Id == "" {
		n.logger.Error("配信プロバイダがメッセージIDを返しませんでした",
			slog.String("submission_id", s.ID),
		)
		return "", &model.DeliveryError{Err: errors.New("empty message id in provider response")}
	}

	n.logger.Info("通知メールを送信しました",
		slog.String("submission_id", s.ID),
		slog.String("message_id", resp.Id),
	)
	return resp.Id, nil
}
