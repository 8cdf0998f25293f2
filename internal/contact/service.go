package contact

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ARAVINDH-1505/my-portfolio/internal/metrics"
	"github.com/ARAVINDH-1505/my-portfolio/internal/model"
	"github.com/ARAVINDH-1505/my-portfolio/internal/repository"
)

// Notifier は問い合わせ通知の送信インターフェース。
// テスタビリティのためnotify.Notifierを抽象化する。
type Notifier interface {
	Notify(ctx context.Context, submission *model.ContactSubmission) (string, error)
}

// Service は問い合わせ送信のサービス層。
// 保存 → 通知 → 配信状態の記録のフローを統括する。
type Service struct {
	repo     repository.ContactRepository
	notifier Notifier
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.ContactRepository,
	notifier Notifier,
	mc metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		metrics:  mc,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Submit は検証済みの問い合わせを保存し、通知メールを送信する。
// フロー: ID採番 → INSERT → 通知送信 → 配信状態の更新
//
// INSERTに失敗した場合は通知を送らず*model.StorageErrorを返す。
// 通知に失敗した場合は行をundeliveredとして残し*model.DeliveryErrorを返す。
func (s *Service) Submit(ctx context.Context, submission *model.ContactSubmission) (*model.SubmitResult, error) {
	submission.ID = s.newID()
	submission.CreatedAt = s.now()
	submission.DeliveryStatus = model.DeliveryStatusPending

	// 1. 保存
	if err := s.repo.Create(ctx, submission); err != nil {
		s.logger.Error("問い合わせの保存に失敗しました",
			slog.String("submission_id", submission.ID),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordSubmission(metrics.OutcomeStorageFailed)
		return nil, &model.StorageError{Op: "create", Err: err}
	}

	// 2. 通知
	start := s.now()
	messageID, err := s.notifier.Notify(ctx, submission)
	s.metrics.RecordDeliveryLatency(s.now().Sub(start), err == nil)

	// 配信状態の記録はリクエストのキャンセルに影響されない
	bookkeepingCtx := context.WithoutCancel(ctx)

	if err != nil {
		if markErr := s.repo.MarkUndelivered(bookkeepingCtx, submission.ID, err.Error()); markErr != nil {
			s.logger.Error("配信失敗の記録に失敗しました",
				slog.String("submission_id", submission.ID),
				slog.String("error", markErr.Error()),
			)
		}
		submission.DeliveryStatus = model.DeliveryStatusUndelivered
		s.metrics.RecordSubmission(metrics.OutcomeDeliveryFailed)

		var de *model.DeliveryError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, &model.DeliveryError{Err: err}
	}

	// 3. 配信成功の記録。メールは送信済みのため失敗してもエラーにしない
	submission.DeliveryStatus = model.DeliveryStatusDelivered
	submission.ProviderMessageID = messageID
	if markErr := s.repo.MarkDelivered(bookkeepingCtx, submission.ID, messageID, s.now()); markErr != nil {
		s.logger.Warn("配信成功の記録に失敗しました",
			slog.String("submission_id", submission.ID),
			slog.String("message_id", messageID),
			slog.String("error", markErr.Error()),
		)
	}

	s.metrics.RecordSubmission(metrics.OutcomeAccepted)
	s.logger.Info("問い合わせを受け付けました",
		slog.String("submission_id", submission.ID),
		slog.String("message_id", messageID),
	)

	return &model.SubmitResult{
		SubmissionID: submission.ID,
		MessageID:    messageID,
	}, nil
}
