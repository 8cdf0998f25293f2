package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ARAVINDH-1505/my-portfolio/internal/contact"
	"github.com/ARAVINDH-1505/my-portfolio/internal/metrics"
	"github.com/ARAVINDH-1505/my-portfolio/internal/middleware"
	"github.com/ARAVINDH-1505/my-portfolio/internal/model"
)

// maxRequestBodyBytes は問い合わせリクエストボディの上限（1MiB）。
const maxRequestBodyBytes = 1 << 20

// ContactValidatorInterface は問い合わせハンドラーが必要とする検証インターフェース。
type ContactValidatorInterface interface {
	// Validate は入力を正規化・検証し、永続化前の問い合わせを返す。
	Validate(in *model.ContactInput) (*model.ContactSubmission, error)
}

// ContactServiceInterface は問い合わせハンドラーが必要とするサービスインターフェース。
type ContactServiceInterface interface {
	// Submit は問い合わせを保存し通知を送信する。
	Submit(ctx context.Context, submission *model.ContactSubmission) (*model.SubmitResult, error)
}

// ContactHandler は問い合わせフォームのHTTPハンドラー。
type ContactHandler struct {
	validator ContactValidatorInterface
	service   ContactServiceInterface
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(
	validator ContactValidatorInterface,
	service ContactServiceInterface,
	mc metrics.MetricsCollector,
	logger *slog.Logger,
) *ContactHandler {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactHandler{
		validator: validator,
		service:   service,
		metrics:   mc,
		logger:    logger,
	}
}

// contactResponse は問い合わせ受付成功時のレスポンス。
// idは配信プロバイダのメッセージID。
type contactResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// Submit は問い合わせ送信を処理する。
// POST /api/contact
// レート制限はルーター側のミドルウェアで適用済み。
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	in, err := contact.DecodeInput(r.Body)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	submission, err := h.validator.Validate(in)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	result, err := h.service.Submit(r.Context(), submission)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(contactResponse{
		Message: "Message sent successfully",
		ID:      result.MessageID,
	})
}

// handleError はエラー種別に応じたレスポンスを書き込む。
// 送信失敗と保存失敗は同じ文言を返し、原因はログにのみ残す。
func (h *ContactHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *model.ValidationError
	var de *model.DeliveryError
	var se *model.StorageError

	switch {
	case errors.As(err, &ve):
		h.metrics.RecordSubmission(metrics.OutcomeInvalid)
		middleware.WriteErrorResponse(w, http.StatusUnprocessableEntity, model.NewValidationAPIError(ve))
	case errors.As(err, &de):
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewSendFailedAPIError(model.ErrCodeDeliveryFailed))
	case errors.As(err, &se):
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewSendFailedAPIError(model.ErrCodeStorageFailed))
	default:
		h.logger.Error("unexpected error while handling contact submission",
			slog.String("error", err.Error()),
			slog.String("client_ip", middleware.ClientKey(r)),
		)
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewSendFailedAPIError(model.ErrCodeInternal))
	}
}
