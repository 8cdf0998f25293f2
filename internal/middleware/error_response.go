package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/ARAVINDH-1505/my-portfolio/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// detailは利用者向けの文言、errorsはバリデーションエラー時のみ含む。
type ErrorResponseBody struct {
	Detail   string             `json:"detail"`
	Code     string             `json:"code"`
	Category string             `json:"category"`
	Errors   []model.FieldError `json:"errors,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Detail:   apiErr.Detail,
		Code:     apiErr.Code,
		Category: apiErr.Category,
		Errors:   apiErr.Fields,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     model.ErrCodeInternal,
		Detail:   "Internal server error.",
		Category: model.CategorySystem,
	})
}
