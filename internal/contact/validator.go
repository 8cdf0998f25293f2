// Package contact は問い合わせフォームの検証と送信フローを提供する。
package contact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ARAVINDH-1505/my-portfolio/internal/model"
)

// bodyField はリクエストボディ全体に関するエラーのフィールド名。
const bodyField = "body"

// DecodeInput はリクエストボディのJSONをContactInputに変換する。
// 構文エラーや型の不一致、オブジェクト後の余分なデータは*model.ValidationErrorとして返す。
func DecodeInput(r io.Reader) (*model.ContactInput, error) {
	dec := json.NewDecoder(r)

	var in model.ContactInput
	if err := dec.Decode(&in); err != nil {
		return nil, decodeError(err)
	}

	// 末尾の空白以外は受け付けない
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, decodeError(err)
		}
		return nil, model.NewValidationError(bodyField, "malformed JSON")
	}
	return &in, nil
}

func decodeError(err error) *model.ValidationError {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			return model.NewValidationError(bodyField, "must be a JSON object")
		}
		return model.NewValidationError(field, "must be a string")
	case errors.As(err, &maxBytesErr):
		return model.NewValidationError(bodyField, fmt.Sprintf("must not exceed %d bytes", maxBytesErr.Limit))
	case errors.Is(err, io.EOF):
		return model.NewValidationError(bodyField, "request body is empty")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return model.NewValidationError(bodyField, "malformed JSON")
	default:
		return model.NewValidationError(bodyField, "invalid request body")
	}
}

// Validator は問い合わせ入力を検証する。
type Validator struct {
	validate *validator.Validate
}

// NewValidator は新しいValidatorを生成する。
// エラーのフィールド名にはJSONタグ名を使う。
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate は入力を正規化して検証し、永続化前のContactSubmissionを返す。
// 前後の空白は除去し、空の電話番号は未入力として扱う。
// 不備がある場合は該当フィールドをすべて列挙した*model.ValidationErrorを返す。
// ID、CreatedAtは設定しない。
func (v *Validator) Validate(in *model.ContactInput) (*model.ContactSubmission, error) {
	normalized := model.ContactInput{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Message: strings.TrimSpace(in.Message),
	}
	if in.Phone != nil {
		if p := strings.TrimSpace(*in.Phone); p != "" {
			normalized.Phone = &p
		}
	}

	if err := v.validate.Struct(&normalized); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("failed to validate contact input: %w", err)
		}
		fields := make([]model.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, model.FieldError{
				Field:   fe.Field(),
				Message: fieldMessage(fe),
			})
		}
		return nil, &model.ValidationError{Fields: fields}
	}

	return &model.ContactSubmission{
		Name:           normalized.Name,
		Email:          normalized.Email,
		Phone:          normalized.Phone,
		Message:        normalized.Message,
		DeliveryStatus: model.DeliveryStatusPending,
	}, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}
