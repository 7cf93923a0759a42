package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bookshelf/internal/model"
)

// MessageUnprocessable は分類できないエラーに対してクライアントへ返すメッセージ。
const MessageUnprocessable = "Request could not be processed"

// statusByCode はAPIErrorのコードとHTTPステータスの対応表。
var statusByCode = map[string]int{
	model.ErrCodeMissingParameter:  http.StatusBadRequest,
	model.ErrCodeConversionFailure: http.StatusBadRequest,
	model.ErrCodeNotFound:          http.StatusNotFound,
	model.ErrCodeDuplicate:         http.StatusConflict,
	model.ErrCodeNoAvailableCopies: http.StatusConflict,
	model.ErrCodeDomain:            http.StatusBadRequest,
	model.ErrCodeUnauthenticated:   http.StatusUnauthorized,
	model.ErrCodeForbidden:         http.StatusForbidden,
	model.ErrCodeReadOnly:          http.StatusForbidden,
}

// StatusForError はエラーをHTTPステータスとクライアント向けメッセージに分類する。
// 上から順に判定し、最初に一致したものを採用する。
func StatusForError(err error) (int, string) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		if status, ok := statusByCode[apiErr.Code]; ok {
			return status, apiErr.Message
		}
		return http.StatusBadRequest, apiErr.Message
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return http.StatusBadRequest, model.NewConversionError(err.Error()).Message
	}

	return http.StatusBadRequest, MessageUnprocessable
}

// WriteError はエラーを分類してログに記録し、レスポンスを書き込む。
// クライアントが切断した場合はINFOで記録するのみとする。
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := StatusForError(err)

	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	}

	var apiErr *model.APIError
	switch {
	case errors.Is(err, context.Canceled):
		slog.Info("request canceled by client", attrs...)
	case !errors.As(err, &apiErr):
		slog.Error("unclassified error", attrs...)
	case status >= http.StatusInternalServerError:
		slog.Error("request failed", attrs...)
	default:
		slog.Warn("request failed", attrs...)
	}

	WriteErrorResponse(w, status, message)
}
