package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/model"
)

// isMutating は変更系のHTTPメソッドかを返す。
func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// NewReadOnlyMiddleware は読み取り専用モードで変更系リクエストを403で拒否するミドルウェアを返す。
// 認証より前に配置し、認証結果に関わらず適用する。ログインも例外としない。
func NewReadOnlyMiddleware(readOnly bool, recorder metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !readOnly {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			recorder.RecordReadOnlyRejection()
			slog.Warn("mutation rejected in read-only mode",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			WriteErrorResponse(w, http.StatusForbidden, model.MessageReadOnly)
		})
	}
}
