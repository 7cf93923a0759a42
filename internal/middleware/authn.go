// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/bookshelf/internal/auth"
	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストにPrincipalを格納するためのキー。
var principalContextKey = contextKey("principal")

// TokenVerifier はBearerトークンの検証に必要なインターフェース。
type TokenVerifier interface {
	Verify(token string) (*model.Principal, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 成功した場合にPrincipalをリクエストコンテキストに注入するミドルウェアを返す。
// 検証に失敗したリクエストは未認証として後続に渡す。401を返すかはルートが決める。
func NewAuthMiddleware(verifier TokenVerifier, recorder metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				reason := auth.FailureReason(err)
				recorder.RecordAuthFailure(reason)
				slog.Warn("token verification failed",
					slog.String("reason", reason),
					slog.String("error", err.Error()),
					slog.String("path", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAuth はPrincipalの無いリクエストに401を返すミドルウェア。
// NewAuthMiddlewareの後に配置する。
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == nil {
			WriteError(w, r, model.NewUnauthenticatedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken はAuthorizationヘッダーからトークンを取り出す。
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// PrincipalFromContext はリクエストコンテキストからPrincipalを取得する。
// 未認証の場合はnilを返す。
func PrincipalFromContext(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(principalContextKey).(*model.Principal)
	return p
}

// ContextWithPrincipal はコンテキストにPrincipalを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}
