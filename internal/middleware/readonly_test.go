package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/model"
)

func TestReadOnlyMiddleware_BlocksMutations(t *testing.T) {
	rec := &recordingCollector{}
	called := false
	handler := NewReadOnlyMiddleware(true, rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		called = false
		req := httptest.NewRequest(method, "/api/v2/book", nil)
		// 有効なモデレーターでも拒否される
		req = req.WithContext(ContextWithPrincipal(req.Context(), testPrincipal(model.RoleModerator)))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("%s: status = %d, want 403", method, w.Code)
		}
		if got := decodeError(t, w); got != "This instance is read-only" {
			t.Errorf("%s: error = %q", method, got)
		}
		if called {
			t.Errorf("%s: next handler must not be called", method)
		}
	}
	if rec.readOnlyRejections != 4 {
		t.Errorf("readOnlyRejections = %d, want 4", rec.readOnlyRejections)
	}
}

func TestReadOnlyMiddleware_AllowsReads(t *testing.T) {
	handler := NewReadOnlyMiddleware(true, metrics.NopCollector{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v2/book"},
		{http.MethodHead, "/api/v2/authors"},
		{http.MethodOptions, "/api/v2/book"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s %s: status = %d, want 200", tt.method, tt.path, w.Code)
		}
	}
}

func TestReadOnlyMiddleware_BlocksLogin(t *testing.T) {
	called := false
	handler := NewReadOnlyMiddleware(true, metrics.NopCollector{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v2/auth/login", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
	if got := decodeError(t, w); got != model.MessageReadOnly {
		t.Errorf("error = %q, want %q", got, model.MessageReadOnly)
	}
	if called {
		t.Error("login must not reach the handler in read-only mode")
	}
}

func TestReadOnlyMiddleware_Disabled(t *testing.T) {
	handler := NewReadOnlyMiddleware(false, metrics.NopCollector{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v2/book", nil))
	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
}
