package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMemoryLimiter_AllowsWithinBurstThenRejects(t *testing.T) {
	ml := NewMemoryLimiter(3, time.Minute)
	defer ml.Stop()

	handler := NewRateLimitMiddleware(ml, "general", KeyByPrincipalOrIP)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v2/book", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/book", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retry < 1 {
		t.Errorf("Retry-After = %q, want positive seconds", w.Header().Get("Retry-After"))
	}
	if got := decodeError(t, w); got == "" {
		t.Error("expected error message in 429 body")
	}
}

func TestMemoryLimiter_SeparateKeys(t *testing.T) {
	ml := NewMemoryLimiter(1, time.Minute)
	defer ml.Stop()

	handler := NewRateLimitMiddleware(ml, "general", KeyByPrincipalOrIP)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		p := &model.Principal{UserID: uuid.New(), Role: model.RoleReader}
		req = req.WithContext(ContextWithPrincipal(req.Context(), p))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("user %d: status = %d, want 200", i, w.Code)
		}
	}
	if got := ml.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	ml := NewMemoryLimiter(10, time.Minute)
	defer ml.Stop()

	ml.Allow(context.Background(), "stale")
	ml.mu.Lock()
	ml.limiters["stale"].lastAccess = time.Now().Add(-time.Hour)
	ml.mu.Unlock()
	ml.Allow(context.Background(), "fresh")

	ml.cleanup()

	if got := ml.Count(); got != 1 {
		t.Errorf("Count() after cleanup = %d, want 1", got)
	}
}

func TestMemoryLimiter_ZeroRateAllowsAll(t *testing.T) {
	ml := NewMemoryLimiter(0, time.Minute)
	defer ml.Stop()

	for i := 0; i < 5; i++ {
		d, err := ml.Allow(context.Background(), "k")
		if err != nil || !d.Allowed {
			t.Fatalf("Allow() = %+v, %v, want allowed", d, err)
		}
	}
}

func TestKeyByIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v2/auth/login", nil)
	req.RemoteAddr = "203.0.113.7:54321"

	if got := KeyByIP(req); got != "ip:203.0.113.7" {
		t.Errorf("KeyByIP() = %q, want ip:203.0.113.7", got)
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (RateLimitDecision, error) {
	return RateLimitDecision{}, errors.New("redis: connection refused")
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	handler := NewRateLimitMiddleware(failingLimiter{}, "login", KeyByIP)(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v2/auth/login", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRedisLimiter(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL が未設定のためスキップ")
	}
	client, err := NewRedisClient(redisURL)
	if err != nil {
		t.Fatalf("NewRedisClient() error: %v", err)
	}
	defer client.Close()
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redisに接続できません（スキップ）: %v", err)
	}

	limiter := NewRedisLimiter(client, "bookshelf-test:", 2)
	key := "login:" + uuid.NewString()
	defer client.Del(ctx, "bookshelf-test:"+key)

	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, key)
		if err != nil {
			t.Fatalf("Allow() error: %v", err)
		}
		if !d.Allowed {
			t.Errorf("request %d: Allowed = false, want true", i)
		}
	}

	d, err := limiter.Allow(ctx, key)
	if err != nil {
		t.Fatalf("Allow() error: %v", err)
	}
	if d.Allowed {
		t.Error("third request: Allowed = true, want false")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, want within one minute", d.RetryAfter)
	}
}
