package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitDecision はレート制限の判定結果。
type RateLimitDecision struct {
	Allowed    bool
	RetryAfter time.Duration // 拒否時に次のリクエストが許可されるまでの推定時間
}

// Limiter はキーごとのレート制限のインターフェース。
// インメモリ実装とRedis実装がある。
type Limiter interface {
	Allow(ctx context.Context, key string) (RateLimitDecision, error)
}

// keyLimiter はキーごとのレートリミッターとアクセス時刻を保持する。
type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryLimiter はプロセス内でキーごとのトークンバケットを管理する。
// 単一インスタンス構成で使用する。
type MemoryLimiter struct {
	rate            rate.Limit
	burst           int
	cleanupInterval time.Duration

	mu       sync.Mutex
	limiters map[string]*keyLimiter

	stopCh chan struct{}
}

// NewMemoryLimiter は1分あたりperMinute件を上限とするMemoryLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewMemoryLimiter(perMinute int, cleanupInterval time.Duration) *MemoryLimiter {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	ml := &MemoryLimiter{
		rate:            rate.Limit(float64(perMinute) / 60.0),
		burst:           perMinute,
		cleanupInterval: cleanupInterval,
		limiters:        make(map[string]*keyLimiter),
		stopCh:          make(chan struct{}),
	}

	go ml.cleanupLoop()

	return ml
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (ml *MemoryLimiter) Stop() {
	close(ml.stopCh)
}

// Allow はキーのトークンを1つ消費できるかを返す。
func (ml *MemoryLimiter) Allow(_ context.Context, key string) (RateLimitDecision, error) {
	if ml.rate <= 0 {
		return RateLimitDecision{Allowed: true}, nil
	}
	if ml.getOrCreate(key).Allow() {
		return RateLimitDecision{Allowed: true}, nil
	}
	// 1トークンが補充されるまでの秒数
	retry := time.Duration(math.Ceil(1.0/float64(ml.rate))) * time.Second
	return RateLimitDecision{Allowed: false, RetryAfter: retry}, nil
}

// Count は現在管理されているエントリ数を返す。テスト用。
func (ml *MemoryLimiter) Count() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return len(ml.limiters)
}

func (ml *MemoryLimiter) getOrCreate(key string) *rate.Limiter {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if kl, ok := ml.limiters[key]; ok {
		kl.lastAccess = time.Now()
		return kl.limiter
	}

	limiter := rate.NewLimiter(ml.rate, ml.burst)
	ml.limiters[key] = &keyLimiter{limiter: limiter, lastAccess: time.Now()}
	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (ml *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(ml.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ml.cleanup()
		case <-ml.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がクリーンアップ間隔の2倍を超えたエントリを削除する。
func (ml *MemoryLimiter) cleanup() {
	ttl := ml.cleanupInterval * 2
	now := time.Now()

	ml.mu.Lock()
	defer ml.mu.Unlock()
	for key, kl := range ml.limiters {
		if now.Sub(kl.lastAccess) > ttl {
			delete(ml.limiters, key)
		}
	}
}

// KeyFunc はリクエストからレート制限のキーを導出する。
type KeyFunc func(r *http.Request) string

// KeyByPrincipalOrIP は認証済みなら利用者ID、未認証ならクライアントIPをキーとする。
func KeyByPrincipalOrIP(r *http.Request) string {
	if p := PrincipalFromContext(r.Context()); p != nil {
		return "user:" + p.UserID.String()
	}
	return KeyByIP(r)
}

// KeyByIP はクライアントIPをキーとする。
func KeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// NewRateLimitMiddleware はレート制限ミドルウェアを返す。
// scopeはキーの名前空間とログの識別に使用する。
// リミッターがエラーを返した場合はリクエストを通し、ログに記録する。
func NewRateLimitMiddleware(limiter Limiter, scope string, keyFn KeyFunc) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + keyFn(r)

			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				slog.Error("rate limiter unavailable",
					slog.String("limit_type", scope),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				slog.Warn("rate limit exceeded",
					slog.String("key", key),
					slog.String("limit_type", scope),
				)
				writeRateLimitResponse(w, decision.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
func writeRateLimitResponse(w http.ResponseWriter, retryAfter time.Duration) {
	retryAfterSec := int(math.Ceil(retryAfter.Seconds()))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteErrorResponse(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
}

var _ Limiter = (*MemoryLimiter)(nil)
