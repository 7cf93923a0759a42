package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisWindowScript は固定ウィンドウのカウンタを加算し、現在値と残りTTLを返す。
var redisWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisLimiter はRedisの固定ウィンドウカウンタによるLimiter。
// 複数インスタンスで上限を共有する場合に使用する。
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter は1分あたりperMinute件を上限とするRedisLimiterを生成する。
func NewRedisLimiter(client *redis.Client, prefix string, perMinute int) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: perMinute, window: time.Minute}
}

// NewRedisClient はREDIS_URL形式の接続文字列からクライアントを生成する。
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Allow はウィンドウ内のカウンタを加算し、上限以内かを返す。
func (l *RedisLimiter) Allow(ctx context.Context, key string) (RateLimitDecision, error) {
	if l.limit <= 0 {
		return RateLimitDecision{Allowed: true}, nil
	}

	result, err := redisWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Result()
	if err != nil {
		return RateLimitDecision{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return RateLimitDecision{}, errors.New("unexpected redis rate limit response")
	}
	current, ok := values[0].(int64)
	if !ok {
		return RateLimitDecision{}, errors.New("invalid redis counter response")
	}
	ttlMillis, _ := values[1].(int64)

	if current <= int64(l.limit) {
		return RateLimitDecision{Allowed: true}, nil
	}
	retry := l.window
	if ttlMillis > 0 {
		retry = time.Duration(ttlMillis) * time.Millisecond
	}
	return RateLimitDecision{Allowed: false, RetryAfter: retry}, nil
}

var _ Limiter = (*RedisLimiter)(nil)
