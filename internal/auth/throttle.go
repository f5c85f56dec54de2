package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisClient is the subset of *redis.Client used by LoginLimiter.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// LoginLimiter counts failed logins per (subdomain, email) in Redis and blocks
// further attempts once MaxAttempts is reached inside Window. A nil
// *LoginLimiter allows everything. Redis failures allow the attempt.
type LoginLimiter struct {
	redis       RedisClient
	maxAttempts int64
	window      time.Duration
}

// NewLoginLimiter creates a LoginLimiter
func NewLoginLimiter(rdb RedisClient, maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		redis:       rdb,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

func attemptsKey(subdomain, email string) string {
	return fmt.Sprintf("login_attempts:%s:%s", strings.ToLower(subdomain), strings.ToLower(email))
}

// Allowed reports whether another login attempt may be made.
func (l *LoginLimiter) Allowed(ctx context.Context, subdomain, email string) bool {
	if l == nil {
		return true
	}
	n, err := l.redis.Get(ctx, attemptsKey(subdomain, email)).Int64()
	if err == redis.Nil {
		return true
	}
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Login limiter unavailable")
		return true
	}
	return n < l.maxAttempts
}

// Fail records a failed attempt. The window starts at the first failure.
func (l *LoginLimiter) Fail(ctx context.Context, subdomain, email string) {
	if l == nil {
		return
	}
	key := attemptsKey(subdomain, email)
	n, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to record login attempt")
		return
	}
	if n == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("Failed to set login attempt window")
		}
	}
}

// Reset clears the failure count after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, subdomain, email string) {
	if l == nil {
		return
	}
	if err := l.redis.Del(ctx, attemptsKey(subdomain, email)).Err(); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to reset login attempts")
	}
}

// Close closes the underlying Redis client
func (l *LoginLimiter) Close() error {
	if l == nil {
		return nil
	}
	return l.redis.Close()
}
