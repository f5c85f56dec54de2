package auth

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// fakeRedis is an in-process RedisClient with just enough behaviour for the limiter.
type fakeRedis struct {
	mu      sync.Mutex
	counts  map[string]int64
	ttls    map[string]time.Duration
	failAll bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

var errRedisDown = errors.New("redis: connection refused")

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return redis.NewStringResult("", errRedisDown)
	}
	n, ok := f.counts[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(strconv.FormatInt(n, 10), nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return redis.NewIntResult(0, errRedisDown)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeRedis) Expire(_ context.Context, key string, d time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[key] = d
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.counts, k)
		delete(f.ttls, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeRedis) Close() error { return nil }

func TestLoginLimiter_BlocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	l := NewLoginLimiter(rdb, 3, 15*time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allowed(ctx, "acme", "a@acme.io"))
		l.Fail(ctx, "acme", "a@acme.io")
	}
	assert.False(t, l.Allowed(ctx, "acme", "A@ACME.io"), "keys are case-insensitive")
	assert.True(t, l.Allowed(ctx, "acme", "b@acme.io"))
	assert.Equal(t, 15*time.Minute, rdb.ttls[attemptsKey("acme", "a@acme.io")])

	l.Reset(ctx, "acme", "a@acme.io")
	assert.True(t, l.Allowed(ctx, "acme", "a@acme.io"))
}

func TestLoginLimiter_FailsOpen(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	rdb.failAll = true
	l := NewLoginLimiter(rdb, 1, time.Minute)

	l.Fail(ctx, "acme", "a@acme.io")
	assert.True(t, l.Allowed(ctx, "acme", "a@acme.io"))
}

func TestLoginLimiter_NilIsNoop(t *testing.T) {
	var l *LoginLimiter
	ctx := context.Background()
	l.Fail(ctx, "acme", "a@acme.io")
	l.Reset(ctx, "acme", "a@acme.io")
	assert.True(t, l.Allowed(ctx, "acme", "a@acme.io"))
	assert.NoError(t, l.Close())
}
