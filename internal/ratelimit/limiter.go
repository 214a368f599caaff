package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow trims expired members, then admits the request if the window
// still has room. Returns {allowed, remaining, reset_at_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local current = redis.call('ZCARD', key)

if current < limit then
	local seq = redis.call('INCR', key .. ':seq')
	redis.call('ZADD', key, now, now .. ':' .. seq)
	local ttl = math.ceil(window_ms / 1000)
	redis.call('EXPIRE', key, ttl)
	redis.call('EXPIRE', key .. ':seq', ttl)
	return {1, limit - current - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local reset_at = 0
if oldest and #oldest >= 2 then
	reset_at = tonumber(oldest[2]) + window_ms
end
return {0, 0, reset_at}
`)

// Result describes one admission decision.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// RetryAfter is how long the caller should wait before the window frees a slot.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Allower decides whether a request identified by key may proceed.
type Allower interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// Limiter is a Redis-backed sliding window limiter.
type Limiter struct {
	client    redis.Cmdable
	keyPrefix string
	limit     int
	window    time.Duration
	now       func() time.Time
}

var _ Allower = (*Limiter)(nil)

// NewLimiter builds a limiter admitting at most limit requests per key in any
// rolling window.
func NewLimiter(client redis.Cmdable, keyPrefix string, limit int, window time.Duration) (*Limiter, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", window)
	}
	return &Limiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
		now:       time.Now,
	}, nil
}

// Allow records one request against key if the window has room.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	windowStart := now.Add(-l.window)

	raw, err := slidingWindow.Run(ctx, l.client, []string{l.keyPrefix + key},
		now.UnixMilli(), windowStart.UnixMilli(), l.limit, l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("unexpected rate limit script reply length: %d", len(raw))
	}

	res := &Result{
		Allowed:   raw[0] == 1,
		Remaining: int(raw[1]),
		Limit:     l.limit,
		ResetAt:   now.Add(l.window),
	}
	if raw[2] > 0 {
		res.ResetAt = time.UnixMilli(raw[2])
	}
	return res, nil
}

// Reset forgets every request recorded for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	k := l.keyPrefix + key
	return l.client.Del(ctx, k, k+":seq").Err()
}
