package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// takeScript refills the bucket for the elapsed time, then tries to take a
// token. It returns {allowed, tokens left}.
var takeScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return {allowed, tokens}
`)

// peekScript computes the tokens available without taking one
var peekScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
	end
	return tokens
`)

// TokenBucket is a Redis backed token bucket shared by every server instance
type TokenBucket struct {
	redis    *redis.Client
	capacity int64         // Maximum number of tokens
	refill   int64         // Tokens restored per window
	window   time.Duration // Refill period
	now      func() time.Time
}

// Decision is the outcome of one Take
type Decision struct {
	Allowed   bool
	Remaining int64
	Limit     int64
	// ResetAfter is the refill window
	ResetAfter time.Duration
}

// NewTokenBucket creates a bucket that restores refillRate tokens per minute
func NewTokenBucket(redisClient *redis.Client, capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
		now:      time.Now,
	}
}

func key(userID, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", userID, action)
}

func (tb *TokenBucket) args() []interface{} {
	return []interface{}{tb.capacity, tb.refill, int64(tb.window.Seconds()), tb.now().Unix()}
}

// Take tries to consume a token for the user's action
func (tb *TokenBucket) Take(ctx context.Context, userID, action string) (Decision, error) {
	result, err := takeScript.Run(ctx, tb.redis, []string{key(userID, action)}, tb.args()...).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return Decision{}, fmt.Errorf("unexpected result type from rate limit script")
	}
	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)

	return Decision{
		Allowed:    allowed == 1,
		Remaining:  remaining,
		Limit:      tb.capacity,
		ResetAfter: tb.window,
	}, nil
}

// Allow reports whether the user can perform the action, consuming a token
// when so.
func (tb *TokenBucket) Allow(ctx context.Context, userID, action string) (bool, error) {
	d, err := tb.Take(ctx, userID, action)
	return d.Allowed, err
}

// GetRemaining returns the number of remaining tokens for a user action
func (tb *TokenBucket) GetRemaining(ctx context.Context, userID, action string) (int64, error) {
	result, err := peekScript.Run(ctx, tb.redis, []string{key(userID, action)}, tb.args()...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}

	remaining, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result type from remaining tokens script")
	}

	return remaining, nil
}

// Reset clears the rate limit for a specific user action
func (tb *TokenBucket) Reset(ctx context.Context, userID, action string) error {
	return tb.redis.Del(ctx, key(userID, action)).Err()
}
