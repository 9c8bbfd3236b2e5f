package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	ActionCreateGroup      = "create_group"
	ActionOpenConversation = "open_conversation"
)

// TokenBucket refills refillRate tokens every refillTime, up to maxTokens.
type TokenBucket struct {
	tokens     int
	maxTokens  int
	refillRate int
	refillTime time.Duration
	lastRefill time.Time
	mutex      sync.Mutex
}

// RateLimiter keeps one token bucket per user and action for the actions
// that are not message sends.
type RateLimiter struct {
	buckets map[string]*TokenBucket
	mutex   sync.RWMutex
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		now:     time.Now,
	}
}

func NewTokenBucket(maxTokens, refillRate int, refillTime time.Duration, now time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		refillTime: refillTime,
		lastRefill: now,
	}
}

// Allow consumes a token if one is available, otherwise it reports the time
// until the next refill.
func (tb *TokenBucket) Allow(now time.Time) (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	elapsed := now.Sub(tb.lastRefill)
	if refills := int(elapsed / tb.refillTime); refills > 0 {
		tb.tokens += refills * tb.refillRate
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = tb.lastRefill.Add(time.Duration(refills) * tb.refillTime)
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}

	return false, tb.lastRefill.Add(tb.refillTime).Sub(now)
}

func (tb *TokenBucket) GetTokens() int {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return tb.tokens
}

func newBucketFor(action string, now time.Time) *TokenBucket {
	switch action {
	case ActionCreateGroup:
		// 5 groups, then one more every 12 minutes
		return NewTokenBucket(5, 1, 12*time.Minute, now)
	case ActionOpenConversation:
		// 30 opens, then one every 2 seconds
		return NewTokenBucket(30, 1, 2*time.Second, now)
	default:
		return NewTokenBucket(20, 1, 3*time.Second, now)
	}
}

func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	key := userID + ":" + action

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()

	if !exists {
		rl.mutex.Lock()
		if bucket, exists = rl.buckets[key]; !exists {
			bucket = newBucketFor(action, rl.now())
			rl.buckets[key] = bucket
		}
		rl.mutex.Unlock()
	}

	return bucket.Allow(rl.now())
}

// Cleanup removes buckets idle for more than an hour.
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, bucket := range rl.buckets {
		bucket.mutex.Lock()
		idle := now.Sub(bucket.lastRefill) > time.Hour
		bucket.mutex.Unlock()
		if idle {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}
