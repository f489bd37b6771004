package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/formpay/internal/config"
)

const keyIntentClient = "payment:intent:client:%s"

// IntentLimiter throttles payment intent creation per client address. A nil
// or disabled limiter allows everything.
type IntentLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewIntentLimiter(cfg config.Config, client *redis.Client) *IntentLimiter {
	if client == nil || cfg.Payment.IntentRatePerIP <= 0 || cfg.Payment.IntentBurst <= 0 {
		return nil
	}
	return &IntentLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.Payment.IntentRatePerIP,
		burst:  cfg.Payment.IntentBurst,
	}
}

func (l *IntentLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *IntentLimiter) Allow(ctx context.Context, clientIP string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyIntentClient, strings.TrimSpace(clientIP)), l.rate, l.burst)
}
