package resilience

import (
	"context"

	"fxtransfer/pkg/bizerr"

	"golang.org/x/time/rate"
)

// RateLimiter 进程级令牌桶，拿不到令牌立即拒绝，不排队等待
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter ratePerSecond 为每秒补充的令牌数，burst 为桶容量
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

func (l *RateLimiter) Do(ctx context.Context, task Task) error {
	if !l.limiter.Allow() {
		return bizerr.RateLimitExceeded()
	}
	return task(ctx)
}

func (l *RateLimiter) Layer() Layer {
	return func(next Task) Task {
		return func(ctx context.Context) error {
			return l.Do(ctx, next)
		}
	}
}
