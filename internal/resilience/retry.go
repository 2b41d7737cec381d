package resilience

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"fxtransfer/internal/repository"
	"fxtransfer/pkg/bizerr"
	"fxtransfer/pkg/logger"

	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 3

	backoffBase   = 100 * time.Millisecond
	backoffJitter = 200 * time.Millisecond
)

// Retrier 乐观锁重试
//
// 只有 repository.ErrVersionConflict 会触发重试，其他错误原样返回。
// 两次尝试之间等待 100ms*attempt + [0,200ms) 随机抖动，等待期间不持有任何锁或事务。
type Retrier struct {
	maxAttempts int
	backoff     func(attempt int) time.Duration
	log         *zap.Logger
}

func NewRetrier(maxAttempts int, log *zap.Logger) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if log == nil {
		log = logger.L()
	}
	return &Retrier{
		maxAttempts: maxAttempts,
		backoff:     linearJitterBackoff,
		log:         log.With(zap.String("component", "Retrier")),
	}
}

func linearJitterBackoff(attempt int) time.Duration {
	return backoffBase*time.Duration(attempt) + time.Duration(rand.Int63n(int64(backoffJitter)))
}

// Do 执行 task，冲突时重试，最多执行 maxAttempts 次
func (r *Retrier) Do(ctx context.Context, task Task) error {
	for attempt := 1; ; attempt++ {
		err := task(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}

		if attempt >= r.maxAttempts {
			// 重试耗尽需要人工关注
			r.log.Error("optimistic lock retries exhausted",
				zap.Int("attempts", attempt),
				zap.String("trace_id", logger.TraceID(ctx)))
			return bizerr.OptimisticLockMaxRetryExceeded()
		}

		wait := r.backoff(attempt)
		r.log.Debug("version conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Layer 作为管道中的一层
func (r *Retrier) Layer() Layer {
	return func(next Task) Task {
		return func(ctx context.Context) error {
			return r.Do(ctx, next)
		}
	}
}
