package resilience

import (
	"context"
	"sync"

	"fxtransfer/pkg/bizerr"
)

// IdempotencyGuard 并发去重：同一 requestId 同时只允许一个在执行
//
// 不是持久化的幂等表，task 结束（无论成败）后 requestId 立即释放，可以再次使用。
type IdempotencyGuard struct {
	inFlight sync.Map
}

func NewIdempotencyGuard() *IdempotencyGuard {
	return &IdempotencyGuard{}
}

// Do requestId 已在执行中时直接返回 DuplicateRequest，不执行 task
func (g *IdempotencyGuard) Do(ctx context.Context, requestID string, task Task) error {
	if _, loaded := g.inFlight.LoadOrStore(requestID, struct{}{}); loaded {
		return bizerr.DuplicateRequest(requestID)
	}
	defer g.inFlight.Delete(requestID)

	return task(ctx)
}

// InFlight 当前正在执行的请求数
func (g *IdempotencyGuard) InFlight() int {
	n := 0
	g.inFlight.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (g *IdempotencyGuard) Layer(requestID string) Layer {
	return func(next Task) Task {
		return func(ctx context.Context) error {
			return g.Do(ctx, requestID, next)
		}
	}
}
