package resilience

import (
	"context"
	"errors"
	"time"

	"fxtransfer/pkg/bizerr"
	"fxtransfer/pkg/logger"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig 熔断配置
type BreakerConfig struct {
	Name                string
	FailureRatio        float64       // 窗口内失败率超过该值即熔断
	MinRequests         uint32        // 窗口内至少这么多请求才计算失败率
	Interval            time.Duration // closed 状态下统计窗口长度，0 表示不清零
	Timeout             time.Duration // open 持续时间，之后进入 half-open
	MaxHalfOpenRequests uint32        // half-open 允许的试探请求数
}

// CircuitBreaker 基于 gobreaker
//
// 业务规则错误（参数错误、余额不足等）是正常应答，按成功统计；
// 只有重试耗尽、内部错误这类才算失败。
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewCircuitBreaker(cfg BreakerConfig, log *zap.Logger) *CircuitBreaker {
	if log == nil {
		log = logger.L()
	}
	log = log.With(zap.String("component", "CircuitBreaker"))
	if cfg.Name == "" {
		cfg.Name = "transfer"
	}
	if cfg.MaxHalfOpenRequests == 0 {
		cfg.MaxHalfOpenRequests = 1
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 1
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxHalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio > cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || bizerr.IsBusinessRule(err)
		},
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Do open 或 half-open 试探名额已满时直接返回 CircuitOpen，不执行 task
func (b *CircuitBreaker) Do(ctx context.Context, task Task) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, task(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return bizerr.CircuitOpen()
	}
	return err
}

// State closed / half-open / open
func (b *CircuitBreaker) State() gobreaker.State {
	return b.cb.State()
}

// Counts 当前窗口内的统计
func (b *CircuitBreaker) Counts() gobreaker.Counts {
	return b.cb.Counts()
}

func (b *CircuitBreaker) Layer() Layer {
	return func(next Task) Task {
		return func(ctx context.Context) error {
			return b.Do(ctx, next)
		}
	}
}
