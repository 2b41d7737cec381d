package service

import (
	"context"
	"strings"

	"fxtransfer/internal/config"
	"fxtransfer/internal/model"
	"fxtransfer/internal/repository"
	"fxtransfer/internal/resilience"
	"fxtransfer/pkg/bizerr"
	"fxtransfer/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransferService 转账入口
//
// 保护层从外到内：幂等 -> 限流 -> 熔断 -> 乐观锁重试 -> TransferDispatcher。
// 每次调用最多因其中一种原因失败。
type TransferService struct {
	dispatcher *TransferDispatcher
	guard      *resilience.IdempotencyGuard
	limiter    *resilience.RateLimiter
	breaker    *resilience.CircuitBreaker
	retrier    *resilience.Retrier
	log        *zap.Logger
}

func NewTransferService(
	dispatcher *TransferDispatcher,
	guard *resilience.IdempotencyGuard,
	limiter *resilience.RateLimiter,
	breaker *resilience.CircuitBreaker,
	retrier *resilience.Retrier,
	log *zap.Logger,
) *TransferService {
	if log == nil {
		log = logger.L()
	}
	return &TransferService{
		dispatcher: dispatcher,
		guard:      guard,
		limiter:    limiter,
		breaker:    breaker,
		retrier:    retrier,
		log:        log.With(zap.String("component", "TransferService")),
	}
}

// NewTransferServiceFromConfig 按配置组装整条转账链路
// rates 为汇率来源，可以是带缓存的实现
func NewTransferServiceFromConfig(store repository.Store, rates repository.FxRateRepository, cfg *config.Config, log *zap.Logger) *TransferService {
	if log == nil {
		log = logger.L()
	}

	engine := NewTransferEngine(rates, EngineOptions{
		EnableCrossCurrency: cfg.Transfer.EnableCrossCurrency,
		FeeRate:             decimal.NewFromFloat(cfg.Transfer.FeeRate),
	})

	topic := ""
	if cfg.Kafka.Enabled {
		topic = cfg.Kafka.Topic.TransferCommitted
	}
	dispatcher := NewTransferDispatcher(store, engine, topic, log)

	breaker := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		Name:                "transfer",
		FailureRatio:        cfg.CircuitBreaker.FailureRatio,
		MinRequests:         cfg.CircuitBreaker.MinRequests,
		Interval:            cfg.CircuitBreaker.Interval(),
		Timeout:             cfg.CircuitBreaker.Timeout(),
		MaxHalfOpenRequests: cfg.CircuitBreaker.MaxHalfOpenRequests,
	}, log)

	return NewTransferService(
		dispatcher,
		resilience.NewIdempotencyGuard(),
		resilience.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst),
		breaker,
		resilience.NewRetrier(cfg.Transfer.MaxRetryAttempts, log),
		log,
	)
}

// Transfer 成功返回转账结果，失败返回唯一一个业务错误
func (s *TransferService) Transfer(ctx context.Context, req *model.TransferRequest) (*model.TransferResult, error) {
	if req == nil || strings.TrimSpace(req.RequestID) == "" {
		return nil, bizerr.ParamIllegal("requestId must not be empty")
	}

	var result *model.TransferResult
	pipeline := resilience.Chain(
		s.guard.Layer(req.RequestID),
		s.limiter.Layer(),
		s.breaker.Layer(),
		s.retrier.Layer(),
	)
	err := pipeline(func(ctx context.Context) error {
		r, err := s.dispatcher.Dispatch(ctx, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})(ctx)
	if err != nil {
		if bizerr.KindOf(err) == bizerr.KindInternal {
			s.log.Error("转账失败",
				zap.String("trace_id", logger.TraceID(ctx)),
				zap.String("request_id", req.RequestID),
				zap.Error(err))
		}
		return nil, err
	}
	return result, nil
}
