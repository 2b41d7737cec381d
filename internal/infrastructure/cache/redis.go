package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fxtransfer/internal/config"
	"fxtransfer/internal/model"
	"fxtransfer/internal/repository"
	"fxtransfer/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const rateKeyPrefix = "fxrate:"

// InitRedis 创建 Redis 客户端并检查连通性
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	logger.L().Info("Redis 连接成功", zap.String("addr", client.Options().Addr))
	return client, nil
}

// CachedRateRepository 汇率读缓存：先查 Redis，未命中再查库并回填
//
// Redis 出错时直接回源，不影响转账；只缓存存在的汇率。
type CachedRateRepository struct {
	inner  repository.FxRateRepository
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

var _ repository.FxRateRepository = (*CachedRateRepository)(nil)

func NewCachedRateRepository(inner repository.FxRateRepository, client *redis.Client, ttl time.Duration) *CachedRateRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRateRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		log:    logger.L().With(zap.String("component", "RateCache")),
	}
}

func rateKey(from, to model.Currency) string {
	return rateKeyPrefix + string(from) + ":" + string(to)
}

func (r *CachedRateRepository) FindByCurrencyPair(ctx context.Context, from, to model.Currency) (*model.FxRate, error) {
	key := rateKey(from, to)

	cached, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		rate := &model.FxRate{}
		if jsonErr := json.Unmarshal(cached, rate); jsonErr == nil {
			return rate, nil
		}
		r.log.Warn("汇率缓存损坏，回源", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		r.log.Warn("读取汇率缓存失败，回源", zap.String("key", key), zap.Error(err))
	}

	rate, err := r.inner.FindByCurrencyPair(ctx, from, to)
	if err != nil || rate == nil {
		return rate, err
	}

	payload, err := json.Marshal(rate)
	if err == nil {
		if setErr := r.client.Set(ctx, key, payload, r.ttl).Err(); setErr != nil {
			r.log.Warn("写入汇率缓存失败", zap.String("key", key), zap.Error(setErr))
		}
	}
	return rate, nil
}

func (r *CachedRateRepository) Create(ctx context.Context, rate *model.FxRate) error {
	if err := r.inner.Create(ctx, rate); err != nil {
		return err
	}
	r.evict(ctx, rateKey(rate.FromCurrency, rate.ToCurrency))
	return nil
}

func (r *CachedRateRepository) DeleteAll(ctx context.Context) error {
	if err := r.inner.DeleteAll(ctx); err != nil {
		return err
	}

	iter := r.client.Scan(ctx, 0, rateKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.log.Warn("扫描汇率缓存失败", zap.Error(err))
		return nil
	}
	r.evict(ctx, keys...)
	return nil
}

func (r *CachedRateRepository) evict(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.log.Warn("删除汇率缓存失败", zap.Strings("keys", keys), zap.Error(err))
	}
}
