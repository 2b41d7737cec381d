package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"fxtransfer/internal/config"
	"fxtransfer/internal/model"
	"fxtransfer/internal/repository"
	"fxtransfer/internal/repository/memory"
	"fxtransfer/internal/resilience"
	"fxtransfer/pkg/money"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, mutate func(cfg *config.Config)) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Storage.Driver = config.StorageDriverMemory
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

func newTestService(t *testing.T, store repository.Store, mutate func(cfg *config.Config)) *TransferService {
	t.Helper()
	return NewTransferServiceFromConfig(store, store.FxRates(), testConfig(t, mutate), zap.NewNop())
}

func createAccount(t *testing.T, store repository.Store, name string, currency model.Currency, balance string) *model.Account {
	t.Helper()
	a := &model.Account{Name: name, Currency: currency, Balance: money.MustParse(balance)}
	require.NoError(t, store.Accounts().Create(context.Background(), a))
	return a
}

func balanceOf(t *testing.T, store repository.Store, id int64) string {
	t.Helper()
	a, err := store.Accounts().FindByID(context.Background(), id)
	require.NoError(t, err)
	return a.Balance.StringFixed(money.Scale)
}

func transferReq(id string, from, to *model.Account, amount string, currency model.Currency) *model.TransferRequest {
	return &model.TransferRequest{
		RequestID:        id,
		FromID:           from.ID,
		ToID:             to.ID,
		Amount:           money.MustParse(amount),
		TransferCurrency: currency,
	}
}

// gatedStore 事务在 gate 关闭前阻塞
type gatedStore struct {
	*memory.Store
	gate chan struct{}
}

func (s *gatedStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	<-s.gate
	return s.Store.Transaction(ctx, fn)
}

// slowStore 在读账户和写回之间停顿，制造并发冲突
type slowStore struct {
	*memory.Store
	pause time.Duration
}

func (s *slowStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repository.Store) error {
		return fn(&slowTx{Store: tx, pause: s.pause})
	})
}

type slowTx struct {
	repository.Store
	pause time.Duration
}

func (t *slowTx) Accounts() repository.AccountRepository {
	return &slowAccounts{AccountRepository: t.Store.Accounts(), pause: t.pause}
}

type slowAccounts struct {
	repository.AccountRepository
	pause time.Duration
}

func (r *slowAccounts) FindAllByID(ctx context.Context, ids []int64) ([]*model.Account, error) {
	accounts, err := r.AccountRepository.FindAllByID(ctx, ids)
	time.Sleep(r.pause)
	return accounts, err
}

// brokenStore 事务直接失败，模拟数据库不可用
type brokenStore struct {
	*memory.Store
	broken atomic.Bool
	calls  atomic.Int32
}

var errDatabaseDown = errors.New("dial tcp 127.0.0.1:3306: connection refused")

func (s *brokenStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	s.calls.Add(1)
	if s.broken.Load() {
		return errDatabaseDown
	}
	return s.Store.Transaction(ctx, fn)
}

// conflictStore 前 conflicts 次事务直接返回版本冲突；conflicts < 0 表示一直冲突
type conflictStore struct {
	*memory.Store
	conflicts int32
	calls     atomic.Int32
}

func (s *conflictStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	n := s.calls.Add(1)
	if s.conflicts < 0 || n <= s.conflicts {
		return repository.ErrVersionConflict
	}
	return s.Store.Transaction(ctx, fn)
}

func decimalOf(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// newSensitiveBreaker 一次失败即熔断
func newSensitiveBreaker() *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.BreakerConfig{
		FailureRatio:        0.01,
		MinRequests:         1,
		Interval:            time.Minute,
		Timeout:             time.Minute,
		MaxHalfOpenRequests: 1,
	}, zap.NewNop())
}

func newShortBreaker() *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.BreakerConfig{
		FailureRatio:        0.5,
		MinRequests:         3,
		Interval:            time.Minute,
		Timeout:             50 * time.Millisecond,
		MaxHalfOpenRequests: 1,
	}, zap.NewNop())
}
