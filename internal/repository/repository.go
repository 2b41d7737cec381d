package repository

import (
	"context"
	"errors"

	"fxtransfer/internal/model"
)

var (
	ErrAccountNotFound = errors.New("账户不存在")
	// ErrVersionConflict 乐观锁冲突：读出之后已有其他事务提交了新版本
	ErrVersionConflict = errors.New("乐观锁冲突，请重试")
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	FindByID(ctx context.Context, id int64) (*model.Account, error)
	FindAllByID(ctx context.Context, ids []int64) ([]*model.Account, error)
	// Save 按 account.Version 做条件更新，成功后 account.Version 加一；
	// 版本不一致时返回 ErrVersionConflict，且不做任何修改
	Save(ctx context.Context, account *model.Account) error
	DeleteAll(ctx context.Context) error
}

type FxRateRepository interface {
	Create(ctx context.Context, rate *model.FxRate) error
	// FindByCurrencyPair 精确匹配 (from, to)，不存在时返回 nil, nil
	FindByCurrencyPair(ctx context.Context, from, to model.Currency) (*model.FxRate, error)
	DeleteAll(ctx context.Context) error
}

type TransferLogRepository interface {
	Create(ctx context.Context, log *model.TransferLog) error
	ListByAccountID(ctx context.Context, accountID int64, page, pageSize int) ([]*model.TransferLog, int64, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, msg *model.OutboxMessage) error
	GetPendingMessages(ctx context.Context, limit int) ([]*model.OutboxMessage, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	IncrementRetryCount(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64) error
}

// Store 聚合所有仓储，并提供事务能力
//
// Transaction 内通过参数拿到的 Store 上做的所有写操作，要么全部提交，要么全部回滚
type Store interface {
	Accounts() AccountRepository
	FxRates() FxRateRepository
	TransferLogs() TransferLogRepository
	Outbox() OutboxRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
