package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormStore 基于 gorm 的 Store 实现
type GormStore struct {
	db           *gorm.DB
	accounts     *AccountRepo
	fxRates      *FxRateRepo
	transferLogs *TransferLogRepo
	outbox       *OutboxRepo
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:           db,
		accounts:     NewAccountRepository(db),
		fxRates:      NewFxRateRepository(db),
		transferLogs: NewTransferLogRepository(db),
		outbox:       NewOutboxRepository(db),
	}
}

func (s *GormStore) Accounts() AccountRepository         { return s.accounts }
func (s *GormStore) FxRates() FxRateRepository           { return s.fxRates }
func (s *GormStore) TransferLogs() TransferLogRepository { return s.transferLogs }
func (s *GormStore) Outbox() OutboxRepository            { return s.outbox }

// Transaction 开启数据库事务，fn 返回错误时整体回滚
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}
