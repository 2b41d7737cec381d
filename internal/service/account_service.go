package service

import (
	"context"
	"errors"
	"fmt"

	"fxtransfer/internal/model"
	"fxtransfer/internal/repository"
	"fxtransfer/pkg/bizerr"
	"fxtransfer/pkg/logger"
	"fxtransfer/pkg/money"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type AccountService struct {
	store repository.Store
	rates repository.FxRateRepository // 与转账引擎读汇率用同一个仓库，带缓存时写入会清缓存
}

func NewAccountService(store repository.Store, rates repository.FxRateRepository) *AccountService {
	if rates == nil {
		rates = store.FxRates()
	}
	return &AccountService{store: store, rates: rates}
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.store.Accounts().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, bizerr.UserNotExist("account not exist")
		}
		return nil, fmt.Errorf("查询账户失败: %w", err)
	}
	return account, nil
}

// ListTransfers 分页查询账户相关的转账流水（转出或转入），按时间倒序
func (s *AccountService) ListTransfers(ctx context.Context, accountID int64, page, pageSize int) ([]*model.TransferLog, int64, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	logs, total, err := s.store.TransferLogs().ListByAccountID(ctx, accountID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("查询流水失败: %w", err)
	}
	return logs, total, nil
}

// Seed 写入演示数据：清空账户和汇率，创建 Alice(USD 1000)、Bob(JPN 500) 和 USD->AUD=2
func (s *AccountService) Seed(ctx context.Context) error {
	if err := s.store.Accounts().DeleteAll(ctx); err != nil {
		return fmt.Errorf("清空账户失败: %w", err)
	}
	if err := s.rates.DeleteAll(ctx); err != nil {
		return fmt.Errorf("清空汇率失败: %w", err)
	}

	accounts := []*model.Account{
		{Name: "Alice", Balance: money.MustParse("1000"), Currency: model.CurrencyUSD},
		{Name: "Bob", Balance: money.MustParse("500"), Currency: model.CurrencyJPN},
	}
	for _, a := range accounts {
		if err := s.store.Accounts().Create(ctx, a); err != nil {
			return fmt.Errorf("创建账户失败: %w", err)
		}
	}

	rate := &model.FxRate{FromCurrency: model.CurrencyUSD, ToCurrency: model.CurrencyAUD, Rate: money.MustParse("2")}
	if err := s.rates.Create(ctx, rate); err != nil {
		return fmt.Errorf("创建汇率失败: %w", err)
	}

	logger.L().Info("演示数据初始化完成",
		zap.String("component", "AccountService"),
		zap.Int64("alice", accounts[0].ID),
		zap.Int64("bob", accounts[1].ID))
	return nil
}
