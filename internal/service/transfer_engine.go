package service

import (
	"context"
	"fmt"

	"fxtransfer/internal/model"
	"fxtransfer/internal/repository"
	"fxtransfer/pkg/bizerr"
	"fxtransfer/pkg/money"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 转账计算引擎
// ============================================================================
//
// 只负责计算，不落库：
//   手续费     fee        = round(amount * feeRate)
//   总扣款     totalDebit = round(amount + fee)
//   入账金额   credit     = 同币种为 amount，跨币种为 round(amount * rate)
//
// fee 与 credit 从未舍入的乘积各自舍入；totalDebit 包含实际收取的 fee，
// 同币种时 totalDebit - credit == fee。
// 手续费只从转出方扣除，不入任何账户。
// ============================================================================

// TransferOutcome 计算结果，From/To 是更新后的账户副本
type TransferOutcome struct {
	Type       model.TransferType
	From       *model.Account
	To         *model.Account
	Amount     decimal.Decimal
	Fee        decimal.Decimal
	TotalDebit decimal.Decimal
	FxRate     decimal.Decimal
	Credit     decimal.Decimal
}

// transferPolicy 每种转账类型一个实现，集合在 NewTransferEngine 中固定
type transferPolicy interface {
	apply(ctx context.Context, from, to *model.Account, amount decimal.Decimal) (*TransferOutcome, error)
}

// EngineOptions 引擎参数
type EngineOptions struct {
	EnableCrossCurrency bool
	FeeRate             decimal.Decimal
}

type TransferEngine struct {
	policies map[model.TransferType]transferPolicy
}

// NewTransferEngine rates 用于跨币种查汇率
func NewTransferEngine(rates repository.FxRateRepository, opts EngineOptions) *TransferEngine {
	return &TransferEngine{
		policies: map[model.TransferType]transferPolicy{
			model.TransferTypeSame: &sameCurrencyPolicy{feeRate: opts.FeeRate},
			model.TransferTypeCross: &crossCurrencyPolicy{
				enabled: opts.EnableCrossCurrency,
				feeRate: opts.FeeRate,
				rates:   rates,
			},
		},
	}
}

// Compute 按转账类型计算，返回更新后的账户副本；入参账户不会被修改
func (e *TransferEngine) Compute(ctx context.Context, transferType model.TransferType, from, to *model.Account, amount decimal.Decimal) (*TransferOutcome, error) {
	policy, ok := e.policies[transferType]
	if !ok {
		return nil, bizerr.TransferTypeNotSupported(string(transferType), from.Currency.String(), to.Currency.String())
	}
	return policy.apply(ctx, from, to, amount)
}

// settle 扣款和入账；余额不足时返回 InsufficientBalance
func settle(t model.TransferType, from, to *model.Account, amount, feeRate, rate, credit decimal.Decimal) (*TransferOutcome, error) {
	totalDebit := money.TotalDebit(amount, feeRate)
	if from.Balance.LessThan(totalDebit) {
		return nil, bizerr.InsufficientBalance()
	}

	newFrom := *from
	newTo := *to
	newFrom.Balance = money.Round(from.Balance.Sub(totalDebit))
	newTo.Balance = money.Round(to.Balance.Add(credit))

	return &TransferOutcome{
		Type:       t,
		From:       &newFrom,
		To:         &newTo,
		Amount:     amount,
		Fee:        money.Fee(amount, feeRate),
		TotalDebit: totalDebit,
		FxRate:     rate,
		Credit:     credit,
	}, nil
}

type sameCurrencyPolicy struct {
	feeRate decimal.Decimal
}

func (p *sameCurrencyPolicy) apply(_ context.Context, from, to *model.Account, amount decimal.Decimal) (*TransferOutcome, error) {
	return settle(model.TransferTypeSame, from, to, amount, p.feeRate, money.One, money.Round(amount))
}

type crossCurrencyPolicy struct {
	enabled bool
	feeRate decimal.Decimal
	rates   repository.FxRateRepository
}

func (p *crossCurrencyPolicy) apply(ctx context.Context, from, to *model.Account, amount decimal.Decimal) (*TransferOutcome, error) {
	if !p.enabled {
		return nil, bizerr.TransferTypeNotSupported(string(model.TransferTypeCross), from.Currency.String(), to.Currency.String())
	}

	rate, err := p.rates.FindByCurrencyPair(ctx, from.Currency, to.Currency)
	if err != nil {
		return nil, fmt.Errorf("查询汇率失败: %w", err)
	}
	if rate == nil {
		return nil, bizerr.RateNotSupported()
	}

	return settle(model.TransferTypeCross, from, to, amount, p.feeRate, rate.Rate, money.Convert(amount, rate.Rate))
}
