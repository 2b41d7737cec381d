package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fxtransfer/internal/model"
	"fxtransfer/internal/repository"
	"fxtransfer/pkg/bizerr"
	"fxtransfer/pkg/idgen"
	"fxtransfer/pkg/logger"
	"fxtransfer/pkg/money"

	"go.uber.org/zap"
)

// TransferDispatcher 校验请求、选择转账类型，并在一个事务内落库
//
// 事务内：读两个账户（带 version） -> 计算 -> 按 version 条件写回两个账户 -> 写流水 -> 写通知消息。
// 任何一步失败整体回滚；版本冲突以 repository.ErrVersionConflict 向上返回，由外层重试。
type TransferDispatcher struct {
	store  repository.Store
	engine *TransferEngine
	topic  string // 为空时不写通知消息
	log    *zap.Logger
}

func NewTransferDispatcher(store repository.Store, engine *TransferEngine, notifyTopic string, log *zap.Logger) *TransferDispatcher {
	if log == nil {
		log = logger.L()
	}
	return &TransferDispatcher{
		store:  store,
		engine: engine,
		topic:  notifyTopic,
		log:    log.With(zap.String("component", "TransferDispatcher")),
	}
}

func (d *TransferDispatcher) Dispatch(ctx context.Context, req *model.TransferRequest) (*model.TransferResult, error) {
	if req.FromID == req.ToID {
		return nil, bizerr.ParamIllegal("same account transfer not allowed")
	}
	if !money.Positive(req.Amount) {
		return nil, bizerr.ParamIllegal("amount must be greater than 0")
	}
	if !money.HasValidScale(req.Amount) {
		return nil, bizerr.ParamIllegal("amount must have at most 2 decimal places")
	}

	var result *model.TransferResult
	err := d.store.Transaction(ctx, func(tx repository.Store) error {
		accounts, err := tx.Accounts().FindAllByID(ctx, []int64{req.FromID, req.ToID})
		if err != nil {
			return fmt.Errorf("查询账户失败: %w", err)
		}

		var from, to *model.Account
		for _, a := range accounts {
			switch a.ID {
			case req.FromID:
				from = a
			case req.ToID:
				to = a
			}
		}
		if from == nil {
			return bizerr.UserNotExist("from account not exist")
		}
		if to == nil {
			return bizerr.UserNotExist("to account not exist")
		}

		if from.Currency != req.TransferCurrency {
			return bizerr.ParamIllegal("Sender must use base currency.")
		}

		transferType := model.TransferTypeCross
		if to.Currency == req.TransferCurrency {
			transferType = model.TransferTypeSame
		}

		outcome, err := d.engine.Compute(ctx, transferType, from, to, req.Amount)
		if err != nil {
			return err
		}

		if err := tx.Accounts().Save(ctx, outcome.From); err != nil {
			return fmt.Errorf("更新转出账户失败: %w", err)
		}
		if err := tx.Accounts().Save(ctx, outcome.To); err != nil {
			return fmt.Errorf("更新转入账户失败: %w", err)
		}

		transferLog := &model.TransferLog{
			TransferNo:      idgen.GenerateTransferNo(),
			RequestID:       req.RequestID,
			FromAccountID:   from.ID,
			FromCurrency:    from.Currency,
			ToAccountID:     to.ID,
			ToCurrency:      to.Currency,
			Amount:          outcome.Amount,
			Fee:             outcome.Fee,
			FxRate:          outcome.FxRate,
			ConvertedAmount: outcome.Credit,
		}
		if err := tx.TransferLogs().Create(ctx, transferLog); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		if d.topic != "" {
			if err := d.enqueueNotification(ctx, tx, transferLog); err != nil {
				return err
			}
		}

		result = &model.TransferResult{
			TransferNo:      transferLog.TransferNo,
			FromAccountID:   from.ID,
			ToAccountID:     to.ID,
			TransferType:    outcome.Type,
			Amount:          outcome.Amount,
			Fee:             outcome.Fee,
			TotalDebit:      outcome.TotalDebit,
			FxRate:          outcome.FxRate,
			ConvertedAmount: outcome.Credit,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.log.Info("转账成功",
		zap.String("trace_id", logger.TraceID(ctx)),
		zap.String("transfer_no", result.TransferNo),
		zap.String("request_id", req.RequestID),
		zap.Int64("from", result.FromAccountID),
		zap.Int64("to", result.ToAccountID),
		zap.String("type", string(result.TransferType)),
		zap.String("amount", result.Amount.String()),
		zap.String("fee", result.Fee.String()),
		zap.String("credit", result.ConvertedAmount.String()))

	return result, nil
}

// enqueueNotification 通知消息与余额变更同事务写入，由 OutboxSender 异步投递
func (d *TransferDispatcher) enqueueNotification(ctx context.Context, tx repository.Store, l *model.TransferLog) error {
	payload, err := json.Marshal(&model.TransferCommittedEvent{
		TransferNo:      l.TransferNo,
		RequestID:       l.RequestID,
		FromAccountID:   l.FromAccountID,
		FromCurrency:    l.FromCurrency,
		ToAccountID:     l.ToAccountID,
		ToCurrency:      l.ToCurrency,
		Amount:          l.Amount.StringFixed(money.Scale),
		Fee:             l.Fee.StringFixed(money.Scale),
		FxRate:          l.FxRate.String(),
		ConvertedAmount: l.ConvertedAmount.StringFixed(money.Scale),
		CommittedAt:     time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	msg := &model.OutboxMessage{
		MessageKey: l.TransferNo,
		Topic:      d.topic,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := tx.Outbox().Create(ctx, msg); err != nil {
		return fmt.Errorf("写入消息失败: %w", err)
	}
	return nil
}
