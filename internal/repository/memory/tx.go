package memory

import (
	"context"

	"fxtransfer/internal/model"
	"fxtransfer/internal/repository"
)

type pendingAccount struct {
	account  model.Account
	expected int64
}

// tx 事务视图：读操作读已提交数据（叠加本事务未提交的账户写入），写操作只记录在本地
type tx struct {
	base     *Store
	accounts map[int64]*pendingAccount
	order    []int64
	logs     []*model.TransferLog
	outbox   []*model.OutboxMessage
}

func newTx(base *Store) *tx {
	return &tx{base: base, accounts: make(map[int64]*pendingAccount)}
}

func (t *tx) Accounts() repository.AccountRepository         { return &txAccountRepo{t: t} }
func (t *tx) FxRates() repository.FxRateRepository           { return t.base.FxRates() }
func (t *tx) TransferLogs() repository.TransferLogRepository { return &txTransferLogRepo{t: t} }
func (t *tx) Outbox() repository.OutboxRepository            { return &txOutboxRepo{t: t, outboxRepo: outboxRepo{s: t.base}} }

// Transaction 嵌套事务直接并入当前事务
func (t *tx) Transaction(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

// commit 一次加锁内校验全部版本；任何一个账户版本不一致都整体放弃
func (t *tx) commit() error {
	s := t.base
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range t.order {
		p := t.accounts[id]
		current, ok := s.accounts[id]
		if !ok {
			return repository.ErrAccountNotFound
		}
		if current.Version != p.expected {
			return repository.ErrVersionConflict
		}
	}

	for _, id := range t.order {
		p := t.accounts[id]
		if err := s.casAccountLocked(&p.account, p.expected); err != nil {
			return err
		}
	}
	for _, l := range t.logs {
		s.appendLogLocked(l)
	}
	for _, m := range t.outbox {
		s.appendOutboxLocked(m)
	}
	return nil
}

type txAccountRepo struct {
	t *tx
}

func (r *txAccountRepo) Create(ctx context.Context, account *model.Account) error {
	return r.t.base.Accounts().Create(ctx, account)
}

func (r *txAccountRepo) overlay(a *model.Account) *model.Account {
	if p, ok := r.t.accounts[a.ID]; ok {
		cp := p.account
		cp.Version = p.expected + 1
		return &cp
	}
	return a
}

func (r *txAccountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	a, err := r.t.base.Accounts().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.overlay(a), nil
}

func (r *txAccountRepo) FindAllByID(ctx context.Context, ids []int64) ([]*model.Account, error) {
	accounts, err := r.t.base.Accounts().FindAllByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, a := range accounts {
		accounts[i] = r.overlay(a)
	}
	return accounts, nil
}

// Save 先对已提交数据做一次版本检查，尽早暴露冲突；真正生效在 commit
func (r *txAccountRepo) Save(_ context.Context, account *model.Account) error {
	expected := account.Version
	if p, ok := r.t.accounts[account.ID]; ok {
		if expected != p.expected+1 {
			return repository.ErrVersionConflict
		}
		p.account = *account
		account.Version++
		return nil
	}

	current, ok := r.t.base.getAccount(account.ID)
	if !ok {
		return repository.ErrAccountNotFound
	}
	if current.Version != expected {
		return repository.ErrVersionConflict
	}

	r.t.accounts[account.ID] = &pendingAccount{account: *account, expected: expected}
	r.t.order = append(r.t.order, account.ID)
	account.Version++
	return nil
}

func (r *txAccountRepo) DeleteAll(ctx context.Context) error {
	return r.t.base.Accounts().DeleteAll(ctx)
}

type txTransferLogRepo struct {
	t *tx
}

func (r *txTransferLogRepo) Create(_ context.Context, log *model.TransferLog) error {
	r.t.logs = append(r.t.logs, log)
	return nil
}

func (r *txTransferLogRepo) ListByAccountID(ctx context.Context, accountID int64, page, pageSize int) ([]*model.TransferLog, int64, error) {
	return r.t.base.TransferLogs().ListByAccountID(ctx, accountID, page, pageSize)
}

type txOutboxRepo struct {
	outboxRepo
	t *tx
}

func (r *txOutboxRepo) Create(_ context.Context, msg *model.OutboxMessage) error {
	r.t.outbox = append(r.t.outbox, msg)
	return nil
}
