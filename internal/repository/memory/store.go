// Package memory 进程内的 Store 实现，语义与 gorm 版本一致：
// 账户写入按 version 做 CAS，事务内的写入在提交时一次性校验并生效。
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fxtransfer/internal/model"
	"fxtransfer/internal/repository"
)

type pair struct {
	from model.Currency
	to   model.Currency
}

// Store 所有数据都在 mu 保护下；mu 只在单次读写或提交时短暂持有，
// 调用方计算新余额期间不持有任何锁
type Store struct {
	mu       sync.Mutex
	accounts map[int64]model.Account
	rates    map[pair]model.FxRate
	logs     []model.TransferLog
	outbox   []model.OutboxMessage

	nextAccountID int64
	nextRateID    int64
	nextLogID     int64
	nextOutboxID  int64
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		accounts: make(map[int64]model.Account),
		rates:    make(map[pair]model.FxRate),
	}
}

func (s *Store) Accounts() repository.AccountRepository         { return &accountRepo{s: s} }
func (s *Store) FxRates() repository.FxRateRepository           { return &fxRateRepo{s: s} }
func (s *Store) TransferLogs() repository.TransferLogRepository { return &transferLogRepo{s: s} }
func (s *Store) Outbox() repository.OutboxRepository            { return &outboxRepo{s: s} }

// Transaction fn 内的写操作先缓存，fn 成功后在一次加锁内校验所有版本并提交
func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	tx := newTx(s)
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

// ---------------------------------------------------------------------------
// 非事务访问
// ---------------------------------------------------------------------------

func (s *Store) getAccount(id int64) (model.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	return a, ok
}

// casAccountLocked 调用方必须持有 mu
func (s *Store) casAccountLocked(account *model.Account, expected int64) error {
	current, ok := s.accounts[account.ID]
	if !ok {
		return repository.ErrAccountNotFound
	}
	if current.Version != expected {
		return repository.ErrVersionConflict
	}
	current.Balance = account.Balance
	current.Name = account.Name
	current.Version = expected + 1
	current.UpdatedAt = time.Now()
	s.accounts[account.ID] = current
	return nil
}

type accountRepo struct {
	s *Store
}

func (r *accountRepo) Create(_ context.Context, account *model.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextAccountID++
	if account.ID == 0 {
		account.ID = r.s.nextAccountID
	} else if account.ID > r.s.nextAccountID {
		r.s.nextAccountID = account.ID
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.s.accounts[account.ID] = *account
	return nil
}

func (r *accountRepo) FindByID(_ context.Context, id int64) (*model.Account, error) {
	a, ok := r.s.getAccount(id)
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return &a, nil
}

func (r *accountRepo) FindAllByID(_ context.Context, ids []int64) ([]*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.s.accounts[id]; ok {
			cp := a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *accountRepo) Save(_ context.Context, account *model.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.casAccountLocked(account, account.Version); err != nil {
		return err
	}
	account.Version++
	return nil
}

func (r *accountRepo) DeleteAll(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.accounts = make(map[int64]model.Account)
	return nil
}

type fxRateRepo struct {
	s *Store
}

func (r *fxRateRepo) Create(_ context.Context, rate *model.FxRate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextRateID++
	if rate.ID == 0 {
		rate.ID = r.s.nextRateID
	}
	r.s.rates[pair{from: rate.FromCurrency, to: rate.ToCurrency}] = *rate
	return nil
}

func (r *fxRateRepo) FindByCurrencyPair(_ context.Context, from, to model.Currency) (*model.FxRate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rate, ok := r.s.rates[pair{from: from, to: to}]
	if !ok {
		return nil, nil
	}
	return &rate, nil
}

func (r *fxRateRepo) DeleteAll(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.rates = make(map[pair]model.FxRate)
	return nil
}

type transferLogRepo struct {
	s *Store
}

func (r *transferLogRepo) Create(_ context.Context, log *model.TransferLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.appendLogLocked(log)
	return nil
}

func (s *Store) appendLogLocked(log *model.TransferLog) {
	s.nextLogID++
	log.ID = s.nextLogID
	log.CreatedAt = time.Now()
	s.logs = append(s.logs, *log)
}

func (r *transferLogRepo) ListByAccountID(_ context.Context, accountID int64, page, pageSize int) ([]*model.TransferLog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []*model.TransferLog
	for i := len(r.s.logs) - 1; i >= 0; i-- {
		l := r.s.logs[i]
		if l.FromAccountID == accountID || l.ToAccountID == accountID {
			matched = append(matched, &l)
		}
	}

	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start < 0 || start >= len(matched) {
		return []*model.TransferLog{}, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

type outboxRepo struct {
	s *Store
}

func (r *outboxRepo) Create(_ context.Context, msg *model.OutboxMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.appendOutboxLocked(msg)
	return nil
}

func (s *Store) appendOutboxLocked(msg *model.OutboxMessage) {
	s.nextOutboxID++
	msg.ID = s.nextOutboxID
	if msg.Status == "" {
		msg.Status = model.OutboxStatusPending
	}
	now := time.Now()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	s.outbox = append(s.outbox, *msg)
}

func (r *outboxRepo) GetPendingMessages(_ context.Context, limit int) ([]*model.OutboxMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.OutboxMessage
	for _, m := range r.s.outbox {
		if m.Status != model.OutboxStatusPending {
			continue
		}
		cp := m
		out = append(out, &cp)
		if len(out) >= limit {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *outboxRepo) update(id int64, fn func(m *model.OutboxMessage)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.outbox {
		if r.s.outbox[i].ID == id {
			fn(&r.s.outbox[i])
			r.s.outbox[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return nil
}

func (r *outboxRepo) UpdateStatus(_ context.Context, id int64, status string) error {
	return r.update(id, func(m *model.OutboxMessage) { m.Status = status })
}

func (r *outboxRepo) IncrementRetryCount(_ context.Context, id int64) error {
	return r.update(id, func(m *model.OutboxMessage) { m.RetryCount++ })
}

func (r *outboxRepo) MarkAsFailed(_ context.Context, id int64) error {
	return r.update(id, func(m *model.OutboxMessage) { m.Status = model.OutboxStatusFailed })
}
