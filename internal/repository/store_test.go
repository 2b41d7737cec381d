package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"fxtransfer/internal/model"
	"fxtransfer/pkg/money"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Account{},
		&model.FxRate{},
		&model.TransferLog{},
		&model.OutboxMessage{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return NewGormStore(db)
}

func createAccount(t *testing.T, s Store, name string, balance string, currency model.Currency) *model.Account {
	t.Helper()
	account := &model.Account{Name: name, Balance: money.MustParse(balance), Currency: currency}
	require.NoError(t, s.Accounts().Create(context.Background(), account))
	return account
}

func TestAccountRepo_SaveBumpsVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createAccount(t, s, "Alice", "1000", model.CurrencyUSD)

	loaded, err := s.Accounts().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), loaded.Version)

	loaded.Balance = money.MustParse("949.5")
	require.NoError(t, s.Accounts().Save(ctx, loaded))
	assert.Equal(t, int64(1), loaded.Version)

	reloaded, err := s.Accounts().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.Version)
	assert.True(t, money.MustParse("949.5").Equal(reloaded.Balance))
}

func TestAccountRepo_SaveStaleVersionConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createAccount(t, s, "Alice", "1000", model.CurrencyUSD)

	first, err := s.Accounts().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	second, err := s.Accounts().FindByID(ctx, alice.ID)
	require.NoError(t, err)

	first.Balance = money.MustParse("900")
	require.NoError(t, s.Accounts().Save(ctx, first))

	second.Balance = money.MustParse("800")
	err = s.Accounts().Save(ctx, second)
	assert.True(t, errors.Is(err, ErrVersionConflict))

	reloaded, err := s.Accounts().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, money.MustParse("900").Equal(reloaded.Balance))
}

func TestAccountRepo_SaveMissingAccount(t *testing.T) {
	s := newTestStore(t)
	err := s.Accounts().Save(context.Background(), &model.Account{ID: 42, Balance: money.One})
	assert.True(t, errors.Is(err, ErrAccountNotFound))
}

func TestAccountRepo_FindAllByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createAccount(t, s, "Alice", "1000", model.CurrencyUSD)
	bob := createAccount(t, s, "Bob", "500", model.CurrencyJPN)

	accounts, err := s.Accounts().FindAllByID(ctx, []int64{alice.ID, bob.ID, 999})
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	require.NoError(t, s.Accounts().DeleteAll(ctx))
	accounts, err = s.Accounts().FindAllByID(ctx, []int64{alice.ID, bob.ID})
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestFxRateRepo_ExactPairOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.FxRates().Create(ctx, &model.FxRate{
		FromCurrency: model.CurrencyUSD,
		ToCurrency:   model.CurrencyAUD,
		Rate:         money.MustParse("2"),
	}))

	rate, err := s.FxRates().FindByCurrencyPair(ctx, model.CurrencyUSD, model.CurrencyAUD)
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.True(t, money.MustParse("2").Equal(rate.Rate))

	inverse, err := s.FxRates().FindByCurrencyPair(ctx, model.CurrencyAUD, model.CurrencyUSD)
	require.NoError(t, err)
	assert.Nil(t, inverse)
}

func TestGormStore_TransactionRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createAccount(t, s, "Alice", "1000", model.CurrencyUSD)

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx Store) error {
		account, err := tx.Accounts().FindByID(ctx, alice.ID)
		if err != nil {
			return err
		}
		account.Balance = money.MustParse("1")
		if err := tx.Accounts().Save(ctx, account); err != nil {
			return err
		}
		if err := tx.TransferLogs().Create(ctx, &model.TransferLog{TransferNo: "TRF1", FromAccountID: alice.ID}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	reloaded, err := s.Accounts().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, money.MustParse("1000").Equal(reloaded.Balance))
	assert.Equal(t, int64(0), reloaded.Version)

	logs, total, err := s.TransferLogs().ListByAccountID(ctx, alice.ID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, logs)
}

func TestOutboxRepo_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := &model.OutboxMessage{MessageKey: "TRF1", Topic: "transfer_committed", Payload: "{}", Status: model.OutboxStatusPending}
	require.NoError(t, s.Outbox().Create(ctx, msg))

	pending, err := s.Outbox().GetPendingMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, s.Outbox().IncrementRetryCount(ctx, msg.ID))
	require.NoError(t, s.Outbox().UpdateStatus(ctx, msg.ID, model.OutboxStatusSent))

	pending, err = s.Outbox().GetPendingMessages(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestTransferLogRepo_PagesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.TransferLogs().Create(ctx, &model.TransferLog{
			TransferNo:    fmt.Sprintf("TRF%d", i),
			RequestID:     fmt.Sprintf("r%d", i),
			FromAccountID: 1,
			ToAccountID:   int64(2 + i%2),
			Amount:        money.MustParse("1"),
		}))
	}

	logs, total, err := s.TransferLogs().ListByAccountID(ctx, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, logs, 2)
	assert.Equal(t, "TRF5", logs[0].TransferNo)
	assert.Equal(t, "TRF4", logs[1].TransferNo)

	logs, total, err = s.TransferLogs().ListByAccountID(ctx, 3, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, logs, 3)
}
