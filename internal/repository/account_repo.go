package repository

import (
	"context"
	"errors"

	"fxtransfer/internal/model"

	"gorm.io/gorm"
)

type AccountRepo struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *AccountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepo) FindAllByID(ctx context.Context, ids []int64) ([]*model.Account, error) {
	var accounts []*model.Account
	if len(ids) == 0 {
		return accounts, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error
	return accounts, err
}

// Save 乐观锁写回
//
// 【关键点】不加行锁读取，写回时用 version 做 CAS：
//
//	UPDATE account SET balance = ?, version = version + 1 WHERE id = ? AND version = ?
//
// 影响行数为 0 说明读出之后已经有其他事务提交，返回 ErrVersionConflict 交给上层重试
func (r *AccountRepo) Save(ctx context.Context, account *model.Account) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]interface{}{
			"balance": account.Balance,
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, account.ID); err != nil {
			return err
		}
		return ErrVersionConflict
	}

	account.Version++
	return nil
}

func (r *AccountRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Account{}).Error
}
