package repository

import (
	"context"
	"errors"

	"fxtransfer/internal/model"

	"gorm.io/gorm"
)

type FxRateRepo struct {
	db *gorm.DB
}

func NewFxRateRepository(db *gorm.DB) *FxRateRepo {
	return &FxRateRepo{db: db}
}

func (r *FxRateRepo) Create(ctx context.Context, rate *model.FxRate) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

func (r *FxRateRepo) FindByCurrencyPair(ctx context.Context, from, to model.Currency) (*model.FxRate, error) {
	var rate model.FxRate
	err := r.db.WithContext(ctx).
		Where("from_currency = ? AND to_currency = ?", from, to).
		First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}

func (r *FxRateRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.FxRate{}).Error
}
