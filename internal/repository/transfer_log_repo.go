package repository

import (
	"context"

	"fxtransfer/internal/model"

	"gorm.io/gorm"
)

type TransferLogRepo struct {
	db *gorm.DB
}

func NewTransferLogRepository(db *gorm.DB) *TransferLogRepo {
	return &TransferLogRepo{db: db}
}

func (r *TransferLogRepo) Create(ctx context.Context, log *model.TransferLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *TransferLogRepo) ListByAccountID(ctx context.Context, accountID int64, page, pageSize int) ([]*model.TransferLog, int64, error) {
	var logs []*model.TransferLog
	var total int64

	query := r.db.WithContext(ctx).
		Model(&model.TransferLog{}).
		Where("from_account_id = ? OR to_account_id = ?", accountID, accountID).
		Session(&gorm.Session{})

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error

	return logs, total, err
}
