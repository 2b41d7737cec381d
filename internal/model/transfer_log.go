package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferLog 转账流水表
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除
// 2. 与两个账户的余额变更在同一个事务内写入
// 3. 手续费只从转出方扣除，不入任何账户
type TransferLog struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransferNo      string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"transfer_no"`
	RequestID       string          `gorm:"type:varchar(64);index;not null" json:"request_id"`
	FromAccountID   int64           `gorm:"index;not null" json:"from_account_id"`
	FromCurrency    Currency        `gorm:"type:varchar(8);not null" json:"from_currency"`
	ToAccountID     int64           `gorm:"index;not null" json:"to_account_id"`
	ToCurrency      Currency        `gorm:"type:varchar(8);not null" json:"to_currency"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`           // 请求金额（转出币种）
	Fee             decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"fee"`              // 手续费（转出币种）
	FxRate          decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"fx_rate"`          // 实际使用的汇率，同币种为 1
	ConvertedAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"converted_amount"` // 转入方实际入账金额
	CreatedAt       time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (TransferLog) TableName() string {
	return "transfer_log"
}
