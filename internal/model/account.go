package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account 用户账户表
// 余额只能通过转账事务修改：读出 version -> 计算新余额 -> 带 version 条件写回
type Account struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string          `gorm:"type:varchar(64);not null" json:"name"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"` // 可用余额，任何已提交的转账之后都不为负
	Currency  Currency        `gorm:"type:varchar(8);not null" json:"currency"`             // 基础币种，转出时必须使用
	Version   int64           `gorm:"not null;default:0" json:"version"`                    // 乐观锁版本号，每次成功写入 +1
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}
