package model

import (
	"github.com/shopspring/decimal"
)

// FxRate 汇率表：1 单位 FromCurrency = Rate 单位 ToCurrency
// 只按 (from, to) 精确匹配，不做反向或间接换算
type FxRate struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	FromCurrency Currency        `gorm:"type:varchar(8);not null;uniqueIndex:idx_currency_pair,priority:1" json:"from_currency"`
	ToCurrency   Currency        `gorm:"type:varchar(8);not null;uniqueIndex:idx_currency_pair,priority:2" json:"to_currency"`
	Rate         decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"rate"`
}

func (FxRate) TableName() string {
	return "fx_rate"
}
