package model

import (
	"github.com/shopspring/decimal"
)

// TransferType 转账类型
type TransferType string

const (
	TransferTypeSame  TransferType = "SAME"  // 同币种
	TransferTypeCross TransferType = "CROSS" // 跨币种
)

// TransferRequest 转账请求，不落库
type TransferRequest struct {
	RequestID        string
	FromID           int64
	ToID             int64
	Amount           decimal.Decimal
	TransferCurrency Currency
}

// TransferResult 转账成功后的结果
type TransferResult struct {
	TransferNo      string          `json:"transfer_no"`
	FromAccountID   int64           `json:"from_account_id"`
	ToAccountID     int64           `json:"to_account_id"`
	TransferType    TransferType    `json:"transfer_type"`
	Amount          decimal.Decimal `json:"amount"`
	Fee             decimal.Decimal `json:"fee"`
	TotalDebit      decimal.Decimal `json:"total_debit"`
	FxRate          decimal.Decimal `json:"fx_rate"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
}
