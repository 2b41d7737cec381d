package model

import (
	"time"
)

const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// OutboxMessage 本地消息表
// 转账成功通知与余额变更在同一事务写入，由 OutboxSender 异步投递到 Kafka。
// 只是通知，结算本身始终是同步完成的。
type OutboxMessage struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageKey string    `gorm:"type:varchar(64);not null" json:"message_key"`
	Topic      string    `gorm:"type:varchar(64);not null" json:"topic"`
	Payload    string    `gorm:"type:text;not null" json:"payload"`
	Status     string    `gorm:"type:varchar(20);index;not null;default:PENDING" json:"status"`
	RetryCount int       `gorm:"not null;default:0" json:"retry_count"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OutboxMessage) TableName() string {
	return "outbox_message"
}

// TransferCommittedEvent 转账成功消息体
type TransferCommittedEvent struct {
	TransferNo      string   `json:"transfer_no"`
	RequestID       string   `json:"request_id"`
	FromAccountID   int64    `json:"from_account_id"`
	FromCurrency    Currency `json:"from_currency"`
	ToAccountID     int64    `json:"to_account_id"`
	ToCurrency      Currency `json:"to_currency"`
	Amount          string   `json:"amount"`
	Fee             string   `json:"fee"`
	FxRate          string   `json:"fx_rate"`
	ConvertedAmount string   `json:"converted_amount"`
	CommittedAt     string   `json:"committed_at"`
}
