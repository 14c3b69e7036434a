package model

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// IsTerminal 终态之后记录不再变更
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

const PaymentMethodVNPay = "vnpay"

type MetadataKind string

const (
	MetadataIntent  MetadataKind = "intent"
	MetadataSettled MetadataKind = "settled"
)

// PaymentMetadata 支付附加信息。
// intent: 创建支付时写入套餐信息；settled: 结算后追加网关回传参数。
type PaymentMetadata struct {
	Kind          MetadataKind      `json:"kind"`
	PlanKey       string            `json:"planKey"`
	PlanName      string            `json:"planName"`
	GatewayParams map[string]string `json:"gatewayParams,omitempty"`
}

func NewIntentMetadata(plan *Plan) PaymentMetadata {
	return PaymentMetadata{
		Kind:     MetadataIntent,
		PlanKey:  plan.Key,
		PlanName: plan.Name,
	}
}

// Settle 保留原有套餐信息，附加网关参数
func (m PaymentMetadata) Settle(params map[string]string) PaymentMetadata {
	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}
	return PaymentMetadata{
		Kind:          MetadataSettled,
		PlanKey:       m.PlanKey,
		PlanName:      m.PlanName,
		GatewayParams: copied,
	}
}

type Payment struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	UserID        int64           `gorm:"not null;index" json:"userId"`
	Amount        int64           `gorm:"not null" json:"amount"`
	Currency      string          `gorm:"size:10;default:VND" json:"currency"`
	Method        string          `gorm:"size:20;not null" json:"method"`
	Status        PaymentStatus   `gorm:"size:20;default:pending;index" json:"status"`
	TransactionID string          `gorm:"size:100;uniqueIndex;not null" json:"transactionId"`
	Metadata      PaymentMetadata `gorm:"type:text;serializer:json" json:"metadata"`
	CreatedAt     time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (Payment) TableName() string {
	return "payments"
}
