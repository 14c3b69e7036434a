package model

import (
	"time"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type Subscription struct {
	ID        int64              `gorm:"primaryKey" json:"id"`
	OwnerID   int64              `gorm:"not null;index" json:"ownerId"`
	PlanID    int64              `gorm:"not null" json:"planId"`
	StartDate time.Time          `gorm:"not null" json:"startDate"`
	EndDate   time.Time          `gorm:"not null;index" json:"endDate"`
	Status    SubscriptionStatus `gorm:"size:20;default:active;index" json:"status"`
	PaymentID *int64             `gorm:"uniqueIndex" json:"paymentId,omitempty"` // 一笔支付最多激活一个订阅
	CreatedAt time.Time          `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`

	Plan    *Plan                `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Members []SubscriptionMember `gorm:"foreignKey:SubscriptionID" json:"members,omitempty"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// SubscriptionMember 共享成员（不含订阅所有者）
type SubscriptionMember struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	SubscriptionID int64     `gorm:"not null;uniqueIndex:ux_subscription_member" json:"subscriptionId"`
	UserID         int64     `gorm:"not null;uniqueIndex:ux_subscription_member;index" json:"userId"`
	CreatedAt      time.Time `json:"createdAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (SubscriptionMember) TableName() string {
	return "subscription_members"
}
