package repository

import (
	"gorm.io/gorm"
)

// TxRepos 同一事务内的仓储
type TxRepos struct {
	Users         *UserRepository
	Plans         *PlanRepository
	Payments      *PaymentRepository
	Subscriptions *SubscriptionRepository
}

type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Do fn 返回错误时回滚
func (m *TxManager) Do(fn func(repos *TxRepos) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(&TxRepos{
			Users:         NewUserRepository(tx),
			Plans:         NewPlanRepository(tx),
			Payments:      NewPaymentRepository(tx),
			Subscriptions: NewSubscriptionRepository(tx),
		})
	})
}
