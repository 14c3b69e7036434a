package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/phim_premium_server/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(payment *model.Payment) error {
	return r.db.Create(payment).Error
}

func (r *PaymentRepository) GetByTransactionID(transactionID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.Where("transaction_id = ?", transactionID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkSettled 仅当记录仍为 pending 时写入终态，返回是否由本次调用完成结算
func (r *PaymentRepository) MarkSettled(id int64, status model.PaymentStatus, metadata model.PaymentMetadata) (bool, error) {
	result := r.db.Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, model.PaymentPending).
		Select("status", "metadata").
		Updates(&model.Payment{
			Status:   status,
			Metadata: metadata,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListStalePending 创建时间早于 before 的 pending 记录
func (r *PaymentRepository) ListStalePending(before time.Time, limit int) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.Where("status = ? AND created_at < ?", model.PaymentPending, before).
		Order("id ASC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) CountStalePending(before time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Payment{}).
		Where("status = ? AND created_at < ?", model.PaymentPending, before).
		Count(&count).Error
	return count, err
}
