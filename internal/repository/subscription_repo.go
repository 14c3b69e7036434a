package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/phim_premium_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

// GetActiveByOwner 用户作为所有者的有效订阅，取最新一条，预加载套餐与成员
func (r *SubscriptionRepository) GetActiveByOwner(ownerID int64, now time.Time) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Preload("Plan").Preload("Members").Preload("Members.User").
		Where("owner_id = ? AND status = ? AND end_date > ?", ownerID, model.SubscriptionActive, now).
		Order("created_at DESC").Order("id DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// LockActiveByOwner 同 GetActiveByOwner，但对订阅行加写锁，需在事务内调用
func (r *SubscriptionRepository) LockActiveByOwner(ownerID int64, now time.Time) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Plan").
		Where("owner_id = ? AND status = ? AND end_date > ?", ownerID, model.SubscriptionActive, now).
		Order("created_at DESC").Order("id DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetActiveByMember 用户作为共享成员加入的有效订阅，预加载套餐
func (r *SubscriptionRepository) GetActiveByMember(userID int64, now time.Time) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Preload("Plan").
		Joins("JOIN subscription_members ON subscription_members.subscription_id = subscriptions.id").
		Where("subscription_members.user_id = ? AND subscriptions.status = ? AND subscriptions.end_date > ?",
			userID, model.SubscriptionActive, now).
		Order("subscriptions.created_at DESC").Order("subscriptions.id DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ExpireEnded 将已过期仍为 active 的订阅置为 expired
func (r *SubscriptionRepository) ExpireEnded(now time.Time) (int64, error) {
	result := r.db.Model(&model.Subscription{}).
		Where("status = ? AND end_date <= ?", model.SubscriptionActive, now).
		Updates(map[string]interface{}{
			"status":     model.SubscriptionExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// CountEnded 已过期但仍为 active 的订阅数
func (r *SubscriptionRepository) CountEnded(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Subscription{}).
		Where("status = ? AND end_date <= ?", model.SubscriptionActive, now).
		Count(&count).Error
	return count, err
}

func (r *SubscriptionRepository) ListMembers(subscriptionID int64) ([]model.SubscriptionMember, error) {
	var members []model.SubscriptionMember
	err := r.db.Preload("User").
		Where("subscription_id = ?", subscriptionID).
		Order("created_at ASC").Order("id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *SubscriptionRepository) CountMembers(subscriptionID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.SubscriptionMember{}).Where("subscription_id = ?", subscriptionID).Count(&count).Error
	return count, err
}

func (r *SubscriptionRepository) IsMember(subscriptionID, userID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.SubscriptionMember{}).
		Where("subscription_id = ? AND user_id = ?", subscriptionID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *SubscriptionRepository) AddMember(member *model.SubscriptionMember) error {
	return r.db.Create(member).Error
}

// RemoveMember 返回删除的行数
func (r *SubscriptionRepository) RemoveMember(subscriptionID, userID int64) (int64, error) {
	result := r.db.Where("subscription_id = ? AND user_id = ?", subscriptionID, userID).
		Delete(&model.SubscriptionMember{})
	return result.RowsAffected, result.Error
}
