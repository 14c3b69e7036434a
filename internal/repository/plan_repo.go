package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/phim_premium_server/internal/model"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// ListActive 上架套餐，价格升序
func (r *PlanRepository) ListActive() ([]model.Plan, error) {
	var plans []model.Plan
	err := r.db.Where("is_active = ?", true).
		Order("price ASC").Order("id ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

// GetByKey 不区分上下架
func (r *PlanRepository) GetByKey(key string) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.Where("`key` = ?", key).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) GetActiveByKey(key string) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.Where("`key` = ? AND is_active = ?", key, true).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Upsert 按 key 插入或更新，返回落库后的记录
func (r *PlanRepository) Upsert(plan *model.Plan) (*model.Plan, error) {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "price", "currency", "duration_months", "max_members", "is_active", "description", "updated_at",
		}),
	}).Create(plan).Error
	if err != nil {
		return nil, err
	}
	return r.GetByKey(plan.Key)
}
