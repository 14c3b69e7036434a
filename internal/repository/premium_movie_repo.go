package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/phim_premium_server/internal/model"
)

type PremiumMovieRepository struct {
	db *gorm.DB
}

func NewPremiumMovieRepository(db *gorm.DB) *PremiumMovieRepository {
	return &PremiumMovieRepository{db: db}
}

// Upsert 已存在时更新备注
func (r *PremiumMovieRepository) Upsert(movie *model.PremiumMovie) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"note"}),
	}).Create(movie).Error
}

func (r *PremiumMovieRepository) GetBySlug(slug string) (*model.PremiumMovie, error) {
	var movie model.PremiumMovie
	err := r.db.Where("slug = ?", slug).First(&movie).Error
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *PremiumMovieRepository) ExistsBySlug(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&model.PremiumMovie{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *PremiumMovieRepository) List(page, pageSize int) ([]model.PremiumMovie, int64, error) {
	var movies []model.PremiumMovie
	var total int64

	if err := r.db.Model(&model.PremiumMovie{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(pageSize).
		Find(&movies).Error
	if err != nil {
		return nil, 0, err
	}
	return movies, total, nil
}

// DeleteBySlug 返回删除的行数
func (r *PremiumMovieRepository) DeleteBySlug(slug string) (int64, error) {
	result := r.db.Where("slug = ?", slug).Delete(&model.PremiumMovie{})
	return result.RowsAffected, result.Error
}
