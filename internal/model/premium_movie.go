package model

import (
	"time"
)

// PremiumMovie 需要会员才能观看的影片（按上游目录的 slug 标记）
type PremiumMovie struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Note      string    `gorm:"size:255" json:"note"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (PremiumMovie) TableName() string {
	return "premium_movies"
}
