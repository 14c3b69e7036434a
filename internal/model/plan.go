package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlanDuration 套餐时长（自然月）
type PlanDuration int

const (
	DurationOneMonth     PlanDuration = 1
	DurationThreeMonths  PlanDuration = 3
	DurationTwelveMonths PlanDuration = 12
)

// ParsePlanDuration 只接受 1 / 3 / 12 个月
func ParsePlanDuration(months int) (PlanDuration, error) {
	d := PlanDuration(months)
	if !d.Valid() {
		return 0, fmt.Errorf("unsupported plan duration: %d months", months)
	}
	return d, nil
}

func (d PlanDuration) Valid() bool {
	switch d {
	case DurationOneMonth, DurationThreeMonths, DurationTwelveMonths:
		return true
	}
	return false
}

func (d PlanDuration) Months() int {
	return int(d)
}

func (d PlanDuration) String() string {
	if d == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", int(d))
}

func (d PlanDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON 同时接受 "3 months" 与 3 两种写法
func (d *PlanDuration) UnmarshalJSON(data []byte) error {
	var months int
	if err := json.Unmarshal(data, &months); err == nil {
		parsed, err := ParsePlanDuration(months)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}

	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	for _, candidate := range []PlanDuration{DurationOneMonth, DurationThreeMonths, DurationTwelveMonths} {
		if candidate.String() == label {
			*d = candidate
			return nil
		}
	}
	return fmt.Errorf("unsupported plan duration: %q", label)
}

// EndDate 计算到期时间。按日历月累加，目标月份没有对应日期时取该月最后一天
// （1 月 31 日 + 1 个月 = 2 月 28/29 日）。
func (d PlanDuration) EndDate(start time.Time) time.Time {
	return AddMonthsClamped(start, d.Months())
}

// AddMonthsClamped 与 time.AddDate 不同，不会把溢出的天数滚入下个月
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

type Plan struct {
	ID          int64        `gorm:"primaryKey" json:"id"`
	Key         string       `gorm:"size:50;uniqueIndex;not null" json:"key"`
	Name        string       `gorm:"size:100;not null" json:"name"`
	Price       int64        `gorm:"not null;index" json:"price"` // 整数 VND
	Currency    string       `gorm:"size:10;default:VND" json:"currency"`
	Duration    PlanDuration `gorm:"column:duration_months;not null" json:"duration"`
	MaxMembers  int          `gorm:"default:1" json:"maxMembers"`
	IsActive    bool         `gorm:"not null;index" json:"isActive"`
	Description string       `gorm:"type:text" json:"description"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (Plan) TableName() string {
	return "plans"
}
