package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Completion records that a user finished a specific meal on a specific
// calendar date. At most one exists per (user, meal, date); rows are
// soft-deleted on uncomplete so the analytics history survives.
type Completion struct {
	BaseUUIDModel
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"userId"`
	MealID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"mealId"`
	Meal      Meal           `gorm:"foreignKey:MealID"        json:"meal,omitempty"`
	PlanDayID uuid.UUID      `gorm:"type:uuid;not null;index" json:"planDayId"`
	Date      datatypes.Date `gorm:"type:date;not null"       json:"date"`
}

// DailyProgress is the mutable per (user, day, date) completion aggregate,
// upserted whenever a completion is recorded or removed.
type DailyProgress struct {
	BaseUUIDModel
	UserID               uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_day_date,composite:0" json:"userId"`
	PlanDayID            uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_day_date,composite:1" json:"planDayId"`
	Date                 datatypes.Date `gorm:"type:date;not null;uniqueIndex:idx_progress_user_day_date,composite:2" json:"date"`
	CompletedCount       int            `gorm:"type:int;default:0"        json:"completedCount"`
	TotalCount           int            `gorm:"type:int;default:0"        json:"totalCount"`
	CompletionPercentage float64        `gorm:"type:decimal(5,2);default:0" json:"completionPercentage"`
}

// Recalculate sets the percentage from the counters, guarding the zero-meal
// day.
func (p *DailyProgress) Recalculate() {
	if p.CompletedCount < 0 {
		p.CompletedCount = 0
	}
	if p.TotalCount <= 0 {
		p.CompletionPercentage = 0
		return
	}
	p.CompletionPercentage = float64(p.CompletedCount) / float64(p.TotalCount) * 100
}
