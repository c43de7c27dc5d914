package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanDay is one numbered day of content within a plan. Days are immutable
// once published except for edits by the plan's author.
type PlanDay struct {
	BaseUUIDModel
	PlanID      uuid.UUID `gorm:"type:uuid;not null;index:idx_plan_day,composite:0" json:"planId"`
	DayNumber   int       `gorm:"type:int;not null;index:idx_plan_day,composite:1"  json:"dayNumber"`
	Title       string    `gorm:"type:text"               json:"title"`
	IsPublished bool      `gorm:"type:bool;default:false" json:"isPublished"`

	TotalCalories int             `gorm:"type:int;default:0"            json:"totalCalories"`
	TotalProtein  decimal.Decimal `gorm:"type:decimal(8,2);default:0"   json:"totalProtein"`
	TotalCarbs    decimal.Decimal `gorm:"type:decimal(8,2);default:0"   json:"totalCarbs"`
	TotalFat      decimal.Decimal `gorm:"type:decimal(8,2);default:0"   json:"totalFat"`

	Meals []Meal `gorm:"foreignKey:PlanDayID;constraint:OnDelete:CASCADE" json:"meals,omitempty"`
}

// RecalculateTotals rolls the day's nutrition up from its meals.
func (d *PlanDay) RecalculateTotals() {
	d.TotalCalories = 0
	d.TotalProtein = decimal.Zero
	d.TotalCarbs = decimal.Zero
	d.TotalFat = decimal.Zero

	for i := range d.Meals {
		d.TotalCalories += d.Meals[i].Calories
		d.TotalProtein = d.TotalProtein.Add(d.Meals[i].Protein)
		d.TotalCarbs = d.TotalCarbs.Add(d.Meals[i].Carbs)
		d.TotalFat = d.TotalFat.Add(d.Meals[i].Fat)
	}
}
