package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// Meal belongs to exactly one PlanDay. Its nutrition totals are the sum of
// its ingredients and are recomputed whenever the ingredients change.
type Meal struct {
	BaseUUIDModel
	PlanDayID uuid.UUID `gorm:"type:uuid;not null;index"  json:"planDayId"`
	MealType  MealType  `gorm:"type:varchar(16);not null" json:"mealType"`
	Name      string    `gorm:"type:text;not null"        json:"name"`
	SortOrder int       `gorm:"type:int;default:0"        json:"sortOrder"`

	Calories int             `gorm:"type:int;default:0"          json:"calories"`
	Protein  decimal.Decimal `gorm:"type:decimal(8,2);default:0" json:"protein"`
	Carbs    decimal.Decimal `gorm:"type:decimal(8,2);default:0" json:"carbs"`
	Fat      decimal.Decimal `gorm:"type:decimal(8,2);default:0" json:"fat"`

	Ingredients []MealIngredient `gorm:"foreignKey:MealID;constraint:OnDelete:CASCADE" json:"ingredients,omitempty"`
}

// MealIngredient is an ingredient-with-quantity belonging to one meal.
type MealIngredient struct {
	BaseUUIDModel
	MealID   uuid.UUID       `gorm:"type:uuid;not null;index"    json:"mealId"`
	Name     string          `gorm:"type:text;not null"          json:"name"`
	Quantity decimal.Decimal `gorm:"type:decimal(8,2);not null"  json:"quantity"`
	Unit     string          `gorm:"type:varchar(32)"            json:"unit"`
	Calories int             `gorm:"type:int;default:0"          json:"calories"`
	Protein  decimal.Decimal `gorm:"type:decimal(8,2);default:0" json:"protein"`
	Carbs    decimal.Decimal `gorm:"type:decimal(8,2);default:0" json:"carbs"`
	Fat      decimal.Decimal `gorm:"type:decimal(8,2);default:0" json:"fat"`
}

// RecalculateTotals rolls the meal's nutrition up from its ingredients.
func (m *Meal) RecalculateTotals() {
	m.Calories = 0
	m.Protein = decimal.Zero
	m.Carbs = decimal.Zero
	m.Fat = decimal.Zero

	for i := range m.Ingredients {
		m.Calories += m.Ingredients[i].Calories
		m.Protein = m.Protein.Add(m.Ingredients[i].Protein)
		m.Carbs = m.Carbs.Add(m.Ingredients[i].Carbs)
		m.Fat = m.Fat.Add(m.Ingredients[i].Fat)
	}
}

func (m *Meal) BeforeSave(tx *gorm.DB) error {
	if len(m.Ingredients) > 0 {
		m.RecalculateTotals()
	}
	return nil
}

func ValidMealType(t MealType) bool {
	switch t {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return true
	}
	return false
}
