package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMeal_RecalculateTotals(t *testing.T) {
	meal := &Meal{
		MealType: MealTypeBreakfast,
		Name:     "Oatmeal with berries",
		Calories: 999, // stale totals get replaced
		Ingredients: []MealIngredient{
			{Name: "Oats", Calories: 150, Protein: dec("5.2"), Carbs: dec("27.0"), Fat: dec("2.5")},
			{Name: "Blueberries", Calories: 40, Protein: dec("0.5"), Carbs: dec("10.3"), Fat: dec("0.2")},
			{Name: "Almond milk", Calories: 30, Protein: dec("1.0"), Carbs: dec("1.0"), Fat: dec("2.5")},
		},
	}

	meal.RecalculateTotals()

	assert.Equal(t, 220, meal.Calories)
	assert.True(t, meal.Protein.Equal(dec("6.7")), "protein %s", meal.Protein)
	assert.True(t, meal.Carbs.Equal(dec("38.3")), "carbs %s", meal.Carbs)
	assert.True(t, meal.Fat.Equal(dec("5.2")), "fat %s", meal.Fat)
}

func TestMeal_RecalculateTotals_NoIngredients(t *testing.T) {
	meal := &Meal{Calories: 500, Protein: dec("20")}
	meal.RecalculateTotals()

	assert.Equal(t, 0, meal.Calories)
	assert.True(t, meal.Protein.IsZero())
}

func TestPlanDay_RecalculateTotals(t *testing.T) {
	day := &PlanDay{
		DayNumber: 3,
		Meals: []Meal{
			{MealType: MealTypeBreakfast, Calories: 400, Protein: dec("18"), Carbs: dec("55"), Fat: dec("12")},
			{MealType: MealTypeLunch, Calories: 650, Protein: dec("35"), Carbs: dec("60"), Fat: dec("25")},
			{MealType: MealTypeDinner, Calories: 550, Protein: dec("40"), Carbs: dec("45"), Fat: dec("20")},
		},
	}

	day.RecalculateTotals()

	assert.Equal(t, 1600, day.TotalCalories)
	assert.True(t, day.TotalProtein.Equal(dec("93")))
	assert.True(t, day.TotalCarbs.Equal(dec("160")))
	assert.True(t, day.TotalFat.Equal(dec("57")))
}

func TestValidMealType(t *testing.T) {
	assert.True(t, ValidMealType(MealTypeBreakfast))
	assert.True(t, ValidMealType(MealTypeSnack))
	assert.False(t, ValidMealType(MealType("brunch")))
	assert.False(t, ValidMealType(MealType("")))
}

func TestDailyProgress_Recalculate(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		expected  float64
	}{
		{"half done", 2, 4, 50},
		{"all done", 4, 4, 100},
		{"nothing done", 0, 4, 0},
		{"zero-meal day", 0, 0, 0},
		{"negative count clamps to zero", -2, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := &DailyProgress{
				CompletedCount: tt.completed,
				TotalCount:     tt.total,
			}
			progress.Recalculate()

			assert.InDelta(t, tt.expected, progress.CompletionPercentage, 0.001)
			assert.GreaterOrEqual(t, progress.CompletedCount, 0)
		})
	}
}
