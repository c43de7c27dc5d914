package services

import (
	"context"
	"errors"

	"nutriplan/internal/database"
	"nutriplan/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	. "nutriplan/internal/models"
)

var (
	ErrInvalidDayNumber = errors.New("day number outside plan duration")
	ErrInvalidPayload   = errors.New("generated day payload failed validation")
)

// GeneratedDay is the shape produced by the external content-generation
// collaborator. The core validates structure only; the generator's own
// correctness is out of scope.
type GeneratedDay struct {
	DayNumber int             `json:"dayNumber"`
	Title     string          `json:"title"`
	Meals     []GeneratedMeal `json:"meals"`
}

type GeneratedMeal struct {
	MealType    MealType              `json:"mealType"`
	Name        string                `json:"name"`
	Ingredients []GeneratedIngredient `json:"ingredients"`
}

type GeneratedIngredient struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Calories int             `json:"calories"`
	Protein  decimal.Decimal `json:"protein"`
	Carbs    decimal.Decimal `json:"carbs"`
	Fat      decimal.Decimal `json:"fat"`
}

// ContentGenerator is the opaque external service that produces day
// content. Implementations live outside the core.
type ContentGenerator interface {
	GenerateDay(ctx context.Context, plan *Plan, dayNumber int) (*GeneratedDay, error)
}

// PlanContentService inserts generated day content into a plan and drives
// the publish notification fan-out.
type PlanContentService struct {
	db           database.DB
	repos        repositories.Repository
	tx           TransactionManager
	invalidation *CacheInvalidationService
	notification *NotificationService
	generator    ContentGenerator
	log          logger.Logger
}

func NewPlanContentService(
	db database.DB,
	repos repositories.Repository,
	tx TransactionManager,
	invalidation *CacheInvalidationService,
	notification *NotificationService,
	generator ContentGenerator,
) *PlanContentService {
	return &PlanContentService{
		db:           db,
		repos:        repos,
		tx:           tx,
		invalidation: invalidation,
		notification: notification,
		generator:    generator,
		log:          logger.New("PlanContentService"),
	}
}

// ImportDay validates a generated payload and inserts it as a new day of
// the plan, with meal and day totals rolled up from the ingredients.
func (s *PlanContentService) ImportDay(
	ctx context.Context,
	planID uuid.UUID,
	payload *GeneratedDay,
	publish bool,
) (*PlanDay, error) {
	log := s.log.Function("ImportDay")

	var created *PlanDay
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		plan, err := s.repos.Plan.GetByIDUncached(ctx, tx, planID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrPlanNotFound
			}
			return err
		}

		if err := validatePayload(plan, payload); err != nil {
			return err
		}

		day := buildDay(plan.ID, payload, publish)
		if err := s.repos.PlanDay.CreateDay(ctx, tx, day); err != nil {
			return err
		}

		if publish {
			s.notification.DayPublished(ctx, tx, plan, day)
		}

		created = day
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidation.InvalidatePlan(ctx, planID)

	log.Info("day content imported", "planID", planID, "day", created.DayNumber)
	return created, nil
}

// GenerateAndImport asks the external generator for a day and inserts it.
func (s *PlanContentService) GenerateAndImport(
	ctx context.Context,
	planID uuid.UUID,
	dayNumber int,
	publish bool,
) (*PlanDay, error) {
	log := s.log.Function("GenerateAndImport")

	if s.generator == nil {
		return nil, log.ErrMsg("no content generator configured")
	}

	plan, err := s.repos.Plan.GetByID(ctx, s.db.SQL, planID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	payload, err := s.generator.GenerateDay(ctx, plan, dayNumber)
	if err != nil {
		return nil, log.Err("content generation failed", err, "planID", planID, "day", dayNumber)
	}
	payload.DayNumber = dayNumber

	return s.ImportDay(ctx, planID, payload, publish)
}

func validatePayload(plan *Plan, payload *GeneratedDay) error {
	if payload == nil || len(payload.Meals) == 0 {
		return ErrInvalidPayload
	}
	if payload.DayNumber < 1 || payload.DayNumber > plan.DurationDays {
		return ErrInvalidDayNumber
	}

	for _, meal := range payload.Meals {
		if meal.Name == "" || !ValidMealType(meal.MealType) {
			return ErrInvalidPayload
		}
		for _, ing := range meal.Ingredients {
			if ing.Name == "" || ing.Quantity.IsNegative() || ing.Calories < 0 {
				return ErrInvalidPayload
			}
		}
	}

	return nil
}

func buildDay(planID uuid.UUID, payload *GeneratedDay, publish bool) *PlanDay {
	day := &PlanDay{
		PlanID:      planID,
		DayNumber:   payload.DayNumber,
		Title:       payload.Title,
		IsPublished: publish,
		Meals:       make([]Meal, 0, len(payload.Meals)),
	}

	for i, gm := range payload.Meals {
		meal := Meal{
			MealType:    gm.MealType,
			Name:        gm.Name,
			SortOrder:   i,
			Ingredients: make([]MealIngredient, 0, len(gm.Ingredients)),
		}

		for _, gi := range gm.Ingredients {
			meal.Ingredients = append(meal.Ingredients, MealIngredient{
				Name:     gi.Name,
				Quantity: gi.Quantity,
				Unit:     gi.Unit,
				Calories: gi.Calories,
				Protein:  gi.Protein,
				Carbs:    gi.Carbs,
				Fat:      gi.Fat,
			})
		}

		meal.RecalculateTotals()
		day.Meals = append(day.Meals, meal)
	}

	day.RecalculateTotals()
	return day
}
