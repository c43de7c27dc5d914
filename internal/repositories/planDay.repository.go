package repositories

import (
	"context"
	"fmt"

	"nutriplan/internal/constants"
	"nutriplan/internal/database"
	. "nutriplan/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlanDayRepository interface {
	GetByPlanAndNumber(
		ctx context.Context,
		tx *gorm.DB,
		planID uuid.UUID,
		dayNumber int,
	) (*PlanDay, error)
	GetDayByID(ctx context.Context, tx *gorm.DB, dayID uuid.UUID) (*PlanDay, error)
	GetMealByID(ctx context.Context, tx *gorm.DB, mealID uuid.UUID) (*Meal, error)
	CreateDay(ctx context.Context, tx *gorm.DB, day *PlanDay) error
	PublishDay(ctx context.Context, tx *gorm.DB, dayID uuid.UUID) error
	CountMeals(ctx context.Context, tx *gorm.DB, dayID uuid.UUID) (int64, error)
}

type planDayRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewPlanDayRepository(cache database.CacheClient) PlanDayRepository {
	return &planDayRepository{
		cache: cache,
		log:   logger.New("planDayRepository"),
	}
}

func dayCacheKey(planID uuid.UUID, dayNumber int) string {
	return fmt.Sprintf("%s:%d", planID, dayNumber)
}

func (r *planDayRepository) GetByPlanAndNumber(
	ctx context.Context,
	tx *gorm.DB,
	planID uuid.UUID,
	dayNumber int,
) (*PlanDay, error) {
	log := r.log.Function("GetByPlanAndNumber")

	var cached PlanDay
	found, err := database.NewCacheBuilder(r.cache, dayCacheKey(planID, dayNumber)).
		WithContext(ctx).
		WithHash(constants.PlanDayCachePrefix).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get plan day from cache", "planID", planID, "day", dayNumber, "error", err)
	}
	if found {
		return &cached, nil
	}

	var day PlanDay
	if err := tx.WithContext(ctx).
		Preload("Meals", func(db *gorm.DB) *gorm.DB {
			return db.Order("meals.sort_order ASC")
		}).
		Preload("Meals.Ingredients").
		Where("plan_id = ? AND day_number = ?", planID, dayNumber).
		First(&day).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to get plan day", err, "planID", planID, "day", dayNumber)
	}

	if err := database.NewCacheBuilder(r.cache, dayCacheKey(planID, dayNumber)).
		WithContext(ctx).
		WithHash(constants.PlanDayCachePrefix).
		WithStruct(day).
		WithTTL(constants.PlanCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to cache plan day", "planID", planID, "day", dayNumber, "error", err)
	}

	return &day, nil
}

func (r *planDayRepository) GetDayByID(
	ctx context.Context,
	tx *gorm.DB,
	dayID uuid.UUID,
) (*PlanDay, error) {
	log := r.log.Function("GetDayByID")

	var day PlanDay
	if err := tx.WithContext(ctx).First(&day, "id = ?", dayID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to get plan day", err, "dayID", dayID)
	}

	return &day, nil
}

func (r *planDayRepository) GetMealByID(
	ctx context.Context,
	tx *gorm.DB,
	mealID uuid.UUID,
) (*Meal, error) {
	log := r.log.Function("GetMealByID")

	var meal Meal
	if err := tx.WithContext(ctx).First(&meal, "id = ?", mealID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to get meal", err, "mealID", mealID)
	}

	return &meal, nil
}

func (r *planDayRepository) CreateDay(
	ctx context.Context,
	tx *gorm.DB,
	day *PlanDay,
) error {
	log := r.log.Function("CreateDay")

	if err := tx.WithContext(ctx).Create(day).Error; err != nil {
		return log.Err("failed to create plan day", err, "planID", day.PlanID, "day", day.DayNumber)
	}

	return nil
}

func (r *planDayRepository) PublishDay(
	ctx context.Context,
	tx *gorm.DB,
	dayID uuid.UUID,
) error {
	log := r.log.Function("PublishDay")

	result := tx.WithContext(ctx).
		Model(&PlanDay{}).
		Where("id = ?", dayID).
		Update("is_published", true)
	if result.Error != nil {
		return log.Err("failed to publish plan day", result.Error, "dayID", dayID)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *planDayRepository) CountMeals(
	ctx context.Context,
	tx *gorm.DB,
	dayID uuid.UUID,
) (int64, error) {
	log := r.log.Function("CountMeals")

	var count int64
	if err := tx.WithContext(ctx).
		Model(&Meal{}).
		Where("plan_day_id = ?", dayID).
		Count(&count).Error; err != nil {
		return 0, log.Err("failed to count meals", err, "dayID", dayID)
	}

	return count, nil
}
