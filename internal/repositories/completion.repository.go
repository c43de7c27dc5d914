package repositories

import (
	"context"

	. "nutriplan/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CompletionRepository interface {
	GetForUserMealDate(
		ctx context.Context,
		tx *gorm.DB,
		userID, mealID uuid.UUID,
		date datatypes.Date,
	) (*Completion, error)
	Create(ctx context.Context, tx *gorm.DB, completion *Completion) error
	Remove(ctx context.Context, tx *gorm.DB, completionID uuid.UUID) error
	CountForUserDayDate(
		ctx context.Context,
		tx *gorm.DB,
		userID, dayID uuid.UUID,
		date datatypes.Date,
	) (int64, error)
	ListForDayDate(
		ctx context.Context,
		tx *gorm.DB,
		dayID uuid.UUID,
		date datatypes.Date,
	) ([]*Completion, error)
}

type completionRepository struct {
	log logger.Logger
}

func NewCompletionRepository() CompletionRepository {
	return &completionRepository{
		log: logger.New("completionRepository"),
	}
}

func (r *completionRepository) GetForUserMealDate(
	ctx context.Context,
	tx *gorm.DB,
	userID, mealID uuid.UUID,
	date datatypes.Date,
) (*Completion, error) {
	log := r.log.Function("GetForUserMealDate")

	var completion Completion
	err := tx.WithContext(ctx).
		Where("user_id = ? AND meal_id = ? AND date = ?", userID, mealID, date).
		First(&completion).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get completion", err, "userID", userID, "mealID", mealID)
	}

	return &completion, nil
}

func (r *completionRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	completion *Completion,
) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(completion).Error; err != nil {
		return log.Err(
			"failed to create completion",
			err,
			"userID", completion.UserID,
			"mealID", completion.MealID,
		)
	}

	return nil
}

// Remove soft-deletes the completion so the analytics history survives.
func (r *completionRepository) Remove(
	ctx context.Context,
	tx *gorm.DB,
	completionID uuid.UUID,
) error {
	log := r.log.Function("Remove")

	result := tx.WithContext(ctx).Delete(&Completion{}, "id = ?", completionID)
	if result.Error != nil {
		return log.Err("failed to remove completion", result.Error, "completionID", completionID)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *completionRepository) CountForUserDayDate(
	ctx context.Context,
	tx *gorm.DB,
	userID, dayID uuid.UUID,
	date datatypes.Date,
) (int64, error) {
	log := r.log.Function("CountForUserDayDate")

	var count int64
	if err := tx.WithContext(ctx).
		Model(&Completion{}).
		Where("user_id = ? AND plan_day_id = ? AND date = ?", userID, dayID, date).
		Count(&count).Error; err != nil {
		return 0, log.Err("failed to count completions", err, "userID", userID, "dayID", dayID)
	}

	return count, nil
}

func (r *completionRepository) ListForDayDate(
	ctx context.Context,
	tx *gorm.DB,
	dayID uuid.UUID,
	date datatypes.Date,
) ([]*Completion, error) {
	log := r.log.Function("ListForDayDate")

	var completions []*Completion
	if err := tx.WithContext(ctx).
		Preload("Meal").
		Where("plan_day_id = ? AND date = ?", dayID, date).
		Find(&completions).Error; err != nil {
		return nil, log.Err("failed to list completions for day", err, "dayID", dayID)
	}

	return completions, nil
}
