package repositories

import (
	"context"
	"fmt"
	"time"

	"nutriplan/internal/constants"
	"nutriplan/internal/database"
	. "nutriplan/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository interface {
	Get(
		ctx context.Context,
		tx *gorm.DB,
		userID, dayID uuid.UUID,
		date datatypes.Date,
	) (*DailyProgress, error)
	Upsert(ctx context.Context, tx *gorm.DB, progress *DailyProgress) error
	ListForDayDate(
		ctx context.Context,
		tx *gorm.DB,
		dayID uuid.UUID,
		date datatypes.Date,
	) ([]*DailyProgress, error)
}

type progressRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewProgressRepository(cache database.CacheClient) ProgressRepository {
	return &progressRepository{
		cache: cache,
		log:   logger.New("progressRepository"),
	}
}

func progressCacheKey(userID, dayID uuid.UUID, date datatypes.Date) string {
	return fmt.Sprintf("%s:%s:%s", userID, dayID, formatDate(date))
}

func (r *progressRepository) Get(
	ctx context.Context,
	tx *gorm.DB,
	userID, dayID uuid.UUID,
	date datatypes.Date,
) (*DailyProgress, error) {
	log := r.log.Function("Get")

	var cached DailyProgress
	found, err := database.NewCacheBuilder(r.cache, progressCacheKey(userID, dayID, date)).
		WithContext(ctx).
		WithHash(constants.DailyProgressCachePrefix).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get progress from cache", "userID", userID, "dayID", dayID, "error", err)
	}
	if found {
		return &cached, nil
	}

	var progress DailyProgress
	err = tx.WithContext(ctx).
		Where("user_id = ? AND plan_day_id = ? AND date = ?", userID, dayID, date).
		First(&progress).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get daily progress", err, "userID", userID, "dayID", dayID)
	}

	if err := database.NewCacheBuilder(r.cache, progressCacheKey(userID, dayID, date)).
		WithContext(ctx).
		WithHash(constants.DailyProgressCachePrefix).
		WithStruct(progress).
		WithTTL(constants.AggregateCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to cache daily progress", "userID", userID, "dayID", dayID, "error", err)
	}

	return &progress, nil
}

// Upsert writes the aggregate row keyed by (user, day, date). The unique
// index makes concurrent upserts for the same key converge on one row.
func (r *progressRepository) Upsert(
	ctx context.Context,
	tx *gorm.DB,
	progress *DailyProgress,
) error {
	log := r.log.Function("Upsert")

	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"}, {Name: "plan_day_id"}, {Name: "date"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"completed_count", "total_count", "completion_percentage", "updated_at",
			}),
		}).
		Create(progress).Error; err != nil {
		return log.Err(
			"failed to upsert daily progress",
			err,
			"userID", progress.UserID,
			"dayID", progress.PlanDayID,
		)
	}

	return nil
}

func (r *progressRepository) ListForDayDate(
	ctx context.Context,
	tx *gorm.DB,
	dayID uuid.UUID,
	date datatypes.Date,
) ([]*DailyProgress, error) {
	log := r.log.Function("ListForDayDate")

	var rows []*DailyProgress
	if err := tx.WithContext(ctx).
		Where("plan_day_id = ? AND date = ?", dayID, date).
		Find(&rows).Error; err != nil {
		return nil, log.Err("failed to list daily progress", err, "dayID", dayID)
	}

	return rows, nil
}

func formatDate(date datatypes.Date) string {
	return time.Time(date).Format("2006-01-02")
}
