package repositories

import (
	"context"

	"nutriplan/internal/constants"
	"nutriplan/internal/database"
	. "nutriplan/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FollowRepository interface {
	GetActive(
		ctx context.Context,
		tx *gorm.DB,
		userID, planID uuid.UUID,
	) (*Follow, error)
	GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*Follow, error)
	GetActiveFollowerIDs(
		ctx context.Context,
		tx *gorm.DB,
		planID uuid.UUID,
	) ([]uuid.UUID, error)
	CountActive(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (int64, error)
	CountForUserPlan(
		ctx context.Context,
		tx *gorm.DB,
		userID, planID uuid.UUID,
	) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, follow *Follow) error
	End(ctx context.Context, tx *gorm.DB, followID uuid.UUID, endDate datatypes.Date) error
}

type followRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewFollowRepository(cache database.CacheClient) FollowRepository {
	return &followRepository{
		cache: cache,
		log:   logger.New("followRepository"),
	}
}

// GetActive returns the single active follow for (user, plan), or nil when
// none exists. The partial unique index guarantees at most one row.
func (r *followRepository) GetActive(
	ctx context.Context,
	tx *gorm.DB,
	userID, planID uuid.UUID,
) (*Follow, error) {
	log := r.log.Function("GetActive")

	var follow Follow
	err := tx.WithContext(ctx).
		Where("user_id = ? AND plan_id = ? AND is_active = ?", userID, planID, true).
		First(&follow).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get active follow", err, "userID", userID, "planID", planID)
	}

	return &follow, nil
}

func (r *followRepository) GetActiveByUser(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
) ([]*Follow, error) {
	log := r.log.Function("GetActiveByUser")

	var cached []*Follow
	found, err := database.NewCacheBuilder(r.cache, userID).
		WithContext(ctx).
		WithHash(constants.UserFollowsCachePrefix).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get user follows from cache", "userID", userID, "error", err)
	}
	if found {
		return cached, nil
	}

	var follows []*Follow
	if err := tx.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&follows).Error; err != nil {
		return nil, log.Err("failed to get user follows", err, "userID", userID)
	}

	if err := database.NewCacheBuilder(r.cache, userID).
		WithContext(ctx).
		WithHash(constants.UserFollowsCachePrefix).
		WithStruct(follows).
		WithTTL(constants.AggregateCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to cache user follows", "userID", userID, "error", err)
	}

	return follows, nil
}

func (r *followRepository) GetActiveFollowerIDs(
	ctx context.Context,
	tx *gorm.DB,
	planID uuid.UUID,
) ([]uuid.UUID, error) {
	log := r.log.Function("GetActiveFollowerIDs")

	var ids []uuid.UUID
	if err := tx.WithContext(ctx).
		Model(&Follow{}).
		Where("plan_id = ? AND is_active = ?", planID, true).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, log.Err("failed to get active follower ids", err, "planID", planID)
	}

	return ids, nil
}

func (r *followRepository) CountActive(
	ctx context.Context,
	tx *gorm.DB,
	planID uuid.UUID,
) (int64, error) {
	log := r.log.Function("CountActive")

	var count int64
	if err := tx.WithContext(ctx).
		Model(&Follow{}).
		Where("plan_id = ? AND is_active = ?", planID, true).
		Count(&count).Error; err != nil {
		return 0, log.Err("failed to count active follows", err, "planID", planID)
	}

	return count, nil
}

func (r *followRepository) CountForUserPlan(
	ctx context.Context,
	tx *gorm.DB,
	userID, planID uuid.UUID,
) (int64, error) {
	log := r.log.Function("CountForUserPlan")

	var count int64
	if err := tx.WithContext(ctx).
		Model(&Follow{}).
		Where("user_id = ? AND plan_id = ?", userID, planID).
		Count(&count).Error; err != nil {
		return 0, log.Err("failed to count follow history", err, "userID", userID, "planID", planID)
	}

	return count, nil
}

func (r *followRepository) Create(ctx context.Context, tx *gorm.DB, follow *Follow) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(follow).Error; err != nil {
		return log.Err(
			"failed to create follow",
			err,
			"userID", follow.UserID,
			"planID", follow.PlanID,
		)
	}

	return nil
}

// End soft-ends a follow: the row survives with is_active=false and an end
// date so progress history is preserved.
func (r *followRepository) End(
	ctx context.Context,
	tx *gorm.DB,
	followID uuid.UUID,
	endDate datatypes.Date,
) error {
	log := r.log.Function("End")

	result := tx.WithContext(ctx).
		Model(&Follow{}).
		Where("id = ? AND is_active = ?", followID, true).
		Updates(map[string]any{
			"is_active": false,
			"end_date":  endDate,
		})
	if result.Error != nil {
		return log.Err("failed to end follow", result.Error, "followID", followID)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
