package repositories

import (
	"context"
	"time"

	"nutriplan/internal/constants"
	"nutriplan/internal/database"
	. "nutriplan/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlanRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Plan, error)
	GetByIDUncached(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Plan, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*Plan, error)
	GetAllLivePlanIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
	GetLivePlanIDsForUser(
		ctx context.Context,
		tx *gorm.DB,
		userID uuid.UUID,
	) ([]uuid.UUID, error)
	GetArchivedBySourceID(
		ctx context.Context,
		tx *gorm.DB,
		sourceID uuid.UUID,
	) (*Plan, error)
	ListPublic(ctx context.Context, tx *gorm.DB) ([]*Plan, error)
	Create(ctx context.Context, tx *gorm.DB, plan *Plan) error
	Update(ctx context.Context, tx *gorm.DB, plan *Plan) error
	SaveStatusFields(ctx context.Context, tx *gorm.DB, plans []*Plan) error
	AdjustParticipantCount(
		ctx context.Context,
		tx *gorm.DB,
		planID uuid.UUID,
		delta int,
	) error
	MarkArchivalProcessed(
		ctx context.Context,
		tx *gorm.DB,
		planID uuid.UUID,
		at time.Time,
	) error
	Deactivate(ctx context.Context, tx *gorm.DB, planID uuid.UUID) error
}

type planRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewPlanRepository(cache database.CacheClient) PlanRepository {
	return &planRepository{
		cache: cache,
		log:   logger.New("planRepository"),
	}
}

func (r *planRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Plan, error) {
	log := r.log.Function("GetByID")

	var cached Plan
	found, err := database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(constants.PlanDetailCachePrefix).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get plan from cache", "planID", id, "error", err)
	}
	if found {
		return &cached, nil
	}

	var plan Plan
	if err := tx.WithContext(ctx).
		Preload("Days", func(db *gorm.DB) *gorm.DB {
			return db.Order("plan_days.day_number ASC")
		}).
		Preload("Days.Meals", func(db *gorm.DB) *gorm.DB {
			return db.Order("meals.sort_order ASC")
		}).
		Preload("Days.Meals.Ingredients").
		First(&plan, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to get plan", err, "planID", id)
	}

	if err := database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(constants.PlanDetailCachePrefix).
		WithStruct(plan).
		WithTTL(constants.PlanCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to cache plan", "planID", id, "error", err)
	}

	return &plan, nil
}

// GetByIDUncached always reads from the store with the full ownership tree
// preloaded. The archival deep copy and other transactional readers use it
// so they never act on a stale cached view.
func (r *planRepository) GetByIDUncached(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Plan, error) {
	log := r.log.Function("GetByIDUncached")

	var plan Plan
	if err := tx.WithContext(ctx).
		Preload("Days", func(db *gorm.DB) *gorm.DB {
			return db.Order("plan_days.day_number ASC")
		}).
		Preload("Days.Meals", func(db *gorm.DB) *gorm.DB {
			return db.Order("meals.sort_order ASC")
		}).
		Preload("Days.Meals.Ingredients").
		First(&plan, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to get plan", err, "planID", id)
	}

	return &plan, nil
}

func (r *planRepository) GetByIDs(
	ctx context.Context,
	tx *gorm.DB,
	ids []uuid.UUID,
) ([]*Plan, error) {
	log := r.log.Function("GetByIDs")

	if len(ids) == 0 {
		return nil, nil
	}

	var plans []*Plan
	if err := tx.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&plans).Error; err != nil {
		return nil, log.Err("failed to get plans", err, "count", len(ids))
	}

	return plans, nil
}

func (r *planRepository) GetAllLivePlanIDs(
	ctx context.Context,
	tx *gorm.DB,
) ([]uuid.UUID, error) {
	log := r.log.Function("GetAllLivePlanIDs")

	var ids []uuid.UUID
	if err := tx.WithContext(ctx).
		Model(&Plan{}).
		Where("plan_kind = ?", PlanKindLive).
		Pluck("id", &ids).Error; err != nil {
		return nil, log.Err("failed to get live plan ids", err)
	}

	return ids, nil
}

func (r *planRepository) GetLivePlanIDsForUser(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
) ([]uuid.UUID, error) {
	log := r.log.Function("GetLivePlanIDsForUser")

	var ids []uuid.UUID
	if err := tx.WithContext(ctx).
		Model(&Plan{}).
		Joins("JOIN follows ON follows.plan_id = plans.id").
		Where("follows.user_id = ? AND follows.is_active = ? AND follows.deleted_at IS NULL", userID, true).
		Where("plans.plan_kind = ?", PlanKindLive).
		Pluck("plans.id", &ids).Error; err != nil {
		return nil, log.Err("failed to get followed live plan ids", err, "userID", userID)
	}

	return ids, nil
}

func (r *planRepository) GetArchivedBySourceID(
	ctx context.Context,
	tx *gorm.DB,
	sourceID uuid.UUID,
) (*Plan, error) {
	log := r.log.Function("GetArchivedBySourceID")

	var plan Plan
	err := tx.WithContext(ctx).
		Where("plan_kind = ? AND source_live_plan_id = ?", PlanKindArchived, sourceID).
		First(&plan).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to look up archived copy", err, "sourceID", sourceID)
	}

	return &plan, nil
}

func (r *planRepository) ListPublic(ctx context.Context, tx *gorm.DB) ([]*Plan, error) {
	log := r.log.Function("ListPublic")

	var cached []*Plan
	found, err := database.NewCacheBuilder(r.cache, constants.PublicPlansCacheKey).
		WithContext(ctx).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get public plans from cache", "error", err)
	}
	if found {
		return cached, nil
	}

	var plans []*Plan
	if err := tx.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at DESC").
		Find(&plans).Error; err != nil {
		return nil, log.Err("failed to list public plans", err)
	}

	if err := database.NewCacheBuilder(r.cache, constants.PublicPlansCacheKey).
		WithContext(ctx).
		WithStruct(plans).
		WithTTL(constants.PlanCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to cache public plans", "error", err)
	}

	return plans, nil
}

func (r *planRepository) Create(ctx context.Context, tx *gorm.DB, plan *Plan) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(plan).Error; err != nil {
		return log.Err("failed to create plan", err, "title", plan.Title)
	}

	return nil
}

func (r *planRepository) Update(ctx context.Context, tx *gorm.DB, plan *Plan) error {
	log := r.log.Function("Update")

	if err := tx.WithContext(ctx).Save(plan).Error; err != nil {
		return log.Err("failed to update plan", err, "planID", plan.ID)
	}

	return nil
}

// SaveStatusFields persists the lifecycle driver's flips for a batch of
// plans in the caller's transaction. Only the driver-owned fields are
// written so the author's content edits are never clobbered.
func (r *planRepository) SaveStatusFields(
	ctx context.Context,
	tx *gorm.DB,
	plans []*Plan,
) error {
	log := r.log.Function("SaveStatusFields")

	for _, plan := range plans {
		if err := tx.WithContext(ctx).
			Model(&Plan{}).
			Where("id = ?", plan.ID).
			Updates(map[string]any{
				"is_live_active": plan.IsLiveActive,
				"live_end_date":  plan.LiveEndDate,
			}).Error; err != nil {
			return log.Err("failed to save plan status fields", err, "planID", plan.ID)
		}
	}

	return nil
}

func (r *planRepository) AdjustParticipantCount(
	ctx context.Context,
	tx *gorm.DB,
	planID uuid.UUID,
	delta int,
) error {
	log := r.log.Function("AdjustParticipantCount")

	if err := tx.WithContext(ctx).
		Model(&Plan{}).
		Where("id = ?", planID).
		Update("live_participant_count",
			gorm.Expr("GREATEST(live_participant_count + ?, 0)", delta)).Error; err != nil {
		return log.Err("failed to adjust participant count", err, "planID", planID, "delta", delta)
	}

	return nil
}

func (r *planRepository) MarkArchivalProcessed(
	ctx context.Context,
	tx *gorm.DB,
	planID uuid.UUID,
	at time.Time,
) error {
	log := r.log.Function("MarkArchivalProcessed")

	if err := tx.WithContext(ctx).
		Model(&Plan{}).
		Where("id = ?", planID).
		Update("archival_processed_at", at).Error; err != nil {
		return log.Err("failed to mark plan archival processed", err, "planID", planID)
	}

	return nil
}

func (r *planRepository) Deactivate(
	ctx context.Context,
	tx *gorm.DB,
	planID uuid.UUID,
) error {
	log := r.log.Function("Deactivate")

	result := tx.WithContext(ctx).Delete(&Plan{}, "id = ?", planID)
	if result.Error != nil {
		return log.Err("failed to deactivate plan", result.Error, "planID", planID)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
