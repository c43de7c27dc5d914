package followsController

import (
	"context"
	"errors"

	"nutriplan/config"
	"nutriplan/internal/database"
	. "nutriplan/internal/models"
	"nutriplan/internal/repositories"
	"nutriplan/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

type FollowController struct {
	planRepo           repositories.PlanRepository
	followRepo         repositories.FollowRepository
	transactionService services.TransactionManager
	invalidation       *services.CacheInvalidationService
	notification       *services.NotificationService
	db                 database.DB
	Config             config.Config
	log                logger.Logger
}

type FollowControllerInterface interface {
	Follow(ctx context.Context, user *User, planID uuid.UUID) (*Follow, error)
	Unfollow(ctx context.Context, user *User, planID uuid.UUID) (*Follow, error)
	ListFollows(ctx context.Context, user *User) ([]*Follow, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) FollowControllerInterface {
	return &FollowController{
		planRepo:           repos.Plan,
		followRepo:         repos.Follow,
		transactionService: services.Transaction,
		invalidation:       services.Invalidation,
		notification:       services.Notification,
		db:                 db,
		Config:             config,
		log:                logger.New("followsController"),
	}
}

// Follow creates a new active follow for the user on the plan. A second
// active follow on the same plan is rejected; re-following after an
// unfollow always produces a fresh row so prior history stays intact.
// Joining a live plan bumps its participant count in the same transaction.
func (c *FollowController) Follow(
	ctx context.Context,
	user *User,
	planID uuid.UUID,
) (*Follow, error) {
	log := c.log.Function("Follow")

	plan, err := c.planRepo.GetByID(ctx, c.db.SQL, planID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, log.ErrorWithType(ErrNotFound, "plan not found", "planID", planID)
		}
		return nil, log.Error("failed to get plan", "error", err, "planID", planID)
	}

	if !plan.IsPublic && plan.OwnerID != user.ID {
		return nil, log.ErrorWithType(ErrNotFound, "plan not found", "planID", planID)
	}

	existing, err := c.followRepo.GetActive(ctx, c.db.SQL, user.ID, planID)
	if err != nil {
		return nil, log.Error("failed to check existing follow", "error", err, "planID", planID)
	}
	if existing != nil {
		return nil, log.ErrorWithType(
			ErrValidation,
			"user already follows plan",
			"planID", planID,
			"userID", user.ID,
		)
	}

	follow := &Follow{
		UserID:    user.ID,
		PlanID:    planID,
		IsActive:  true,
		StartDate: Today(),
	}

	// The partial unique index on active follows backstops the check above
	// under concurrent requests; the loser's insert fails here.
	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.followRepo.Create(ctx, tx, follow); err != nil {
			return err
		}
		if plan.IsLive() {
			return c.planRepo.AdjustParticipantCount(ctx, tx, planID, 1)
		}
		return nil
	})
	if err != nil {
		return nil, log.Error("failed to create follow", "error", err, "planID", planID)
	}

	c.invalidation.InvalidateFollower(ctx, user.ID, planID)
	c.notification.FollowerJoined(ctx, plan, user.ID)

	log.Info("follow created", "followID", follow.ID, "planID", planID, "userID", user.ID)
	return follow, nil
}

// Unfollow ends the user's active follow. The row is kept with an end date
// so completions and progress remain attributable.
func (c *FollowController) Unfollow(
	ctx context.Context,
	user *User,
	planID uuid.UUID,
) (*Follow, error) {
	log := c.log.Function("Unfollow")

	follow, err := c.followRepo.GetActive(ctx, c.db.SQL, user.ID, planID)
	if err != nil {
		return nil, log.Error("failed to get follow", "error", err, "planID", planID)
	}
	if follow == nil {
		return nil, log.ErrorWithType(
			ErrNotFound,
			"no active follow for plan",
			"planID", planID,
			"userID", user.ID,
		)
	}

	plan, err := c.planRepo.GetByID(ctx, c.db.SQL, planID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, log.Error("failed to get plan", "error", err, "planID", planID)
	}

	endDate := Today()
	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.followRepo.End(ctx, tx, follow.ID, endDate); err != nil {
			return err
		}
		if plan != nil && plan.IsLive() {
			return c.planRepo.AdjustParticipantCount(ctx, tx, planID, -1)
		}
		return nil
	})
	if err != nil {
		return nil, log.Error("failed to end follow", "error", err, "followID", follow.ID)
	}

	follow.IsActive = false
	follow.EndDate = &endDate

	c.invalidation.InvalidateFollower(ctx, user.ID, planID)

	log.Info("follow ended", "followID", follow.ID, "planID", planID, "userID", user.ID)
	return follow, nil
}

func (c *FollowController) ListFollows(
	ctx context.Context,
	user *User,
) ([]*Follow, error) {
	log := c.log.Function("ListFollows")

	follows, err := c.followRepo.GetActiveByUser(ctx, c.db.SQL, user.ID)
	if err != nil {
		return nil, log.Error("failed to list follows", "error", err, "userID", user.ID)
	}

	return follows, nil
}
