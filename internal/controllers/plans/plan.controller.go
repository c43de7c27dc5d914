package plansController

import (
	"context"
	"errors"
	"time"

	"nutriplan/config"
	"nutriplan/internal/database"
	. "nutriplan/internal/models"
	"nutriplan/internal/repositories"
	"nutriplan/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrPermission = errors.New("permission denied")
)

type PlanController struct {
	planRepo           repositories.PlanRepository
	followRepo         repositories.FollowRepository
	archivalService    *services.ArchivalService
	lifecycleService   *services.LifecycleService
	planContentService *services.PlanContentService
	invalidation       *services.CacheInvalidationService
	notification       *services.NotificationService
	db                 database.DB
	Config             config.Config
	log                logger.Logger
}

type CreatePlanRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	PlanKind      string  `json:"planKind"`
	DurationDays  int     `json:"durationDays"`
	IsRecurring   bool    `json:"isRecurring,omitempty"`
	IsPublic      bool    `json:"isPublic,omitempty"`
	LiveStartDate *string `json:"liveStartDate,omitempty"`
}

type UpdatePlanRequest struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	IsPublic      *bool   `json:"isPublic,omitempty"`
	DurationDays  *int    `json:"durationDays,omitempty"`
	IsRecurring   *bool   `json:"isRecurring,omitempty"`
	LiveStartDate *string `json:"liveStartDate,omitempty"`
}

type ArchivePlanRequest struct {
	Title *string `json:"title,omitempty"`
}

// PlanDetailResponse pairs the stored plan with its derived temporal state
// for the requesting user. Follow is nil when the user does not actively
// follow the plan.
type PlanDetailResponse struct {
	Plan   *Plan     `json:"plan"`
	State  PlanState `json:"state"`
	Follow *Follow   `json:"follow,omitempty"`
}

type PlanControllerInterface interface {
	CreatePlan(ctx context.Context, user *User, request *CreatePlanRequest) (*Plan, error)
	UpdatePlan(
		ctx context.Context,
		user *User,
		planID uuid.UUID,
		request *UpdatePlanRequest,
	) (*Plan, error)
	DeactivatePlan(ctx context.Context, user *User, planID uuid.UUID) error
	GetPlan(ctx context.Context, user *User, planID uuid.UUID) (*PlanDetailResponse, error)
	ListPublicPlans(ctx context.Context) ([]*Plan, error)
	ArchivePlan(
		ctx context.Context,
		user *User,
		planID uuid.UUID,
		request *ArchivePlanRequest,
	) (*Plan, error)
	ImportDay(
		ctx context.Context,
		user *User,
		planID uuid.UUID,
		payload *services.GeneratedDay,
		publish bool,
	) (*PlanDay, error)
	GenerateDay(
		ctx context.Context,
		user *User,
		planID uuid.UUID,
		dayNumber int,
		publish bool,
	) (*PlanDay, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) PlanControllerInterface {
	return &PlanController{
		planRepo:           repos.Plan,
		followRepo:         repos.Follow,
		archivalService:    services.Archival,
		lifecycleService:   services.Lifecycle,
		planContentService: services.PlanContent,
		invalidation:       services.Invalidation,
		notification:       services.Notification,
		db:                 db,
		Config:             config,
		log:                logger.New("plansController"),
	}
}

func parseDate(dateStr string) (datatypes.Date, error) {
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return datatypes.Date{}, errors.New("invalid date format, expected YYYY-MM-DD")
	}
	return datatypes.Date(t), nil
}

func (c *PlanController) CreatePlan(
	ctx context.Context,
	user *User,
	request *CreatePlanRequest,
) (*Plan, error) {
	log := c.log.Function("CreatePlan")

	if request.Title == "" {
		return nil, log.ErrorWithType(ErrValidation, "title is required")
	}
	if len(request.Title) > MaxTitleLength {
		return nil, log.ErrorWithType(ErrValidation, "title exceeds maximum length")
	}
	if len(request.Description) > MaxDescriptionLength {
		return nil, log.ErrorWithType(ErrValidation, "description exceeds maximum length")
	}

	kind := PlanKind(request.PlanKind)
	switch kind {
	case PlanKindTemplate, PlanKindLive:
	case PlanKindArchived:
		return nil, log.ErrorWithType(
			ErrValidation,
			"archived plans are produced by archival, not created directly",
		)
	default:
		return nil, log.ErrorWithType(ErrValidation, "unknown plan kind", "kind", request.PlanKind)
	}

	plan := &Plan{
		Title:        request.Title,
		Description:  request.Description,
		PlanKind:     kind,
		DurationDays: request.DurationDays,
		IsRecurring:  request.IsRecurring,
		IsPublic:     request.IsPublic,
		OwnerID:      user.ID,
	}

	if kind == PlanKindLive {
		if request.LiveStartDate == nil {
			return nil, log.ErrorWithType(ErrValidation, "live plans require a start date")
		}
		start, err := parseDate(*request.LiveStartDate)
		if err != nil {
			return nil, log.ErrorWithType(ErrValidation, "invalid liveStartDate", "error", err)
		}
		plan.LiveStartDate = &start
	} else if request.LiveStartDate != nil {
		return nil, log.ErrorWithType(ErrValidation, "only live plans carry a start date")
	}

	if err := plan.Validate(); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "plan failed validation", "error", err)
	}

	if err := c.planRepo.Create(ctx, c.db.SQL, plan); err != nil {
		return nil, log.Error("failed to create plan", "error", err, "userID", user.ID)
	}

	c.invalidation.InvalidatePlan(ctx, plan.ID)

	log.Info("plan created", "planID", plan.ID, "kind", plan.PlanKind, "userID", user.ID)
	return plan, nil
}

func (c *PlanController) UpdatePlan(
	ctx context.Context,
	user *User,
	planID uuid.UUID,
	request *UpdatePlanRequest,
) (*Plan, error) {
	log := c.log.Function("UpdatePlan")

	plan, err := c.getOwnedPlan(ctx, user, planID, log)
	if err != nil {
		return nil, err
	}

	if plan.PlanKind == PlanKindArchived {
		return nil, log.ErrorWithType(ErrValidation, "archived plans are immutable")
	}

	if request.Title != nil {
		if *request.Title == "" || len(*request.Title) > MaxTitleLength {
			return nil, log.ErrorWithType(ErrValidation, "invalid title")
		}
		plan.Title = *request.Title
	}
	if request.Description != nil {
		if len(*request.Description) > MaxDescriptionLength {
			return nil, log.ErrorWithType(ErrValidation, "description exceeds maximum length")
		}
		plan.Description = *request.Description
	}
	if request.IsPublic != nil {
		plan.IsPublic = *request.IsPublic
	}

	// Structure changes are only safe before anyone can be mid-plan:
	// templates any time, live plans strictly before their start date.
	structural := request.DurationDays != nil || request.IsRecurring != nil ||
		request.LiveStartDate != nil
	if structural && plan.PlanKind == PlanKindLive {
		state := plan.DeriveState(nil, time.Now())
		if state.Status != StatusNotStarted {
			return nil, log.ErrorWithType(
				ErrValidation,
				"live plan structure is frozen once the plan has started",
			)
		}
	}
	if request.DurationDays != nil {
		plan.DurationDays = *request.DurationDays
	}
	if request.IsRecurring != nil {
		plan.IsRecurring = *request.IsRecurring
	}
	if request.LiveStartDate != nil {
		if plan.PlanKind != PlanKindLive {
			return nil, log.ErrorWithType(ErrValidation, "only live plans carry a start date")
		}
		start, err := parseDate(*request.LiveStartDate)
		if err != nil {
			return nil, log.ErrorWithType(ErrValidation, "invalid liveStartDate", "error", err)
		}
		plan.LiveStartDate = &start
	}

	if err := plan.Validate(); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "plan failed validation", "error", err)
	}

	if err := c.planRepo.Update(ctx, c.db.SQL, plan); err != nil {
		return nil, log.Error("failed to update plan", "error", err, "planID", planID)
	}

	c.invalidation.InvalidatePlan(ctx, planID)

	return plan, nil
}

func (c *PlanController) DeactivatePlan(
	ctx context.Context,
	user *User,
	planID uuid.UUID,
) error {
	log := c.log.Function("DeactivatePlan")

	if _, err := c.getOwnedPlan(ctx, user, planID, log); err != nil {
		return err
	}

	if err := c.planRepo.Deactivate(ctx, c.db.SQL, planID); err != nil {
		return log.Error("failed to deactivate plan", "error", err, "planID", planID)
	}

	c.invalidation.InvalidatePlan(ctx, planID)

	log.Info("plan deactivated", "planID", planID, "userID", user.ID)
	return nil
}

func (c *PlanController) GetPlan(
	ctx context.Context,
	user *User,
	planID uuid.UUID,
) (*PlanDetailResponse, error) {
	log := c.log.Function("GetPlan")

	plan, err := c.planRepo.GetByID(ctx, c.db.SQL, planID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, log.ErrorWithType(ErrNotFound, "plan not found", "planID", planID)
		}
		return nil, log.Error("failed to get plan", "error", err, "planID", planID)
	}

	follow, err := c.followRepo.GetActive(ctx, c.db.SQL, user.ID, planID)
	if err != nil {
		return nil, log.Error("failed to get follow", "error", err, "planID", planID)
	}

	// Private plans are invisible to everyone except the owner and active
	// followers; report not-found rather than confirming existence.
	if !plan.IsPublic && plan.OwnerID != user.ID && follow == nil {
		return nil, log.ErrorWithType(ErrNotFound, "plan not found", "planID", planID)
	}

	state := plan.DeriveState(follow, time.Now())

	// Persisted live flags can lag the derived state between scheduler
	// sweeps; reconcile inline so readers never see a stale plan.
	if plan.IsLive() && plan.IsLiveActive != (state.Status == StatusRunning) {
		if _, err := c.lifecycleService.RunLifecyclePass(ctx, []uuid.UUID{planID}); err != nil {
			log.Warn("inline lifecycle pass failed", "planID", planID, "error", err)
		} else if plan, err = c.planRepo.GetByID(ctx, c.db.SQL, planID); err != nil {
			return nil, log.Error("failed to reload plan", "error", err, "planID", planID)
		}
	}

	return &PlanDetailResponse{Plan: plan, State: state, Follow: follow}, nil
}

func (c *PlanController) ListPublicPlans(ctx context.Context) ([]*Plan, error) {
	log := c.log.Function("ListPublicPlans")

	plans, err := c.planRepo.ListPublic(ctx, c.db.SQL)
	if err != nil {
		return nil, log.Error("failed to list public plans", "error", err)
	}

	return plans, nil
}

func (c *PlanController) ArchivePlan(
	ctx context.Context,
	user *User,
	planID uuid.UUID,
	request *ArchivePlanRequest,
) (*Plan, error) {
	log := c.log.Function("ArchivePlan")

	source, err := c.getOwnedPlan(ctx, user, planID, log)
	if err != nil {
		return nil, err
	}

	archived, err := c.archivalService.Archive(ctx, planID, request.Title)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPlanNotFound):
			return nil, log.ErrorWithType(ErrNotFound, "plan not found", "planID", planID)
		case errors.Is(err, services.ErrNotLivePlan), errors.Is(err, services.ErrPlanStillActive):
			return nil, log.ErrorWithType(ErrValidation, "plan cannot be archived", "error", err)
		default:
			return nil, log.Error("failed to archive plan", "error", err, "planID", planID)
		}
	}

	c.invalidation.InvalidatePlan(ctx, planID)
	if archived != nil {
		c.notification.PlanArchived(ctx, source, archived)
		log.Info("plan archived", "planID", planID, "archivedID", archived.ID)
	}

	return archived, nil
}

func (c *PlanController) ImportDay(
	ctx context.Context,
	user *User,
	planID uuid.UUID,
	payload *services.GeneratedDay,
	publish bool,
) (*PlanDay, error) {
	log := c.log.Function("ImportDay")

	if _, err := c.getOwnedPlan(ctx, user, planID, log); err != nil {
		return nil, err
	}

	day, err := c.planContentService.ImportDay(ctx, planID, payload, publish)
	if err != nil {
		return nil, c.translateContentError(err, log, planID)
	}

	return day, nil
}

func (c *PlanController) GenerateDay(
	ctx context.Context,
	user *User,
	planID uuid.UUID,
	dayNumber int,
	publish bool,
) (*PlanDay, error) {
	log := c.log.Function("GenerateDay")

	if _, err := c.getOwnedPlan(ctx, user, planID, log); err != nil {
		return nil, err
	}

	day, err := c.planContentService.GenerateAndImport(ctx, planID, dayNumber, publish)
	if err != nil {
		return nil, c.translateContentError(err, log, planID)
	}

	return day, nil
}

// getOwnedPlan loads a plan and enforces owner access. Non-owners get a
// permission error when the plan is visible to them and not-found when it
// is not, so private plan ids cannot be probed.
func (c *PlanController) getOwnedPlan(
	ctx context.Context,
	user *User,
	planID uuid.UUID,
	log logger.Logger,
) (*Plan, error) {
	plan, err := c.planRepo.GetByID(ctx, c.db.SQL, planID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, log.ErrorWithType(ErrNotFound, "plan not found", "planID", planID)
		}
		return nil, log.Error("failed to get plan", "error", err, "planID", planID)
	}

	if plan.OwnerID != user.ID {
		if !plan.IsPublic {
			return nil, log.ErrorWithType(ErrNotFound, "plan not found", "planID", planID)
		}
		return nil, log.ErrorWithType(ErrPermission, "user does not own plan", "planID", planID)
	}

	return plan, nil
}

func (c *PlanController) translateContentError(
	err error,
	log logger.Logger,
	planID uuid.UUID,
) error {
	switch {
	case errors.Is(err, services.ErrPlanNotFound):
		return log.ErrorWithType(ErrNotFound, "plan not found", "planID", planID)
	case errors.Is(err, services.ErrInvalidDayNumber), errors.Is(err, services.ErrInvalidPayload):
		return log.ErrorWithType(ErrValidation, "day payload rejected", "error", err)
	default:
		return log.Error("failed to import day", "error", err, "planID", planID)
	}
}
