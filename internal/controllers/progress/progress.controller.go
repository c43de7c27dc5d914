package progressController

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutriplan/config"
	"nutriplan/internal/constants"
	"nutriplan/internal/database"
	. "nutriplan/internal/models"
	"nutriplan/internal/repositories"
	"nutriplan/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyCompleted = errors.New("meal already completed")
)

type ProgressController struct {
	planRepo           repositories.PlanRepository
	planDayRepo        repositories.PlanDayRepository
	followRepo         repositories.FollowRepository
	completionRepo     repositories.CompletionRepository
	progressRepo       repositories.ProgressRepository
	transactionService services.TransactionManager
	lifecycleService   *services.LifecycleService
	invalidation       *services.CacheInvalidationService
	db                 database.DB
	Config             config.Config
	log                logger.Logger
}

// GroupStats aggregates one day of cohort progress for a live plan. All
// percentages are over active followers, including those with no
// completions at all.
type GroupStats struct {
	PlanID            uuid.UUID            `json:"planId"`
	DayNumber         int                  `json:"dayNumber"`
	Date              datatypes.Date       `json:"date"`
	ActiveFollowers   int                  `json:"activeFollowers"`
	CompletedAllCount int                  `json:"completedAllCount"`
	MeanCompletionPct float64              `json:"meanCompletionPct"`
	MealTypeRates     map[MealType]float64 `json:"mealTypeRates"`
}

// TodayEntry is one followed plan's slice of the today view. Day is nil
// when the plan is running but the current day has no content yet, and
// Progress is nil when nothing has been completed today.
type TodayEntry struct {
	Plan     *Plan          `json:"plan"`
	State    PlanState      `json:"state"`
	Day      *PlanDay       `json:"day,omitempty"`
	Progress *DailyProgress `json:"progress,omitempty"`
}

type TodayContent struct {
	Date    datatypes.Date `json:"date"`
	Entries []TodayEntry   `json:"entries"`
}

type ProgressControllerInterface interface {
	CompleteMeal(
		ctx context.Context,
		user *User,
		mealID uuid.UUID,
		date *string,
	) (*Completion, error)
	UncompleteMeal(
		ctx context.Context,
		user *User,
		mealID uuid.UUID,
		date *string,
	) (*DailyProgress, error)
	GroupCompletionStats(
		ctx context.Context,
		user *User,
		planID uuid.UUID,
	) (*GroupStats, error)
	GetTodayContent(ctx context.Context, user *User) (*TodayContent, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) ProgressControllerInterface {
	return &ProgressController{
		planRepo:           repos.Plan,
		planDayRepo:        repos.PlanDay,
		followRepo:         repos.Follow,
		completionRepo:     repos.Completion,
		progressRepo:       repos.Progress,
		transactionService: services.Transaction,
		lifecycleService:   services.Lifecycle,
		invalidation:       services.Invalidation,
		db:                 db,
		Config:             config,
		log:                logger.New("progressController"),
	}
}

func resolveDate(dateStr *string) (datatypes.Date, error) {
	if dateStr == nil || *dateStr == "" {
		return Today(), nil
	}
	t, err := time.Parse("2006-01-02", *dateStr)
	if err != nil {
		return datatypes.Date{}, errors.New("invalid date format, expected YYYY-MM-DD")
	}
	return datatypes.Date(t), nil
}

// CompleteMeal records that the user ate a meal on the given date
// (defaulting to today) and rolls the daily progress counters forward in
// the same transaction. Completing an already-completed meal returns the
// existing record with ErrAlreadyCompleted so the operation is idempotent
// from the caller's side.
func (c *ProgressController) CompleteMeal(
	ctx context.Context,
	user *User,
	mealID uuid.UUID,
	date *string,
) (*Completion, error) {
	log := c.log.Function("CompleteMeal")

	completionDate, err := resolveDate(date)
	if err != nil {
		return nil, log.ErrorWithType(ErrValidation, "invalid date", "error", err)
	}

	meal, day, err := c.getMealWithDay(ctx, mealID, log)
	if err != nil {
		return nil, err
	}

	follow, err := c.followRepo.GetActive(ctx, c.db.SQL, user.ID, day.PlanID)
	if err != nil {
		return nil, log.Error("failed to get follow", "error", err, "planID", day.PlanID)
	}
	if follow == nil {
		return nil, log.ErrorWithType(
			ErrValidation,
			"user does not follow the meal's plan",
			"planID", day.PlanID,
		)
	}

	existing, err := c.completionRepo.GetForUserMealDate(ctx, c.db.SQL, user.ID, mealID, completionDate)
	if err != nil {
		return nil, log.Error("failed to check existing completion", "error", err, "mealID", mealID)
	}
	if existing != nil {
		return existing, ErrAlreadyCompleted
	}

	completion := &Completion{
		UserID:    user.ID,
		MealID:    meal.ID,
		PlanDayID: day.ID,
		Date:      completionDate,
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.completionRepo.Create(ctx, tx, completion); err != nil {
			return err
		}
		return c.recalculateProgress(ctx, tx, user.ID, day.ID, completionDate)
	})
	if err != nil {
		return nil, log.Error("failed to record completion", "error", err, "mealID", mealID)
	}

	c.invalidateProgress(ctx, user.ID, day)

	log.Info("meal completed", "mealID", mealID, "userID", user.ID, "date", completionDate)
	return completion, nil
}

// UncompleteMeal soft-deletes the completion and recalculates the daily
// counters; the history row survives for auditability. Returns the updated
// progress so the caller sees the new counts without a second read.
func (c *ProgressController) UncompleteMeal(
	ctx context.Context,
	user *User,
	mealID uuid.UUID,
	date *string,
) (*DailyProgress, error) {
	log := c.log.Function("UncompleteMeal")

	completionDate, err := resolveDate(date)
	if err != nil {
		return nil, log.ErrorWithType(ErrValidation, "invalid date", "error", err)
	}

	existing, err := c.completionRepo.GetForUserMealDate(ctx, c.db.SQL, user.ID, mealID, completionDate)
	if err != nil {
		return nil, log.Error("failed to get completion", "error", err, "mealID", mealID)
	}
	if existing == nil {
		return nil, log.ErrorWithType(
			ErrNotFound,
			"no completion for meal on date",
			"mealID", mealID,
			"date", completionDate,
		)
	}

	day, err := c.planDayRepo.GetDayByID(ctx, c.db.SQL, existing.PlanDayID)
	if err != nil {
		return nil, log.Error("failed to get plan day", "error", err, "dayID", existing.PlanDayID)
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.completionRepo.Remove(ctx, tx, existing.ID); err != nil {
			return err
		}
		return c.recalculateProgress(ctx, tx, user.ID, day.ID, completionDate)
	})
	if err != nil {
		return nil, log.Error("failed to remove completion", "error", err, "mealID", mealID)
	}

	c.invalidateProgress(ctx, user.ID, day)

	progress, err := c.progressRepo.Get(ctx, c.db.SQL, user.ID, day.ID, completionDate)
	if err != nil {
		return nil, log.Error("failed to reload progress", "error", err, "dayID", day.ID)
	}

	log.Info("meal uncompleted", "mealID", mealID, "userID", user.ID, "date", completionDate)
	return progress, nil
}

// GroupCompletionStats computes today's cohort aggregates for a live plan.
// Returns nil with no error when there is nothing to aggregate: the plan
// has not started, the day has no content, or nobody follows it.
func (c *ProgressController) GroupCompletionStats(
	ctx context.Context,
	user *User,
	planID uuid.UUID,
) (*GroupStats, error) {
	log := c.log.Function("GroupCompletionStats")

	plan, err := c.planRepo.GetByID(ctx, c.db.SQL, planID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, log.ErrorWithType(ErrNotFound, "plan not found", "planID", planID)
		}
		return nil, log.Error("failed to get plan", "error", err, "planID", planID)
	}

	if !plan.IsLive() {
		return nil, log.ErrorWithType(
			ErrValidation,
			"group stats only exist for live plans",
			"planID", planID,
		)
	}

	state := plan.DeriveState(nil, time.Now())
	if state.CurrentDay == 0 {
		return nil, nil
	}

	date := Today()
	cacheKey := fmt.Sprintf("%s:%d:%s", planID, state.CurrentDay, formatDate(date))

	var cached GroupStats
	found, err := database.NewCacheBuilder(c.db.Cache.General, cacheKey).
		WithContext(ctx).
		WithHash(constants.GroupStatsCachePrefix).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get group stats from cache", "planID", planID, "error", err)
	}
	if found {
		return &cached, nil
	}

	followerIDs, err := c.followRepo.GetActiveFollowerIDs(ctx, c.db.SQL, planID)
	if err != nil {
		return nil, log.Error("failed to get followers", "error", err, "planID", planID)
	}
	if len(followerIDs) == 0 {
		return nil, nil
	}

	day, err := c.planDayRepo.GetByPlanAndNumber(ctx, c.db.SQL, planID, state.CurrentDay)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Error("failed to get plan day", "error", err, "planID", planID)
	}

	completions, err := c.completionRepo.ListForDayDate(ctx, c.db.SQL, day.ID, date)
	if err != nil {
		return nil, log.Error("failed to list completions", "error", err, "dayID", day.ID)
	}

	stats := buildGroupStats(plan, day, state.CurrentDay, date, followerIDs, completions)

	if err := database.NewCacheBuilder(c.db.Cache.General, cacheKey).
		WithContext(ctx).
		WithHash(constants.GroupStatsCachePrefix).
		WithStruct(*stats).
		WithTTL(constants.AggregateCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to cache group stats", "planID", planID, "error", err)
	}

	return stats, nil
}

// GetTodayContent assembles the user's view for today across every plan
// they actively follow: derived state, the matching day content when one
// is published, and their progress on it. Live plans are reconciled
// inline first so a plan that finished since the last scheduler sweep
// never shows as running.
func (c *ProgressController) GetTodayContent(
	ctx context.Context,
	user *User,
) (*TodayContent, error) {
	log := c.log.Function("GetTodayContent")

	var cached TodayContent
	found, err := database.NewCacheBuilder(c.db.Cache.User, user.ID.String()).
		WithContext(ctx).
		WithHash(constants.TodayContentCachePrefix).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get today content from cache", "userID", user.ID, "error", err)
	}
	if found {
		return &cached, nil
	}

	if err := c.lifecycleService.RunForUser(ctx, c.db.SQL, user.ID); err != nil {
		log.Warn("inline lifecycle pass failed", "userID", user.ID, "error", err)
	}

	follows, err := c.followRepo.GetActiveByUser(ctx, c.db.SQL, user.ID)
	if err != nil {
		return nil, log.Error("failed to get follows", "error", err, "userID", user.ID)
	}

	now := time.Now()
	today := Today()
	content := &TodayContent{Date: today, Entries: make([]TodayEntry, 0, len(follows))}

	for _, follow := range follows {
		plan := &follow.Plan
		state := plan.DeriveState(follow, now)

		entry := TodayEntry{Plan: plan, State: state}
		if state.Status == StatusRunning || state.Status == StatusFinished {
			day, err := c.planDayRepo.GetByPlanAndNumber(ctx, c.db.SQL, plan.ID, state.CurrentDay)
			if err != nil && err != gorm.ErrRecordNotFound {
				return nil, log.Error("failed to get plan day", "error", err, "planID", plan.ID)
			}
			if day != nil && (day.IsPublished || plan.PlanKind != PlanKindLive) {
				entry.Day = day
				progress, err := c.progressRepo.Get(ctx, c.db.SQL, user.ID, day.ID, today)
				if err != nil {
					return nil, log.Error("failed to get progress", "error", err, "dayID", day.ID)
				}
				entry.Progress = progress
			}
		}

		content.Entries = append(content.Entries, entry)
	}

	if err := database.NewCacheBuilder(c.db.Cache.User, user.ID.String()).
		WithContext(ctx).
		WithHash(constants.TodayContentCachePrefix).
		WithStruct(*content).
		WithTTL(constants.AggregateCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to cache today content", "userID", user.ID, "error", err)
	}

	return content, nil
}

func (c *ProgressController) getMealWithDay(
	ctx context.Context,
	mealID uuid.UUID,
	log logger.Logger,
) (*Meal, *PlanDay, error) {
	meal, err := c.planDayRepo.GetMealByID(ctx, c.db.SQL, mealID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, log.ErrorWithType(ErrNotFound, "meal not found", "mealID", mealID)
		}
		return nil, nil, log.Error("failed to get meal", "error", err, "mealID", mealID)
	}

	day, err := c.planDayRepo.GetDayByID(ctx, c.db.SQL, meal.PlanDayID)
	if err != nil {
		return nil, nil, log.Error("failed to get plan day", "error", err, "dayID", meal.PlanDayID)
	}

	return meal, day, nil
}

// recalculateProgress recounts inside the caller's transaction so the
// upserted counters always reflect the committed completion set.
func (c *ProgressController) recalculateProgress(
	ctx context.Context,
	tx *gorm.DB,
	userID, dayID uuid.UUID,
	date datatypes.Date,
) error {
	total, err := c.planDayRepo.CountMeals(ctx, tx, dayID)
	if err != nil {
		return err
	}

	completed, err := c.completionRepo.CountForUserDayDate(ctx, tx, userID, dayID, date)
	if err != nil {
		return err
	}

	progress := &DailyProgress{
		UserID:         userID,
		PlanDayID:      dayID,
		Date:           date,
		CompletedCount: int(completed),
		TotalCount:     int(total),
	}
	progress.Recalculate()

	return c.progressRepo.Upsert(ctx, tx, progress)
}

func (c *ProgressController) invalidateProgress(
	ctx context.Context,
	userID uuid.UUID,
	day *PlanDay,
) {
	c.invalidation.InvalidateFollower(ctx, userID, day.PlanID)
}

func formatDate(date datatypes.Date) string {
	return time.Time(date).Format("2006-01-02")
}

func buildGroupStats(
	plan *Plan,
	day *PlanDay,
	dayNumber int,
	date datatypes.Date,
	followerIDs []uuid.UUID,
	completions []*Completion,
) *GroupStats {
	// Every rate below divides by the follower count.
	if len(followerIDs) == 0 {
		return nil
	}

	followers := make(map[uuid.UUID]bool, len(followerIDs))
	for _, id := range followerIDs {
		followers[id] = true
	}

	totalMeals := len(day.Meals)
	perUserCount := make(map[uuid.UUID]int)
	perTypeUsers := make(map[MealType]map[uuid.UUID]bool)

	for _, completion := range completions {
		// Completions from users who unfollowed since stay out of the
		// cohort aggregates.
		if !followers[completion.UserID] {
			continue
		}
		perUserCount[completion.UserID]++
		mealType := completion.Meal.MealType
		if perTypeUsers[mealType] == nil {
			perTypeUsers[mealType] = make(map[uuid.UUID]bool)
		}
		perTypeUsers[mealType][completion.UserID] = true
	}

	stats := &GroupStats{
		PlanID:          plan.ID,
		DayNumber:       dayNumber,
		Date:            date,
		ActiveFollowers: len(followerIDs),
		MealTypeRates:   make(map[MealType]float64),
	}

	if totalMeals > 0 {
		var pctSum float64
		for _, id := range followerIDs {
			count := perUserCount[id]
			if count >= totalMeals {
				stats.CompletedAllCount++
			}
			pctSum += float64(count) / float64(totalMeals) * 100
		}
		stats.MeanCompletionPct = pctSum / float64(len(followerIDs))
	}

	for _, meal := range day.Meals {
		if _, seen := stats.MealTypeRates[meal.MealType]; seen {
			continue
		}
		completedBy := len(perTypeUsers[meal.MealType])
		stats.MealTypeRates[meal.MealType] = float64(completedBy) / float64(len(followerIDs)) * 100
	}

	return stats
}
