package progressController

import (
	"context"
	"time"

	"nutriplan/internal/database"
	"nutriplan/internal/repositories"
	"nutriplan/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	. "nutriplan/internal/models"
)

type fakeTxManager struct{}

func (f *fakeTxManager) Execute(
	ctx context.Context,
	fn func(context.Context, *gorm.DB) error,
) error {
	return fn(ctx, nil)
}

type fakePlanRepo struct {
	plans map[uuid.UUID]*Plan
}

func newFakePlanRepo(plans ...*Plan) *fakePlanRepo {
	repo := &fakePlanRepo{plans: make(map[uuid.UUID]*Plan)}
	for _, plan := range plans {
		repo.plans[plan.ID] = plan
	}
	return repo
}

func (f *fakePlanRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Plan, error) {
	plan, ok := f.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return plan, nil
}

func (f *fakePlanRepo) GetByIDUncached(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Plan, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakePlanRepo) GetByIDs(
	ctx context.Context,
	tx *gorm.DB,
	ids []uuid.UUID,
) ([]*Plan, error) {
	var plans []*Plan
	for _, id := range ids {
		if plan, ok := f.plans[id]; ok {
			plans = append(plans, plan)
		}
	}
	return plans, nil
}

func (f *fakePlanRepo) GetAllLivePlanIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, plan := range f.plans {
		if plan.PlanKind == PlanKindLive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakePlanRepo) GetLivePlanIDsForUser(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
) ([]uuid.UUID, error) {
	return f.GetAllLivePlanIDs(ctx, tx)
}

func (f *fakePlanRepo) GetArchivedBySourceID(
	ctx context.Context,
	tx *gorm.DB,
	sourceID uuid.UUID,
) (*Plan, error) {
	return nil, nil
}

func (f *fakePlanRepo) ListPublic(ctx context.Context, tx *gorm.DB) ([]*Plan, error) {
	return nil, nil
}

func (f *fakePlanRepo) Create(ctx context.Context, tx *gorm.DB, plan *Plan) error {
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakePlanRepo) Update(ctx context.Context, tx *gorm.DB, plan *Plan) error {
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakePlanRepo) SaveStatusFields(ctx context.Context, tx *gorm.DB, plans []*Plan) error {
	return nil
}

func (f *fakePlanRepo) AdjustParticipantCount(
	ctx context.Context,
	tx *gorm.DB,
	planID uuid.UUID,
	delta int,
) error {
	return nil
}

func (f *fakePlanRepo) MarkArchivalProcessed(
	ctx context.Context,
	tx *gorm.DB,
	planID uuid.UUID,
	at time.Time,
) error {
	return nil
}

func (f *fakePlanRepo) Deactivate(ctx context.Context, tx *gorm.DB, planID uuid.UUID) error {
	delete(f.plans, planID)
	return nil
}

type fakePlanDayRepo struct {
	days []*PlanDay
}

func (f *fakePlanDayRepo) GetByPlanAndNumber(
	ctx context.Context,
	tx *gorm.DB,
	planID uuid.UUID,
	dayNumber int,
) (*PlanDay, error) {
	for _, day := range f.days {
		if day.PlanID == planID && day.DayNumber == dayNumber {
			return day, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePlanDayRepo) GetDayByID(
	ctx context.Context,
	tx *gorm.DB,
	dayID uuid.UUID,
) (*PlanDay, error) {
	for _, day := range f.days {
		if day.ID == dayID {
			return day, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePlanDayRepo) GetMealByID(
	ctx context.Context,
	tx *gorm.DB,
	mealID uuid.UUID,
) (*Meal, error) {
	for _, day := range f.days {
		for i := range day.Meals {
			if day.Meals[i].ID == mealID {
				return &day.Meals[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePlanDayRepo) CreateDay(ctx context.Context, tx *gorm.DB, day *PlanDay) error {
	f.days = append(f.days, day)
	return nil
}

func (f *fakePlanDayRepo) PublishDay(ctx context.Context, tx *gorm.DB, dayID uuid.UUID) error {
	day, err := f.GetDayByID(ctx, tx, dayID)
	if err != nil {
		return err
	}
	day.IsPublished = true
	return nil
}

func (f *fakePlanDayRepo) CountMeals(
	ctx context.Context,
	tx *gorm.DB,
	dayID uuid.UUID,
) (int64, error) {
	day, err := f.GetDayByID(ctx, tx, dayID)
	if err != nil {
		return 0, err
	}
	return int64(len(day.Meals)), nil
}

type fakeFollowRepo struct {
	follows []*Follow
}

func (f *fakeFollowRepo) GetActive(
	ctx context.Context,
	tx *gorm.DB,
	userID, planID uuid.UUID,
) (*Follow, error) {
	for _, follow := range f.follows {
		if follow.UserID == userID && follow.PlanID == planID && follow.IsActive {
			return follow, nil
		}
	}
	return nil, nil
}

func (f *fakeFollowRepo) GetActiveByUser(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
) ([]*Follow, error) {
	var follows []*Follow
	for _, follow := range f.follows {
		if follow.UserID == userID && follow.IsActive {
			follows = append(follows, follow)
		}
	}
	return follows, nil
}

func (f *fakeFollowRepo) GetActiveFollowerIDs(
	ctx context.Context,
	tx *gorm.DB,
	planID uuid.UUID,
) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, follow := range f.follows {
		if follow.PlanID == planID && follow.IsActive {
			ids = append(ids, follow.UserID)
		}
	}
	return ids, nil
}

func (f *fakeFollowRepo) CountActive(
	ctx context.Context,
	tx *gorm.DB,
	planID uuid.UUID,
) (int64, error) {
	ids, _ := f.GetActiveFollowerIDs(ctx, tx, planID)
	return int64(len(ids)), nil
}

func (f *fakeFollowRepo) CountForUserPlan(
	ctx context.Context,
	tx *gorm.DB,
	userID, planID uuid.UUID,
) (int64, error) {
	var count int64
	for _, follow := range f.follows {
		if follow.UserID == userID && follow.PlanID == planID {
			count++
		}
	}
	return count, nil
}

func (f *fakeFollowRepo) Create(ctx context.Context, tx *gorm.DB, follow *Follow) error {
	f.follows = append(f.follows, follow)
	return nil
}

func (f *fakeFollowRepo) End(
	ctx context.Context,
	tx *gorm.DB,
	followID uuid.UUID,
	endDate datatypes.Date,
) error {
	for _, follow := range f.follows {
		if follow.ID == followID {
			follow.IsActive = false
			follow.EndDate = &endDate
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeCompletionRepo struct {
	completions []*Completion
}

func (f *fakeCompletionRepo) GetForUserMealDate(
	ctx context.Context,
	tx *gorm.DB,
	userID, mealID uuid.UUID,
	date datatypes.Date,
) (*Completion, error) {
	for _, completion := range f.completions {
		if completion.UserID == userID && completion.MealID == mealID &&
			sameDate(completion.Date, date) {
			return completion, nil
		}
	}
	return nil, nil
}

func (f *fakeCompletionRepo) Create(
	ctx context.Context,
	tx *gorm.DB,
	completion *Completion,
) error {
	if completion.ID == uuid.Nil {
		completion.ID = uuid.New()
	}
	f.completions = append(f.completions, completion)
	return nil
}

func (f *fakeCompletionRepo) Remove(
	ctx context.Context,
	tx *gorm.DB,
	completionID uuid.UUID,
) error {
	for i, completion := range f.completions {
		if completion.ID == completionID {
			f.completions = append(f.completions[:i], f.completions[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeCompletionRepo) CountForUserDayDate(
	ctx context.Context,
	tx *gorm.DB,
	userID, dayID uuid.UUID,
	date datatypes.Date,
) (int64, error) {
	var count int64
	for _, completion := range f.completions {
		if completion.UserID == userID && completion.PlanDayID == dayID &&
			sameDate(completion.Date, date) {
			count++
		}
	}
	return count, nil
}

func (f *fakeCompletionRepo) ListForDayDate(
	ctx context.Context,
	tx *gorm.DB,
	dayID uuid.UUID,
	date datatypes.Date,
) ([]*Completion, error) {
	var completions []*Completion
	for _, completion := range f.completions {
		if completion.PlanDayID == dayID && sameDate(completion.Date, date) {
			completions = append(completions, completion)
		}
	}
	return completions, nil
}

type fakeProgressRepo struct {
	rows []*DailyProgress
}

func (f *fakeProgressRepo) Get(
	ctx context.Context,
	tx *gorm.DB,
	userID, dayID uuid.UUID,
	date datatypes.Date,
) (*DailyProgress, error) {
	for _, row := range f.rows {
		if row.UserID == userID && row.PlanDayID == dayID && sameDate(row.Date, date) {
			return row, nil
		}
	}
	return nil, nil
}

func (f *fakeProgressRepo) Upsert(
	ctx context.Context,
	tx *gorm.DB,
	progress *DailyProgress,
) error {
	for i, row := range f.rows {
		if row.UserID == progress.UserID && row.PlanDayID == progress.PlanDayID &&
			sameDate(row.Date, progress.Date) {
			f.rows[i] = progress
			return nil
		}
	}
	f.rows = append(f.rows, progress)
	return nil
}

func (f *fakeProgressRepo) ListForDayDate(
	ctx context.Context,
	tx *gorm.DB,
	dayID uuid.UUID,
	date datatypes.Date,
) ([]*DailyProgress, error) {
	var rows []*DailyProgress
	for _, row := range f.rows {
		if row.PlanDayID == dayID && sameDate(row.Date, date) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func sameDate(a, b datatypes.Date) bool {
	return time.Time(a).Equal(time.Time(b))
}

func newTestController(
	planRepo *fakePlanRepo,
	dayRepo *fakePlanDayRepo,
	followRepo *fakeFollowRepo,
	completionRepo *fakeCompletionRepo,
	progressRepo *fakeProgressRepo,
) *ProgressController {
	repos := repositories.Repository{
		Plan:       planRepo,
		PlanDay:    dayRepo,
		Follow:     followRepo,
		Completion: completionRepo,
		Progress:   progressRepo,
	}
	txm := &fakeTxManager{}
	invalidation := services.NewCacheInvalidationService(database.DB{})
	notification := services.NewNotificationService(nil, repos)
	archival := services.NewArchivalService(repos, txm)
	lifecycle := services.NewLifecycleService(repos, txm, archival, invalidation, notification)

	return &ProgressController{
		planRepo:           planRepo,
		planDayRepo:        dayRepo,
		followRepo:         followRepo,
		completionRepo:     completionRepo,
		progressRepo:       progressRepo,
		transactionService: txm,
		lifecycleService:   lifecycle,
		invalidation:       invalidation,
		log:                logger.New("progressController"),
	}
}
