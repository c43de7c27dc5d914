package services

import (
	"context"
	"time"

	"nutriplan/internal/database"
	"nutriplan/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	. "nutriplan/internal/models"
)

// fakeTxManager runs the callback without a database; repository fakes
// ignore the tx handle.
type fakeTxManager struct {
	executeErr error
	calls      int
}

func (f *fakeTxManager) Execute(
	ctx context.Context,
	fn func(context.Context, *gorm.DB) error,
) error {
	f.calls++
	if f.executeErr != nil {
		return f.executeErr
	}
	return fn(ctx, nil)
}

type fakePlanRepo struct {
	plans            map[uuid.UUID]*Plan
	archivedBySource map[uuid.UUID]*Plan
	created          []*Plan
	statusSaved      [][]*Plan
	processedAt      map[uuid.UUID]time.Time
	createErr        error
	participantDelta map[uuid.UUID]int
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{
		plans:            make(map[uuid.UUID]*Plan),
		archivedBySource: make(map[uuid.UUID]*Plan),
		processedAt:      make(map[uuid.UUID]time.Time),
		participantDelta: make(map[uuid.UUID]int),
	}
}

func (f *fakePlanRepo) add(plan *Plan) *Plan {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	f.plans[plan.ID] = plan
	return plan
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
	return f.archivedBySource[sourceID], nil
}

func (f *fakePlanRepo) ListPublic(ctx context.Context, tx *gorm.DB) ([]*Plan, error) {
	var plans []*Plan
	for _, plan := range f.plans {
		if plan.IsPublic {
			plans = append(plans, plan)
		}
	}
	return plans, nil
}

func (f *fakePlanRepo) Create(ctx context.Context, tx *gorm.DB, plan *Plan) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(plan)
	f.created = append(f.created, plan)
	if plan.SourceLivePlanID != nil {
		f.archivedBySource[*plan.SourceLivePlanID] = plan
	}
	return nil
}

func (f *fakePlanRepo) Update(ctx context.Context, tx *gorm.DB, plan *Plan) error {
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakePlanRepo) SaveStatusFields(ctx context.Context, tx *gorm.DB, plans []*Plan) error {
	f.statusSaved = append(f.statusSaved, plans)
	return nil
}

func (f *fakePlanRepo) AdjustParticipantCount(
	ctx context.Context,
	tx *gorm.DB,
	planID uuid.UUID,
	delta int,
) error {
	f.participantDelta[planID] += delta
	return nil
}

func (f *fakePlanRepo) MarkArchivalProcessed(
	ctx context.Context,
	tx *gorm.DB,
	planID uuid.UUID,
	at time.Time,
) error {
	f.processedAt[planID] = at
	if plan, ok := f.plans[planID]; ok {
		plan.ArchivalProcessedAt = &at
	}
	return nil
}

func (f *fakePlanRepo) Deactivate(ctx context.Context, tx *gorm.DB, planID uuid.UUID) error {
	delete(f.plans, planID)
	return nil
}

type fakeFollowRepo struct {
	activeCounts map[uuid.UUID]int64
	follows      []*Follow
	countErr     error
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{activeCounts: make(map[uuid.UUID]int64)}
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
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.activeCounts[planID], nil
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
	if follow.ID == uuid.Nil {
		follow.ID = uuid.New()
	}
	f.follows = append(f.follows, follow)
	f.activeCounts[follow.PlanID]++
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
			f.activeCounts[follow.PlanID]--
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakePlanDayRepo struct {
	days      []*PlanDay
	createErr error
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
	if f.createErr != nil {
		return f.createErr
	}
	if day.ID == uuid.Nil {
		day.ID = uuid.New()
	}
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

// testRepos bundles fakes into the Repository struct services expect.
// Repos not exercised by a given test stay nil.
func testRepos(plan *fakePlanRepo, follow *fakeFollowRepo) repositories.Repository {
	return repositories.Repository{
		Plan:   plan,
		Follow: follow,
	}
}

// databaseStub has no cache clients; invalidation treats that as a no-op.
func databaseStub() database.DB {
	return database.DB{}
}

func newTestNotificationService(repos repositories.Repository) *NotificationService {
	return NewNotificationService(nil, repos)
}

func newTestLifecycleService(
	plan *fakePlanRepo,
	follow *fakeFollowRepo,
	tx *fakeTxManager,
) *LifecycleService {
	repos := testRepos(plan, follow)
	archival := NewArchivalService(repos, tx)
	invalidation := NewCacheInvalidationService(databaseStub())
	notification := newTestNotificationService(repos)
	return NewLifecycleService(repos, tx, archival, invalidation, notification)
}
