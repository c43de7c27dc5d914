package progressController

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	. "nutriplan/internal/models"
)

type statsHarness struct {
	controller *ProgressController
	user       *User
	plan       *Plan
	dayRepo    *fakePlanDayRepo
	followRepo *fakeFollowRepo
	compRepo   *fakeCompletionRepo
	progRepo   *fakeProgressRepo
}

// runningLivePlan starts today, so the cohort is on day 1.
func runningLivePlan() *Plan {
	start := Today()
	return &Plan{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		PlanKind:      PlanKindLive,
		Title:         "Summer cohort",
		DurationDays:  28,
		IsPublic:      true,
		IsLiveActive:  true,
		OwnerID:       uuid.New(),
		LiveStartDate: &start,
	}
}

func newStatsHarness(plan *Plan) *statsHarness {
	dayRepo := &fakePlanDayRepo{}
	followRepo := &fakeFollowRepo{}
	compRepo := &fakeCompletionRepo{}
	progRepo := &fakeProgressRepo{}

	return &statsHarness{
		controller: newTestController(
			newFakePlanRepo(plan),
			dayRepo,
			followRepo,
			compRepo,
			progRepo,
		),
		user:       &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}},
		plan:       plan,
		dayRepo:    dayRepo,
		followRepo: followRepo,
		compRepo:   compRepo,
		progRepo:   progRepo,
	}
}

func (h *statsHarness) addDay(dayNumber int, published bool, mealTypes ...MealType) *PlanDay {
	day := &PlanDay{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		PlanID:        h.plan.ID,
		DayNumber:     dayNumber,
		IsPublished:   published,
	}
	for _, mealType := range mealTypes {
		day.Meals = append(day.Meals, Meal{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			PlanDayID:     day.ID,
			MealType:      mealType,
		})
	}
	h.dayRepo.days = append(h.dayRepo.days, day)
	return day
}

func (h *statsHarness) addFollower(userID uuid.UUID) {
	h.followRepo.follows = append(h.followRepo.follows, &Follow{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		UserID:        userID,
		PlanID:        h.plan.ID,
		Plan:          *h.plan,
		IsActive:      true,
		StartDate:     Today(),
	})
}

func (h *statsHarness) addCompletion(userID uuid.UUID, day *PlanDay, meal Meal) {
	h.compRepo.completions = append(h.compRepo.completions, &Completion{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		UserID:        userID,
		MealID:        meal.ID,
		Meal:          meal,
		PlanDayID:     day.ID,
		Date:          Today(),
	})
}

func TestGroupCompletionStats_ZeroFollowers(t *testing.T) {
	h := newStatsHarness(runningLivePlan())
	h.addDay(1, true, MealTypeBreakfast, MealTypeLunch)

	stats, err := h.controller.GroupCompletionStats(context.Background(), h.user, h.plan.ID)
	assert.NoError(t, err)
	assert.Nil(t, stats)
}

func TestGroupCompletionStats_Populated(t *testing.T) {
	h := newStatsHarness(runningLivePlan())
	day := h.addDay(1, true, MealTypeBreakfast, MealTypeLunch)

	diligent := uuid.New()
	idle := uuid.New()
	h.addFollower(diligent)
	h.addFollower(idle)
	h.addCompletion(diligent, day, day.Meals[0])
	h.addCompletion(diligent, day, day.Meals[1])

	stats, err := h.controller.GroupCompletionStats(context.Background(), h.user, h.plan.ID)
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, h.plan.ID, stats.PlanID)
	assert.Equal(t, 1, stats.DayNumber)
	assert.Equal(t, 2, stats.ActiveFollowers)
	assert.Equal(t, 1, stats.CompletedAllCount)
	assert.InDelta(t, 50.0, stats.MeanCompletionPct, 0.001)
	assert.InDelta(t, 50.0, stats.MealTypeRates[MealTypeBreakfast], 0.001)
}

func TestGroupCompletionStats_NotStarted(t *testing.T) {
	plan := runningLivePlan()
	future := datatypes.Date(time.Time(Today()).AddDate(0, 0, 7))
	plan.LiveStartDate = &future
	plan.IsLiveActive = false
	h := newStatsHarness(plan)
	h.addFollower(uuid.New())

	stats, err := h.controller.GroupCompletionStats(context.Background(), h.user, h.plan.ID)
	assert.NoError(t, err)
	assert.Nil(t, stats)
}

func TestGroupCompletionStats_NoDayContent(t *testing.T) {
	h := newStatsHarness(runningLivePlan())
	h.addFollower(uuid.New())

	stats, err := h.controller.GroupCompletionStats(context.Background(), h.user, h.plan.ID)
	assert.NoError(t, err)
	assert.Nil(t, stats)
}

func TestGroupCompletionStats_TemplateRejected(t *testing.T) {
	plan := &Plan{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		PlanKind:      PlanKindTemplate,
		Title:         "Cut template",
		DurationDays:  14,
		OwnerID:       uuid.New(),
	}
	h := newStatsHarness(plan)

	_, err := h.controller.GroupCompletionStats(context.Background(), h.user, plan.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGroupCompletionStats_UnknownPlan(t *testing.T) {
	h := newStatsHarness(runningLivePlan())

	_, err := h.controller.GroupCompletionStats(context.Background(), h.user, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTodayContent_PublishedDayWithProgress(t *testing.T) {
	h := newStatsHarness(runningLivePlan())
	day := h.addDay(1, true, MealTypeBreakfast, MealTypeLunch)
	h.addFollower(h.user.ID)

	progress := &DailyProgress{
		UserID:         h.user.ID,
		PlanDayID:      day.ID,
		Date:           Today(),
		CompletedCount: 1,
		TotalCount:     2,
	}
	progress.Recalculate()
	require.NoError(t, h.progRepo.Upsert(context.Background(), nil, progress))

	content, err := h.controller.GetTodayContent(context.Background(), h.user)
	require.NoError(t, err)
	require.Len(t, content.Entries, 1)

	entry := content.Entries[0]
	assert.Equal(t, h.plan.ID, entry.Plan.ID)
	assert.Equal(t, StatusRunning, entry.State.Status)
	assert.Equal(t, 1, entry.State.CurrentDay)
	require.NotNil(t, entry.Day)
	assert.Equal(t, day.ID, entry.Day.ID)
	require.NotNil(t, entry.Progress)
	assert.Equal(t, 1, entry.Progress.CompletedCount)
}

func TestGetTodayContent_UnpublishedLiveDayHidden(t *testing.T) {
	h := newStatsHarness(runningLivePlan())
	h.addDay(1, false, MealTypeBreakfast)
	h.addFollower(h.user.ID)

	content, err := h.controller.GetTodayContent(context.Background(), h.user)
	require.NoError(t, err)
	require.Len(t, content.Entries, 1)

	// The plan still appears so the client can show its state, but the
	// draft day stays hidden.
	assert.Equal(t, StatusRunning, content.Entries[0].State.Status)
	assert.Nil(t, content.Entries[0].Day)
	assert.Nil(t, content.Entries[0].Progress)
}

func TestGetTodayContent_TemplateStartsOnFollowDate(t *testing.T) {
	plan := &Plan{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		PlanKind:      PlanKindTemplate,
		Title:         "Cut template",
		DurationDays:  14,
		OwnerID:       uuid.New(),
	}
	h := newStatsHarness(plan)
	day := h.addDay(1, false, MealTypeBreakfast)
	h.addFollower(h.user.ID)

	content, err := h.controller.GetTodayContent(context.Background(), h.user)
	require.NoError(t, err)
	require.Len(t, content.Entries, 1)

	// Template content is visible regardless of publish flags.
	entry := content.Entries[0]
	assert.Equal(t, 1, entry.State.CurrentDay)
	require.NotNil(t, entry.Day)
	assert.Equal(t, day.ID, entry.Day.ID)
}

func TestGetTodayContent_NoFollows(t *testing.T) {
	h := newStatsHarness(runningLivePlan())

	content, err := h.controller.GetTodayContent(context.Background(), h.user)
	require.NoError(t, err)
	assert.Empty(t, content.Entries)
}
