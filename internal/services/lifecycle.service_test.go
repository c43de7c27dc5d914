package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	. "nutriplan/internal/models"
)

func livePlan(startDaysAgo, duration int, active bool) *Plan {
	start := datatypes.Date(time.Now().UTC().AddDate(0, 0, -startDaysAgo))
	return &Plan{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		Title:         "Cohort plan",
		PlanKind:      PlanKindLive,
		DurationDays:  duration,
		LiveStartDate: &start,
		IsLiveActive:  active,
	}
}

func TestLifecyclePass_FlipsFinishedPlanInactive(t *testing.T) {
	planRepo := newFakePlanRepo()
	followRepo := newFakeFollowRepo()
	service := newTestLifecycleService(planRepo, followRepo, &fakeTxManager{})

	// 14-day plan that started 30 days ago: derived state is finished but
	// the stored flag still says active.
	finished := planRepo.add(livePlan(30, 14, true))
	followRepo.activeCounts[finished.ID] = 4

	changed, err := service.RunLifecyclePass(context.Background(), []uuid.UUID{finished.ID})
	require.NoError(t, err)
	require.Len(t, changed, 1)

	assert.False(t, finished.IsLiveActive)
	require.NotNil(t, finished.LiveEndDate)
	expectedEnd := time.Time(*finished.LiveStartDate).AddDate(0, 0, 14)
	assert.Equal(t, expectedEnd, time.Time(*finished.LiveEndDate))

	require.Len(t, planRepo.statusSaved, 1, "changes are persisted in one batch")

	// The finished plan is archival-eligible, so one pass also produced
	// the archived copy and marked the source processed.
	assert.Len(t, planRepo.created, 1)
	assert.NotNil(t, finished.ArchivalProcessedAt)
}

func TestLifecyclePass_FlipsUpcomingPlanActive(t *testing.T) {
	planRepo := newFakePlanRepo()
	followRepo := newFakeFollowRepo()
	service := newTestLifecycleService(planRepo, followRepo, &fakeTxManager{})

	// Started 5 days ago, runs 30 days, but the activation flag never got
	// set (scheduler was down at start time).
	running := planRepo.add(livePlan(5, 30, false))

	changed, err := service.RunLifecyclePass(context.Background(), []uuid.UUID{running.ID})
	require.NoError(t, err)
	require.Len(t, changed, 1)

	assert.True(t, running.IsLiveActive)
	assert.Nil(t, running.LiveEndDate)
	assert.Empty(t, planRepo.created, "running plans are never archived")
}

func TestLifecyclePass_ConsistentPlansUntouched(t *testing.T) {
	planRepo := newFakePlanRepo()
	followRepo := newFakeFollowRepo()
	service := newTestLifecycleService(planRepo, followRepo, &fakeTxManager{})

	running := planRepo.add(livePlan(5, 30, true))

	processedAt := time.Now().Add(-time.Hour)
	alreadyProcessed := planRepo.add(livePlan(60, 14, false))
	alreadyProcessed.ArchivalProcessedAt = &processedAt

	changed, err := service.RunLifecyclePass(
		context.Background(),
		[]uuid.UUID{running.ID, alreadyProcessed.ID},
	)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Empty(t, planRepo.statusSaved)
	assert.Empty(t, planRepo.created, "processed plans are not re-archived")
}

func TestLifecyclePass_RecurringNeverFinishes(t *testing.T) {
	planRepo := newFakePlanRepo()
	followRepo := newFakeFollowRepo()
	service := newTestLifecycleService(planRepo, followRepo, &fakeTxManager{})

	recurring := planRepo.add(livePlan(100, 7, true))
	recurring.IsRecurring = true
	followRepo.activeCounts[recurring.ID] = 9

	changed, err := service.RunLifecyclePass(context.Background(), []uuid.UUID{recurring.ID})
	require.NoError(t, err)

	assert.Empty(t, changed, "a recurring live plan keeps cycling")
	assert.True(t, recurring.IsLiveActive)
	assert.Empty(t, planRepo.created)
}

func TestLifecyclePass_ArchivalFailureDoesNotAbortPass(t *testing.T) {
	planRepo := newFakePlanRepo()
	followRepo := newFakeFollowRepo()
	service := newTestLifecycleService(planRepo, followRepo, &fakeTxManager{})

	finished := planRepo.add(livePlan(30, 14, true))
	followRepo.activeCounts[finished.ID] = 2
	planRepo.createErr = errors.New("disk full")

	changed, err := service.RunLifecyclePass(context.Background(), []uuid.UUID{finished.ID})
	require.NoError(t, err, "archive failures are logged, not surfaced")
	require.Len(t, changed, 1)

	assert.False(t, finished.IsLiveActive, "the status flip still committed")
	assert.Nil(t, finished.ArchivalProcessedAt,
		"failed archival leaves the plan eligible for retry")

	// Next pass retries and succeeds.
	planRepo.createErr = nil
	_, err = service.RunLifecyclePass(context.Background(), []uuid.UUID{finished.ID})
	require.NoError(t, err)
	assert.Len(t, planRepo.created, 1)
	assert.NotNil(t, finished.ArchivalProcessedAt)
}

func TestLifecyclePass_EmptyInput(t *testing.T) {
	service := newTestLifecycleService(newFakePlanRepo(), newFakeFollowRepo(), &fakeTxManager{})

	changed, err := service.RunLifecyclePass(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, changed)
}

func TestLifecyclePass_MixedBatch(t *testing.T) {
	planRepo := newFakePlanRepo()
	followRepo := newFakeFollowRepo()
	tx := &fakeTxManager{}
	service := newTestLifecycleService(planRepo, followRepo, tx)

	finished := planRepo.add(livePlan(30, 14, true))
	followRepo.activeCounts[finished.ID] = 1
	starting := planRepo.add(livePlan(0, 14, false))
	steady := planRepo.add(livePlan(3, 14, true))

	changed, err := service.RunLifecyclePass(
		context.Background(),
		[]uuid.UUID{finished.ID, starting.ID, steady.ID},
	)
	require.NoError(t, err)
	assert.Len(t, changed, 2)

	assert.False(t, finished.IsLiveActive)
	assert.True(t, starting.IsLiveActive)
	assert.True(t, steady.IsLiveActive)
	assert.Len(t, planRepo.created, 1, "only the finished plan is archived")
}
