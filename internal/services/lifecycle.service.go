package services

import (
	"context"
	"time"

	"nutriplan/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	. "nutriplan/internal/models"
)

// LifecycleService keeps the persisted live-plan status fields consistent
// with derived temporal state and triggers archival exactly once per
// finished plan. The hourly sweep and the inline-on-read path both run the
// same batched pass; only the id set differs.
type LifecycleService struct {
	repos        repositories.Repository
	tx           TransactionManager
	archival     *ArchivalService
	invalidation *CacheInvalidationService
	notification *NotificationService
	log          logger.Logger
}

func NewLifecycleService(
	repos repositories.Repository,
	tx TransactionManager,
	archival *ArchivalService,
	invalidation *CacheInvalidationService,
	notification *NotificationService,
) *LifecycleService {
	return &LifecycleService{
		repos:        repos,
		tx:           tx,
		archival:     archival,
		invalidation: invalidation,
		notification: notification,
		log:          logger.New("LifecycleService"),
	}
}

// RunLifecyclePass walks the given live plans, flips activity flags where
// the derived status disagrees, persists every change in one transaction,
// then archives newly finished non-recurring plans. An archival failure is
// logged and skipped so one bad plan cannot abort the pass; the plan stays
// inactive and a later pass retries it.
func (s *LifecycleService) RunLifecyclePass(
	ctx context.Context,
	planIDs []uuid.UUID,
) ([]*Plan, error) {
	log := s.log.Function("RunLifecyclePass")

	if len(planIDs) == 0 {
		return nil, nil
	}

	var changed []*Plan
	var toArchive []*Plan

	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		plans, err := s.repos.Plan.GetByIDs(ctx, tx, planIDs)
		if err != nil {
			return err
		}

		now := time.Now()

		for _, plan := range plans {
			if plan.PlanKind != PlanKindLive {
				continue
			}

			state := plan.DeriveState(nil, now)

			switch {
			case state.Status == StatusFinished && plan.IsLiveActive:
				plan.IsLiveActive = false
				end := endDate(plan)
				plan.LiveEndDate = &end
				changed = append(changed, plan)

			case state.Status == StatusRunning && !plan.IsLiveActive:
				plan.IsLiveActive = true
				changed = append(changed, plan)
			}

			// Finished non-recurring plans are archival-eligible until the
			// engine marks them processed, including retries after a failed
			// earlier attempt.
			if state.Status == StatusFinished && !plan.IsRecurring &&
				plan.ArchivalProcessedAt == nil {
				toArchive = append(toArchive, plan)
			}
		}

		if len(changed) == 0 {
			return nil
		}

		return s.repos.Plan.SaveStatusFields(ctx, tx, changed)
	})
	if err != nil {
		return nil, log.Err("lifecycle pass failed", err, "planCount", len(planIDs))
	}

	for _, plan := range changed {
		s.invalidation.InvalidatePlan(ctx, plan.ID)
		if !plan.IsLiveActive {
			s.notification.PlanFinished(ctx, plan)
		}
	}

	for _, plan := range toArchive {
		archived, archiveErr := s.archival.Archive(ctx, plan.ID, nil)
		if archiveErr != nil {
			log.Er("failed to archive finished plan", archiveErr, "planID", plan.ID)
			continue
		}
		if archived != nil {
			s.notification.PlanArchived(ctx, plan, archived)
			s.invalidation.InvalidatePlan(ctx, plan.ID)
		}
	}

	if len(changed) > 0 || len(toArchive) > 0 {
		log.Info(
			"lifecycle pass completed",
			"scanned", len(planIDs),
			"changed", len(changed),
			"archived", len(toArchive),
		)
	}

	return changed, nil
}

// RunForUser scopes the pass to the live plans one user follows; the hot
// read path calls this so its cost is bounded by the user's follow list.
func (s *LifecycleService) RunForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	ids, err := s.repos.Plan.GetLivePlanIDsForUser(ctx, tx, userID)
	if err != nil {
		return err
	}

	_, err = s.RunLifecyclePass(ctx, ids)
	return err
}

// endDate is the calendar day the cohort finished: start + duration.
func endDate(plan *Plan) datatypes.Date {
	start := time.Time(*plan.LiveStartDate)
	return datatypes.Date(start.AddDate(0, 0, plan.DurationDays))
}
