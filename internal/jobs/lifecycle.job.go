package jobs

import (
	"context"

	"nutriplan/internal/database"
	"nutriplan/internal/repositories"
	"nutriplan/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// LifecycleSweepJob reconciles every live plan's persisted status with its
// derived temporal state. The sweep is the batch path; the same pass also
// runs inline on reads, so a missed tick only delays notifications, never
// correctness.
type LifecycleSweepJob struct {
	lifecycle *services.LifecycleService
	planRepo  repositories.PlanRepository
	db        database.DB
	log       logger.Logger
	schedule  services.Schedule
}

func NewLifecycleSweepJob(
	lifecycle *services.LifecycleService,
	planRepo repositories.PlanRepository,
	db database.DB,
	schedule services.Schedule,
) *LifecycleSweepJob {
	return &LifecycleSweepJob{
		lifecycle: lifecycle,
		planRepo:  planRepo,
		db:        db,
		log:       logger.New("lifecycleSweepJob"),
		schedule:  schedule,
	}
}

func (j *LifecycleSweepJob) Name() string {
	return "LivePlanLifecycleSweep"
}

func (j *LifecycleSweepJob) Schedule() services.Schedule {
	return j.schedule
}

func (j *LifecycleSweepJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	planIDs, err := j.planRepo.GetAllLivePlanIDs(ctx, j.db.SQL)
	if err != nil {
		return log.Err("failed to load live plan ids", err)
	}

	if len(planIDs) == 0 {
		return nil
	}

	changed, err := j.lifecycle.RunLifecyclePass(ctx, planIDs)
	if err != nil {
		return log.Err("lifecycle sweep failed", err, "plans", len(planIDs))
	}

	log.Info("lifecycle sweep completed", "plans", len(planIDs), "changed", len(changed))
	return nil
}
