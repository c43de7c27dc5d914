package jobs

import (
	"nutriplan/config"
	"nutriplan/internal/database"
	"nutriplan/internal/repositories"
	"nutriplan/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	Hourly = services.Hourly
	Daily  = services.Daily
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	svc services.Service,
	repos repositories.Repository,
	db database.DB,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	lifecycleJob := NewLifecycleSweepJob(svc.Lifecycle, repos.Plan, db, Hourly)
	if err := schedulerService.AddJob(lifecycleJob); err != nil {
		return log.Err("failed to register lifecycle sweep job", err)
	}
	log.Info("Registered lifecycle sweep job", "schedule", "hourly")

	return nil
}
