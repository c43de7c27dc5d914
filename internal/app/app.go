package app

import (
	"context"

	"nutriplan/config"
	"nutriplan/internal/controllers"
	"nutriplan/internal/database"
	"nutriplan/internal/events"
	"nutriplan/internal/handlers/middleware"
	"nutriplan/internal/jobs"
	"nutriplan/internal/repositories"
	"nutriplan/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database    database.DB
	Middleware  middleware.Middleware
	EventBus    *events.EventBus
	Config      config.Config
	Services    services.Service
	Repos       repositories.Repository
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events)

	repos := repositories.New(db)

	// No content generator is wired by default; day content arrives through
	// the import endpoint. A generator implementation can be plugged in
	// here when one exists.
	svc := services.New(db, repos, eventBus, nil)

	middleware := middleware.New(db, eventBus, config, repos)
	ctrls := controllers.New(svc, repos, config, db)

	if config.SchedulerEnabled {
		if err := jobs.RegisterAllJobs(svc.Scheduler, config, svc, repos, db); err != nil {
			return &App{}, log.Err("failed to register jobs", err)
		}
		if err := svc.Scheduler.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
	}

	return &App{
		Database:    db,
		Middleware:  middleware,
		EventBus:    eventBus,
		Config:      config,
		Services:    svc,
		Repos:       repos,
		Controllers: ctrls,
	}, nil
}

func (a *App) Close(ctx context.Context) error {
	log := logger.New("app").Function("Close")

	if a.Services.Scheduler != nil && a.Services.Scheduler.IsRunning() {
		if err := a.Services.Scheduler.Stop(ctx); err != nil {
			log.Warn("failed to stop scheduler", "error", err)
		}
	}

	if a.EventBus != nil {
		if err := a.EventBus.Close(); err != nil {
			log.Warn("failed to close event bus", "error", err)
		}
	}

	if err := a.Database.Close(); err != nil {
		return log.Err("failed to close database", err)
	}

	return nil
}
