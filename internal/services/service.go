package services

import (
	"nutriplan/internal/database"
	"nutriplan/internal/events"
	"nutriplan/internal/repositories"
)

type Service struct {
	Transaction  *TransactionService
	Scheduler    *SchedulerService
	Invalidation *CacheInvalidationService
	Notification *NotificationService
	Archival     *ArchivalService
	Lifecycle    *LifecycleService
	PlanContent  *PlanContentService
}

func New(
	db database.DB,
	repos repositories.Repository,
	eventBus *events.EventBus,
	generator ContentGenerator,
) Service {
	transactionService := NewTransactionService(db)
	schedulerService := NewSchedulerService()
	invalidationService := NewCacheInvalidationService(db)
	notificationService := NewNotificationService(eventBus, repos)
	archivalService := NewArchivalService(repos, transactionService)
	lifecycleService := NewLifecycleService(
		repos,
		transactionService,
		archivalService,
		invalidationService,
		notificationService,
	)
	planContentService := NewPlanContentService(
		db,
		repos,
		transactionService,
		invalidationService,
		notificationService,
		generator,
	)

	return Service{
		Transaction:  transactionService,
		Scheduler:    schedulerService,
		Invalidation: invalidationService,
		Notification: notificationService,
		Archival:     archivalService,
		Lifecycle:    lifecycleService,
		PlanContent:  planContentService,
	}
}
