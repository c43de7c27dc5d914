package repositories

import (
	"nutriplan/internal/database"
)

type Repository struct {
	User       UserRepository
	Plan       PlanRepository
	PlanDay    PlanDayRepository
	Follow     FollowRepository
	Completion CompletionRepository
	Progress   ProgressRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:       NewUserRepository(db.Cache.User),
		Plan:       NewPlanRepository(db.Cache.General),
		PlanDay:    NewPlanDayRepository(db.Cache.General),
		Follow:     NewFollowRepository(db.Cache.User),
		Completion: NewCompletionRepository(),
		Progress:   NewProgressRepository(db.Cache.User),
	}
}
