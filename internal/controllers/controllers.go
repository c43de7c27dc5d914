package controllers

import (
	"nutriplan/config"
	"nutriplan/internal/database"
	"nutriplan/internal/repositories"
	"nutriplan/internal/services"

	followsController "nutriplan/internal/controllers/follows"
	plansController "nutriplan/internal/controllers/plans"
	progressController "nutriplan/internal/controllers/progress"
)

type Controllers struct {
	Plan     plansController.PlanControllerInterface
	Follow   followsController.FollowControllerInterface
	Progress progressController.ProgressControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		Plan:     plansController.New(repos, services, config, db),
		Follow:   followsController.New(repos, services, config, db),
		Progress: progressController.New(repos, services, config, db),
	}
}
