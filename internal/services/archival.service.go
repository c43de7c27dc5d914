package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutriplan/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"

	. "nutriplan/internal/models"
)

var (
	ErrPlanNotFound    = errors.New("plan not found")
	ErrNotLivePlan     = errors.New("plan is not a live plan")
	ErrPlanStillActive = errors.New("live plan is still active")
)

// ArchivalService turns a finished live plan into an immutable archived
// snapshot, deep-copying the whole ownership tree (days, meals,
// ingredients) inside one transaction. Archival is idempotent per source
// plan: the partial unique index on plans(source_live_plan_id) is the
// serialization point, so concurrent callers produce at most one copy.
type ArchivalService struct {
	repos repositories.Repository
	tx    TransactionManager
	log   logger.Logger
}

func NewArchivalService(
	repos repositories.Repository,
	tx TransactionManager,
) *ArchivalService {
	return &ArchivalService{
		repos: repos,
		tx:    tx,
		log:   logger.New("ArchivalService"),
	}
}

// Archive creates the archived copy of a finished live plan. Returns the
// existing copy when one was already made, and (nil, nil) when the cohort
// was empty and no copy is worth keeping; in every processed case the
// source plan is marked so the lifecycle driver stops retrying.
func (s *ArchivalService) Archive(
	ctx context.Context,
	planID uuid.UUID,
	title *string,
) (*Plan, error) {
	log := s.log.Function("Archive")

	var archived *Plan
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		source, err := s.repos.Plan.GetByIDUncached(ctx, tx, planID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrPlanNotFound
			}
			return err
		}

		if source.PlanKind != PlanKindLive {
			return ErrNotLivePlan
		}
		if source.IsLiveActive {
			return ErrPlanStillActive
		}

		existing, err := s.repos.Plan.GetArchivedBySourceID(ctx, tx, source.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			log.Info("plan already archived", "planID", planID, "archivedID", existing.ID)
			archived = existing
			return nil
		}

		participants, err := s.repos.Follow.CountActive(ctx, tx, source.ID)
		if err != nil {
			return err
		}

		now := time.Now()

		if participants == 0 {
			log.Info("skipping archival of empty cohort", "planID", planID)
			return s.repos.Plan.MarkArchivalProcessed(ctx, tx, source.ID, now)
		}

		clone := s.deepCopy(source, title, int(participants), now)
		if err := s.repos.Plan.Create(ctx, tx, clone); err != nil {
			return err
		}
		if err := s.repos.Plan.MarkArchivalProcessed(ctx, tx, source.ID, now); err != nil {
			return err
		}

		log.Info(
			"plan archived",
			"planID", planID,
			"archivedID", clone.ID,
			"participants", participants,
		)
		archived = clone
		return nil
	})
	if err != nil {
		return nil, err
	}

	return archived, nil
}

// deepCopy builds the archived plan as a structural clone with fresh
// identities. All content fields carry over verbatim; day publish flags
// and plan visibility are forced on so the snapshot serves as a reusable
// public template.
func (s *ArchivalService) deepCopy(
	source *Plan,
	title *string,
	participants int,
	now time.Time,
) *Plan {
	archivedTitle := fmt.Sprintf("%s (Archived)", source.Title)
	if title != nil && *title != "" {
		archivedTitle = *title
	}

	archived := &Plan{
		Title:                  archivedTitle,
		Description:            source.Description,
		PlanKind:               PlanKindArchived,
		DurationDays:           source.DurationDays,
		IsRecurring:            source.IsRecurring,
		IsPublic:               true,
		OwnerID:                source.OwnerID,
		SourceLivePlanID:       &source.ID,
		ArchivedAt:             &now,
		SourceParticipantCount: &participants,
		Days:                   make([]PlanDay, 0, len(source.Days)),
	}

	for i := range source.Days {
		day := &source.Days[i]
		dayCopy := PlanDay{
			DayNumber:     day.DayNumber,
			Title:         day.Title,
			IsPublished:   true,
			TotalCalories: day.TotalCalories,
			TotalProtein:  day.TotalProtein,
			TotalCarbs:    day.TotalCarbs,
			TotalFat:      day.TotalFat,
			Meals:         make([]Meal, 0, len(day.Meals)),
		}

		for j := range day.Meals {
			meal := &day.Meals[j]
			mealCopy := Meal{
				MealType:    meal.MealType,
				Name:        meal.Name,
				SortOrder:   meal.SortOrder,
				Calories:    meal.Calories,
				Protein:     meal.Protein,
				Carbs:       meal.Carbs,
				Fat:         meal.Fat,
				Ingredients: make([]MealIngredient, 0, len(meal.Ingredients)),
			}

			for k := range meal.Ingredients {
				ing := &meal.Ingredients[k]
				mealCopy.Ingredients = append(mealCopy.Ingredients, MealIngredient{
					Name:     ing.Name,
					Quantity: ing.Quantity,
					Unit:     ing.Unit,
					Calories: ing.Calories,
					Protein:  ing.Protein,
					Carbs:    ing.Carbs,
					Fat:      ing.Fat,
				})
			}

			dayCopy.Meals = append(dayCopy.Meals, mealCopy)
		}

		archived.Days = append(archived.Days, dayCopy)
	}

	return archived
}
