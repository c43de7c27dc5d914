package services

import (
	"context"

	"nutriplan/internal/events"
	"nutriplan/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"

	. "nutriplan/internal/models"
)

// NotificationService is the fire-and-forget collaborator boundary: it
// publishes lifecycle and content events onto the bus and never lets a
// delivery failure affect the calling operation.
type NotificationService struct {
	eventBus *events.EventBus
	repos    repositories.Repository
	log      logger.Logger
}

func NewNotificationService(
	eventBus *events.EventBus,
	repos repositories.Repository,
) *NotificationService {
	return &NotificationService{
		eventBus: eventBus,
		repos:    repos,
		log:      logger.New("NotificationService"),
	}
}

// DayPublished notifies every active follower of a live plan that new day
// content is available.
func (s *NotificationService) DayPublished(
	ctx context.Context,
	tx *gorm.DB,
	plan *Plan,
	day *PlanDay,
) {
	log := s.log.Function("DayPublished")

	if s.eventBus == nil {
		return
	}
	if plan.PlanKind != PlanKindLive {
		return
	}

	followerIDs, err := s.repos.Follow.GetActiveFollowerIDs(ctx, tx, plan.ID)
	if err != nil {
		log.Warn("failed to load followers for notification", "planID", plan.ID, "error", err)
		return
	}

	go func() {
		for _, userID := range followerIDs {
			uid := userID
			if err := s.eventBus.Publish(events.NOTIFICATION_CHANNEL, events.Event{
				Type:   events.DAY_PUBLISHED,
				UserID: &uid,
				Data: map[string]any{
					"planId":    plan.ID.String(),
					"planTitle": plan.Title,
					"dayNumber": day.DayNumber,
				},
			}); err != nil {
				log.Warn("failed to publish day notification", "userID", uid, "error", err)
			}
		}
	}()
}

func (s *NotificationService) PlanFinished(ctx context.Context, plan *Plan) {
	log := s.log.Function("PlanFinished")

	if s.eventBus == nil {
		return
	}

	go func() {
		if err := s.eventBus.Publish(events.PLAN_CHANNEL, events.Event{
			Type: events.PLAN_FINISHED,
			Data: map[string]any{
				"planId":    plan.ID.String(),
				"planTitle": plan.Title,
			},
		}); err != nil {
			log.Warn("failed to publish plan finished event", "planID", plan.ID, "error", err)
		}
	}()
}

func (s *NotificationService) FollowerJoined(ctx context.Context, plan *Plan, userID uuid.UUID) {
	log := s.log.Function("FollowerJoined")

	if s.eventBus == nil {
		return
	}

	go func() {
		if err := s.eventBus.Publish(events.PLAN_CHANNEL, events.Event{
			Type:   events.FOLLOWER_JOINED,
			UserID: &userID,
			Data: map[string]any{
				"planId":    plan.ID.String(),
				"planTitle": plan.Title,
			},
		}); err != nil {
			log.Warn("failed to publish follower joined event", "planID", plan.ID, "error", err)
		}
	}()
}

func (s *NotificationService) PlanArchived(ctx context.Context, source, archived *Plan) {
	log := s.log.Function("PlanArchived")

	if s.eventBus == nil {
		return
	}

	go func() {
		if err := s.eventBus.Publish(events.PLAN_CHANNEL, events.Event{
			Type: events.PLAN_ARCHIVED,
			Data: map[string]any{
				"planId":     source.ID.String(),
				"archivedId": archived.ID.String(),
			},
		}); err != nil {
			log.Warn("failed to publish plan archived event", "planID", source.ID, "error", err)
		}
	}()
}
