package services

import (
	"context"
	"fmt"
	"time"

	"nutriplan/internal/constants"
	"nutriplan/internal/database"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

// CacheInvalidationService is the single fan-out point for dropping derived
// views. Every mutating operation calls InvalidatePlan or
// InvalidateFollower before returning; the full set of dependent keys is
// enumerated here so a new call site cannot forget one. Cache failures are
// logged and swallowed, never surfaced to callers.
type CacheInvalidationService struct {
	db  database.DB
	log logger.Logger
}

func NewCacheInvalidationService(db database.DB) *CacheInvalidationService {
	return &CacheInvalidationService{
		db:  db,
		log: logger.New("CacheInvalidationService"),
	}
}

// InvalidatePlan drops every plan-scoped derived view: detail, day content,
// the public listing, and the cohort stats windows around today.
func (s *CacheInvalidationService) InvalidatePlan(ctx context.Context, planID uuid.UUID) {
	log := s.log.Function("InvalidatePlan")

	if s.db.Cache.General == nil {
		return
	}

	keys := []string{
		fmt.Sprintf("%s:%s", constants.PlanDetailCachePrefix, planID),
		constants.PublicPlansCacheKey,
	}

	keys = append(keys, s.dayKeys(planID)...)
	keys = append(keys, s.groupStatsKeys(planID)...)

	if err := database.DeleteKeys(ctx, s.db.Cache.General, keys...); err != nil {
		log.Warn("failed to invalidate plan cache", "planID", planID, "error", err)
	}
}

// InvalidateFollower drops every view derived for one user's relationship
// with a plan, then fans out to the plan-scoped views.
func (s *CacheInvalidationService) InvalidateFollower(
	ctx context.Context,
	userID, planID uuid.UUID,
) {
	log := s.log.Function("InvalidateFollower")

	if s.db.Cache.User == nil {
		s.InvalidatePlan(ctx, planID)
		return
	}

	keys := []string{
		fmt.Sprintf("%s:%s", constants.UserFollowsCachePrefix, userID),
		fmt.Sprintf("%s:%s", constants.TodayContentCachePrefix, userID),
	}
	keys = append(keys, s.userProgressKeys(userID)...)

	if err := database.DeleteKeys(ctx, s.db.Cache.User, keys...); err != nil {
		log.Warn("failed to invalidate follower cache", "userID", userID, "error", err)
	}

	s.InvalidatePlan(ctx, planID)
}

// dayKeys enumerates the per-day content keys for a plan via a key scan.
// Day content is keyed "plan_day:<planID>:<n>"; rather than track which day
// numbers are cached, match the plan's whole namespace.
func (s *CacheInvalidationService) dayKeys(planID uuid.UUID) []string {
	return s.scanKeys(s.db.Cache.General,
		fmt.Sprintf("%s:%s:*", constants.PlanDayCachePrefix, planID))
}

func (s *CacheInvalidationService) groupStatsKeys(planID uuid.UUID) []string {
	return s.scanKeys(s.db.Cache.General,
		fmt.Sprintf("%s:%s:*", constants.GroupStatsCachePrefix, planID))
}

func (s *CacheInvalidationService) userProgressKeys(userID uuid.UUID) []string {
	return s.scanKeys(s.db.Cache.User,
		fmt.Sprintf("%s:%s:*", constants.DailyProgressCachePrefix, userID))
}

func (s *CacheInvalidationService) scanKeys(
	cache database.CacheClient,
	pattern string,
) []string {
	log := s.log.Function("scanKeys")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var keys []string
	cursor := uint64(0)
	for {
		entry, err := cache.Do(
			ctx,
			cache.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build(),
		).AsScanEntry()
		if err != nil {
			log.Warn("failed to scan cache keys", "pattern", pattern, "error", err)
			return keys
		}

		keys = append(keys, entry.Elements...)
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys
}
