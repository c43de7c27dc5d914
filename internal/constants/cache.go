package constants

import "time"

// Cache key namespaces. Every prefix listed here must be enumerated by the
// cache invalidation service so a new call site cannot forget a key.
const (
	UserCachePrefix          = "user_id"       // User row by id (CacheBuilder adds colon)
	PlanDetailCachePrefix    = "plan_detail"   // Plan with days/meals by plan id
	PlanDayCachePrefix       = "plan_day"      // Single day content, "plan_day:<planID>:<n>"
	PublicPlansCacheKey      = "public_plans"  // Public plan listing
	GroupStatsCachePrefix    = "group_stats"   // Cohort stats, "group_stats:<planID>:<day>:<date>"
	UserFollowsCachePrefix   = "user_follows"  // Active follows by user id
	TodayContentCachePrefix  = "today_content" // Today view, "today_content:<userID>"
	DailyProgressCachePrefix = "daily_progress" // "daily_progress:<userID>:<dayID>:<date>"

	UserCacheExpiry      = 7 * 24 * time.Hour
	PlanCacheExpiry      = 10 * time.Minute
	AggregateCacheExpiry = 5 * time.Minute
)
