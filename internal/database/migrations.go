package database

import (
	"nutriplan/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// MigrateModels runs GORM AutoMigrate for all models.
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []any{
		&models.User{},
		&models.Plan{},
		&models.PlanDay{},
		&models.Meal{},
		&models.MealIngredient{},
		&models.Follow{},
		&models.Completion{},
		&models.DailyProgress{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("Failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates the partial unique indexes GORM cannot express in
// struct tags. The archived-copy index is the serialization point for
// concurrent lifecycle passes: two drivers racing on the same finished plan
// produce at most one archived copy, the loser fails the insert and no-ops.
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_follows_single_active ON follows(user_id, plan_id) WHERE is_active AND deleted_at IS NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_plans_archived_source ON plans(source_live_plan_id) WHERE plan_kind = 'archived' AND deleted_at IS NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_completions_user_meal_date ON completions(user_id, meal_id, date) WHERE deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_plans_live_active ON plans(plan_kind, is_live_active)",
		"CREATE INDEX IF NOT EXISTS idx_completions_day_date ON completions(plan_day_id, date)",
	}

	for _, index := range indexes {
		if err := db.SQL.Exec(index).Error; err != nil {
			return log.Err("Failed to create index", err, "sql", index)
		}
	}

	log.Info("Database indexes created successfully")
	return nil
}
