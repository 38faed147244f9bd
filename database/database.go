package database

import (
	"fmt"

	"academy-api/internal/domain/billing"
	"academy-api/internal/domain/courses"
	"academy-api/internal/domain/insurance"
	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/domain/tiers"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to Postgres. Driver errors are translated so unique
// violations surface as gorm.ErrDuplicatedKey.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}
	if !debug {
		cfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}
	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&tiers.Tier{},
		&subscriptions.Subscription{},

		&courses.Course{},
		&courses.Module{},
		&courses.Lesson{},
		&courses.Enrollment{},
		&courses.LessonProgress{},

		&billing.Payment{},
		&insurance.Policy{},
	}
}

// Migrate creates or updates the schema. Partial indexes are not expressible
// in struct tags and are created here.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_one_active
			ON subscriptions (user_id) WHERE status = 'active'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_insurance_policies_number
			ON insurance_policies (policy_number) WHERE policy_number IS NOT NULL`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
