// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/policystack/agency-backend/internal/config"
	"github.com/policystack/agency-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.TeamMember{},
		&models.Policy{},
		&models.PolicyDeletionRequest{},
		&models.Lead{},
		&models.FollowUpHistory{},
		&models.ActivityLog{},
		&models.ExtractionBatch{},
		&models.ExtractionFile{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_subscription ON users(subscription_status)",
		"CREATE INDEX IF NOT EXISTS idx_team_members_owner ON team_members(owner_id)",

		// Policy indexes
		"CREATE INDEX IF NOT EXISTS idx_policies_owner ON policies(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_policies_expiry ON policies(expiry_date)",
		"CREATE INDEX IF NOT EXISTS idx_policies_type_status ON policies(policy_type, claim_status)",
		"CREATE INDEX IF NOT EXISTS idx_policies_created_at ON policies(created_at DESC)",

		// Lead indexes
		"CREATE INDEX IF NOT EXISTS idx_leads_owner ON leads(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_leads_status_priority ON leads(status, priority)",
		"CREATE INDEX IF NOT EXISTS idx_leads_follow_up ON leads(follow_up_date)",
		"CREATE INDEX IF NOT EXISTS idx_follow_up_history_lead ON follow_up_histories(lead_id, created_at)",

		// Deletion request indexes
		"CREATE INDEX IF NOT EXISTS idx_deletion_requests_policy ON policy_deletion_requests(policy_id)",
		"CREATE INDEX IF NOT EXISTS idx_deletion_requests_status ON policy_deletion_requests(status, created_at DESC)",

		// Activity log indexes
		"CREATE INDEX IF NOT EXISTS idx_activity_logs_user_action ON activity_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_activity_logs_resource ON activity_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_activity_logs_created ON activity_logs(created_at DESC)",

		// Extraction indexes
		"CREATE INDEX IF NOT EXISTS idx_extraction_batches_user ON extraction_batches(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_extraction_files_batch ON extraction_files(batch_id, position)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	// Create default admin user
	var adminCount int64
	db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Name:               "System Administrator",
			Email:              "admin@agency.local",
			Role:               models.UserRoleAdmin,
			SubscriptionStatus: models.SubscriptionStatusActive,
			ProfileData: models.JSONB{
				"role": "super_admin",
			},
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("Default admin user created successfully")
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
