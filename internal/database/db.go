package database

import (
	"fmt"
	"log/slog"
	"time"

	"erp/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PoolOptions sizes the underlying sql.DB pool.
type PoolOptions struct {
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
}

// NewConnection opens a GORM connection pool. SQL logging goes through slog
// at warn level so slow or failing statements show up with the request logs.
func NewConnection(dsn string, pool PoolOptions, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.NewSlogLogger(log, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLife)
	}
	return db, nil
}

// Models lists every table the financial core owns or reads.
func Models() []interface{} {
	return []interface{}{
		&model.Project{},
		&model.BudgetLine{},
		&model.Commitment{},
		&model.ActualCost{},
		&model.Forecast{},
		&model.Variation{},
		&model.VariationLine{},
		&model.VariationStatusHistory{},
		&model.ProjectSnapshot{},
		&model.AuditLog{},
		&model.Task{},
		&model.PurchaseOrder{},
		&model.Delivery{},
		&model.RFI{},
		&model.QAItem{},
		&model.HSEvent{},
		&model.CarbonEntry{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
