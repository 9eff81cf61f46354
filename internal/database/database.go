package database

import (
	"context"
	"fmt"
	"time"

	"do-todo/internal/config"
	"do-todo/internal/logging"
	"do-todo/internal/models"
	dbtls "do-todo/internal/tls"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	pingTimeout        = 5 * time.Second
	slowQueryThreshold = 200 * time.Millisecond
)

// Connect opens the PostgreSQL pool described by cfg and verifies it is reachable.
// The TLS policy is applied to the parsed connection config before any dial.
func Connect(cfg config.DatabaseConfig, policy *dbtls.Config) (*gorm.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if err := policy.Apply(&connConfig.Config); err != nil {
		return nil, err
	}

	sqlDB := stdlib.OpenDB(*connConfig)
	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Open builds a pooled *gorm.DB on top of dialector and pings it once.
// Pool limits and recycling come from cfg.
func Open(dialector gorm.Dialector, cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               logging.NewGormLogger(logging.Logger, cfg.Echo, slowQueryThreshold),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Logger.WithFields(map[string]interface{}{
		"max_open_conns":     cfg.MaxOpenConns,
		"conn_max_idle_time": cfg.ConnMaxIdleTime.String(),
		"echo":               cfg.Echo,
	}).Info("Database connection established")

	return db, nil
}

// AutoMigrate makes sure the todo table and its index exist. Safe to run repeatedly.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Todo{}); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// HasTodoTable reports whether the backing table is present
func HasTodoTable(db *gorm.DB) bool {
	return db.Migrator().HasTable(&models.Todo{})
}

// Close releases every pooled connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
