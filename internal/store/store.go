package store

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"agent-config-service/internal/model"
)

// Store is the handle for all persistence operations. It is
// constructed once at process start, passed down to handlers, and
// closed at shutdown; there is no package-level database state.
type Store struct {
	db         *gorm.DB
	bcryptCost int
}

// DBConfig holds the connection settings for Open.
type DBConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// Open connects to PostgreSQL, configures the pool, and runs
// migrations.
func Open(config DBConfig) (*Store, error) {
	logLevel := config.LogLevel
	if logLevel == 0 {
		logLevel = logger.Info
	}

	pgConfig := postgres.Config{
		DSN:                  config.DSN,
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}

	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an already-open gorm connection and runs migrations. Used
// by tests to run the store against SQLite.
func New(db *gorm.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// migrate creates the tables plus the indexes that back the
// versioning invariants. AutoMigrate cannot express partial unique
// indexes, so those are raw DDL; the WHERE clause form is understood
// by both PostgreSQL and SQLite.
func (s *Store) migrate() error {
	err := s.db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.Agent{},
		&model.AgentDocument{},
		&model.Voice{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// At most one active row per (agent, kind).
	err = s.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uix_agent_documents_one_active
		ON agent_documents (agent_id, kind) WHERE active`).Error
	if err != nil {
		return fmt.Errorf("create active-document index: %w", err)
	}

	// Version numbers never collide per (agent, kind).
	err = s.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uix_agent_documents_version
		ON agent_documents (agent_id, kind, version)`).Error
	if err != nil {
		return fmt.Errorf("create document-version index: %w", err)
	}

	return nil
}
