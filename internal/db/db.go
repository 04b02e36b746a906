package db

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chainproof/chainaudit/models"
)

var (
	instance    *gorm.DB
	instanceErr error
	once        sync.Once
	mu          sync.Mutex
)

// Get returns the singleton database instance, stored under the default
// data directory. A failed open is remembered and returned on every
// subsequent call until Reset.
func Get() (*gorm.DB, error) {
	once.Do(func() {
		instance, instanceErr = newDefault()
	})
	return instance, instanceErr
}

// Reset closes and discards the singleton instance (mainly for testing).
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		sqlDB, _ := instance.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		instance = nil
	}
	instanceErr = nil
	once = sync.Once{}
}

// DefaultDir returns the default data directory for the audit database.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".chainaudit"), nil
}

func newDefault() (*gorm.DB, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return New(dir)
}

// New opens (creating if necessary) the audit database in the given
// directory and migrates the schema.
func New(dataDir string) (*gorm.DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "audits.db")

	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Reduce log noise
	}

	db, err := gorm.Open(sqlite.Open(dbPath), config)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure SQLite for better concurrency
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// migrate performs auto-migration for all models, dependencies first.
func migrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.User{},
		&models.Audit{},
		&models.Vulnerability{},
		&models.AiInsight{},
		&models.AuditMetrics{},
		&models.GlobalStats{},
		&models.VulnerabilityType{},
	}

	for _, model := range modelsToMigrate {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}
	return nil
}
