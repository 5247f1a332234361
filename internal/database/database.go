package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZJUSCT/rankboard/internal/config"
	"github.com/ZJUSCT/rankboard/internal/database/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Init(cfg config.Storage) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.Database
		if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if _, err := os.Stat(dsn); os.IsNotExist(err) {
				zap.S().Infof("database file not found at '%s', creating directory for it.", dsn)
				if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
					return nil, err
				}
			}
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(cfg.Database)
	case "memory":
		return InitMemory()
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// InitMemory opens a private in-memory SQLite database. Every call gets its
// own database; a single connection keeps it alive and serializes access.
func InitMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:rankboard-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the per-track tables if they do not exist yet.
func Migrate(db *gorm.DB) error {
	for _, track := range models.Tracks {
		if err := db.Table(track.ProblemTable()).AutoMigrate(&models.Problem{}); err != nil {
			return fmt.Errorf("migrate %s: %w", track.ProblemTable(), err)
		}
	}
	return db.AutoMigrate(
		&models.MathSolution{},
		&models.CPSubmission{},
		&models.Rendering{},
	)
}
