package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sudarmaa/sudarmaa/internal/config"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

// permissionModels lists the models whose add/change/delete permissions are
// registered at startup. Group bootstrap relies on these rows existing.
var permissionModels = []string{"category", "book", "page", "pick", "shelf"}

var permissionActions = []string{"add", "change", "delete"}

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens a SQLite database at dbPath, migrates it and seeds the
// permission registry.
func NewDatabase(dbPath string) (*Database, error) {
	return Open(config.Database{Driver: config.DatabaseDriverSQLite, Path: dbPath})
}

// Open connects using the configured driver, migrates and seeds.
func Open(cfg config.Database) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DatabaseDriverSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("database path is required")
		}
		dialector = sqlite.Open(cfg.Path)
	case config.DatabaseDriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database dsn is required for postgres")
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedPermissions(); err != nil {
		return nil, fmt.Errorf("failed to seed permissions: %w", err)
	}

	zap.L().Info("database initialized", zap.String("driver", string(cfg.Driver)), zap.String("path", cfg.Path))

	return database, nil
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entities.Permission{},
		&entities.Group{},
		&entities.User{},
		&entities.Category{},
		&entities.Book{},
		&entities.Page{},
		&entities.Pick{},
		&entities.Shelf{},
	)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks database connectivity.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) seedPermissions() error {
	for _, model := range permissionModels {
		for _, action := range permissionActions {
			codename := action + "_" + model
			var existing entities.Permission
			result := d.DB.Where("codename = ?", codename).Limit(1).Find(&existing)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				continue
			}
			permission := entities.Permission{
				Codename: codename,
				Name:     fmt.Sprintf("Can %s %s", action, model),
			}
			if err := d.DB.Create(&permission).Error; err != nil {
				return fmt.Errorf("failed to create permission %s: %w", codename, err)
			}
			zap.L().Debug("created permission", zap.String("codename", codename))
		}
	}
	return nil
}
