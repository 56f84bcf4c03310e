// Package database opens the gorm connection (postgres in production,
// sqlite for local runs and tests) and applies the schema.
package database

import (
	"context"
	"fmt"

	"adoptm3/models"
	"adoptm3/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects using the configured driver and applies pool settings.
func Open(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get database handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return gdb, nil
}

// Close releases the underlying pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or alters every table, then makes sure the master roles exist.
// Models are migrated one by one so the error names the failing table.
func Migrate(ctx context.Context, gdb *gorm.DB) error {
	tx := gdb.WithContext(ctx)
	for _, m := range models.All() {
		if err := tx.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	return SeedRoles(ctx, gdb)
}

// SeedRoles inserts the administrator and user roles when missing.
func SeedRoles(ctx context.Context, gdb *gorm.DB) error {
	roles := []models.Role{
		{Name: models.RoleAdministrator, Description: "full access"},
		{Name: models.RoleUser, Description: "regular user"},
	}
	for _, r := range roles {
		if err := gdb.WithContext(ctx).Where("name = ?", r.Name).FirstOrCreate(&r).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", r.Name, err)
		}
	}
	return nil
}

// RoleByName loads a seeded role.
func RoleByName(ctx context.Context, gdb *gorm.DB, name string) (*models.Role, error) {
	var role models.Role
	if err := gdb.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, fmt.Errorf("role %s: %w", name, err)
	}
	return &role, nil
}
