package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"adoptm3/models"
	"adoptm3/pkg/config"
	"adoptm3/pkg/database"
	"adoptm3/pkg/migrations"
	"adoptm3/pkg/records"
	"adoptm3/pkg/storage"

	"gorm.io/gorm"
)

var db *gorm.DB

func initDB(ctx context.Context) {
	var err error
	db, err = openAndMigrate(ctx, cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := seedDB(ctx); err != nil {
		log.Printf("seed warning: %v", err)
	}
}

// openAndMigrate connects and, unless DB_AUTO_MIGRATE is off, applies the
// schema and the pending data migrations.
func openAndMigrate(ctx context.Context, c *config.Config) (*gorm.DB, error) {
	gdb, err := database.Open(c.Database)
	if err != nil {
		return nil, err
	}
	if !c.Database.AutoMigrate {
		return gdb, nil
	}
	if err := database.Migrate(ctx, gdb); err != nil {
		return nil, fmt.Errorf("schema migration: %w", err)
	}
	applied, err := migrations.Run(ctx, gdb)
	if err != nil {
		return nil, fmt.Errorf("data migrations: %w", err)
	}
	for _, r := range applied {
		logger.Info(ctx, "data migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return gdb, nil
}

// seedDB makes sure the admin account and its client exist.
func seedDB(ctx context.Context) error {
	if err := database.SeedRoles(ctx, db); err != nil {
		return err
	}
	var admin models.User
	err := db.WithContext(ctx).Preload("Role").Where("username = ?", "admin").First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u, _, err := records.RegisterUser(ctx, db, records.SignupInput{
			Username:  "admin",
			Email:     "admin@example.com",
			Password:  cfg.AdminPassword,
			Name:      "Administrator",
			Superuser: true,
		})
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		logger.Info(ctx, "seeded admin user", "id", u.ID)
		return nil
	}
	if err != nil {
		return err
	}
	_, err = records.EnsureClient(ctx, db, &admin)
	return err
}

func initStorage(ctx context.Context) {
	var err error
	store, err = storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
}

func imageRules() storage.ImageRules {
	return storage.RulesFromConfig(cfg.Storage)
}
