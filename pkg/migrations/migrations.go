// Package migrations holds the versioned data migrations that run after the
// gorm schema migration. Versions are tracked by goose in goose_db_version.
package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"adoptm3/models"
	"adoptm3/pkg/records"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

// Run applies every pending data migration.
func Run(ctx context.Context, gdb *gorm.DB) ([]*goose.MigrationResult, error) {
	p, err := newProvider(gdb)
	if err != nil {
		return nil, err
	}
	return p.Up(ctx)
}

func newProvider(gdb *gorm.DB) (*goose.Provider, error) {
	var dialect goose.Dialect
	switch gdb.Dialector.Name() {
	case "postgres":
		dialect = goose.DialectPostgres
	case "sqlite":
		dialect = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("no goose dialect for %q", gdb.Dialector.Name())
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(dialect, sqlDB, nil,
		goose.WithDisableGlobalRegistry(true),
		goose.WithGoMigrations(
			goose.NewGoMigration(1, up(gdb, linkClientsByEmail), nil),
			goose.NewGoMigration(2, up(gdb, backfillUserClients), nil),
			goose.NewGoMigration(3, up(gdb, backfillPublicIDs), nil),
		),
	)
}

// up runs fn with a gorm handle bound to the goose transaction.
func up(gdb *gorm.DB, fn func(ctx context.Context, tx *gorm.DB) error) *goose.GoFunc {
	return &goose.GoFunc{
		RunTx: func(ctx context.Context, sqlTx *sql.Tx) error {
			tx := gdb.Session(&gorm.Session{NewDB: true, Context: ctx})
			tx.Statement.ConnPool = sqlTx
			return fn(ctx, tx)
		},
	}
}

func linkClientsByEmail(ctx context.Context, tx *gorm.DB) error {
	_, err := records.LinkClientsToUsers(ctx, tx, false)
	return err
}

// backfillUserClients provisions a client for every account without one.
func backfillUserClients(ctx context.Context, tx *gorm.DB) error {
	var users []models.User
	err := tx.Where("id NOT IN (?)", tx.Model(&models.Client{}).Select("user_id").Where("user_id IS NOT NULL")).
		Order("id").Find(&users).Error
	if err != nil {
		return err
	}
	for i := range users {
		if _, err := records.EnsureClient(ctx, tx, &users[i]); err != nil {
			return fmt.Errorf("user %s: %w", users[i].Username, err)
		}
	}
	return nil
}

func backfillPublicIDs(ctx context.Context, tx *gorm.DB) error {
	var relics []models.Relic
	if err := tx.Where("public_id = '' OR public_id IS NULL").Find(&relics).Error; err != nil {
		return err
	}
	for _, r := range relics {
		id, err := records.NewPublicID()
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Relic{}).Where("id = ?", r.ID).UpdateColumn("public_id", id).Error; err != nil {
			return err
		}
	}
	return nil
}
