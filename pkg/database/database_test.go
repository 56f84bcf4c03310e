package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"adoptm3/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMigrate_SeedsRolesIdempotently(t *testing.T) {
	gdb := OpenTest(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, gdb))

	var n int64
	require.NoError(t, gdb.Model(&models.Role{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)

	role, err := RoleByName(ctx, gdb, models.RoleAdministrator)
	require.NoError(t, err)
	assert.Equal(t, "full access", role.Description)
}

func TestClientUserLinkIsUnique(t *testing.T) {
	gdb := OpenTest(t)
	u := models.User{Username: "u1", HashedPassword: []byte("x")}
	require.NoError(t, gdb.Create(&u).Error)

	first := models.Client{Name: "A", Nickname: "a", CreatedByID: u.ID, UserID: &u.ID}
	require.NoError(t, gdb.Create(&first).Error)

	second := models.Client{Name: "B", Nickname: "b", CreatedByID: u.ID, UserID: &u.ID}
	err := gdb.Create(&second).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err), "got %v", err)
}

func TestForeignKeysAreEnforced(t *testing.T) {
	gdb := OpenTest(t)
	u := models.User{Username: "u1", HashedPassword: []byte("x")}
	require.NoError(t, gdb.Create(&u).Error)
	c := models.Client{Name: "A", Nickname: "a", CreatedByID: u.ID}
	require.NoError(t, gdb.Create(&c).Error)
	r := models.Relic{PublicID: "p1", Name: "R", ClientID: c.ID, CreatedByID: u.ID}
	require.NoError(t, gdb.Create(&r).Error)

	err := gdb.Delete(&c).Error
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err), "got %v", err)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		unique bool
		fk     bool
	}{
		{"nil", nil, false, false},
		{"gorm duplicated", gorm.ErrDuplicatedKey, true, false},
		{"gorm fk", gorm.ErrForeignKeyViolated, false, true},
		{"pg unique", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"}), true, false},
		{"pg fk", &pgconn.PgError{Code: "23503"}, false, true},
		{"other", errors.New("boom"), false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.unique, IsUniqueViolation(tc.err))
			assert.Equal(t, tc.fk, IsForeignKeyViolation(tc.err))
		})
	}
}
