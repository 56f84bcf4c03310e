package records

import (
	"context"
	"fmt"
	"testing"
	"time"

	"adoptm3/models"
	"adoptm3/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

// newUser inserts an account without a client.
func newUser(t *testing.T, db *gorm.DB, username string, superuser bool) *models.User {
	t.Helper()
	roleName := models.RoleUser
	if superuser {
		roleName = models.RoleAdministrator
	}
	role, err := database.RoleByName(ctx, db, roleName)
	require.NoError(t, err)
	u := models.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: []byte("x"),
		RoleID:         &role.ID,
		Role:           *role,
	}
	require.NoError(t, db.Omit("Role").Create(&u).Error)
	return &u
}

func pngImages(n int, mains ...int) []NewImage {
	out := make([]NewImage, n)
	for i := range out {
		out[i] = NewImage{StorePath: fmt.Sprintf("relics/2024/01/%d.png", i), ContentType: "image/png", Width: 1, Height: 1}
	}
	for _, m := range mains {
		out[m].Main = true
	}
	return out
}

func newRelic(t *testing.T, db *gorm.DB, actor *models.User, name string) *models.Relic {
	t.Helper()
	r, err := CreateRelic(ctx, db, actor, RelicInput{Name: name}, pngImages(1))
	require.NoError(t, err)
	return r
}

func countRows[T any](t *testing.T, db *gorm.DB, where ...any) int64 {
	t.Helper()
	var n int64
	var m T
	q := db.Model(&m)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// ageClient moves a client's last activity into the past.
func ageClient(t *testing.T, db *gorm.DB, id uint) time.Time {
	t.Helper()
	old := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	require.NoError(t, db.Model(&models.Client{}).Where("id = ?", id).UpdateColumn("last_activity", old).Error)
	return old
}

func mustClient(t *testing.T, db *gorm.DB, id uint) models.Client {
	t.Helper()
	var c models.Client
	require.NoError(t, db.First(&c, id).Error)
	return c
}
