package records

import (
	"testing"

	"adoptm3/models"
	"adoptm3/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEnsureClient_Idempotent(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "maria", false)

	first, err := EnsureClient(ctx, db, u)
	require.NoError(t, err)
	second, err := EnsureClient(ctx, db, u)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(1), countRows[models.Client](t, db, "user_id = ?", u.ID))
	assert.Equal(t, "maria", first.Nickname)
	assert.Equal(t, "maria", first.Name)
	assert.Equal(t, "maria@example.com", first.Email)
	assert.Equal(t, u.ID, first.CreatedByID)
	assert.True(t, first.BirthDate.Equal(DefaultBirthDate))
}

func TestEnsureClient_UsesFullName(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "jsilva", false)
	u.SetName("Joana Silva")
	require.NoError(t, db.Model(u).Updates(map[string]any{"first_name": u.FirstName, "last_name": u.LastName}).Error)

	c, err := EnsureClient(ctx, db, u)
	require.NoError(t, err)
	assert.Equal(t, "Joana Silva", c.Name)
	assert.Equal(t, "jsilva", c.Nickname)
}

func TestEnsureClient_LinksOwnUnlinkedClient(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "pedro", false)
	mine := models.Client{Name: "Pedro", Nickname: "pedro", BirthDate: DefaultBirthDate, CreatedByID: u.ID}
	require.NoError(t, db.Create(&mine).Error)

	c, err := EnsureClient(ctx, db, u)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, c.ID)
	assert.Equal(t, int64(1), countRows[models.Client](t, db))
	assert.Equal(t, u.ID, *mustClient(t, db, mine.ID).UserID)
}

func TestEnsureClient_DoesNotTakeClientsRegisteredForOthers(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "ana", false)
	other := models.Client{Name: "Someone", Nickname: "someone", Email: "someone@example.com", BirthDate: DefaultBirthDate, CreatedByID: u.ID}
	require.NoError(t, db.Create(&other).Error)

	c, err := EnsureClient(ctx, db, u)
	require.NoError(t, err)
	assert.NotEqual(t, other.ID, c.ID)
	assert.Nil(t, mustClient(t, db, other.ID).UserID)
}

func TestEnsureClient_RollsBackWithCaller(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "rb", false)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := EnsureClient(ctx, tx, u); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, int64(0), countRows[models.Client](t, db))
}

func TestEnsureClient_NoUser(t *testing.T) {
	db := database.OpenTest(t)
	_, err := EnsureClient(ctx, db, nil)
	assert.ErrorIs(t, err, ErrNoActor)
}

func TestSyncClientFromUser(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "sync", false)
	_, err := EnsureClient(ctx, db, u)
	require.NoError(t, err)

	u.SetName("New Name")
	u.Email = "new@example.com"
	require.NoError(t, SyncClientFromUser(ctx, db, u))

	var c models.Client
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&c).Error)
	assert.Equal(t, "New Name", c.Name)
	assert.Equal(t, "new@example.com", c.Email)
}
