package records

import (
	"testing"

	"adoptm3/models"
	"adoptm3/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkClientsToUsers(t *testing.T) {
	db := database.OpenTest(t)
	admin := newUser(t, db, "admin", true)
	match := newUser(t, db, "match", false)

	byEmail, err := CreateClient(ctx, db, admin, ClientInput{Name: "Match", Nickname: "m", Email: "MATCH@example.com", BirthDate: DefaultBirthDate})
	require.NoError(t, err)
	orphan, err := CreateClient(ctx, db, admin, ClientInput{Name: "Olga Reis", Nickname: "admin", Email: "olga@example.com", BirthDate: DefaultBirthDate})
	require.NoError(t, err)

	res, err := LinkClientsToUsers(ctx, db, false)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Linked: 1, Skipped: 1}, res)
	assert.Equal(t, match.ID, *mustClient(t, db, byEmail.ID).UserID)
	assert.Nil(t, mustClient(t, db, orphan.ID).UserID)

	res, err = LinkClientsToUsers(ctx, db, true)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Created: 1}, res)

	var created models.User
	require.NoError(t, db.First(&created, *mustClient(t, db, orphan.ID).UserID).Error)
	assert.Equal(t, "admin1", created.Username)
	assert.Equal(t, "Olga", created.FirstName)
	assert.Equal(t, "olga@example.com", created.Email)
}
