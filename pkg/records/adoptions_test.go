package records

import (
	"testing"

	"adoptm3/models"
	"adoptm3/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAdoption_TransfersAndSettles(t *testing.T) {
	db := database.OpenTest(t)
	userA := newUser(t, db, "alice", false)
	userB := newUser(t, db, "bruno", false)
	relic := newRelic(t, db, userA, "Amulet")
	clientA := relic.ClientID
	clientB, err := EnsureClient(ctx, db, userB)
	require.NoError(t, err)

	// an earlier unpaid transfer of the same relic
	earlier := models.Adoption{RelicID: &relic.ID, PreviousOwnerID: clientB.ID, NewOwnerID: clientA, CreatedByID: userA.ID}
	require.NoError(t, db.Create(&earlier).Error)

	oldA := ageClient(t, db, clientA)
	oldB := ageClient(t, db, clientB.ID)

	adoption, err := CreateAdoption(ctx, db, userB, AdoptionInput{RelicID: &relic.ID, PaymentStatus: true})
	require.NoError(t, err)

	assert.Equal(t, clientA, adoption.PreviousOwnerID)
	assert.Equal(t, clientB.ID, adoption.NewOwnerID)
	assert.True(t, adoption.PaymentStatus)
	assert.Equal(t, userB.ID, adoption.CreatedByID)

	var after models.Relic
	require.NoError(t, db.First(&after, relic.ID).Error)
	assert.Equal(t, clientB.ID, after.ClientID)

	var settled models.Adoption
	require.NoError(t, db.First(&settled, earlier.ID).Error)
	assert.True(t, settled.PaymentStatus)

	assert.True(t, mustClient(t, db, clientA).LastActivity.After(oldA))
	assert.True(t, mustClient(t, db, clientB.ID).LastActivity.After(oldB))
	assert.Equal(t, int64(1), countRows[models.AdoptionRelic](t, db, "adoption_id = ? AND relic_id = ?", adoption.ID, relic.ID))
}

func TestCreateAdoption_UnpaidLeavesOthersAlone(t *testing.T) {
	db := database.OpenTest(t)
	userA := newUser(t, db, "a", false)
	userB := newUser(t, db, "b", false)
	relic := newRelic(t, db, userA, "R")

	first, err := CreateAdoption(ctx, db, userB, AdoptionInput{RelicID: &relic.ID})
	require.NoError(t, err)
	second, err := CreateAdoption(ctx, db, userA, AdoptionInput{RelicID: &relic.ID})
	require.NoError(t, err)

	// previous owner follows the chain of transfers
	assert.Equal(t, first.NewOwnerID, second.PreviousOwnerID)
	assert.Equal(t, relic.ClientID, second.NewOwnerID)
	assert.Equal(t, int64(0), countRows[models.Adoption](t, db, "payment_status = ?", true))
}

func TestCreateAdoption_ExplicitOwners(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "broker", false)
	relic := newRelic(t, db, u, "R")
	buyer, err := CreateClient(ctx, db, u, ClientInput{Name: "Buyer", Nickname: "buyer", BirthDate: DefaultBirthDate})
	require.NoError(t, err)

	prev := relic.ClientID
	a, err := CreateAdoption(ctx, db, u, AdoptionInput{RelicID: &relic.ID, PreviousOwnerID: &prev, NewOwnerID: &buyer.ID})
	require.NoError(t, err)
	assert.Equal(t, buyer.ID, a.NewOwnerID)

	stale := prev
	_, err = CreateAdoption(ctx, db, u, AdoptionInput{RelicID: &relic.ID, PreviousOwnerID: &stale})
	assert.ErrorIs(t, err, ErrStaleOwner)

	var after models.Relic
	require.NoError(t, db.First(&after, relic.ID).Error)
	assert.Equal(t, buyer.ID, after.ClientID)
	assert.Equal(t, int64(1), countRows[models.Adoption](t, db))
}

func TestCreateAdoption_FailureRollsBack(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "rb", false)
	relic := newRelic(t, db, u, "R")
	missing := uint(9999)

	_, err := CreateAdoption(ctx, db, u, AdoptionInput{RelicID: &relic.ID, NewOwnerID: &missing})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "new_owner_id")

	var after models.Relic
	require.NoError(t, db.First(&after, relic.ID).Error)
	assert.Equal(t, relic.ClientID, after.ClientID)
	assert.Equal(t, int64(0), countRows[models.Adoption](t, db))
}

func TestCreateAdoption_HistoryOnly(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "hist", false)
	c1, err := CreateClient(ctx, db, u, ClientInput{Name: "One", Nickname: "one", BirthDate: DefaultBirthDate})
	require.NoError(t, err)
	c2, err := CreateClient(ctx, db, u, ClientInput{Name: "Two", Nickname: "two", BirthDate: DefaultBirthDate})
	require.NoError(t, err)

	_, err = CreateAdoption(ctx, db, u, AdoptionInput{PreviousOwnerID: &c1.ID})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "new_owner_id")

	a, err := CreateAdoption(ctx, db, u, AdoptionInput{PreviousOwnerID: &c1.ID, NewOwnerID: &c2.ID})
	require.NoError(t, err)
	assert.Nil(t, a.RelicID)
	assert.Equal(t, int64(0), countRows[models.AdoptionRelic](t, db))
}

func TestUpdateAdoptionPayment_Settles(t *testing.T) {
	db := database.OpenTest(t)
	userA := newUser(t, db, "a", false)
	userB := newUser(t, db, "b", false)
	relic := newRelic(t, db, userA, "R")

	first, err := CreateAdoption(ctx, db, userB, AdoptionInput{RelicID: &relic.ID})
	require.NoError(t, err)
	second, err := CreateAdoption(ctx, db, userA, AdoptionInput{RelicID: &relic.ID})
	require.NoError(t, err)

	_, err = UpdateAdoptionPayment(ctx, db, userA, first.ID, true)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := UpdateAdoptionPayment(ctx, db, userA, second.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.PaymentStatus)

	var f models.Adoption
	require.NoError(t, db.First(&f, first.ID).Error)
	assert.True(t, f.PaymentStatus)
}

func TestAdoptionScope(t *testing.T) {
	db := database.OpenTest(t)
	userA := newUser(t, db, "a", false)
	userB := newUser(t, db, "b", false)
	admin := newUser(t, db, "admin", true)
	relic := newRelic(t, db, userA, "R")

	a, err := CreateAdoption(ctx, db, userB, AdoptionInput{RelicID: &relic.ID})
	require.NoError(t, err)

	mine, err := ListAdoptions(ctx, db, userA, AdoptionFilter{}, Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, mine.Items)

	theirs, err := ListAdoptions(ctx, db, userB, AdoptionFilter{RelicID: &relic.ID}, Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, theirs.Items, 1)
	require.NotNil(t, theirs.Items[0].Relic)
	assert.Equal(t, "R", theirs.Items[0].Relic.Name)

	all, err := ListAdoptions(ctx, db, admin, AdoptionFilter{}, Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.Total)

	_, err = GetAdoption(ctx, db, userA, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, DeleteAdoption(ctx, db, userA, a.ID), ErrNotFound)

	require.NoError(t, DeleteAdoption(ctx, db, admin, a.ID))
	assert.Equal(t, int64(0), countRows[models.AdoptionRelic](t, db))

	// history removal does not move the relic back
	var after models.Relic
	require.NoError(t, db.First(&after, relic.ID).Error)
	assert.Equal(t, a.NewOwnerID, after.ClientID)
}
