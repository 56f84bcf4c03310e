package records

import (
	"testing"

	"adoptm3/models"
	"adoptm3/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationsLifecycle(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "geo", false)
	other := newUser(t, db, "viewer", false)

	st, err := CreateState(ctx, db, u, StateInput{Name: "São Paulo", UF: "sp"})
	require.NoError(t, err)
	assert.Equal(t, "SP", st.UF)

	_, err = CreateState(ctx, db, u, StateInput{Name: "Bad", UF: "XYZ"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "uf")

	city, err := CreateCity(ctx, db, u, CityInput{Name: "Campinas", StateID: st.ID})
	require.NoError(t, err)
	_, err = CreateCity(ctx, db, u, CityInput{Name: "Nowhere", StateID: 999})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "state_id")

	addr, err := CreateAddress(ctx, db, u, AddressInput{Street: "Rua A", Number: 10, Neighborhood: "Centro", CityID: city.ID})
	require.NoError(t, err)

	got, err := GetAddress(ctx, db, other, addr.ID)
	require.NoError(t, err)
	require.NotNil(t, got.City)
	require.NotNil(t, got.City.State)
	assert.Equal(t, "SP", got.City.State.UF)

	cities, err := ListCities(ctx, db, other, "camp", &st.ID, Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, cities.Items, 1)

	_, err = UpdateCity(ctx, db, other, city.ID, CityInput{Name: "X", StateID: st.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, DeleteState(ctx, db, u, st.ID), ErrInUse)
	require.NoError(t, DeleteAddress(ctx, db, u, addr.ID))
	require.NoError(t, DeleteCity(ctx, db, u, city.ID))
	require.NoError(t, DeleteState(ctx, db, u, st.ID))
	assert.Equal(t, int64(0), countRows[models.State](t, db))
}

func TestClientsLifecycle(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "crm", false)
	other := newUser(t, db, "peer", false)

	c, err := CreateClient(ctx, db, u, ClientInput{Name: "Carla", Nickname: "carla", Email: "Carla@Example.com", BirthDate: DefaultBirthDate})
	require.NoError(t, err)
	assert.Equal(t, "carla@example.com", c.Email)
	assert.Nil(t, c.UserID)
	assert.False(t, c.RegisterDate.IsZero())

	_, err = CreateClient(ctx, db, u, ClientInput{Name: "NoBirth", Nickname: "nb"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "birth_date")

	list, err := ListClients(ctx, db, other, ClientFilter{Email: "carla"}, Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)

	_, _, err = UpdateClient(ctx, db, other, c.ID, ClientInput{Name: "X", Nickname: "x", BirthDate: DefaultBirthDate})
	assert.ErrorIs(t, err, ErrNotFound)

	updated, oldPhoto, err := UpdateClient(ctx, db, u, c.ID, ClientInput{Name: "Carla M", Nickname: "carla", BirthDate: DefaultBirthDate, PhotoPath: "clients/2024/01/a.png"})
	require.NoError(t, err)
	assert.Empty(t, oldPhoto)
	assert.Equal(t, "Carla M", updated.Name)

	_, oldPhoto, err = UpdateClient(ctx, db, u, c.ID, ClientInput{Name: "Carla M", Nickname: "carla", BirthDate: DefaultBirthDate, PhotoPath: "clients/2024/01/b.png"})
	require.NoError(t, err)
	assert.Equal(t, "clients/2024/01/a.png", oldPhoto)

	photo, err := DeleteClient(ctx, db, u, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "clients/2024/01/b.png", photo)
}

func TestDeleteClient_OwningRelicsIsRefused(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "keeper", false)
	relic := newRelic(t, db, u, "R")

	_, err := DeleteClient(ctx, db, u, relic.ClientID)
	assert.ErrorIs(t, err, ErrInUse)
}

func TestListFilters_WildcardsMatchLiterally(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "lister", false)
	for _, name := range []string{"100% Real", "Plain", "Rio_Novo", `Back\slash`} {
		_, err := CreateState(ctx, db, u, StateInput{Name: name, UF: "XX"})
		require.NoError(t, err)
	}

	names := func(filter string) []string {
		t.Helper()
		list, err := ListStates(ctx, db, u, filter, Page{Size: 10})
		require.NoError(t, err)
		out := make([]string, 0, len(list.Items))
		for _, s := range list.Items {
			out = append(out, s.Name)
		}
		return out
	}
	assert.Equal(t, []string{"100% Real"}, names("%"))
	assert.Equal(t, []string{"Rio_Novo"}, names("_"))
	assert.Equal(t, []string{`Back\slash`}, names(`k\s`))
	assert.Len(t, names("a"), 3)
}
