package records

import (
	"testing"

	"adoptm3/models"
	"adoptm3/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRelic_ProvisionsOwner(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "collector", false)

	relic, err := CreateRelic(ctx, db, u, RelicInput{Name: "Test Relic"}, pngImages(1))
	require.NoError(t, err)

	var owner models.Client
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&owner).Error)
	assert.Equal(t, "collector", owner.Nickname)
	assert.Equal(t, owner.ID, relic.ClientID)
	assert.Equal(t, u.ID, relic.CreatedByID)
	assert.NotEmpty(t, relic.PublicID)

	require.Len(t, relic.Images, 1)
	assert.True(t, relic.Images[0].IsMain)
	assert.Equal(t, int64(1), countRows[models.RelicImage](t, db))
}

func TestCreateRelic_RequiresImage(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "noimg", false)

	_, err := CreateRelic(ctx, db, u, RelicInput{Name: "Empty"}, nil)
	require.ErrorIs(t, err, ErrImageRequired)
	assert.Equal(t, int64(0), countRows[models.Relic](t, db))
	assert.Equal(t, int64(0), countRows[models.Client](t, db))
}

func TestCreateRelic_Validation(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "val", false)

	_, err := CreateRelic(ctx, db, u, RelicInput{Name: "  "}, pngImages(1))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
}

func TestCreateRelic_MainImageNormalization(t *testing.T) {
	tests := []struct {
		name     string
		images   []NewImage
		wantMain int
	}{
		{"none flagged picks first", pngImages(3), 0},
		{"single flagged kept", pngImages(3, 1), 1},
		{"several flagged keeps first", pngImages(3, 1, 2), 1},
		{"all flagged keeps first", pngImages(2, 0, 1), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := database.OpenTest(t)
			u := newUser(t, db, "norm", false)

			relic, err := CreateRelic(ctx, db, u, RelicInput{Name: "R"}, tc.images)
			require.NoError(t, err)
			require.Len(t, relic.Images, len(tc.images))

			mains := 0
			for i, img := range relic.Images {
				assert.Equal(t, i, img.Position)
				if img.IsMain {
					mains++
					assert.Equal(t, tc.wantMain, img.Position)
				}
			}
			assert.Equal(t, 1, mains)
		})
	}
}

func TestAddRelicImages(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "adder", false)
	relic := newRelic(t, db, u, "R")

	imgs, err := AddRelicImages(ctx, db, u, relic.ID, pngImages(2))
	require.NoError(t, err)
	require.Len(t, imgs, 3)
	assert.True(t, imgs[0].IsMain)
	assert.Equal(t, 2, imgs[2].Position)

	imgs, err = AddRelicImages(ctx, db, u, relic.ID, pngImages(1, 0))
	require.NoError(t, err)
	require.Len(t, imgs, 4)
	assert.False(t, imgs[0].IsMain)
	assert.True(t, imgs[3].IsMain)
}

func TestSetMainAndDeleteImage(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "imgs", false)
	relic, err := CreateRelic(ctx, db, u, RelicInput{Name: "R"}, pngImages(2))
	require.NoError(t, err)
	first, second := relic.Images[0], relic.Images[1]

	require.NoError(t, SetMainImage(ctx, db, u, second.ID))
	imgs, err := relicImages(db, relic.ID)
	require.NoError(t, err)
	assert.False(t, imgs[0].IsMain)
	assert.True(t, imgs[1].IsMain)

	path, err := DeleteRelicImage(ctx, db, u, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.StorePath, path)
	imgs, err = relicImages(db, relic.ID)
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, first.ID, imgs[0].ID)
	assert.True(t, imgs[0].IsMain)

	_, err = DeleteRelicImage(ctx, db, u, first.ID)
	assert.ErrorIs(t, err, ErrImageRequired)
}

func TestRelicWriteScope(t *testing.T) {
	db := database.OpenTest(t)
	owner := newUser(t, db, "owner", false)
	other := newUser(t, db, "other", false)
	admin := newUser(t, db, "root", true)
	relic := newRelic(t, db, owner, "Mine")

	_, err := UpdateRelic(ctx, db, other, relic.ID, RelicInput{Name: "Stolen"}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = DeleteRelic(ctx, db, other, relic.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = AddRelicImages(ctx, db, other, relic.ID, pngImages(1))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, SetMainImage(ctx, db, other, relic.Images[0].ID), ErrNotFound)

	// reading stays open to any authenticated user
	got, err := GetRelic(ctx, db, other, relic.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Name)
	_, err = GetRelic(ctx, db, nil, relic.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := UpdateRelic(ctx, db, admin, relic.ID, RelicInput{Name: "Renamed", AdoptionFee: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.AdoptionFee)
	assert.Equal(t, relic.ClientID, updated.ClientID)
}

func TestDeleteRelic(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "del", false)
	relic, err := CreateRelic(ctx, db, u, RelicInput{Name: "R"}, pngImages(2))
	require.NoError(t, err)

	paths, err := DeleteRelic(ctx, db, u, relic.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{relic.Images[0].StorePath, relic.Images[1].StorePath}, paths)
	assert.Equal(t, int64(0), countRows[models.Relic](t, db))
	assert.Equal(t, int64(0), countRows[models.RelicImage](t, db))
}

func TestDeleteRelic_WithAdoptionsIsRefused(t *testing.T) {
	db := database.OpenTest(t)
	seller := newUser(t, db, "seller", false)
	buyer := newUser(t, db, "buyer", false)
	relic := newRelic(t, db, seller, "R")
	_, err := CreateAdoption(ctx, db, buyer, AdoptionInput{RelicID: &relic.ID})
	require.NoError(t, err)

	_, err = DeleteRelic(ctx, db, seller, relic.ID)
	assert.ErrorIs(t, err, ErrInUse)
	assert.Equal(t, int64(1), countRows[models.Relic](t, db))
}

func TestListRelics_Filters(t *testing.T) {
	db := database.OpenTest(t)
	u := newUser(t, db, "lister", false)
	other := newUser(t, db, "reader", false)
	_, err := CreateRelic(ctx, db, u, RelicInput{Name: "Golden Chalice", AdoptionFee: true}, pngImages(1))
	require.NoError(t, err)
	_, err = CreateRelic(ctx, db, u, RelicInput{Name: "Iron Sword"}, pngImages(1))
	require.NoError(t, err)

	all, err := ListRelics(ctx, db, other, RelicFilter{}, Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	fee := true
	paid, err := ListRelics(ctx, db, other, RelicFilter{AdoptionFee: &fee}, Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, paid.Items, 1)
	assert.Equal(t, "Golden Chalice", paid.Items[0].Name)

	byName, err := ListRelics(ctx, db, other, RelicFilter{Name: "sWoRd"}, Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, byName.Items, 1)
	assert.Equal(t, "Iron Sword", byName.Items[0].Name)

	paged, err := ListRelics(ctx, db, other, RelicFilter{}, Page{Number: 2, Size: 1})
	require.NoError(t, err)
	assert.Len(t, paged.Items, 1)
	assert.Equal(t, int64(2), paged.Total)
}
