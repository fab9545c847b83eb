package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram-project/backend/internal/testhelpers"
)

func TestTagCRUD(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewTagService(db)

	tag, err := svc.Create("Breakfast", "#E26C2D", "breakfast")
	require.NoError(t, err)
	assert.Equal(t, "Breakfast", tag.Name)

	got, err := svc.Get(tag.ID)
	require.NoError(t, err)
	assert.Equal(t, tag.ID, got.ID)

	updated, err := svc.Update(tag.ID, "Brunch", "#49B64E", "brunch")
	require.NoError(t, err)
	assert.Equal(t, "Brunch", updated.Name)
	assert.Equal(t, "brunch", updated.Slug)

	require.NoError(t, svc.Delete(tag.ID))
	_, err = svc.Get(tag.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTagColorValidation(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewTagService(db)

	// Both short and long HEX forms are accepted.
	_, err := svc.Create("Short", "#FFF", "short")
	assert.NoError(t, err)
	_, err = svc.Create("Long", "#A1B2C3", "long")
	assert.NoError(t, err)

	for _, color := range []string{"", "FFF", "#12345", "#GGGGGG", "red"} {
		_, err := svc.Create("Bad", color, "bad-"+uuid.NewString()[:8])
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "color %q should be rejected", color)
		assert.Contains(t, verr.Fields, "color")
	}
}

func TestTagDuplicateSlug(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewTagService(db)

	_, err := svc.Create("Breakfast", "#E26C2D", "breakfast")
	require.NoError(t, err)

	_, err = svc.Create("Second breakfast", "#49B64E", "breakfast")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
}

func TestTagList(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewTagService(db)

	_, err := svc.Create("Dinner", "#8775D2", "dinner")
	require.NoError(t, err)
	_, err = svc.Create("Breakfast", "#E26C2D", "breakfast")
	require.NoError(t, err)

	tags, err := svc.List()
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Breakfast", tags[0].Name)
	assert.Equal(t, "Dinner", tags[1].Name)
}
