package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram-project/backend/internal/testhelpers"
)

func TestIngredientPrefixSearch(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewIngredientService(db)

	testhelpers.CreateTestIngredient(t, db, "Flour", "g")
	testhelpers.CreateTestIngredient(t, db, "flaxseed", "g")
	testhelpers.CreateTestIngredient(t, db, "sunflower oil", "ml")

	// Case-insensitive prefix match, not substring.
	results, err := svc.List("fl")
	require.NoError(t, err)
	require.Len(t, results, 2)
	names := []string{results[0].Name, results[1].Name}
	assert.ElementsMatch(t, []string{"Flour", "flaxseed"}, names)

	// Empty query returns the whole catalog.
	results, err = svc.List("")
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestIngredientSearchEscapesWildcards(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewIngredientService(db)

	testhelpers.CreateTestIngredient(t, db, "100% cocoa", "g")
	testhelpers.CreateTestIngredient(t, db, "1000 island dressing", "ml")
	testhelpers.CreateTestIngredient(t, db, "sea salt", "g")
	testhelpers.CreateTestIngredient(t, db, "se_salt mix", "g")

	// "%" in the query is a literal character, not a wildcard.
	results, err := svc.List("100%")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "100% cocoa", results[0].Name)

	// Same for "_", which would otherwise match any single character.
	results, err = svc.List("se_")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "se_salt mix", results[0].Name)
}

func TestIngredientGetOrCreate(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewIngredientService(db)

	first, created, err := svc.GetOrCreate("flour", "g")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.GetOrCreate("flour", "g")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// Same name with a different unit is a distinct ingredient.
	third, created, err := svc.GetOrCreate("flour", "kg")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestIngredientGetUnknown(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewIngredientService(db)

	_, err := svc.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
