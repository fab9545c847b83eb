package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram-project/backend/internal/models"
	"github.com/foodgram-project/backend/internal/testhelpers"
)

// Runs against a containerized PostgreSQL so the unique-violation
// translation sees real driver errors, not the SQLite equivalents.
func TestUniqueViolationOnPostgres(t *testing.T) {
	db := testhelpers.SetupPostgresDatabase(t)
	images := NewImageService(nil, t.TempDir(), "/media")
	svc := NewRecipeService(db, images)

	author := testhelpers.CreateTestUser(t, db)
	user := testhelpers.CreateTestUser(t, db)
	recipe := testhelpers.CreateTestRecipe(t, db, author)

	_, err := svc.Favorite(user.ID, recipe.ID)
	require.NoError(t, err)

	// Insert the duplicate pair directly so the unique index raises,
	// bypassing the service's existence pre-check. This is the error a
	// concurrent request would hit between check and insert.
	err = db.Create(&models.Favorite{UserID: user.ID, RecipeID: recipe.ID}).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err), "postgres duplicate key error should be recognized: %v", err)

	// The service path maps the duplicate to the conflict sentinel.
	_, err = svc.Favorite(user.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestFollowDuplicateOnPostgres(t *testing.T) {
	db := testhelpers.SetupPostgresDatabase(t)
	svc := NewUserService(db)

	follower := testhelpers.CreateTestUser(t, db)
	author := testhelpers.CreateTestUser(t, db)

	_, err := svc.Follow(follower.ID, author.ID)
	require.NoError(t, err)

	err = db.Create(&models.Follow{UserID: follower.ID, AuthorID: author.ID}).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err), "postgres duplicate key error should be recognized: %v", err)

	_, err = svc.Follow(follower.ID, author.ID)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}
