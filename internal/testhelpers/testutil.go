package testhelpers

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/foodgram-project/backend/internal/models"
	"github.com/foodgram-project/backend/internal/types"
)

// TestImagePayload is a 1x1 PNG as a base64 data URI, accepted by the
// recipe image validation.
const TestImagePayload = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

// TestPassword is the plaintext behind every CreateTestUser password hash.
const TestPassword = "testpassword123"

// CreateTestUser creates a user with unique email and username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	suffix := uuid.NewString()[:8]
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		Email:        fmt.Sprintf("user+%s@example.com", suffix),
		Username:     fmt.Sprintf("user_%s", suffix),
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hash),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestAdmin creates a user with the admin flag set.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	user := CreateTestUser(t, db)
	user.IsAdmin = true
	require.NoError(t, db.Model(user).Update("is_admin", true).Error)
	return user
}

// CreateTestTag creates a tag with a unique slug.
func CreateTestTag(t *testing.T, db *gorm.DB) *models.Tag {
	suffix := uuid.NewString()[:8]
	tag := &models.Tag{
		Name:  fmt.Sprintf("Tag %s", suffix),
		Color: fmt.Sprintf("#%s", suffix[:6]),
		Slug:  fmt.Sprintf("tag-%s", suffix),
	}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

// CreateTestIngredient creates an ingredient with the given name and unit.
func CreateTestIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	ingredient := &models.Ingredient{
		Name:            name,
		MeasurementUnit: unit,
	}
	require.NoError(t, db.Create(ingredient).Error)
	return ingredient
}

// CreateTestRecipe creates a recipe by the given author with one tag and
// one ingredient row so association-heavy code paths have data to walk.
func CreateTestRecipe(t *testing.T, db *gorm.DB, author *models.User) *models.Recipe {
	tag := CreateTestTag(t, db)
	suffix := uuid.NewString()[:8]
	ingredient := CreateTestIngredient(t, db, fmt.Sprintf("ingredient %s", suffix), "g")

	recipe := &models.Recipe{
		AuthorID:    &author.ID,
		Name:        fmt.Sprintf("Recipe %s", suffix),
		ImageURL:    "/media/recipes/image/test.png",
		Text:        "Mix and cook.",
		CookingTime: 10,
	}
	require.NoError(t, db.Create(recipe).Error)

	require.NoError(t, db.Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID}).Error)
	require.NoError(t, db.Create(&models.RecipeIngredient{
		RecipeID:     recipe.ID,
		IngredientID: ingredient.ID,
		Amount:       5,
	}).Error)
	return recipe
}

// MockTokenValidator is a token validator stub for middleware tests.
type MockTokenValidator struct {
	Claims *types.TokenClaims
	Error  error
}

func (m *MockTokenValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Claims, nil
}

// JSONMarshal marshals v, failing the test on error.
func JSONMarshal(t *testing.T, v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal JSON: %v", err)
	}
	return data
}
