package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram-project/backend/internal/models"
	"github.com/foodgram-project/backend/internal/testhelpers"
)

func recipeBody(tag *models.Tag, ingredient *models.Ingredient) map[string]interface{} {
	return map[string]interface{}{
		"name":         "Pancakes",
		"image":        testhelpers.TestImagePayload,
		"text":         "Mix everything and fry.",
		"cooking_time": 20,
		"tags":         []string{tag.ID.String()},
		"ingredients": []map[string]interface{}{
			{"id": ingredient.ID.String(), "amount": 2},
		},
	}
}

func TestRecipeLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerUser(t, false)
	tag := testhelpers.CreateTestTag(t, env.db)
	flour := testhelpers.CreateTestIngredient(t, env.db, "flour", "g")

	// Create.
	w := env.do(t, "POST", "/api/recipes", token, recipeBody(tag, flour))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created RecipeResponse
	decodeJSON(t, w, &created)
	assert.Equal(t, "Pancakes", created.Name)
	require.NotNil(t, created.Author)
	require.Len(t, created.Ingredients, 1)
	assert.Equal(t, "flour", created.Ingredients[0].Name)
	assert.Equal(t, "g", created.Ingredients[0].MeasurementUnit)
	require.Len(t, created.Tags, 1)
	assert.Equal(t, tag.Slug, created.Tags[0].Slug)
	assert.False(t, created.IsFavorited)

	// Anonymous list sees it with all flags false.
	w = env.do(t, "GET", "/api/recipes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Count   int64            `json:"count"`
		Next    *string          `json:"next"`
		Results []RecipeResponse `json:"results"`
	}
	decodeJSON(t, w, &page)
	assert.EqualValues(t, 1, page.Count)
	assert.Nil(t, page.Next)
	require.Len(t, page.Results, 1)
	assert.False(t, page.Results[0].IsFavorited)
	assert.False(t, page.Results[0].IsInShoppingCart)
	require.NotNil(t, page.Results[0].Author)
	assert.False(t, page.Results[0].Author.IsSubscribed)

	// Update.
	body := recipeBody(tag, flour)
	body["name"] = "Thin pancakes"
	delete(body, "image")
	w = env.do(t, "PATCH", "/api/recipes/"+created.ID.String(), token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated RecipeResponse
	decodeJSON(t, w, &updated)
	assert.Equal(t, "Thin pancakes", updated.Name)
	assert.Equal(t, created.Image, updated.Image)

	// Delete.
	w = env.do(t, "DELETE", "/api/recipes/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, "GET", "/api/recipes/"+created.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipeCreateRequiresAuth(t *testing.T) {
	env := setupTestEnv(t)
	tag := testhelpers.CreateTestTag(t, env.db)
	flour := testhelpers.CreateTestIngredient(t, env.db, "flour", "g")

	w := env.do(t, "POST", "/api/recipes", "", recipeBody(tag, flour))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecipeUpdateForbiddenForStranger(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := env.registerUser(t, false)
	_, strangerToken := env.registerUser(t, false)
	tag := testhelpers.CreateTestTag(t, env.db)
	flour := testhelpers.CreateTestIngredient(t, env.db, "flour", "g")

	w := env.do(t, "POST", "/api/recipes", ownerToken, recipeBody(tag, flour))
	require.Equal(t, http.StatusCreated, w.Code)
	var created RecipeResponse
	decodeJSON(t, w, &created)

	body := recipeBody(tag, flour)
	w = env.do(t, "PATCH", "/api/recipes/"+created.ID.String(), strangerToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, "DELETE", "/api/recipes/"+created.ID.String(), strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRecipeValidationResponse(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerUser(t, false)
	tag := testhelpers.CreateTestTag(t, env.db)
	flour := testhelpers.CreateTestIngredient(t, env.db, "flour", "g")

	body := recipeBody(tag, flour)
	body["cooking_time"] = 301
	w := env.do(t, "POST", "/api/recipes", token, body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var fields map[string][]string
	decodeJSON(t, w, &fields)
	assert.Contains(t, fields, "cooking_time")

	// A zero cooking time must produce the same field-scoped message
	// instead of a generic body-binding error.
	body = recipeBody(tag, flour)
	body["cooking_time"] = 0
	w = env.do(t, "POST", "/api/recipes", token, body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	fields = nil
	decodeJSON(t, w, &fields)
	require.Contains(t, fields, "cooking_time")
	assert.Contains(t, fields["cooking_time"], "cooking time must be at least one minute")

	// Same for a zero ingredient amount.
	body = recipeBody(tag, flour)
	body["ingredients"] = []map[string]interface{}{{"id": flour.ID.String(), "amount": 0}}
	w = env.do(t, "POST", "/api/recipes", token, body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	fields = nil
	decodeJSON(t, w, &fields)
	assert.Contains(t, fields, "ingredients")
}

func TestFavoriteEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	authorID, _ := env.registerUser(t, false)
	_, token := env.registerUser(t, false)
	author, err := env.users.Get(authorID)
	require.NoError(t, err)
	recipe := testhelpers.CreateTestRecipe(t, env.db, author)

	path := fmt.Sprintf("/api/recipes/%s/favorite", recipe.ID)

	w := env.do(t, "POST", path, token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var short ShortRecipeResponse
	decodeJSON(t, w, &short)
	assert.Equal(t, recipe.ID, short.ID)
	assert.Equal(t, recipe.Name, short.Name)

	// The flag is now visible to the requester but not to anonymous readers.
	w = env.do(t, "GET", "/api/recipes/"+recipe.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail RecipeResponse
	decodeJSON(t, w, &detail)
	assert.True(t, detail.IsFavorited)

	w = env.do(t, "GET", "/api/recipes/"+recipe.ID.String(), "", nil)
	decodeJSON(t, w, &detail)
	assert.False(t, detail.IsFavorited)

	// Duplicate POST conflicts.
	w = env.do(t, "POST", path, token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var conflict map[string]string
	decodeJSON(t, w, &conflict)
	assert.Contains(t, conflict, "errors")

	w = env.do(t, "DELETE", path, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, "DELETE", path, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShoppingCartDownload(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerUser(t, false)
	tag := testhelpers.CreateTestTag(t, env.db)
	flour := testhelpers.CreateTestIngredient(t, env.db, "flour", "g")

	// Empty cart downloads are rejected.
	w := env.do(t, "GET", "/api/recipes/download_shopping_cart", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := recipeBody(tag, flour)
	body["ingredients"] = []map[string]interface{}{
		{"id": flour.ID.String(), "amount": 10},
	}
	w = env.do(t, "POST", "/api/recipes", token, body)
	require.Equal(t, http.StatusCreated, w.Code)
	var created RecipeResponse
	decodeJSON(t, w, &created)

	second := recipeBody(tag, flour)
	second["name"] = "Bread"
	second["ingredients"] = []map[string]interface{}{
		{"id": flour.ID.String(), "amount": 5},
	}
	w = env.do(t, "POST", "/api/recipes", token, second)
	require.Equal(t, http.StatusCreated, w.Code)
	var other RecipeResponse
	decodeJSON(t, w, &other)

	for _, id := range []uuid.UUID{created.ID, other.ID} {
		w = env.do(t, "POST", fmt.Sprintf("/api/recipes/%s/shopping_cart", id), token, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = env.do(t, "GET", "/api/recipes/download_shopping_cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "_shopping_list.txt")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "flour (g) - 15")
}

func TestRecipeListFilterQuery(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerUser(t, false)
	breakfast := testhelpers.CreateTestTag(t, env.db)
	dinner := testhelpers.CreateTestTag(t, env.db)
	flour := testhelpers.CreateTestIngredient(t, env.db, "flour", "g")

	w := env.do(t, "POST", "/api/recipes", token, recipeBody(breakfast, flour))
	require.Equal(t, http.StatusCreated, w.Code)
	stew := recipeBody(dinner, flour)
	stew["name"] = "Stew"
	w = env.do(t, "POST", "/api/recipes", token, stew)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "GET", "/api/recipes?tags="+breakfast.Slug, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Count   int64            `json:"count"`
		Results []RecipeResponse `json:"results"`
	}
	decodeJSON(t, w, &page)
	assert.EqualValues(t, 1, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Pancakes", page.Results[0].Name)
}
