package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram-project/backend/internal/testhelpers"
)

func TestIngredientSearch(t *testing.T) {
	env := setupTestEnv(t)
	testhelpers.CreateTestIngredient(t, env.db, "flour", "g")
	testhelpers.CreateTestIngredient(t, env.db, "sunflower oil", "ml")

	w := env.do(t, "GET", "/api/ingredients?name=fl", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var results []IngredientResponse
	decodeJSON(t, w, &results)
	require.Len(t, results, 1)
	assert.Equal(t, "flour", results[0].Name)

	// Without a query the whole catalog comes back.
	w = env.do(t, "GET", "/api/ingredients", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &results)
	assert.Len(t, results, 2)
}

func TestIngredientWritesRequireAdmin(t *testing.T) {
	env := setupTestEnv(t)
	_, userToken := env.registerUser(t, false)
	_, adminToken := env.registerUser(t, true)

	body := map[string]string{"name": "salt", "measurement_unit": "g"}

	w := env.do(t, "POST", "/api/ingredients", userToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, "POST", "/api/ingredients", adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created IngredientResponse
	decodeJSON(t, w, &created)
	assert.Equal(t, "salt", created.Name)

	w = env.do(t, "GET", "/api/ingredients/"+created.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "DELETE", "/api/ingredients/"+created.ID.String(), adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
