package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram-project/backend/internal/service"
	"github.com/foodgram-project/backend/internal/testhelpers"
)

const testPageSize = 6

type testEnv struct {
	router      *gin.Engine
	db          *gorm.DB
	auth        *service.AuthService
	users       *service.UserService
	recipes     *service.RecipeService
	tags        *service.TagService
	ingredients *service.IngredientService
}

// setupTestEnv wires the full handler stack against an in-memory database,
// with local image storage and no redis.
func setupTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDatabase(t)
	images := service.NewImageService(nil, t.TempDir(), "/media")

	env := &testEnv{
		db:          db,
		auth:        service.NewAuthService(db, nil, "test-secret"),
		users:       service.NewUserService(db),
		recipes:     service.NewRecipeService(db, images),
		tags:        service.NewTagService(db),
		ingredients: service.NewIngredientService(db),
	}

	env.router = gin.New()
	apiGroup := env.router.Group("/api")
	NewAuthHandler(env.auth).RegisterRoutes(apiGroup)
	NewUserHandler(env.users, env.recipes, env.auth, testPageSize).RegisterRoutes(apiGroup)
	NewTagHandler(env.tags, env.auth).RegisterRoutes(apiGroup)
	NewIngredientHandler(env.ingredients, env.auth).RegisterRoutes(apiGroup)
	NewRecipeHandler(env.recipes, env.users, env.auth, nil, testPageSize).RegisterRoutes(apiGroup)
	return env
}

// registerUser creates a user through the auth service and returns the
// user id and a live token.
func (env *testEnv) registerUser(t *testing.T, admin bool) (uuid.UUID, string) {
	suffix := uuid.NewString()[:8]
	email := fmt.Sprintf("user+%s@example.com", suffix)
	username := fmt.Sprintf("user_%s", suffix)

	user, err := env.auth.Register(email, username, "Test", "User", "supersecret")
	require.NoError(t, err)

	if admin {
		require.NoError(t, env.db.Model(user).Update("is_admin", true).Error)
	}

	token, err := env.auth.Login(email, "supersecret")
	require.NoError(t, err)
	return user.ID, token
}

// do performs a request against the test router. A nil body sends no
// payload; an empty token leaves the request anonymous.
func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		reader = bytes.NewBuffer(testhelpers.JSONMarshal(t, body))
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "body: %s", w.Body.String())
}
