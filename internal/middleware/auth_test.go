package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/foodgram-project/backend/internal/testhelpers"
	"github.com/foodgram-project/backend/internal/types"
)

func authTestRouter(validator TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.GET("/protected", AuthMiddleware(validator), func(c *gin.Context) {
		id, _ := RequesterID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	router.GET("/admin", AuthMiddleware(validator), AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/public", OptionalAuthMiddleware(validator), func(c *gin.Context) {
		_, authenticated := RequesterID(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": authenticated})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	validator := &testhelpers.MockTokenValidator{
		Claims: &types.TokenClaims{UserID: userID, Username: "cook"},
	}
	router := authTestRouter(validator)

	// No header.
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Malformed header.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "token abc def")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	validator := &testhelpers.MockTokenValidator{Error: errors.New("token expired")}
	router := authTestRouter(validator)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRequired(t *testing.T) {
	validator := &testhelpers.MockTokenValidator{
		Claims: &types.TokenClaims{UserID: uuid.New(), Username: "cook"},
	}
	router := authTestRouter(validator)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	validator.Claims.IsAdmin = true
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	validator := &testhelpers.MockTokenValidator{
		Claims: &types.TokenClaims{UserID: uuid.New(), Username: "cook"},
	}
	router := authTestRouter(validator)

	// Anonymous requests pass through.
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/public", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "false")

	// A valid token authenticates the request.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/public", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), "true")

	// A broken token is ignored rather than rejected.
	badValidator := &testhelpers.MockTokenValidator{Error: errors.New("bad token")}
	router = authTestRouter(badValidator)
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/public", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "false")
}
