package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodgram-project/backend/internal/api"
	"github.com/foodgram-project/backend/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(
	authHandler *api.AuthHandler,
	userHandler *api.UserHandler,
	tagHandler *api.TagHandler,
	ingredientHandler *api.IngredientHandler,
	recipeHandler *api.RecipeHandler,
	mediaDir string,
	mediaURL string,
) *gin.Engine {
	router := gin.Default()

	// CORS middleware
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Uploaded images are served from local disk unless S3 is configured.
	if mediaDir != "" && mediaURL != "" {
		router.Static(mediaURL, mediaDir)
	}

	apiGroup := router.Group("/api")

	authHandler.RegisterRoutes(apiGroup)
	userHandler.RegisterRoutes(apiGroup)
	tagHandler.RegisterRoutes(apiGroup)
	ingredientHandler.RegisterRoutes(apiGroup)
	recipeHandler.RegisterRoutes(apiGroup)

	return router
}
