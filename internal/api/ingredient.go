package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram-project/backend/internal/middleware"
	"github.com/foodgram-project/backend/internal/service"
)

// IngredientHandler serves the public ingredient reads with prefix search,
// plus admin-only writes.
type IngredientHandler struct {
	ingredientService *service.IngredientService
	authService       *service.AuthService
}

func NewIngredientHandler(ingredientService *service.IngredientService, authService *service.AuthService) *IngredientHandler {
	return &IngredientHandler{ingredientService: ingredientService, authService: authService}
}

func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	ingredients := router.Group("/ingredients")
	{
		ingredients.GET("", h.ListIngredients)
		ingredients.GET("/:id", h.GetIngredient)

		admin := ingredients.Group("", middleware.AuthMiddleware(h.authService), middleware.AdminRequired())
		{
			admin.POST("", h.CreateIngredient)
			admin.DELETE("/:id", h.DeleteIngredient)
		}
	}
}

func (h *IngredientHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.ingredientService.List(c.Query("name"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	results := make([]IngredientResponse, 0, len(ingredients))
	for i := range ingredients {
		results = append(results, toIngredientResponse(&ingredients[i]))
	}
	c.JSON(http.StatusOK, results)
}

func (h *IngredientHandler) GetIngredient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	ingredient, err := h.ingredientService.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toIngredientResponse(ingredient))
}

func (h *IngredientHandler) CreateIngredient(c *gin.Context) {
	var req IngredientWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ingredient, err := h.ingredientService.Create(req.Name, req.MeasurementUnit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toIngredientResponse(ingredient))
}

func (h *IngredientHandler) DeleteIngredient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	if err := h.ingredientService.Delete(id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
