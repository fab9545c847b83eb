package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram-project/backend/internal/middleware"
	"github.com/foodgram-project/backend/internal/models"
	"github.com/foodgram-project/backend/internal/service"
)

// RecipeHandler serves recipe CRUD, the favorite/cart toggles and the
// shopping-list download.
type RecipeHandler struct {
	recipeService *service.RecipeService
	userService   *service.UserService
	authService   *service.AuthService
	rateLimiter   *middleware.RateLimiter
	pageSize      int
}

func NewRecipeHandler(
	recipeService *service.RecipeService,
	userService *service.UserService,
	authService *service.AuthService,
	rateLimiter *middleware.RateLimiter,
	pageSize int,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		userService:   userService,
		authService:   authService,
		rateLimiter:   rateLimiter,
		pageSize:      pageSize,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")

	optional := middleware.OptionalAuthMiddleware(h.authService)
	required := middleware.AuthMiddleware(h.authService)

	recipes.GET("", optional, h.ListRecipes)
	recipes.GET("/download_shopping_cart", required, h.DownloadShoppingCart)
	recipes.GET("/:id", optional, h.GetRecipe)

	create := []gin.HandlerFunc{required}
	if h.rateLimiter != nil {
		create = append(create, h.rateLimiter.RateLimitMiddleware())
	}
	recipes.POST("", append(create, h.CreateRecipe)...)

	recipes.PUT("/:id", required, h.UpdateRecipe)
	recipes.PATCH("/:id", required, h.UpdateRecipe)
	recipes.DELETE("/:id", required, h.DeleteRecipe)

	recipes.POST("/:id/favorite", required, h.FavoriteRecipe)
	recipes.DELETE("/:id/favorite", required, h.UnfavoriteRecipe)
	recipes.POST("/:id/shopping_cart", required, h.AddToCart)
	recipes.DELETE("/:id/shopping_cart", required, h.RemoveFromCart)
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	requesterID, authenticated := middleware.RequesterID(c)

	filter := service.RecipeFilter{}
	if tags := c.QueryArray("tags"); len(tags) > 0 {
		filter.TagSlugs = tags
	}
	if author := c.Query("author"); author != "" {
		authorID, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id"})
			return
		}
		filter.AuthorID = &authorID
	}
	if authenticated && truthy(c.Query("is_favorited")) {
		filter.FavoritedBy = &requesterID
	}
	if authenticated && truthy(c.Query("is_in_shopping_cart")) {
		filter.InCartOf = &requesterID
	}

	params := parsePageParams(c, h.pageSize)
	recipes, count, err := h.recipeService.List(filter, params.Offset(), params.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	results, err := h.toRecipeResponses(requesterID, recipes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginate(c, params, count, results))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	recipe, err := h.recipeService.GetWithAssociations(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	requesterID, _ := middleware.RequesterID(c)
	resp, err := h.toSingleRecipeResponse(requesterID, recipe)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	requesterID, ok := middleware.RequesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), requesterID, toRecipeInput(req))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp, err := h.toSingleRecipeResponse(requesterID, recipe)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	requesterID, ok := middleware.RequesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	var req RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), id, requesterID, isAdmin(c), toRecipeInput(req))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp, err := h.toSingleRecipeResponse(requesterID, recipe)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	requesterID, _ := middleware.RequesterID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	if err := h.recipeService.Delete(id, requesterID, isAdmin(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) FavoriteRecipe(c *gin.Context) {
	h.toggleOn(c, h.recipeService.Favorite)
}

func (h *RecipeHandler) UnfavoriteRecipe(c *gin.Context) {
	h.toggleOff(c, h.recipeService.Unfavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.toggleOn(c, h.recipeService.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.toggleOff(c, h.recipeService.RemoveFromCart)
}

func (h *RecipeHandler) toggleOn(c *gin.Context, op func(userID, recipeID uuid.UUID) (*models.Recipe, error)) {
	requesterID, _ := middleware.RequesterID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	recipe, err := op(requesterID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toShortRecipeResponse(recipe))
}

func (h *RecipeHandler) toggleOff(c *gin.Context, op func(userID, recipeID uuid.UUID) error) {
	requesterID, _ := middleware.RequesterID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	if err := op(requesterID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart renders the aggregated shopping list as a plain
// text attachment named {username}_shopping_list.txt.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	requesterID, _ := middleware.RequesterID(c)

	items, err := h.recipeService.ShoppingList(requesterID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	username := c.GetString("username")

	var sb strings.Builder
	fmt.Fprintf(&sb, "Shopping list for %s\n%s\n\n", username, time.Now().Format("2006-01-02 15:04"))
	for _, item := range items {
		fmt.Fprintf(&sb, "%s (%s) - %d\n", item.Name, item.MeasurementUnit, item.Total)
	}

	filename := fmt.Sprintf("%s_shopping_list.txt", username)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(sb.String()))
}

// toRecipeResponses maps recipes to the read projection with per-requester
// flags resolved in two batch lookups.
func (h *RecipeHandler) toRecipeResponses(requesterID uuid.UUID, recipes []models.Recipe) ([]RecipeResponse, error) {
	recipeIDs := make([]uuid.UUID, 0, len(recipes))
	authorIDs := make([]uuid.UUID, 0, len(recipes))
	for i := range recipes {
		recipeIDs = append(recipeIDs, recipes[i].ID)
		if recipes[i].AuthorID != nil {
			authorIDs = append(authorIDs, *recipes[i].AuthorID)
		}
	}

	favorited, inCart, err := h.recipeService.Flags(requesterID, recipeIDs)
	if err != nil {
		return nil, err
	}
	following, err := h.userService.FollowingSet(requesterID, authorIDs)
	if err != nil {
		return nil, err
	}

	results := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		recipe := &recipes[i]
		subscribed := recipe.AuthorID != nil && following[*recipe.AuthorID]
		results = append(results, toRecipeResponse(recipe, favorited[recipe.ID], inCart[recipe.ID], subscribed))
	}
	return results, nil
}

func (h *RecipeHandler) toSingleRecipeResponse(requesterID uuid.UUID, recipe *models.Recipe) (RecipeResponse, error) {
	results, err := h.toRecipeResponses(requesterID, []models.Recipe{*recipe})
	if err != nil {
		return RecipeResponse{}, err
	}
	return results[0], nil
}

func toRecipeInput(req RecipeWriteRequest) service.RecipeInput {
	ingredients := make([]service.IngredientAmount, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		ingredients = append(ingredients, service.IngredientAmount{
			IngredientID: ing.ID,
			Amount:       ing.Amount,
		})
	}
	return service.RecipeInput{
		Name:        req.Name,
		Image:       req.Image,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
		Ingredients: ingredients,
	}
}

func isAdmin(c *gin.Context) bool {
	val, exists := c.Get("is_admin")
	if !exists {
		return false
	}
	admin, _ := val.(bool)
	return admin
}

func truthy(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes":
		return true
	}
	return false
}
