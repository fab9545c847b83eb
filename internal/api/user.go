package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram-project/backend/internal/middleware"
	"github.com/foodgram-project/backend/internal/models"
	"github.com/foodgram-project/backend/internal/service"
)

// UserHandler serves registration, user profiles and subscriptions.
type UserHandler struct {
	userService   *service.UserService
	recipeService *service.RecipeService
	authService   *service.AuthService
	pageSize      int
}

func NewUserHandler(
	userService *service.UserService,
	recipeService *service.RecipeService,
	authService *service.AuthService,
	pageSize int,
) *UserHandler {
	return &UserHandler{
		userService:   userService,
		recipeService: recipeService,
		authService:   authService,
		pageSize:      pageSize,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")

	optional := middleware.OptionalAuthMiddleware(h.authService)
	required := middleware.AuthMiddleware(h.authService)

	users.POST("", h.Register)
	users.GET("", optional, h.ListUsers)
	// Static routes are registered before /:id so the router does not
	// treat them as ids.
	users.GET("/subscriptions", required, h.Subscriptions)
	users.GET("/me", required, h.Me)
	users.GET("/:id", optional, h.GetUser)
	users.POST("/:id/subscribe", required, h.Subscribe)
	users.DELETE("/:id/subscribe", required, h.Unsubscribe)
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(req.Email, req.Username, req.FirstName, req.LastName, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user, false))
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	requesterID, _ := middleware.RequesterID(c)

	params := parsePageParams(c, h.pageSize)
	users, count, err := h.userService.List(params.Offset(), params.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	authorIDs := make([]uuid.UUID, 0, len(users))
	for i := range users {
		authorIDs = append(authorIDs, users[i].ID)
	}
	following, err := h.userService.FollowingSet(requesterID, authorIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	results := make([]UserResponse, 0, len(users))
	for i := range users {
		results = append(results, toUserResponse(&users[i], following[users[i].ID]))
	}
	c.JSON(http.StatusOK, paginate(c, params, count, results))
}

func (h *UserHandler) Me(c *gin.Context) {
	requesterID, ok := middleware.RequesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	user, err := h.userService.Get(requesterID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user, false))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	user, err := h.userService.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	requesterID, _ := middleware.RequesterID(c)
	subscribed, err := h.userService.IsSubscribed(requesterID, user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user, subscribed))
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	requesterID, ok := middleware.RequesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	params := parsePageParams(c, h.pageSize)
	authors, count, err := h.userService.Subscriptions(requesterID, params.Offset(), params.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	recipesLimit := parseRecipesLimit(c)
	results := make([]SubscriptionResponse, 0, len(authors))
	for i := range authors {
		resp, err := h.toSubscriptionResponse(&authors[i], recipesLimit)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		results = append(results, resp)
	}
	c.JSON(http.StatusOK, paginate(c, params, count, results))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	requesterID, _ := middleware.RequesterID(c)

	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	author, err := h.userService.Follow(requesterID, authorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp, err := h.toSubscriptionResponse(author, parseRecipesLimit(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	requesterID, _ := middleware.RequesterID(c)

	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	if err := h.userService.Unfollow(requesterID, authorID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// toSubscriptionResponse attaches the author's recipes, optionally
// truncated by recipes_limit, and the full recipe count.
func (h *UserHandler) toSubscriptionResponse(author *models.User, recipesLimit int) (SubscriptionResponse, error) {
	recipes, err := h.recipeService.ByAuthor(author.ID, recipesLimit)
	if err != nil {
		return SubscriptionResponse{}, err
	}
	count, err := h.recipeService.CountByAuthor(author.ID)
	if err != nil {
		return SubscriptionResponse{}, err
	}

	short := make([]ShortRecipeResponse, 0, len(recipes))
	for i := range recipes {
		short = append(short, toShortRecipeResponse(&recipes[i]))
	}
	return SubscriptionResponse{
		UserResponse: toUserResponse(author, true),
		Recipes:      short,
		RecipesCount: count,
	}, nil
}

func parseRecipesLimit(c *gin.Context) int {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
