package api

import (
	"github.com/google/uuid"

	"github.com/foodgram-project/backend/internal/models"
)

// UserResponse is the public profile projection.
type UserResponse struct {
	Email        string    `json:"email"`
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
}

// SubscriptionResponse extends the profile with the author's recipes and
// recipe count; returned on subscribe and in the subscriptions listing.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []ShortRecipeResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

// TagResponse is the full tag projection, nested into recipes.
type TagResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
	Slug  string    `json:"slug"`
}

// IngredientResponse is the standalone ingredient projection.
type IngredientResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
}

// RecipeIngredientResponse enriches an association row with the related
// ingredient's name and unit.
type RecipeIngredientResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

// RecipeResponse is the read projection of a recipe. Writes respond with
// this same shape, so GET after POST/PATCH returns identical payloads.
type RecipeResponse struct {
	ID               uuid.UUID                  `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           *UserResponse              `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// ShortRecipeResponse is the compact shape used by the favorite/cart
// toggles and inside subscription payloads.
type ShortRecipeResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

// RecipeWriteRequest is the write projection: scalars plus ID references.
// Numeric fields skip binding:"required" so a zero value reaches the
// service layer and comes back as a field-scoped validation message.
type RecipeWriteRequest struct {
	Name        string                  `json:"name" binding:"required"`
	Image       string                  `json:"image"`
	Text        string                  `json:"text" binding:"required"`
	CookingTime int                     `json:"cooking_time"`
	Tags        []uuid.UUID             `json:"tags"`
	Ingredients []IngredientAmountInput `json:"ingredients"`
}

type IngredientAmountInput struct {
	ID     uuid.UUID `json:"id" binding:"required"`
	Amount int       `json:"amount"`
}

type TagWriteRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color" binding:"required"`
	Slug  string `json:"slug" binding:"required"`
}

type IngredientWriteRequest struct {
	Name            string `json:"name" binding:"required"`
	MeasurementUnit string `json:"measurement_unit" binding:"required"`
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required,min=3,max=150"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

func toUserResponse(user *models.User, isSubscribed bool) UserResponse {
	return UserResponse{
		Email:        user.Email,
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: isSubscribed,
	}
}

func toTagResponse(tag *models.Tag) TagResponse {
	return TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color, Slug: tag.Slug}
}

func toIngredientResponse(ing *models.Ingredient) IngredientResponse {
	return IngredientResponse{ID: ing.ID, Name: ing.Name, MeasurementUnit: ing.MeasurementUnit}
}

func toShortRecipeResponse(recipe *models.Recipe) ShortRecipeResponse {
	return ShortRecipeResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}

// toRecipeResponse maps a loaded recipe and its per-requester flags to the
// read projection.
func toRecipeResponse(recipe *models.Recipe, favorited, inCart, subscribed bool) RecipeResponse {
	tags := make([]TagResponse, 0, len(recipe.Tags))
	for i := range recipe.Tags {
		tags = append(tags, toTagResponse(&recipe.Tags[i].Tag))
	}

	ingredients := make([]RecipeIngredientResponse, 0, len(recipe.Ingredients))
	for i := range recipe.Ingredients {
		row := &recipe.Ingredients[i]
		ingredients = append(ingredients, RecipeIngredientResponse{
			ID:              row.IngredientID,
			Name:            row.Ingredient.Name,
			MeasurementUnit: row.Ingredient.MeasurementUnit,
			Amount:          row.Amount,
		})
	}

	var author *UserResponse
	if recipe.Author != nil {
		resp := toUserResponse(recipe.Author, subscribed)
		author = &resp
	}

	return RecipeResponse{
		ID:               recipe.ID,
		Tags:             tags,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Name:             recipe.Name,
		Image:            recipe.ImageURL,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}
}
