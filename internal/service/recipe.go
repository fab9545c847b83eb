package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram-project/backend/internal/models"
)

const (
	minCookingTime = 1
	maxCookingTime = 300
	minAmount      = 1
	maxAmount      = 32
)

// RecipeInput is the write-side shape of a recipe: scalar fields plus
// ID-only references for tags and ingredients.
type RecipeInput struct {
	Name        string
	Image       string // base64 payload; empty on update keeps the current image
	Text        string
	CookingTime int
	TagIDs      []uuid.UUID
	Ingredients []IngredientAmount
}

type IngredientAmount struct {
	IngredientID uuid.UUID
	Amount       int
}

// RecipeFilter narrows the recipe listing. FavoritedBy/InCartOf are only
// set when the corresponding query flag is truthy and the requester is
// authenticated.
type RecipeFilter struct {
	TagSlugs    []string
	AuthorID    *uuid.UUID
	FavoritedBy *uuid.UUID
	InCartOf    *uuid.UUID
}

// ShoppingItem is one aggregated line of the shopping list.
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Total           int
}

// RecipeService owns recipe CRUD, the favorite/cart toggles and the
// shopping-list aggregation.
type RecipeService struct {
	db     *gorm.DB
	images *ImageService
}

func NewRecipeService(db *gorm.DB, images *ImageService) *RecipeService {
	return &RecipeService{db: db, images: images}
}

// withAssociations preloads author, tags and ingredient rows; tag and
// ingredient associations come back ordered by the related name.
func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Select("recipe_tags.*").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Order("tags.name")
		}).
		Preload("Tags.Tag").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Select("recipe_ingredients.*").
				Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
				Order("ingredients.name")
		}).
		Preload("Ingredients.Ingredient")
}

// GetWithAssociations loads a recipe with its tags, ingredient rows and
// author in one shot, ordered by tag and ingredient name.
func (s *RecipeService) GetWithAssociations(id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := withAssociations(s.db).First(&recipe, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// Create validates the payload, stores the image and writes the recipe and
// its association rows in one transaction. The author is always the
// authenticated requester.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, input RecipeInput) (*models.Recipe, error) {
	if err := s.validate(input, true); err != nil {
		return nil, err
	}

	imageURL, err := s.images.Store(ctx, input.Image)
	if err != nil {
		return nil, newValidationError("image", err.Error())
	}

	recipe := models.Recipe{
		AuthorID:    &authorID,
		Name:        input.Name,
		ImageURL:    imageURL,
		Text:        input.Text,
		CookingTime: input.CookingTime,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		return createAssociations(tx, recipe.ID, input)
	})
	if err != nil {
		return nil, err
	}

	return s.GetWithAssociations(recipe.ID)
}

// Update replaces the recipe's fields and fully replaces its tag and
// ingredient association rows (clear, then reinsert). Only the author or
// an admin may update.
func (s *RecipeService) Update(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool, input RecipeInput) (*models.Recipe, error) {
	recipe, err := s.GetWithAssociations(id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && (recipe.AuthorID == nil || *recipe.AuthorID != requesterID) {
		return nil, ErrNotAllowed
	}

	if err := s.validate(input, input.Image != ""); err != nil {
		return nil, err
	}

	imageURL := recipe.ImageURL
	if input.Image != "" {
		imageURL, err = s.images.Store(ctx, input.Image)
		if err != nil {
			return nil, newValidationError("image", err.Error())
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":         input.Name,
			"image_url":    imageURL,
			"text":         input.Text,
			"cooking_time": input.CookingTime,
		}
		if err := tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.RecipeTag{}, "recipe_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.RecipeIngredient{}, "recipe_id = ?", id).Error; err != nil {
			return err
		}
		return createAssociations(tx, id, input)
	})
	if err != nil {
		return nil, err
	}

	return s.GetWithAssociations(id)
}

// Delete removes a recipe; the association, favorite and cart rows cascade.
func (s *RecipeService) Delete(id, requesterID uuid.UUID, isAdmin bool) error {
	recipe, err := s.GetWithAssociations(id)
	if err != nil {
		return err
	}
	if !isAdmin && (recipe.AuthorID == nil || *recipe.AuthorID != requesterID) {
		return ErrNotAllowed
	}
	return s.db.Delete(&models.Recipe{}, "id = ?", id).Error
}

// List returns one page of recipes, newest first, with the total count.
func (s *RecipeService) List(filter RecipeFilter, offset, limit int) ([]models.Recipe, int64, error) {
	query := s.db.Model(&models.Recipe{})

	if len(filter.TagSlugs) > 0 {
		tagged := s.db.Model(&models.RecipeTag{}).
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if filter.FavoritedBy != nil {
		favorited := s.db.Model(&models.Favorite{}).
			Select("favorites.recipe_id").
			Where("favorites.user_id = ?", *filter.FavoritedBy)
		query = query.Where("recipes.id IN (?)", favorited)
	}
	if filter.InCartOf != nil {
		inCart := s.db.Model(&models.Cart{}).
			Select("carts.recipe_id").
			Where("carts.user_id = ?", *filter.InCartOf)
		query = query.Where("recipes.id IN (?)", inCart)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := withAssociations(query).
		Order("recipes.created_at DESC").
		Offset(offset).Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, count, nil
}

// ByAuthor returns an author's recipes, newest first, optionally truncated.
func (s *RecipeService) ByAuthor(authorID uuid.UUID, limit int) ([]models.Recipe, error) {
	query := s.db.Where("author_id = ?", authorID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (s *RecipeService) CountByAuthor(authorID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Recipe{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

// Favorite creates the (user, recipe) favorite row. A duplicate POST is a
// conflict, whether caught by the pre-check or by the unique index.
func (s *RecipeService) Favorite(userID, recipeID uuid.UUID) (*models.Recipe, error) {
	return s.toggleOn(userID, recipeID, &models.Favorite{UserID: userID, RecipeID: recipeID},
		s.db.Model(&models.Favorite{}))
}

func (s *RecipeService) Unfavorite(userID, recipeID uuid.UUID) error {
	return s.toggleOff(userID, recipeID, &models.Favorite{})
}

// AddToCart queues the recipe for the user's shopping list.
func (s *RecipeService) AddToCart(userID, recipeID uuid.UUID) (*models.Recipe, error) {
	return s.toggleOn(userID, recipeID, &models.Cart{UserID: userID, RecipeID: recipeID},
		s.db.Model(&models.Cart{}))
}

func (s *RecipeService) RemoveFromCart(userID, recipeID uuid.UUID) error {
	return s.toggleOff(userID, recipeID, &models.Cart{})
}

func (s *RecipeService) toggleOn(userID, recipeID uuid.UUID, row interface{}, model *gorm.DB) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var count int64
	if err := model.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyExists
	}

	if err := s.db.Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return &recipe, nil
}

func (s *RecipeService) toggleOff(userID, recipeID uuid.UUID, row interface{}) error {
	if err := s.db.First(&models.Recipe{}, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	result := s.db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Flags reports which of the given recipes the requester has favorited and
// carted; both maps are empty for uuid.Nil (anonymous) requesters.
func (s *RecipeService) Flags(requesterID uuid.UUID, recipeIDs []uuid.UUID) (favorited, inCart map[uuid.UUID]bool, err error) {
	favorited = map[uuid.UUID]bool{}
	inCart = map[uuid.UUID]bool{}
	if requesterID == uuid.Nil || len(recipeIDs) == 0 {
		return favorited, inCart, nil
	}

	var favs []models.Favorite
	if err := s.db.Where("user_id = ? AND recipe_id IN ?", requesterID, recipeIDs).Find(&favs).Error; err != nil {
		return nil, nil, err
	}
	for _, f := range favs {
		favorited[f.RecipeID] = true
	}

	var carts []models.Cart
	if err := s.db.Where("user_id = ? AND recipe_id IN ?", requesterID, recipeIDs).Find(&carts).Error; err != nil {
		return nil, nil, err
	}
	for _, c := range carts {
		inCart[c.RecipeID] = true
	}
	return favorited, inCart, nil
}

// ShoppingList aggregates the ingredients of every recipe in the user's
// cart: grouped by (name, unit), amounts summed, sorted by name.
func (s *RecipeService) ShoppingList(userID uuid.UUID) ([]ShoppingItem, error) {
	var items []ShoppingItem
	err := s.db.Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN carts ON carts.recipe_id = recipe_ingredients.recipe_id").
		Where("carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	return items, nil
}

// validate applies the write-contract checks in order: tags, cooking time,
// ingredients. Nothing is persisted when any check fails.
func (s *RecipeService) validate(input RecipeInput, imageRequired bool) error {
	if input.Name == "" {
		return newValidationError("name", "name is required")
	}
	if imageRequired && input.Image == "" {
		return newValidationError("image", "image is required")
	}

	for _, tagID := range input.TagIDs {
		var count int64
		if err := s.db.Model(&models.Tag{}).Where("id = ?", tagID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return newValidationError("tags", "selected tag does not exist")
		}
	}

	if input.CookingTime < minCookingTime {
		return newValidationError("cooking_time", "cooking time must be at least one minute")
	}
	if input.CookingTime > maxCookingTime {
		return newValidationError("cooking_time", "cooking time is too long")
	}

	if len(input.Ingredients) == 0 {
		return newValidationError("ingredients", "ingredients are required")
	}
	seen := make(map[uuid.UUID]bool, len(input.Ingredients))
	for _, ing := range input.Ingredients {
		if seen[ing.IngredientID] {
			return newValidationError("ingredients", "ingredients must be unique")
		}
		seen[ing.IngredientID] = true

		if ing.Amount < minAmount {
			return newValidationError("ingredients", "ingredient amount must be greater than 0")
		}
		if ing.Amount > maxAmount {
			return newValidationError("ingredients", "ingredient amount is too large")
		}

		var count int64
		if err := s.db.Model(&models.Ingredient{}).Where("id = ?", ing.IngredientID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return newValidationError("ingredients", "selected ingredient does not exist")
		}
	}
	return nil
}

// createAssociations bulk-inserts the tag and ingredient rows for a recipe.
func createAssociations(tx *gorm.DB, recipeID uuid.UUID, input RecipeInput) error {
	if len(input.TagIDs) > 0 {
		tagRows := make([]models.RecipeTag, 0, len(input.TagIDs))
		for _, tagID := range input.TagIDs {
			tagRows = append(tagRows, models.RecipeTag{RecipeID: recipeID, TagID: tagID})
		}
		if err := tx.Create(&tagRows).Error; err != nil {
			return err
		}
	}

	ingredientRows := make([]models.RecipeIngredient, 0, len(input.Ingredients))
	for _, ing := range input.Ingredients {
		ingredientRows = append(ingredientRows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: ing.IngredientID,
			Amount:       ing.Amount,
		})
	}
	return tx.Create(&ingredientRows).Error
}
