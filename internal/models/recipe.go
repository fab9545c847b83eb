package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Recipe struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	AuthorID    *uuid.UUID `gorm:"type:uuid;index" json:"author_id"`
	Author      *User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"-"`
	Name        string     `gorm:"size:200;not null" json:"name"`
	ImageURL    string     `gorm:"size:255" json:"image"`
	Text        string     `gorm:"size:5000;not null" json:"text"`
	CookingTime int        `gorm:"not null;check:cooking_time >= 1 AND cooking_time <= 300" json:"cooking_time"`

	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"-"`
	Tags        []RecipeTag        `gorm:"foreignKey:RecipeID" json:"-"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RecipeIngredient is the recipe/ingredient association row carrying the
// quantity of the ingredient in the recipe.
type RecipeIngredient struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredient_pair" json:"recipe_id"`
	IngredientID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredient_pair" json:"ingredient_id"`
	Amount       int        `gorm:"not null;check:amount >= 1 AND amount <= 32" json:"amount"`
	Recipe       Recipe     `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RecipeIngredient) TableName() string { return "recipe_ingredients" }

func (ri *RecipeIngredient) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}

type RecipeTag struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_tag_pair" json:"recipe_id"`
	TagID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_tag_pair" json:"tag_id"`
	Recipe   Recipe    `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
	Tag      Tag       `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RecipeTag) TableName() string { return "recipe_tags" }

func (rt *RecipeTag) BeforeCreate(tx *gorm.DB) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	return nil
}
