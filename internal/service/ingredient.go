package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram-project/backend/internal/models"
)

// likeEscaper neutralizes LIKE metacharacters in user-supplied search
// terms so "100%" matches a literal percent sign, not a wildcard.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// IngredientService handles ingredient reads, prefix search and seeding.
type IngredientService struct {
	db *gorm.DB
}

func NewIngredientService(db *gorm.DB) *IngredientService {
	return &IngredientService{db: db}
}

// List returns ingredients, optionally narrowed to a case-insensitive
// prefix match on name.
func (s *IngredientService) List(namePrefix string) ([]models.Ingredient, error) {
	query := s.db.Order("name")
	if namePrefix != "" {
		query = query.Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\'`, likeEscaper.Replace(namePrefix)+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (s *IngredientService) Get(id uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.First(&ingredient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ingredient, nil
}

func (s *IngredientService) Create(name, measurementUnit string) (*models.Ingredient, error) {
	if name == "" {
		return nil, newValidationError("name", "name is required")
	}
	if measurementUnit == "" {
		return nil, newValidationError("measurement_unit", "measurement unit is required")
	}

	ingredient := models.Ingredient{Name: name, MeasurementUnit: measurementUnit}
	if err := s.db.Create(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (s *IngredientService) Delete(id uuid.UUID) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.db.Delete(&models.Ingredient{}, "id = ?", id).Error
}

// GetOrCreate deduplicates on the (name, unit) pair; the schema does not
// enforce that uniqueness, the loader does.
func (s *IngredientService) GetOrCreate(name, measurementUnit string) (*models.Ingredient, bool, error) {
	var ingredient models.Ingredient
	err := s.db.Where("name = ? AND measurement_unit = ?", name, measurementUnit).First(&ingredient).Error
	if err == nil {
		return &ingredient, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	created, err := s.Create(name, measurementUnit)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}
