package service

import (
	"errors"
	"regexp"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram-project/backend/internal/models"
)

var hexColorRe = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// TagService handles tag reads and the admin-only writes.
type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

func (s *TagService) List() ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *TagService) Get(id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.First(&tag, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tag, nil
}

func (s *TagService) Create(name, color, slug string) (*models.Tag, error) {
	if err := validateTag(name, color, slug); err != nil {
		return nil, err
	}

	tag := models.Tag{Name: name, Color: color, Slug: slug}
	if err := s.db.Create(&tag).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, newValidationError("name", "tag with this name, color or slug already exists")
		}
		return nil, err
	}
	return &tag, nil
}

func (s *TagService) Update(id uuid.UUID, name, color, slug string) (*models.Tag, error) {
	tag, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := validateTag(name, color, slug); err != nil {
		return nil, err
	}

	tag.Name = name
	tag.Color = color
	tag.Slug = slug
	if err := s.db.Save(tag).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, newValidationError("name", "tag with this name, color or slug already exists")
		}
		return nil, err
	}
	return tag, nil
}

func (s *TagService) Delete(id uuid.UUID) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.db.Delete(&models.Tag{}, "id = ?", id).Error
}

func validateTag(name, color, slug string) error {
	verr := &ValidationError{}
	if name == "" {
		verr.add("name", "name is required")
	}
	if !hexColorRe.MatchString(color) {
		verr.add("color", "color must be a HEX code like #RRGGBB")
	}
	if slug == "" {
		verr.add("slug", "slug is required")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
