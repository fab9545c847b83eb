package service

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram-project/backend/internal/models"
)

// UserService handles user reads and the follow toggle.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Get(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns one page of users with the total count.
func (s *UserService) List(offset, limit int) ([]models.User, int64, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := s.db.Order("username").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

// Follow subscribes the requester to the author. Self-follows are rejected
// before the existence check; duplicates are conflicts either via the
// pre-check or the unique index under a race.
func (s *UserService) Follow(userID, authorID uuid.UUID) (*models.User, error) {
	if userID == authorID {
		return nil, ErrSelfFollow
	}

	author, err := s.Get(authorID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Follow{}).Where("user_id = ? AND author_id = ?", userID, authorID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyExists
	}

	follow := models.Follow{UserID: userID, AuthorID: authorID}
	if err := s.db.Create(&follow).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return author, nil
}

// Unfollow removes the subscription; missing rows are not found.
func (s *UserService) Unfollow(userID, authorID uuid.UUID) error {
	if userID == authorID {
		return ErrSelfFollow
	}
	if _, err := s.Get(authorID); err != nil {
		return err
	}

	result := s.db.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&models.Follow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Subscriptions returns one page of the authors the user follows.
func (s *UserService) Subscriptions(userID uuid.UUID, offset, limit int) ([]models.User, int64, error) {
	followed := s.db.Model(&models.Follow{}).
		Select("follows.author_id").
		Where("follows.user_id = ?", userID)

	query := s.db.Model(&models.User{}).Where("users.id IN (?)", followed)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var authors []models.User
	err := query.Order("username").Offset(offset).Limit(limit).Find(&authors).Error
	if err != nil {
		return nil, 0, err
	}
	return authors, count, nil
}

// IsSubscribed reports whether the requester follows the author; false for
// anonymous requesters.
func (s *UserService) IsSubscribed(requesterID, authorID uuid.UUID) (bool, error) {
	if requesterID == uuid.Nil {
		return false, nil
	}
	var count int64
	err := s.db.Model(&models.Follow{}).Where("user_id = ? AND author_id = ?", requesterID, authorID).Count(&count).Error
	return count > 0, err
}

// FollowingSet reports which of the given authors the requester follows.
func (s *UserService) FollowingSet(requesterID uuid.UUID, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	following := map[uuid.UUID]bool{}
	if requesterID == uuid.Nil || len(authorIDs) == 0 {
		return following, nil
	}

	var follows []models.Follow
	if err := s.db.Where("user_id = ? AND author_id IN ?", requesterID, authorIDs).Find(&follows).Error; err != nil {
		return nil, err
	}
	for _, f := range follows {
		following[f.AuthorID] = true
	}
	return following, nil
}
