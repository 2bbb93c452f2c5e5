package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// FindOrCreateFromGoogle returns the user for the given Google subject,
// creating one on first login. Name and picture are refreshed from the
// Google profile on every login.
func (s *userService) FindOrCreateFromGoogle(googleID, email, name, picture string) (*models.User, error) {
	if googleID == "" || email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "google id and email are required")
	}

	var user models.User
	err := s.db.Where("google_id = ?", googleID).First(&user).Error
	if err == nil {
		updates := map[string]interface{}{}
		if name != "" && name != user.Name {
			updates["name"] = name
		}
		if picture != "" && picture != user.Picture {
			updates["picture"] = picture
		}
		if len(updates) > 0 {
			if err := s.db.Model(&user).Updates(updates).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user = models.User{
		GoogleID: googleID,
		Email:    strings.ToLower(email),
		Name:     name,
		Picture:  picture,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}
