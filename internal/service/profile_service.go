package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"podlib/internal/cache"
	"podlib/internal/models"
	"podlib/internal/repository"
	"podlib/internal/validation"
)

// MaxProfileImageBytes caps profile image uploads.
const MaxProfileImageBytes = 5 * 1024 * 1024

// ProfileService serves profile aggregation and profile mutations.
type ProfileService struct {
	userRepo repository.UserRepository
}

// NewProfileService returns a ProfileService backed by the given repository.
func NewProfileService(userRepo repository.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo}
}

// GetByEmail aggregates the public profile projection for the given email.
// The assembled aggregate is cached per user and invalidated by every
// favorites or profile mutation.
func (s *ProfileService) GetByEmail(ctx context.Context, email string) (*models.ProfileResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User")
	}

	var profile models.ProfileResponse
	err = cache.Aside(ctx, cache.ProfileKey(user.ID), &profile, cache.ProfileTTL, func() error {
		rows, err := s.userRepo.ListLikes(ctx, user.ID)
		if err != nil {
			return err
		}
		liked := make([]models.PodcastRef, 0, len(rows))
		for i := range rows {
			liked = append(liked, rows[i].ToRef())
		}

		profile = models.ProfileResponse{
			Name:          user.Name,
			Email:         user.Email,
			LikedPodcasts: liked,
			CreatedAt:     user.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateName changes the caller's display name.
func (s *ProfileService) UpdateName(ctx context.Context, userID uint, name string) error {
	if err := validation.ValidateName(name); err != nil {
		return models.NewValidationError(err.Error())
	}
	return s.userRepo.UpdateName(ctx, userID, name)
}

// SetImage validates and stores a profile image. The stored content type is
// sniffed from the bytes, not taken from the upload headers.
func (s *ProfileService) SetImage(ctx context.Context, userID uint, content []byte) error {
	if len(content) == 0 {
		return models.NewValidationError("No file uploaded")
	}
	if len(content) > MaxProfileImageBytes {
		return models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", MaxProfileImageBytes/(1024*1024)))
	}

	contentType := http.DetectContentType(content)
	if !strings.HasPrefix(contentType, "image/") {
		return models.NewValidationError("Invalid image type")
	}

	return s.userRepo.SetProfileImage(ctx, userID, content, contentType)
}

// GetImage returns the stored image bytes and content type, or NotFound when
// the user has no profile image.
func (s *ProfileService) GetImage(ctx context.Context, userID uint) ([]byte, string, error) {
	data, contentType, err := s.userRepo.GetProfileImage(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", models.NewNotFoundError("Profile image")
	}
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}
