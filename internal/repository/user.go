// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"podlib/internal/cache"
	"podlib/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users and their liked podcasts.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateName(ctx context.Context, userID uint, name string) error

	AddLike(ctx context.Context, row models.LikedPodcast) error
	RemoveLike(ctx context.Context, userID uint, podcastID string) error
	ClearLikes(ctx context.Context, userID uint) error
	ListLikes(ctx context.Context, userID uint) ([]models.LikedPodcast, error)

	SetProfileImage(ctx context.Context, userID uint, data []byte, contentType string) error
	GetProfileImage(ctx context.Context, userID uint) ([]byte, string, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateEmailError()
		}
		return models.NewInternalError(err)
	}
	return nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505, SQLite "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// UpdateName writes only the display name. Field-level updates keep cached
// reads (which exclude the password hash) from ever being written back whole.
func (r *userRepository) UpdateName(ctx context.Context, userID uint, name string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("name", name)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User")
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

// AddLike is an idempotent set-insert: the composite unique index on
// (user_id, podcast_id) plus ON CONFLICT DO NOTHING makes a repeated like a
// no-op at the storage layer.
func (r *userRepository) AddLike(ctx context.Context, row models.LikedPodcast) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, row.UserID)
	return nil
}

// RemoveLike deletes any entry matching the podcast identifier. Removing an
// absent entry is a successful no-op.
func (r *userRepository) RemoveLike(ctx context.Context, userID uint, podcastID string) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND podcast_id = ?", userID, podcastID).
		Delete(&models.LikedPodcast{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

func (r *userRepository) ClearLikes(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.LikedPodcast{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

// ListLikes returns the liked set in insertion order.
func (r *userRepository) ListLikes(ctx context.Context, userID uint) ([]models.LikedPodcast, error) {
	var likes []models.LikedPodcast
	key := cache.LikedKey(userID)

	err := cache.Aside(ctx, key, &likes, cache.LikedTTL, func() error {
		if err := r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("id ASC").
			Find(&likes).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return likes, nil
}

func (r *userRepository) SetProfileImage(ctx context.Context, userID uint, data []byte, contentType string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"profile_image":      data,
			"profile_image_type": contentType,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User")
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

// GetProfileImage reads the stored image directly, bypassing the cache: the
// cached user projection deliberately excludes the image bytes.
func (r *userRepository) GetProfileImage(ctx context.Context, userID uint) ([]byte, string, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Select("profile_image", "profile_image_type").
		First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", models.NewNotFoundError("User")
		}
		return nil, "", models.NewInternalError(err)
	}
	return user.ProfileImage, user.ProfileImageType, nil
}
