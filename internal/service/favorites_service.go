// Package service contains the application's business logic between handlers
// and repositories.
package service

import (
	"context"

	"podlib/internal/models"
	"podlib/internal/repository"
)

// FavoritesService owns the liked-podcast set of each user.
type FavoritesService struct {
	userRepo repository.UserRepository
}

// NewFavoritesService returns a FavoritesService backed by the given repository.
func NewFavoritesService(userRepo repository.UserRepository) *FavoritesService {
	return &FavoritesService{userRepo: userRepo}
}

// Like inserts the podcast into the user's liked set. Liking an already-liked
// podcast is a successful no-op.
func (s *FavoritesService) Like(ctx context.Context, userID uint, ref models.PodcastRef) error {
	if ref.ID.String() == "" {
		return models.NewValidationError("Podcast id is required")
	}
	return s.userRepo.AddLike(ctx, models.LikedPodcastFromRef(userID, ref))
}

// Unlike removes the podcast from the user's liked set. Unliking an absent
// podcast is a successful no-op.
func (s *FavoritesService) Unlike(ctx context.Context, userID uint, podcastID string) error {
	if podcastID == "" {
		return models.NewValidationError("Podcast id is required")
	}
	return s.userRepo.RemoveLike(ctx, userID, podcastID)
}

// Clear empties the user's liked set.
func (s *FavoritesService) Clear(ctx context.Context, userID uint) error {
	return s.userRepo.ClearLikes(ctx, userID)
}

// ListByUser returns the liked set in insertion order, in wire shape.
func (s *FavoritesService) ListByUser(ctx context.Context, userID uint) ([]models.PodcastRef, error) {
	rows, err := s.userRepo.ListLikes(ctx, userID)
	if err != nil {
		return nil, err
	}
	refs := make([]models.PodcastRef, 0, len(rows))
	for i := range rows {
		refs = append(refs, rows[i].ToRef())
	}
	return refs, nil
}

// ListByEmail resolves the owning user and returns their liked set. Used by
// the public read endpoints that look profiles up by email.
func (s *FavoritesService) ListByEmail(ctx context.Context, email string) ([]models.PodcastRef, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User")
	}
	return s.ListByUser(ctx, user.ID)
}
