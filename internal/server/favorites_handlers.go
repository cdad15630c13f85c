package server

import (
	"podlib/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikePodcast handles POST /api/like
func (s *Server) LikePodcast(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Podcast models.PodcastRef `json:"podcast"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	if err := s.favorites.Like(c.UserContext(), userID, req.Podcast); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// UnlikePodcast handles PUT /api/unlike
func (s *Server) UnlikePodcast(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		PodcastID string `json:"podcastId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	if err := s.favorites.Unlike(c.UserContext(), userID, req.PodcastID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// ClearLikes handles POST /api/clear-likes
func (s *Server) ClearLikes(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.favorites.Clear(c.UserContext(), userID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetLiked handles GET /api/liked?email=...
// The response is the bare liked array, insertion order preserved.
func (s *Server) GetLiked(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return respondError(c, models.NewValidationError("Email is required"))
	}

	liked, err := s.favorites.ListByEmail(c.UserContext(), email)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(liked)
}
