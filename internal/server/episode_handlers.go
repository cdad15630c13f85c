package server

import (
	"podlib/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetEpisodes handles GET /api/episodes?feedUrl=...
// The response is the bare array of episodes with playable audio.
func (s *Server) GetEpisodes(c *fiber.Ctx) error {
	feedURL := c.Query("feedUrl")
	if feedURL == "" {
		return respondError(c, models.NewValidationError("feedUrl parameter is required"))
	}

	episodes, err := s.episodes.FetchEpisodes(c.UserContext(), feedURL)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewUpstreamError("Failed to fetch episodes", err))
	}

	return c.JSON(episodes)
}
