package server

import (
	"errors"

	"podlib/internal/catalog"
	"podlib/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SearchPodcasts handles GET /api/search?query=...
// The response is the bare array of mapped podcasts.
func (s *Server) SearchPodcasts(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return respondError(c, models.NewValidationError("Query parameter is required"))
	}

	results, err := s.catalog.Search(c.UserContext(), query)
	if err != nil {
		// A non-200 directory answer keeps its status code on the way out.
		var statusErr *catalog.StatusError
		if errors.As(err, &statusErr) {
			return models.RespondWithError(c, statusErr.StatusCode,
				models.NewUpstreamError("Failed to search podcasts", err))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewUpstreamError("Failed to search podcasts", err))
	}

	return c.JSON(results)
}
