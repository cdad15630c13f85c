package server

import (
	"io"

	"podlib/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/profile?email=...
func (s *Server) GetProfile(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return respondError(c, models.NewValidationError("Email is required"))
	}

	profile, err := s.profiles.GetByEmail(c.UserContext(), email)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(profile)
}

// UpdateProfileName handles PUT /api/profile
func (s *Server) UpdateProfileName(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	if err := s.profiles.UpdateName(c.UserContext(), userID, req.Name); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "name": req.Name})
}

// UploadProfileImage handles POST /api/profile/image (multipart field "image")
func (s *Server) UploadProfileImage(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return respondError(c, models.NewValidationError("No file uploaded"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	if err := s.profiles.SetImage(c.UserContext(), userID, content); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetProfileImage handles GET /api/profile/image
func (s *Server) GetProfileImage(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	data, contentType, err := s.profiles.GetImage(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}
