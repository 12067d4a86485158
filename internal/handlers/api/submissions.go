package api

import (
	"github.com/gofiber/fiber/v3"

	"punkdir/internal/db"
)

// SubmissionsHandler serves a user's own directory submissions.
type SubmissionsHandler struct {
	db *db.DB
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(database *db.DB) *SubmissionsHandler {
	return &SubmissionsHandler{db: database}
}

// List returns the signed-in user's submissions grouped by entity type.
func (h *SubmissionsHandler) List(c fiber.Ctx) error {
	user := currentUser(c)

	submissions, err := h.db.GetUserSubmissions(c.Context(), user.ID)
	if err != nil {
		return err
	}
	return jsonSuccess(c, submissions)
}

// Me returns the signed-in user's own account.
func (h *SubmissionsHandler) Me(c fiber.Ctx) error {
	return jsonSuccess(c, fiber.Map{"user": currentUser(c)})
}
