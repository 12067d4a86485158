package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"punkdir/internal/db"
	"punkdir/internal/privilege"
)

// UsersHandler serves account administration: listing accounts, changing
// tiers, and deleting accounts.
type UsersHandler struct {
	db *db.DB
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(database *db.DB) *UsersHandler {
	return &UsersHandler{db: database}
}

// List returns all accounts. Admin only.
func (h *UsersHandler) List(c fiber.Ctx) error {
	user := currentUser(c)
	if err := privilege.RequireModerator(user.AccountType); err != nil {
		return jsonError(c, fiber.StatusForbidden, err.Error())
	}

	users, err := h.db.GetAllUsers(c.Context())
	if err != nil {
		return err
	}
	return jsonSuccess(c, fiber.Map{"users": users})
}

type updateTierRequest struct {
	AccountType int `json:"account_type"`
}

// UpdateTier changes a target account's tier, subject to the privilege
// rules: moderators only, never your own account, and only god-tier actors
// may touch or grant god.
func (h *UsersHandler) UpdateTier(c fiber.Ctx) error {
	actor := currentUser(c)

	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	var req updateTierRequest
	if err := c.Bind().Body(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	newTier, err := privilege.Parse(req.AccountType)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid account type")
	}

	target, err := h.db.GetUserByID(c.Context(), targetID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return jsonError(c, fiber.StatusNotFound, "User not found")
		}
		return err
	}

	if err := privilege.CanChangeTier(actor.AccountType, target.AccountType, newTier, actor.ID == target.ID); err != nil {
		return jsonError(c, privilegeStatus(err), err.Error())
	}

	if err := h.db.UpdateAccountTier(c.Context(), target.ID, newTier); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return jsonError(c, fiber.StatusNotFound, "User not found")
		}
		return err
	}

	return jsonSuccess(c, fiber.Map{
		"message": fmt.Sprintf("User privileges updated to %s", newTier),
	})
}

// Delete removes a target account. Their directory submissions and edit
// history survive with the submitter cleared.
func (h *UsersHandler) Delete(c fiber.Ctx) error {
	actor := currentUser(c)

	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	target, err := h.db.GetUserByID(c.Context(), targetID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return jsonError(c, fiber.StatusNotFound, "User not found")
		}
		return err
	}

	if err := privilege.CanManage(actor.AccountType, target.AccountType, actor.ID == target.ID); err != nil {
		return jsonError(c, privilegeStatus(err), err.Error())
	}

	if err := h.db.DeleteUser(c.Context(), target.ID); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return jsonError(c, fiber.StatusNotFound, "User not found")
		}
		return err
	}

	return jsonSuccess(c, fiber.Map{"message": "User deleted"})
}

// privilegeStatus maps privilege gate errors to HTTP status codes.
// Self-modification and invalid tiers are malformed requests; everything
// else is a permission problem.
func privilegeStatus(err error) int {
	switch {
	case errors.Is(err, privilege.ErrSelfTarget), errors.Is(err, privilege.ErrInvalidTier):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusForbidden
	}
}
