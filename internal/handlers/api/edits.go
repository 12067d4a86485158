package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"punkdir/internal/db"
	"punkdir/internal/diff"
	"punkdir/internal/email"
	"punkdir/internal/metrics"
	"punkdir/internal/models"
	"punkdir/internal/privilege"
	"punkdir/internal/validation"
)

// EditsHandler serves the edit suggestion workflow: public submission plus
// the admin moderation queue and review decisions.
type EditsHandler struct {
	db       *db.DB
	notifier *email.Notifier
}

// NewEditsHandler creates a new edits handler.
func NewEditsHandler(database *db.DB, notifier *email.Notifier) *EditsHandler {
	return &EditsHandler{db: database, notifier: notifier}
}

type submitEditRequest struct {
	EntityType string              `json:"entity_type" validate:"required,oneof=band venue resource"`
	EntityID   int64               `json:"entity_id" validate:"required,gt=0"`
	Changes    models.FieldChanges `json:"changes" validate:"required"`
}

// Submit accepts an edit suggestion from any signed-in user. The changes are
// filtered against the entity's allow-list and stored verbatim; nothing is
// applied until an admin approves.
func (h *EditsHandler) Submit(c fiber.Ctx) error {
	user := currentUser(c)

	var req submitEditRequest
	if err := c.Bind().Body(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "entity_type, entity_id and changes are required")
	}

	schema, ok := models.SchemaFor(models.EntityType(req.EntityType))
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "Invalid entity type")
	}

	if _, err := h.db.GetEntityData(c.Context(), schema, req.EntityID); err != nil {
		if errors.Is(err, db.ErrEntityNotFound) {
			return jsonError(c, fiber.StatusNotFound, "Entity not found")
		}
		return err
	}

	changes := schema.FilterChanges(req.Changes)
	if len(changes) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "No changes submitted")
	}

	edit := &models.PendingEdit{
		EntityType:   schema.Type,
		EntityID:     req.EntityID,
		SubmittedBy:  &user.ID,
		FieldChanges: changes,
	}
	if err := h.db.CreateEdit(c.Context(), edit); err != nil {
		if errors.Is(err, db.ErrNoChanges) {
			return jsonError(c, fiber.StatusBadRequest, "No changes submitted")
		}
		return err
	}

	h.notifier.NotifyEditSubmitted(c.Context(), edit, user)

	return jsonSuccess(c, fiber.Map{
		"message": "Edit suggestion submitted for review",
		"edit": fiber.Map{
			"id":         edit.ID,
			"status":     edit.Status,
			"created_at": edit.CreatedAt,
		},
	})
}

// List returns one page of the moderation queue. Admin only.
func (h *EditsHandler) List(c fiber.Ctx) error {
	user := currentUser(c)
	if err := privilege.RequireModerator(user.AccountType); err != nil {
		return jsonError(c, fiber.StatusForbidden, err.Error())
	}

	opts := models.ListEditsOptions{
		Status:  c.Query("status"),
		Page:    queryInt(c, "page"),
		PerPage: queryInt(c, "per_page"),
	}
	if s := c.Query("start_date"); s != "" {
		t, err := validation.ParseDate(s)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD")
		}
		opts.StartDate = &t
	}
	if s := c.Query("end_date"); s != "" {
		t, err := validation.ParseDate(s)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD")
		}
		// Inclusive: cover the whole end day.
		t = t.Add(24*time.Hour - time.Nanosecond)
		opts.EndDate = &t
	}

	edits, counts, pagination, err := h.db.ListEdits(c.Context(), opts)
	if err != nil {
		return err
	}

	// Pre-compute the effective diff so the review UI can flag no-op edits.
	for i := range edits {
		edits[i].ActualChanges = diff.ActualChanges(edits[i].OriginalData, edits[i].FieldChanges)
	}

	return jsonSuccess(c, fiber.Map{
		"edits":      edits,
		"counts":     counts,
		"pagination": pagination,
	})
}

type reviewEditRequest struct {
	Action string  `json:"action"`
	Notes  *string `json:"notes"`
}

// Review approves or rejects a pending edit. Admin only. Approval applies
// the stored changes to the live entity; rejection archives the edit
// untouched. Either way the edit leaves the queue exactly once.
func (h *EditsHandler) Review(c fiber.Ctx) error {
	user := currentUser(c)
	if err := privilege.RequireModerator(user.AccountType); err != nil {
		return jsonError(c, fiber.StatusForbidden, err.Error())
	}

	id, err := validation.ParseID(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid edit ID")
	}

	var req reviewEditRequest
	if err := c.Bind().Body(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	var result *models.ReviewResult
	switch req.Action {
	case "approve":
		result, err = h.db.ApproveEdit(c.Context(), id, user.ID, req.Notes)
	case "reject":
		result, err = h.db.RejectEdit(c.Context(), id, user.ID, req.Notes)
	default:
		return jsonError(c, fiber.StatusBadRequest, "Invalid action, expected approve or reject")
	}

	if errors.Is(err, db.ErrEditNotFound) {
		return jsonError(c, fiber.StatusNotFound, "Edit not found or already reviewed")
	}
	if err != nil {
		return err
	}

	metrics.RecordReview(result.Action)
	h.notifier.NotifyEditReviewed(c.Context(), result, req.Notes)

	message := "Edit rejected successfully"
	if result.Action == "approve" {
		message = "Edit approved and applied successfully"
		if result.EntityMissing {
			message = "Edit approved, but the entity no longer exists"
		}
	}

	return jsonSuccess(c, fiber.Map{
		"message":        message,
		"action":         result.Action,
		"entity_applied": result.EntityApplied,
	})
}

func queryInt(c fiber.Ctx, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}
