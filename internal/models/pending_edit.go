package models

import (
	"time"

	"github.com/google/uuid"
)

// Edit status constants.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidStatus reports whether s is one of the three edit statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// PendingEdit is a proposed set of field changes awaiting review.
// Once reviewed it is immutable.
type PendingEdit struct {
	ID           int64        `json:"id"`
	EntityType   EntityType   `json:"entity_type"`
	EntityID     int64        `json:"entity_id"`
	SubmittedBy  *uuid.UUID   `json:"submitted_by"` // nil after account deletion
	FieldChanges FieldChanges `json:"field_changes"`
	Status       string       `json:"status"`
	AdminNotes   *string      `json:"admin_notes"`
	CreatedAt    time.Time    `json:"created_at"`
	ReviewedAt   *time.Time   `json:"reviewed_at"`
	ReviewedBy   *uuid.UUID   `json:"reviewed_by"`

	// Non-DB fields, populated via JOIN and entity lookup for display
	SubmitterName string         `json:"submitted_by_name,omitempty"`
	ReviewerName  string         `json:"reviewed_by_name,omitempty"`
	OriginalData  map[string]any `json:"original_data"` // nil when the entity was deleted
	ActualChanges []string       `json:"actual_changes,omitempty"`
}

// ListEditsOptions controls the moderation queue query.
type ListEditsOptions struct {
	Status    string
	Page      int
	PerPage   int
	StartDate *time.Time // on reviewed_at, approved/rejected only
	EndDate   *time.Time
}

// Normalize applies the queue defaults: unknown statuses fall back to
// pending, page is at least 1, per_page is clamped to [10,100], and the
// date range only applies to reviewed edits.
func (o *ListEditsOptions) Normalize() {
	if !ValidStatus(o.Status) {
		o.Status = StatusPending
	}
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PerPage == 0 {
		o.PerPage = 20
	}
	if o.PerPage < 10 {
		o.PerPage = 10
	}
	if o.PerPage > 100 {
		o.PerPage = 100
	}
	if o.Status == StatusPending {
		o.StartDate = nil
		o.EndDate = nil
	}
}

// EditCounts is the global per-status tally, independent of filters.
type EditCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Pagination describes one page of queue results.
type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// NewPagination computes pagination metadata for a total row count.
func NewPagination(page, perPage, total int) Pagination {
	totalPages := (total + perPage - 1) / perPage
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

// ReviewResult reports which branch of a review executed.
type ReviewResult struct {
	Action        string
	EntityApplied bool // approve only: the entity row was updated
	EntityMissing bool // approve only: the entity row no longer exists
	EntityType    EntityType
	EntityID      int64
	SubmittedBy   *uuid.UUID
}

// Submission is a directory record created by a user, as shown on their
// own submissions page.
type Submission struct {
	EntityType EntityType `json:"entity_type"`
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Detail     string     `json:"detail,omitempty"` // genre, venue type, or resource link
	City       string     `json:"city,omitempty"`
	State      string     `json:"state,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
