package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"punkdir/internal/models"
)

// CreateEdit inserts a new pending edit. Field changes are stored exactly
// as submitted (after allow-list filtering at intake); the entity table is
// never touched here.
func (d *DB) CreateEdit(ctx context.Context, edit *models.PendingEdit) error {
	if len(edit.FieldChanges) == 0 {
		return ErrNoChanges
	}

	query := `
		INSERT INTO pending_edits (entity_type, entity_id, submitted_by, field_changes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at
	`
	return d.Pool.QueryRow(ctx, query,
		string(edit.EntityType),
		edit.EntityID,
		edit.SubmittedBy,
		edit.FieldChanges,
	).Scan(&edit.ID, &edit.Status, &edit.CreatedAt)
}

// GetEditByID retrieves an edit with submitter and reviewer display names.
func (d *DB) GetEditByID(ctx context.Context, id int64) (*models.PendingEdit, error) {
	query := `
		SELECT pe.id, pe.entity_type, pe.entity_id, pe.submitted_by, pe.field_changes,
			pe.status, pe.admin_notes, pe.created_at, pe.reviewed_at, pe.reviewed_by,
			COALESCE(u.name, ''), COALESCE(r.name, '')
		FROM pending_edits pe
		LEFT JOIN users u ON u.id = pe.submitted_by
		LEFT JOIN users r ON r.id = pe.reviewed_by
		WHERE pe.id = $1
	`
	var edit models.PendingEdit
	err := d.Pool.QueryRow(ctx, query, id).Scan(
		&edit.ID, &edit.EntityType, &edit.EntityID, &edit.SubmittedBy, &edit.FieldChanges,
		&edit.Status, &edit.AdminNotes, &edit.CreatedAt, &edit.ReviewedAt, &edit.ReviewedBy,
		&edit.SubmitterName, &edit.ReviewerName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEditNotFound
	}
	if err != nil {
		return nil, err
	}
	return &edit, nil
}

// ListEdits returns one page of the moderation queue for the given filter,
// plus the global per-status counts and pagination metadata. Each edit
// carries the entity's current data (nil when the entity was deleted; the
// edit is still listed so reviewers can reject it).
func (d *DB) ListEdits(ctx context.Context, opts models.ListEditsOptions) ([]models.PendingEdit, models.EditCounts, models.Pagination, error) {
	opts.Normalize()

	var counts models.EditCounts
	var pagination models.Pagination

	where := "pe.status = $1"
	args := []any{opts.Status}
	if opts.StartDate != nil {
		args = append(args, *opts.StartDate)
		where += fmt.Sprintf(" AND pe.reviewed_at >= $%d", len(args))
	}
	if opts.EndDate != nil {
		args = append(args, *opts.EndDate)
		where += fmt.Sprintf(" AND pe.reviewed_at <= $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM pending_edits pe WHERE " + where
	if err := d.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, counts, pagination, err
	}

	// Pending edits surface newest submissions first; reviewed edits
	// surface the most recent decisions first.
	orderBy := "pe.created_at"
	if opts.Status != models.StatusPending {
		orderBy = "pe.reviewed_at"
	}

	query := fmt.Sprintf(`
		SELECT pe.id, pe.entity_type, pe.entity_id, pe.submitted_by, pe.field_changes,
			pe.status, pe.admin_notes, pe.created_at, pe.reviewed_at, pe.reviewed_by,
			COALESCE(u.name, ''), COALESCE(r.name, '')
		FROM pending_edits pe
		LEFT JOIN users u ON u.id = pe.submitted_by
		LEFT JOIN users r ON r.id = pe.reviewed_by
		WHERE %s
		ORDER BY %s DESC
		LIMIT $%d OFFSET $%d
	`, where, orderBy, len(args)+1, len(args)+2)
	args = append(args, opts.PerPage, (opts.Page-1)*opts.PerPage)

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, counts, pagination, err
	}
	defer rows.Close()

	edits := []models.PendingEdit{}
	for rows.Next() {
		var edit models.PendingEdit
		if err := rows.Scan(
			&edit.ID, &edit.EntityType, &edit.EntityID, &edit.SubmittedBy, &edit.FieldChanges,
			&edit.Status, &edit.AdminNotes, &edit.CreatedAt, &edit.ReviewedAt, &edit.ReviewedBy,
			&edit.SubmitterName, &edit.ReviewerName,
		); err != nil {
			return nil, counts, pagination, err
		}
		edits = append(edits, edit)
	}
	if err := rows.Err(); err != nil {
		return nil, counts, pagination, err
	}

	// Attach the entity's current data so callers can show what actually
	// changed. A harmless race with a concurrent approval is acceptable.
	for i := range edits {
		schema, err := entitySchema(edits[i].EntityType)
		if err != nil {
			return nil, counts, pagination, err
		}
		data, err := d.GetEntityData(ctx, schema, edits[i].EntityID)
		if err != nil && !errors.Is(err, ErrEntityNotFound) {
			return nil, counts, pagination, err
		}
		edits[i].OriginalData = data
	}

	counts, err = d.CountEditsByStatus(ctx)
	if err != nil {
		return nil, counts, pagination, err
	}

	pagination = models.NewPagination(opts.Page, opts.PerPage, total)
	return edits, counts, pagination, nil
}

// CountEditsByStatus returns the global tally per status, independent of
// any filter or pagination.
func (d *DB) CountEditsByStatus(ctx context.Context) (models.EditCounts, error) {
	var counts models.EditCounts
	rows, err := d.Pool.Query(ctx, `SELECT status, COUNT(*) FROM pending_edits GROUP BY status`)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return counts, err
		}
		switch status {
		case models.StatusPending:
			counts.Pending = n
		case models.StatusApproved:
			counts.Approved = n
		case models.StatusRejected:
			counts.Rejected = n
		}
	}
	return counts, rows.Err()
}

// RejectEdit rejects a pending edit. The status-guarded update is the
// concurrency mechanism: of two racing reviews, exactly one affects a row,
// and the other gets ErrEditNotFound. No entity table is touched.
func (d *DB) RejectEdit(ctx context.Context, id int64, reviewerID uuid.UUID, notes *string) (*models.ReviewResult, error) {
	result := &models.ReviewResult{Action: "reject"}
	err := d.Pool.QueryRow(ctx, `
		UPDATE pending_edits
		SET status = $1, reviewed_by = $2, reviewed_at = NOW(), admin_notes = $3
		WHERE id = $4 AND status = $5
		RETURNING entity_type, entity_id, submitted_by
	`, models.StatusRejected, reviewerID, notes, id, models.StatusPending).Scan(
		&result.EntityType, &result.EntityID, &result.SubmittedBy,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEditNotFound
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApproveEdit approves a pending edit and applies its raw field changes to
// the target entity, all in one transaction. The status-guarded update
// doubles as a compare-and-swap: if another review already won, no entity
// write is attempted and ErrEditNotFound is returned. A missing entity row
// is not an error — the moderation decision stands, but the result reports
// that the apply had no effect. Any other failure rolls the whole
// transaction back, leaving the edit pending.
func (d *DB) ApproveEdit(ctx context.Context, id int64, reviewerID uuid.UUID, notes *string) (*models.ReviewResult, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	result := &models.ReviewResult{Action: "approve"}
	var changes models.FieldChanges
	err = tx.QueryRow(ctx, `
		UPDATE pending_edits
		SET status = $1, reviewed_by = $2, reviewed_at = NOW(), admin_notes = $3
		WHERE id = $4 AND status = $5
		RETURNING entity_type, entity_id, submitted_by, field_changes
	`, models.StatusApproved, reviewerID, notes, id, models.StatusPending).Scan(
		&result.EntityType, &result.EntityID, &result.SubmittedBy, &changes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEditNotFound
	}
	if err != nil {
		return nil, err
	}

	schema, err := entitySchema(result.EntityType)
	if err != nil {
		return nil, err
	}

	applied, err := applyEditChanges(ctx, tx, schema, result.EntityID, changes)
	if err != nil {
		return nil, err
	}
	result.EntityApplied = applied
	result.EntityMissing = !applied

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
