package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"punkdir/internal/models"
)

// GetEntityData reads the current values of an entity's allow-listed
// columns, for diffing against a proposed edit. Returns ErrEntityNotFound
// when the row no longer exists.
func (d *DB) GetEntityData(ctx context.Context, schema *models.Schema, id int64) (map[string]any, error) {
	cols := strings.Join(schema.FieldNames(), ", ")
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, cols, schema.Table)

	rows, err := d.Pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrEntityNotFound
	}

	values, err := rows.Values()
	if err != nil {
		return nil, err
	}

	data := make(map[string]any, len(values))
	for i, col := range schema.Columns {
		data[col.Name] = values[i]
	}
	return data, nil
}

// GetUserSubmissions returns the directory entries a user created, grouped
// by entity type, newest first within each group.
func (d *DB) GetUserSubmissions(ctx context.Context, userID uuid.UUID) (map[string][]models.Submission, error) {
	queries := []struct {
		entityType models.EntityType
		sql        string
	}{
		{models.EntityBand, `
			SELECT id, name, COALESCE(genre, ''), COALESCE(city, ''), COALESCE(state, ''), created_at
			FROM bands WHERE submitted_by = $1 ORDER BY created_at DESC`},
		{models.EntityVenue, `
			SELECT id, name, COALESCE(type, ''), COALESCE(city, ''), COALESCE(state, ''), created_at
			FROM venues WHERE submitted_by = $1 ORDER BY created_at DESC`},
		{models.EntityResource, `
			SELECT id, name, link, '', '', created_at
			FROM resources WHERE submitted_by = $1 ORDER BY created_at DESC`},
	}

	result := make(map[string][]models.Submission, len(queries))
	for _, q := range queries {
		subs, err := d.querySubmissions(ctx, q.entityType, q.sql, userID)
		if err != nil {
			return nil, err
		}
		result[string(q.entityType)+"s"] = subs
	}
	return result, nil
}

func (d *DB) querySubmissions(ctx context.Context, entityType models.EntityType, sql string, userID uuid.UUID) ([]models.Submission, error) {
	rows, err := d.Pool.Query(ctx, sql, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []models.Submission{}
	for rows.Next() {
		s := models.Submission{EntityType: entityType}
		if err := rows.Scan(&s.ID, &s.Name, &s.Detail, &s.City, &s.State, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// applyEditChanges writes an approved edit's raw field changes to the
// target entity row inside the caller's transaction. Column names come only
// from the schema descriptor; submitted data supplies values, never
// identifiers. Returns false when the entity row no longer exists.
func applyEditChanges(ctx context.Context, tx pgx.Tx, schema *models.Schema, entityID int64, changes models.FieldChanges) (bool, error) {
	var set []string
	var args []any

	// Walk the descriptor, not the submission, so only allow-listed
	// columns can ever appear in the generated SQL.
	for _, col := range schema.Columns {
		value, ok := changes.Get(col.Name)
		if !ok {
			continue
		}
		coerced, err := col.CoerceValue(value)
		if err != nil {
			return false, fmt.Errorf("field %s: %w", col.Name, err)
		}
		args = append(args, coerced)
		set = append(set, fmt.Sprintf("%s = $%d", col.Name, len(args)))
	}
	set = append(set, "updated_at = NOW()")

	args = append(args, entityID)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		schema.Table, strings.Join(set, ", "), len(args))

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// entitySchema resolves the schema descriptor for a stored entity type.
func entitySchema(entityType models.EntityType) (*models.Schema, error) {
	schema, ok := models.SchemaFor(entityType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntityType, entityType)
	}
	return schema, nil
}
