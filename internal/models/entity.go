package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EntityType selects which directory table an edit targets.
type EntityType string

const (
	EntityBand     EntityType = "band"
	EntityVenue    EntityType = "venue"
	EntityResource EntityType = "resource"
)

// ColumnType describes how a patchable column stores its value.
type ColumnType int

const (
	ColText ColumnType = iota
	ColBool
	ColInt
	ColJSON
)

// Column is one patchable field of an entity table.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the closed descriptor for one entity type: its table and the
// fixed set of columns the edit workflow may ever patch. Column names used
// in generated SQL come only from here, never from request input.
type Schema struct {
	Type    EntityType
	Table   string
	Columns []Column
}

var schemas = map[EntityType]*Schema{
	EntityBand: {
		Type:  EntityBand,
		Table: "bands",
		Columns: []Column{
			{"name", ColText},
			{"genre", ColText},
			{"city", ColText},
			{"state", ColText},
			{"country", ColText},
			{"albums", ColJSON},
			{"links", ColJSON},
			{"active", ColBool},
			{"logo", ColText},
		},
	},
	EntityVenue: {
		Type:  EntityVenue,
		Table: "venues",
		Columns: []Column{
			{"name", ColText},
			{"type", ColText},
			{"capacity", ColInt},
			{"street_address", ColText},
			{"city", ColText},
			{"state", ColText},
			{"postal_code", ColText},
			{"country", ColText},
			{"age_restriction", ColText},
			{"booking_contact", ColText},
			{"links", ColJSON},
		},
	},
	EntityResource: {
		Type:  EntityResource,
		Table: "resources",
		Columns: []Column{
			{"name", ColText},
			{"link", ColText},
			{"description", ColText},
		},
	},
}

// SchemaFor returns the schema descriptor for an entity type.
func SchemaFor(t EntityType) (*Schema, bool) {
	s, ok := schemas[t]
	return s, ok
}

// FieldNames returns the allow-listed column names in descriptor order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// AllowsField reports whether a field name is in the allow-list.
func (s *Schema) AllowsField(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// FilterChanges keeps only allow-listed fields with non-empty values,
// preserving submission order. Unknown fields are silently dropped so
// partial forms keep working.
func (s *Schema) FilterChanges(raw FieldChanges) FieldChanges {
	var kept FieldChanges
	for _, ch := range raw {
		if !s.AllowsField(ch.Field) || ch.Value.IsEmpty() {
			continue
		}
		kept = append(kept, ch)
	}
	return kept
}

// CoerceValue converts a submitted value into what the column stores.
// Submitted values are often strings regardless of the column type, so
// booleans and integers accept their string forms.
func (c Column) CoerceValue(v FieldValue) (any, error) {
	switch c.Type {
	case ColBool:
		return coerceBool(v)
	case ColInt:
		return coerceInt(v)
	case ColJSON:
		return coerceJSON(v)
	default:
		if v.Kind() != KindString {
			return nil, fmt.Errorf("column %s expects a string", c.Name)
		}
		s, _ := v.Value().(string)
		return strings.TrimSpace(s), nil
	}
}

func coerceBool(v FieldValue) (any, error) {
	switch v.Kind() {
	case KindBool:
		return v.Value(), nil
	case KindString:
		s := strings.TrimSpace(v.Value().(string))
		switch s {
		case "1", "true":
			return true, nil
		case "0", "false":
			return false, nil
		}
	}
	return nil, fmt.Errorf("invalid boolean value %v", v.Value())
}

func coerceInt(v FieldValue) (any, error) {
	if v.Kind() != KindString {
		return nil, fmt.Errorf("invalid integer value %v", v.Value())
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v.Value().(string)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer value %q", v.Value())
	}
	return n, nil
}

func coerceJSON(v FieldValue) (any, error) {
	switch v.Kind() {
	case KindList, KindMap:
		return v.Value(), nil
	case KindString:
		// Forms submit list and map fields as JSON text.
		s := strings.TrimSpace(v.Value().(string))
		if json.Valid([]byte(s)) {
			return json.RawMessage(s), nil
		}
		return nil, fmt.Errorf("invalid JSON value %q", s)
	}
	return nil, fmt.Errorf("invalid JSON value %v", v.Value())
}
