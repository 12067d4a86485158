package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind enumerates the closed value domain of a proposed field change.
type ValueKind int

const (
	KindString ValueKind = iota
	KindBool
	KindList
	KindMap
)

// FieldValue holds one proposed value: a string, a boolean, an ordered list
// of strings, or a string-keyed map.
type FieldValue struct {
	kind ValueKind
	str  string
	b    bool
	list []string
	m    map[string]string
}

func StringValue(s string) FieldValue { return FieldValue{kind: KindString, str: s} }
func BoolValue(b bool) FieldValue     { return FieldValue{kind: KindBool, b: b} }
func ListValue(l []string) FieldValue { return FieldValue{kind: KindList, list: l} }
func MapValue(m map[string]string) FieldValue {
	return FieldValue{kind: KindMap, m: m}
}

// Kind returns the kind of the held value.
func (v FieldValue) Kind() ValueKind { return v.kind }

// Value returns the held value as its natural Go type.
func (v FieldValue) Value() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindList:
		return v.list
	case KindMap:
		return v.m
	default:
		return v.str
	}
}

// IsEmpty reports whether the value carries nothing: a blank string, an
// empty list, or an empty map. Empty submissions are dropped at intake
// rather than stored as a "change to empty". Booleans are never empty.
func (v FieldValue) IsEmpty() bool {
	switch v.kind {
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindList:
		return len(v.list) == 0
	case KindMap:
		return len(v.m) == 0
	}
	return false
}

// MarshalJSON encodes the value as the plain JSON form it was submitted in.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Value())
}

// UnmarshalJSON decodes a JSON value into the closed value domain. Numbers
// are kept as their decimal string form, matching how form submissions
// arrive; null becomes the empty string.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	decoded, err := fieldValueFrom(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func fieldValueFrom(raw any) (FieldValue, error) {
	switch val := raw.(type) {
	case nil:
		return StringValue(""), nil
	case string:
		return StringValue(val), nil
	case bool:
		return BoolValue(val), nil
	case json.Number:
		return StringValue(val.String()), nil
	case []any:
		list := make([]string, len(val))
		for i, e := range val {
			s, err := scalarString(e)
			if err != nil {
				return FieldValue{}, fmt.Errorf("list element %d: %w", i, err)
			}
			list[i] = s
		}
		return ListValue(list), nil
	case map[string]any:
		m := make(map[string]string, len(val))
		for k, e := range val {
			s, err := scalarString(e)
			if err != nil {
				return FieldValue{}, fmt.Errorf("key %q: %w", k, err)
			}
			m[k] = s
		}
		return MapValue(m), nil
	}
	return FieldValue{}, fmt.Errorf("unsupported value type %T", raw)
}

func scalarString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case bool:
		return strconv.FormatBool(s), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("expected a string, got %T", v)
}

// FieldChange pairs a field name with its proposed value.
type FieldChange struct {
	Field string
	Value FieldValue
}

// FieldChanges is an ordered field-to-value mapping. Order is the submission
// order and is preserved through the JSON codec.
type FieldChanges []FieldChange

// Get returns the value for a field, if present.
func (fc FieldChanges) Get(field string) (FieldValue, bool) {
	for _, ch := range fc {
		if ch.Field == field {
			return ch.Value, true
		}
	}
	return FieldValue{}, false
}

// Fields returns the field names in order.
func (fc FieldChanges) Fields() []string {
	names := make([]string, len(fc))
	for i, ch := range fc {
		names[i] = ch.Field
	}
	return names
}

// MarshalJSON writes a JSON object with keys in submission order.
func (fc FieldChanges) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ch := range fc {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ch.Field)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(ch.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, preserving key order.
func (fc *FieldChanges) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("field changes must be a JSON object")
	}

	changes := FieldChanges{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		value, err := fieldValueFrom(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		changes = append(changes, FieldChange{Field: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*fc = changes
	return nil
}
