// Package diff computes which proposed field changes actually differ from
// an entity's current values. Its output drives what a reviewer sees; the
// approval write always uses the raw submitted changes.
package diff

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"punkdir/internal/models"
)

// Normalize renders a value in canonical string form so that equivalent
// values compare equal regardless of how they were submitted:
// nil/empty string -> "", booleans -> "1"/"0", numbers -> decimal string,
// lists -> JSON after lexicographic sort, maps -> canonical JSON,
// strings -> trimmed.
func Normalize(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case json.Number:
		return val.String()
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []string:
		return normalizeList(toAnySlice(val))
	case []any:
		return normalizeList(val)
	case map[string]string:
		return normalizeMap(val)
	case map[string]any:
		return normalizeMap(val)
	case models.FieldValue:
		return Normalize(val.Value())
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// normalizeList serializes after sorting elements lexicographically, so two
// differently-ordered lists compare equal.
func normalizeList(list []any) string {
	elems := make([]string, len(list))
	for i, e := range list {
		elems[i] = Normalize(e)
	}
	sort.Strings(elems)
	out, _ := json.Marshal(elems)
	return string(out)
}

// normalizeMap serializes with keys in a canonical order so key ordering
// never produces a spurious difference.
func normalizeMap[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	canonical := make(map[string]string, len(m))
	for _, k := range keys {
		canonical[k] = Normalize(m[k])
	}
	out, _ := json.Marshal(canonical)
	return string(out)
}

func toAnySlice(list []string) []any {
	out := make([]any, len(list))
	for i, s := range list {
		out[i] = s
	}
	return out
}

// ActualChanges returns, in submission order, the proposed fields whose
// normalized value differs from the entity's current value. A field absent
// from the current data compares against the empty token.
func ActualChanges(original map[string]any, proposed models.FieldChanges) []string {
	var changed []string
	for _, ch := range proposed {
		var current any
		if original != nil {
			current = original[ch.Field]
		}
		if Normalize(current) != Normalize(ch.Value) {
			changed = append(changed, ch.Field)
		}
	}
	return changed
}
