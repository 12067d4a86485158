package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"punkdir/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"empty string", "", ""},
		{"whitespace string", "  \t ", ""},
		{"trimmed string", "  punk  ", "punk"},
		{"bool true", true, "1"},
		{"bool false", false, "0"},
		{"int", 250, "250"},
		{"int64", int64(80), "80"},
		{"float drops trailing zeros", 80.0, "80"},
		{"list is sorted", []string{"b", "a"}, `["a","b"]`},
		{"any list is sorted", []any{"zine", "label"}, `["label","zine"]`},
		{"map keys are canonical", map[string]string{"b": "2", "a": "1"}, `{"a":"1","b":"2"}`},
		{"map values normalized", map[string]any{"active": true}, `{"active":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeFieldValue(t *testing.T) {
	assert.Equal(t, "1", Normalize(models.BoolValue(true)))
	assert.Equal(t, "punk", Normalize(models.StringValue(" punk ")))
	assert.Equal(t, `["a","b"]`, Normalize(models.ListValue([]string{"b", "a"})))
}

func TestNormalizeEquivalence(t *testing.T) {
	// Submitted string forms compare equal to stored typed values.
	assert.Equal(t, Normalize(true), Normalize("1"))
	assert.Equal(t, Normalize(int64(80)), Normalize("80"))
	assert.Equal(t, Normalize(nil), Normalize(""))
	assert.Equal(t,
		Normalize([]string{"bandcamp", "instagram"}),
		Normalize([]string{"instagram", "bandcamp"}),
	)
}

func TestActualChanges(t *testing.T) {
	original := map[string]any{
		"name":   "The Broken Amps",
		"genre":  "hardcore",
		"active": true,
	}
	proposed := models.FieldChanges{
		{Field: "name", Value: models.StringValue("The Broken Amplifiers")},
		{Field: "genre", Value: models.StringValue("hardcore")},
		{Field: "active", Value: models.StringValue("0")},
	}

	changed := ActualChanges(original, proposed)
	assert.Equal(t, []string{"name", "active"}, changed)
}

func TestActualChanges_NoOpEdit(t *testing.T) {
	original := map[string]any{"active": true, "genre": "  crust  "}
	proposed := models.FieldChanges{
		{Field: "active", Value: models.StringValue("1")},
		{Field: "genre", Value: models.StringValue("crust")},
	}
	assert.Empty(t, ActualChanges(original, proposed))
}

func TestActualChanges_MissingEntity(t *testing.T) {
	// With no current data, every non-empty proposed value is a change.
	proposed := models.FieldChanges{
		{Field: "name", Value: models.StringValue("Riot Pact")},
	}
	assert.Equal(t, []string{"name"}, ActualChanges(nil, proposed))
}

func TestActualChanges_AbsentFieldComparesAgainstEmpty(t *testing.T) {
	original := map[string]any{"name": "Riot Pact"}
	proposed := models.FieldChanges{
		{Field: "name", Value: models.StringValue("Riot Pact")},
		{Field: "city", Value: models.StringValue("")},
	}
	assert.Empty(t, ActualChanges(original, proposed))
}
