package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassification_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "prose", raw: "Sure! The category is route command."},
		{name: "array", raw: `["route command"]`},
		{name: "null", raw: "null"},
		{name: "truncated", raw: `{"route command": tr`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClassification(tt.raw)
			assert.ErrorIs(t, err, ErrMalformedIntent)
		})
	}
}

func TestParseClassification_Values(t *testing.T) {
	c, err := ParseClassification(`{
		"route command": true,
		"new profile": false,
		"service location command": "nearest gas station",
		"entertainment command": 0,
		"welcome command Dario": true,
		"profile command Vito": "yes",
		"weather command": true
	}`)
	require.NoError(t, err)

	assert.True(t, c.Truthy(CategoryRoute))
	assert.False(t, c.Truthy(CategoryNewProfile))
	assert.True(t, c.Has(CategoryNewProfile))
	assert.False(t, c.Truthy(CategoryEntertainment))

	v, ok := c.Value(CategoryServiceLocation)
	require.True(t, ok)
	assert.True(t, v.Truthy())
	assert.Equal(t, "nearest gas station", v.Text)

	w, ok := c.Named(CategoryWelcome, "Dario")
	require.True(t, ok)
	assert.True(t, w.Flag)

	p, ok := c.Named(CategoryProfile, "Vito")
	require.True(t, ok)
	assert.True(t, p.Truthy())

	assert.True(t, c.Has(CategoryWelcome))
	assert.True(t, c.Has(CategoryProfile))
	assert.False(t, c.Has(CategoryEmergency))
}

func TestParseClassification_CodeFence(t *testing.T) {
	c, err := ParseClassification("```json\n{\"route command\": true}\n```")
	require.NoError(t, err)
	assert.True(t, c.Truthy(CategoryRoute))
}

func TestParseClassification_CategoryWrapper(t *testing.T) {
	c, err := ParseClassification(`{"category": "welcome command Mattia"}`)
	require.NoError(t, err)

	v, ok := c.Named(CategoryWelcome, "Mattia")
	require.True(t, ok)
	assert.True(t, v.Truthy())

	c, err = ParseClassification(`{"categories": ["route command", "bogus"]}`)
	require.NoError(t, err)
	assert.True(t, c.Truthy(CategoryRoute))
}

func TestParseClassification_CaseInsensitiveCategory(t *testing.T) {
	c, err := ParseClassification(`{"Welcome Command Antonio": true, "Route Command": true}`)
	require.NoError(t, err)

	_, ok := c.Named(CategoryWelcome, "Antonio")
	assert.True(t, ok)
	assert.True(t, c.Truthy(CategoryRoute))
}

func TestParseClassification_Empty(t *testing.T) {
	c, err := ParseClassification(`{"unrelated": true}`)
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestParseClassification_NamelessNamedCategory(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		cat  Category
	}{
		{name: "welcome flag", raw: `{"welcome command": true}`, cat: CategoryWelcome},
		{name: "welcome with name value", raw: `{"welcome command": "Dario"}`, cat: CategoryWelcome},
		{name: "profile flag", raw: `{"Profile Command": true}`, cat: CategoryProfile},
		{name: "wrapped", raw: `{"category": "profile command"}`, cat: CategoryProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseClassification(tt.raw)
			require.NoError(t, err)

			assert.True(t, c.Has(tt.cat))
			assert.False(t, c.Empty())
			assert.Empty(t, c.NamesOf(tt.cat))
			_, ok := c.Named(tt.cat, "Dario")
			assert.False(t, ok)
		})
	}
}

func TestParseClassification_NamesSorted(t *testing.T) {
	c, err := ParseClassification(`{"welcome command Vito": false, "welcome command Dario": true}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dario", "Vito"}, c.NamesOf(CategoryWelcome))
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		truthy bool
	}{
		{name: "nil", raw: nil, truthy: false},
		{name: "true", raw: true, truthy: true},
		{name: "false", raw: false, truthy: false},
		{name: "empty string", raw: "", truthy: false},
		{name: "string", raw: "pharmacy", truthy: true},
		{name: "zero", raw: 0.0, truthy: false},
		{name: "number", raw: 2.0, truthy: true},
		{name: "empty list", raw: []any{}, truthy: false},
		{name: "object", raw: map[string]any{"a": 1.0}, truthy: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.truthy, valueOf(tt.raw).Truthy())
		})
	}
}
