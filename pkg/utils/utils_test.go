package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ExtractSiteSlug(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
	}{
		{name: "FR-PARIS--PAR01", expected: "par01"},
		{name: "FR-PARIS--PAR01 old", expected: "par01"},
		{name: "FR-PARIS--PAR01-OLD", expected: "par01"},
		{name: "FR-PARIS--PAR01 (lab)", expected: "par01"},
		{name: "WAREHOUSE--STOCK-EMEA", expected: "stock-emea"},
		{name: "A--B--C12", expected: "c12"},
		{name: "no delimiter here", expected: ""},
		{name: "TRAILING--", expected: ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ExtractSiteSlug(tc.name), tc.name)
	}
}

func Test_EqualSets(t *testing.T) {
	testCases := []struct {
		name     string
		a        []string
		b        []string
		expected bool
	}{
		{name: "same order", a: []string{"a", "b"}, b: []string{"a", "b"}, expected: true},
		{name: "reordered", a: []string{"b", "a", "c"}, b: []string{"c", "a", "b"}, expected: true},
		{name: "nil and empty", a: nil, b: []string{}, expected: true},
		{name: "different length", a: []string{"a"}, b: []string{"a", "b"}, expected: false},
		{name: "different elements", a: []string{"a", "b"}, b: []string{"a", "c"}, expected: false},
		{name: "duplicates hide an element", a: []string{"a", "a"}, b: []string{"a", "b"}, expected: false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, EqualSets(tc.a, tc.b), tc.name)
	}
}

func Test_DeepEqualJSON(t *testing.T) {
	testCases := []struct {
		name       string
		a          any
		b          any
		ignoreCase bool
		expected   bool
	}{
		{name: "both nil", expected: true},
		{name: "one nil", a: map[string]any{}, expected: false},
		{
			name:     "key order does not matter",
			a:        map[string]any{"x": 1.0, "y": "z"},
			b:        map[string]any{"y": "z", "x": 1.0},
			expected: true,
		},
		{
			name:     "case matters by default",
			a:        map[string]any{"name": "Model"},
			b:        map[string]any{"name": "model"},
			expected: false,
		},
		{
			name:       "case ignored",
			a:          []any{map[string]any{"name": "Model"}},
			b:          []any{map[string]any{"name": "MODEL"}},
			ignoreCase: true,
			expected:   true,
		},
		{
			name:       "different values",
			a:          map[string]any{"name": "a"},
			b:          map[string]any{"name": "b"},
			ignoreCase: true,
			expected:   false,
		},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, DeepEqualJSON(tc.a, tc.b, tc.ignoreCase), tc.name)
	}
}
