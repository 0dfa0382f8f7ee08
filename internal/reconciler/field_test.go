package reconciler

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func Test_Apply(t *testing.T) {
	type record struct {
		Name    string
		Tags    []string
		Details any
		Lat     *float64
	}

	testCases := []struct {
		name    string
		local   record
		remote  record
		changed []string
	}{
		{
			name:    "unchanged",
			local:   record{Name: "a", Tags: []string{"x", "y"}, Details: map[string]any{"k": "V"}, Lat: lo.ToPtr(1.5)},
			remote:  record{Name: "a", Tags: []string{"y", "x"}, Details: map[string]any{"k": "v"}, Lat: lo.ToPtr(1.5)},
			changed: []string{},
		},
		{
			name:    "nil and empty tags",
			local:   record{Tags: nil},
			remote:  record{Tags: []string{}},
			changed: []string{},
		},
		{
			name:    "every field",
			local:   record{Name: "a", Tags: []string{"x"}, Details: map[string]any{"k": "v"}},
			remote:  record{Name: "b", Tags: []string{"x", "z"}, Details: map[string]any{"k": "w"}, Lat: lo.ToPtr(2.0)},
			changed: []string{"name", "tags", "details", "lat"},
		},
		{
			name:    "cleared pointer",
			local:   record{Lat: lo.ToPtr(2.0)},
			remote:  record{},
			changed: []string{"lat"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			local := tc.local

			changed := Apply(
				Field("name", &local.Name, tc.remote.Name),
				SetField("tags", &local.Tags, tc.remote.Tags),
				JSONField("details", &local.Details, tc.remote.Details),
				PtrField("lat", &local.Lat, tc.remote.Lat),
			)

			assert.Equal(t, tc.changed, changed)
			if len(changed) > 0 {
				assert.Equal(t, tc.remote, local)
			}
		})
	}
}
