package utils

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

var siteNameRegexp = regexp.MustCompile(`^.*--(?:(STOCK-.*|[^ -]+)(|[ -]+[oO][lL][dD].*|[ -].*))$`)

// ExtractSiteSlug returns the site slug encoded after the last "--" of a
// remote network name, or "" when the name does not follow the convention.
func ExtractSiteSlug(name string) string {
	m := siteNameRegexp.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// EqualSets compares two string slices as sets. Nil and empty are equal.
func EqualSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	left := lo.SliceToMap(a, func(s string) (string, struct{}) { return s, struct{}{} })
	right := lo.SliceToMap(b, func(s string) (string, struct{}) { return s, struct{}{} })
	if len(left) != len(right) {
		return false
	}
	for k := range left {
		if _, ok := right[k]; !ok {
			return false
		}
	}
	return true
}

// DeepEqualJSON compares two decoded JSON values through their canonical
// encoding (object keys sorted). With ignoreCase the encodings are compared
// case-insensitively.
func DeepEqualJSON(a, b any, ignoreCase bool) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}

	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}

	if ignoreCase {
		return bytes.EqualFold(left, right)
	}
	return bytes.Equal(left, right)
}

// DeepEqualJSONFold is DeepEqualJSON ignoring case.
func DeepEqualJSONFold(a, b any) bool {
	return DeepEqualJSON(a, b, true)
}
