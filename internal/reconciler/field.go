package reconciler

import (
	"github.com/sop-infra/sopctl/pkg/utils"
)

// Change copies one remote value onto its local counterpart when they
// differ and reports the field name and whether it did.
type Change interface {
	apply() (string, bool)
}

type field[T any] struct {
	name   string
	local  *T
	remote T
	equal  func(a, b T) bool
}

func (f field[T]) apply() (string, bool) {
	if f.equal(*f.local, f.remote) {
		return f.name, false
	}

	*f.local = f.remote
	return f.name, true
}

func Field[T comparable](name string, local *T, remote T) Change {
	return field[T]{name: name, local: local, remote: remote, equal: func(a, b T) bool { return a == b }}
}

func FieldFunc[T any](name string, local *T, remote T, equal func(a, b T) bool) Change {
	return field[T]{name: name, local: local, remote: remote, equal: equal}
}

// SetField compares string lists regardless of order.
func SetField(name string, local *[]string, remote []string) Change {
	return FieldFunc(name, local, remote, utils.EqualSets)
}

// JSONField compares decoded JSON blobs ignoring case.
func JSONField(name string, local *any, remote any) Change {
	return FieldFunc(name, local, remote, utils.DeepEqualJSONFold)
}

func PtrField[T comparable](name string, local **T, remote *T) Change {
	return FieldFunc(name, local, remote, func(a, b *T) bool {
		if a == nil || b == nil {
			return a == nil && b == nil
		}
		return *a == *b
	})
}

// Apply applies every change and returns the names of the fields that
// changed, in order.
func Apply(changes ...Change) []string {
	changed := make([]string, 0)
	for _, change := range changes {
		if name, ok := change.apply(); ok {
			changed = append(changed, name)
		}
	}
	return changed
}
