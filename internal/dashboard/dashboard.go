package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrUnreachable      = errors.New("dashboard unreachable")
)

// Item is one decoded JSON object returned by a dashboard.
type Item map[string]any

func (i Item) Value(key string) any {
	return i[key]
}

func (i Item) String(key string) string {
	switch v := i[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (i Item) Bool(key string) bool {
	v, _ := i[key].(bool)
	return v
}

func (i Item) Float(key string) *float64 {
	v, ok := i[key].(float64)
	if !ok {
		return nil
	}
	return &v
}

// Lookup follows nested objects along keys.
func (i Item) Lookup(keys ...string) any {
	var current any = map[string]any(i)
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}

func (i Item) Strings(key string) []string {
	switch v := i[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		result := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
	}
}

// NewNetwork describes a network to create in an organization.
type NewNetwork struct {
	Name              string   `json:"name"`
	ProductTypes      []string `json:"productTypes"`
	Tags              []string `json:"tags,omitempty"`
	TimeZone          string   `json:"timeZone,omitempty"`
	Notes             string   `json:"notes,omitempty"`
	CopyFromNetworkID string   `json:"copyFromNetworkId,omitempty"`
}

// Client is the remote dashboard API used by the reconciler and the
// provisioner.
type Client interface {
	GetOrganizations(ctx context.Context) ([]Item, error)
	GetOrganizationNetworks(ctx context.Context, orgID string) ([]Item, error)
	GetOrganizationInventoryDevices(ctx context.Context, orgID string) ([]Item, error)
	GetNetworkSwitchStacks(ctx context.Context, networkID string) ([]Item, error)
	GetNetworkDevices(ctx context.Context, networkID string) ([]Item, error)
	UpdateNetwork(ctx context.Context, networkID string, update map[string]any) error
	CreateOrganizationNetwork(ctx context.Context, orgID string, network NewNetwork) (Item, error)
	BindNetwork(ctx context.Context, networkID, templateID string) error
}

// APIError is a failed dashboard call with the object and payload involved.
type APIError struct {
	Op      string
	Object  string
	Payload any
	Err     error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to %s %s", e.Op, e.Object)
	if e.Payload != nil {
		fmt.Fprintf(&b, " with %v", e.Payload)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}
