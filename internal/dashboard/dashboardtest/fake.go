// Package dashboardtest provides an in-memory dashboard for tests.
package dashboardtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/sop-infra/sopctl/internal/dashboard"
	"github.com/sop-infra/sopctl/internal/models"
)

type Update struct {
	NetworkID string
	Payload   map[string]any
}

type Binding struct {
	NetworkID  string
	TemplateID string
}

// Fake serves canned items and records every write.
type Fake struct {
	mu sync.Mutex

	Organizations []dashboard.Item
	Networks      map[string][]dashboard.Item
	Inventory     map[string][]dashboard.Item
	Stacks        map[string][]dashboard.Item
	Devices       map[string][]dashboard.Item

	// Err fails GetOrganizations, UpdateErrs fail updates of one network.
	Err        error
	UpdateErrs map[string]error

	Updates  []Update
	Created  []dashboard.NewNetwork
	Bindings []Binding
	calls    int
}

func New() *Fake {
	return &Fake{
		Networks:   make(map[string][]dashboard.Item),
		Inventory:  make(map[string][]dashboard.Item),
		Stacks:     make(map[string][]dashboard.Item),
		Devices:    make(map[string][]dashboard.Item),
		UpdateErrs: make(map[string]error),
	}
}

// Calls counts every API call served.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func (f *Fake) GetOrganizations(ctx context.Context) ([]dashboard.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.Err != nil {
		return nil, &dashboard.APIError{Op: "list", Object: "organizations", Err: fmt.Errorf("%w: %w", dashboard.ErrUnreachable, f.Err)}
	}
	return clone(f.Organizations), nil
}

func (f *Fake) GetOrganizationNetworks(ctx context.Context, orgID string) ([]dashboard.Item, error) {
	return f.list(f.Networks, orgID), nil
}

func (f *Fake) GetOrganizationInventoryDevices(ctx context.Context, orgID string) ([]dashboard.Item, error) {
	return f.list(f.Inventory, orgID), nil
}

func (f *Fake) GetNetworkSwitchStacks(ctx context.Context, networkID string) ([]dashboard.Item, error) {
	return f.list(f.Stacks, networkID), nil
}

func (f *Fake) GetNetworkDevices(ctx context.Context, networkID string) ([]dashboard.Item, error) {
	return f.list(f.Devices, networkID), nil
}

func (f *Fake) UpdateNetwork(ctx context.Context, networkID string, update map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if err := f.UpdateErrs[networkID]; err != nil {
		return &dashboard.APIError{Op: "update", Object: "network " + networkID, Payload: update, Err: err}
	}

	f.Updates = append(f.Updates, Update{NetworkID: networkID, Payload: update})

	for _, networks := range f.Networks {
		for _, network := range networks {
			if network.String("id") != networkID {
				continue
			}
			for k, v := range update {
				network[k] = v
			}
		}
	}

	return nil
}

func (f *Fake) CreateOrganizationNetwork(ctx context.Context, orgID string, network dashboard.NewNetwork) (dashboard.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.Created = append(f.Created, network)

	item := dashboard.Item{
		"id":                      fmt.Sprintf("N_%d", len(f.Created)),
		"organizationId":          orgID,
		"name":                    network.Name,
		"productTypes":            toAny(network.ProductTypes),
		"tags":                    toAny(network.Tags),
		"timeZone":                network.TimeZone,
		"isBoundToConfigTemplate": false,
	}
	f.Networks[orgID] = append(f.Networks[orgID], item)

	return cloneItem(item), nil
}

func (f *Fake) BindNetwork(ctx context.Context, networkID, templateID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.Bindings = append(f.Bindings, Binding{NetworkID: networkID, TemplateID: templateID})

	return nil
}

func (f *Fake) list(source map[string][]dashboard.Item, key string) []dashboard.Item {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	return clone(source[key])
}

// Factory hands out one fake per dashboard name.
type Factory struct {
	Fakes map[string]*Fake
	Err   error
}

func (f *Factory) Connect(dash *models.Dashboard) (dashboard.Client, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	fake, ok := f.Fakes[dash.Name]
	if !ok {
		return nil, fmt.Errorf("no fake for dashboard %s", dash.Name)
	}
	return fake, nil
}

func clone(items []dashboard.Item) []dashboard.Item {
	result := make([]dashboard.Item, 0, len(items))
	for _, item := range items {
		result = append(result, cloneItem(item))
	}
	return result
}

func cloneItem(item dashboard.Item) dashboard.Item {
	return dashboard.Item(models.CloneJSON(map[string]any(item)).(map[string]any))
}

func toAny(values []string) []any {
	result := make([]any, 0, len(values))
	for _, v := range values {
		result = append(result, v)
	}
	return result
}
