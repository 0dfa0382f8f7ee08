package store

import (
	"fmt"

	"github.com/sop-infra/sopctl/internal/models"
)

// Load inserts every record of the seed, parents first.
func (t *Txn) Load(seed *models.Seed) error {
	groups := []struct {
		kind   GroupKind
		groups []*models.Group
	}{
		{Region, seed.Regions},
		{SiteGroup, seed.SiteGroups},
		{TenantGroup, seed.TenantGroups},
	}
	for _, g := range groups {
		if err := each(g.groups, func(group *models.Group) error { return t.PutGroup(g.kind, group) }); err != nil {
			return fmt.Errorf("failed to load %s: %w", g.kind, err)
		}
	}

	steps := []struct {
		table string
		load  func() error
	}{
		{TableTenant, func() error { return each(seed.Tenants, t.PutTenant) }},
		{TableSite, func() error { return each(seed.Sites, t.PutSite) }},
		{TableLocation, func() error { return each(seed.Locations, t.PutLocation) }},
		{TableDeviceType, func() error { return each(seed.DeviceTypes, t.PutDeviceType) }},
		{TableAsset, func() error { return each(seed.Assets, t.PutAsset) }},
		{TableSwitchSettings, func() error { return each(seed.SwitchSettings, t.PutSwitchSettings) }},
		{TableInfra, func() error { return each(seed.Infra, t.PutInfra) }},
		{TableDashboard, func() error { return each(seed.Dashboards, t.PutDashboard) }},
		{TableOrganization, func() error { return each(seed.Organizations, t.PutOrganization) }},
		{TableNetwork, func() error { return each(seed.Networks, t.PutNetwork) }},
		{TableSwitchStack, func() error { return each(seed.SwitchStacks, t.PutSwitchStack) }},
		{TableDevice, func() error { return each(seed.Devices, t.PutDevice) }},
	}
	for _, step := range steps {
		if err := step.load(); err != nil {
			return fmt.Errorf("failed to load %s: %w", step.table, err)
		}
	}

	return nil
}

// Dump returns every stored record.
func (t *Txn) Dump() (*models.Seed, error) {
	seed := &models.Seed{}

	var err error
	for _, step := range []func() error{
		func() error { seed.Regions, err = t.Groups(Region); return err },
		func() error { seed.SiteGroups, err = t.Groups(SiteGroup); return err },
		func() error { seed.TenantGroups, err = t.Groups(TenantGroup); return err },
		func() error { seed.Tenants, err = t.Tenants(); return err },
		func() error { seed.Sites, err = t.Sites(); return err },
		func() error { seed.Locations, err = t.Locations(); return err },
		func() error { seed.DeviceTypes, err = t.DeviceTypes(); return err },
		func() error { seed.Assets, err = t.Assets(); return err },
		func() error { seed.SwitchSettings, err = t.AllSwitchSettings(); return err },
		func() error { seed.Infra, err = t.Infras(); return err },
		func() error { seed.Dashboards, err = t.Dashboards(); return err },
		func() error { seed.Organizations, err = t.Organizations(); return err },
		func() error { seed.Networks, err = t.Networks(); return err },
		func() error { seed.SwitchStacks, err = t.SwitchStacks(); return err },
		func() error { seed.Devices, err = t.Devices(); return err },
	} {
		if err := step(); err != nil {
			return nil, err
		}
	}

	return seed, nil
}

func each[T any](items []T, put func(T) error) error {
	for _, item := range items {
		if err := put(item); err != nil {
			return err
		}
	}
	return nil
}
