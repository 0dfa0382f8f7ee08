package models

// Seed is a set of records loaded from, or dumped to, YAML. Records
// reference each other by ID.
type Seed struct {
	Regions        []*Group          `yaml:"regions,omitempty"`
	SiteGroups     []*Group          `yaml:"site_groups,omitempty"`
	TenantGroups   []*Group          `yaml:"tenant_groups,omitempty"`
	Tenants        []*Tenant         `yaml:"tenants,omitempty"`
	Sites          []*Site           `yaml:"sites,omitempty"`
	Locations      []*Location       `yaml:"locations,omitempty"`
	DeviceTypes    []*DeviceType     `yaml:"device_types,omitempty"`
	Assets         []*Asset          `yaml:"assets,omitempty"`
	Infra          []*InfraRecord    `yaml:"infra,omitempty"`
	Dashboards     []*Dashboard      `yaml:"dashboards,omitempty"`
	SwitchSettings []*SwitchSettings `yaml:"switch_settings,omitempty"`

	Organizations []*Organization `yaml:"organizations,omitempty"`
	Networks      []*Network      `yaml:"networks,omitempty"`
	SwitchStacks  []*SwitchStack  `yaml:"switch_stacks,omitempty"`
	Devices       []*Device       `yaml:"devices,omitempty"`
}

// Merge appends every record of other.
func (s *Seed) Merge(other *Seed) {
	s.Regions = append(s.Regions, other.Regions...)
	s.SiteGroups = append(s.SiteGroups, other.SiteGroups...)
	s.TenantGroups = append(s.TenantGroups, other.TenantGroups...)
	s.Tenants = append(s.Tenants, other.Tenants...)
	s.Sites = append(s.Sites, other.Sites...)
	s.Locations = append(s.Locations, other.Locations...)
	s.DeviceTypes = append(s.DeviceTypes, other.DeviceTypes...)
	s.Assets = append(s.Assets, other.Assets...)
	s.Infra = append(s.Infra, other.Infra...)
	s.Dashboards = append(s.Dashboards, other.Dashboards...)
	s.SwitchSettings = append(s.SwitchSettings, other.SwitchSettings...)
	s.Organizations = append(s.Organizations, other.Organizations...)
	s.Networks = append(s.Networks, other.Networks...)
	s.SwitchStacks = append(s.SwitchStacks, other.SwitchStacks...)
	s.Devices = append(s.Devices, other.Devices...)
}
