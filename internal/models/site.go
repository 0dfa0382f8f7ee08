package models

import "time"

const (
	SiteStatusActive     = "active"
	SiteStatusStarting   = "starting"
	SiteStatusCandidate  = "candidate"
	SiteStatusDC         = "dc"
	SiteStatusNoInfra    = "no_infra"
	SiteStatusReserved   = "reserved"
	SiteStatusTemplate   = "template"
	SiteStatusInventory  = "inventory"
	SiteStatusTeleworker = "teleworker"
)

// NoNetworkStatuses are site statuses that never carry an SDWAN network.
var NoNetworkStatuses = []string{
	SiteStatusNoInfra,
	SiteStatusReserved,
	SiteStatusTemplate,
	SiteStatusInventory,
	SiteStatusTeleworker,
}

const (
	IntegrationMarkerField = "site_integration_isilog"
	IntegrationMarkerDone  = "done"
)

type Site struct {
	ID           string            `yaml:"id"`
	Slug         string            `yaml:"slug"`
	Name         string            `yaml:"name"`
	Status       string            `yaml:"status"`
	RegionID     string            `yaml:"region,omitempty"`
	TenantID     string            `yaml:"tenant,omitempty"`
	GroupID      string            `yaml:"group,omitempty"`
	TimeZone     string            `yaml:"time_zone,omitempty"`
	Tags         []string          `yaml:"tags,omitempty"`
	CustomFields map[string]string `yaml:"custom_fields,omitempty"`
}

func (s *Site) IntegrationDone() bool {
	return s.CustomFields[IntegrationMarkerField] == IntegrationMarkerDone
}

func (s *Site) Clone() *Site {
	c := *s
	c.Tags = append([]string(nil), s.Tags...)
	if s.CustomFields != nil {
		c.CustomFields = make(map[string]string, len(s.CustomFields))
		for k, v := range s.CustomFields {
			c.CustomFields[k] = v
		}
	}
	return &c
}

type Location struct {
	ID     string `yaml:"id"`
	SiteID string `yaml:"site"`
	Slug   string `yaml:"slug"`
	Name   string `yaml:"name"`
}

func (l *Location) Clone() *Location {
	c := *l
	return &c
}

// Group is a node of one of the host's nested groupings (region, site group,
// tenant group). ParentID is empty at the root.
type Group struct {
	ID       string `yaml:"id"`
	Slug     string `yaml:"slug"`
	Name     string `yaml:"name"`
	ParentID string `yaml:"parent,omitempty"`
}

func (g *Group) Clone() *Group {
	c := *g
	return &c
}

type Tenant struct {
	ID      string `yaml:"id"`
	Slug    string `yaml:"slug"`
	Name    string `yaml:"name"`
	GroupID string `yaml:"group,omitempty"`
}

func (t *Tenant) Clone() *Tenant {
	c := *t
	return &c
}

type DeviceType struct {
	ID           string `yaml:"id"`
	Slug         string `yaml:"slug"`
	Model        string `yaml:"model"`
	Manufacturer string `yaml:"manufacturer"`
}

func (d *DeviceType) Clone() *DeviceType {
	c := *d
	return &c
}

// Asset is a local device record of the host inventory.
type Asset struct {
	ID           string    `yaml:"id"`
	Name         string    `yaml:"name"`
	Serial       string    `yaml:"serial"`
	DeviceTypeID string    `yaml:"device_type,omitempty"`
	SiteID       string    `yaml:"site,omitempty"`
	Created      time.Time `yaml:"created"`
}

func (a *Asset) Clone() *Asset {
	c := *a
	return &c
}
