package models

type Dashboard struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	APIURL      string `yaml:"api_url"`
}

func (d *Dashboard) Clone() *Dashboard {
	c := *d
	return &c
}

type Organization struct {
	ID          string `yaml:"id"`
	DashboardID string `yaml:"dashboard"`
	RemoteID    string `yaml:"remote_id"`
	Name        string `yaml:"name"`
	URL         string `yaml:"url,omitempty"`
	API         any    `yaml:"api,omitempty"`
	CloudRegion string `yaml:"cloud_region,omitempty"`
	Licensing   any    `yaml:"licensing,omitempty"`
}

func (o *Organization) Clone() *Organization {
	c := *o
	c.API = CloneJSON(o.API)
	c.Licensing = CloneJSON(o.Licensing)
	return &c
}

type Network struct {
	ID              string   `yaml:"id"`
	OrgID           string   `yaml:"org"`
	RemoteID        string   `yaml:"remote_id"`
	Name            string   `yaml:"name"`
	SiteID          string   `yaml:"site,omitempty"`
	ProductTypes    []string `yaml:"product_types,omitempty"`
	Tags            []string `yaml:"tags,omitempty"`
	TimeZone        string   `yaml:"time_zone,omitempty"`
	BoundToTemplate bool     `yaml:"bound_to_template"`
	URL             string   `yaml:"url,omitempty"`
	Notes           string   `yaml:"notes,omitempty"`
}

func (n *Network) Clone() *Network {
	c := *n
	c.ProductTypes = append([]string(nil), n.ProductTypes...)
	c.Tags = append([]string(nil), n.Tags...)
	return &c
}

type SwitchStack struct {
	ID        string   `yaml:"id"`
	NetworkID string   `yaml:"network"`
	RemoteID  string   `yaml:"remote_id"`
	Name      string   `yaml:"name"`
	Serials   []string `yaml:"serials,omitempty"`
}

func (s *SwitchStack) Clone() *SwitchStack {
	c := *s
	c.Serials = append([]string(nil), s.Serials...)
	return &c
}

// Device is an inventory device of a remote dashboard. The serial is its
// identity; every cross reference may be cleared without removing the row.
type Device struct {
	ID              string   `yaml:"id"`
	Serial          string   `yaml:"serial"`
	Name            string   `yaml:"name"`
	Model           string   `yaml:"model"`
	MAC             string   `yaml:"mac,omitempty"`
	ProductType     string   `yaml:"product_type,omitempty"`
	Notes           string   `yaml:"notes,omitempty"`
	Firmware        string   `yaml:"firmware,omitempty"`
	Address         string   `yaml:"address,omitempty"`
	Lat             *float64 `yaml:"lat,omitempty"`
	Lng             *float64 `yaml:"lng,omitempty"`
	Tags            []string `yaml:"tags,omitempty"`
	Details         any      `yaml:"details,omitempty"`
	RemoteNetworkID string   `yaml:"remote_network_id,omitempty"`

	OrgID        string `yaml:"org,omitempty"`
	NetworkID    string `yaml:"network,omitempty"`
	SiteID       string `yaml:"site,omitempty"`
	DeviceTypeID string `yaml:"device_type,omitempty"`
	AssetID      string `yaml:"asset,omitempty"`
	StackID      string `yaml:"stack,omitempty"`
}

func (d *Device) Clone() *Device {
	c := *d
	c.Lat = clonePtr(d.Lat)
	c.Lng = clonePtr(d.Lng)
	c.Tags = append([]string(nil), d.Tags...)
	c.Details = CloneJSON(d.Details)
	return &c
}

// Orphan clears every cross reference of the device.
func (d *Device) Orphan() {
	d.RemoteNetworkID = ""
	d.NetworkID = ""
	d.OrgID = ""
	d.SiteID = ""
	d.StackID = ""
}

func (d *Device) IsOrphan() bool {
	return d.OrgID == "" && d.NetworkID == "" && d.SiteID == ""
}

const (
	PortModeAccess = "access"
	PortModeTrunk  = "trunk"

	VlansIT  = "it_vlans"
	VlansOT  = "ot_vlans"
	VlansLXC = "lxc_vlans"

	GuardDisabled = "disabled"
	GuardRoot     = "root guard"
	GuardBPDU     = "bpdu guard"
	GuardLoop     = "loop guard"
)

var (
	PortModes   = []string{PortModeAccess, PortModeTrunk}
	VlanSets    = []string{VlansIT, VlansOT, VlansLXC}
	BpduFilters = []string{GuardDisabled, GuardRoot, GuardBPDU}
	StpGuards   = []string{GuardDisabled, GuardRoot, GuardBPDU, GuardLoop}
)

// SwitchSettings is the per-device settings record of a managed switch asset.
type SwitchSettings struct {
	ID           string `yaml:"id"`
	AssetID      string `yaml:"asset"`
	UplinkMode   string `yaml:"uplink_mode,omitempty"`
	AllowedVlans string `yaml:"allowed_vlans,omitempty"`
	BpduFilter   string `yaml:"bpdu_filter,omitempty"`
	StpGuard     string `yaml:"stp_guard,omitempty"`
	Compliant    bool   `yaml:"compliant"`
}

func (s *SwitchSettings) Clone() *SwitchSettings {
	c := *s
	return &c
}

// CloneJSON deep copies a decoded JSON value.
func CloneJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		c := make(map[string]any, len(t))
		for k, e := range t {
			c[k] = CloneJSON(e)
		}
		return c
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = CloneJSON(e)
		}
		return c
	default:
		return v
	}
}
