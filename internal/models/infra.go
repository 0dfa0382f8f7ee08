package models

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

type Flag string

const (
	FlagUnset   Flag = ""
	FlagUnknown Flag = "unknown"
	FlagTrue    Flag = "true"
	FlagFalse   Flag = "false"
)

func (f Flag) IsTrue() bool {
	return f == FlagTrue
}

const (
	InfraTypeBox         = "box"
	InfraTypeSuperBox    = "superb"
	InfraTypeFullCluster = "sysclust"

	IndusTypeWorkshop = "wrk"
	IndusTypeFactory  = "fac"
)

const (
	SdwanHA        = "-HA-"
	SdwanNHA       = "-NHA-"
	SdwanNoNetwork = "-NO NETWORK-"
	SdwanSlave     = "-SLAVE SITE-"
	SdwanDC        = "-DC-"
)

const (
	SiteSizeDC = "-DC"

	StarsNormal   = "*"
	StarsCritical = "**"
	StarsVIP      = "***"
	StarsDC       = "****"
)

// LargeSiteSizes are the site-size buckets that require a highly available
// SDWAN setup on their own.
var LargeSiteSizes = []string{"50<100", "100<200", "200<500", ">500"}

// UserCounts groups the four per-population user counts of a site.
type UserCounts struct {
	WhiteCollar *int64 `yaml:"wc,omitempty"`
	BlueCollar  *int64 `yaml:"bc,omitempty"`
	External    *int64 `yaml:"ext,omitempty"`
	Nomad       *int64 `yaml:"nom,omitempty"`
}

func ZeroUserCounts() UserCounts {
	return UserCounts{
		WhiteCollar: lo.ToPtr[int64](0),
		BlueCollar:  lo.ToPtr[int64](0),
		External:    lo.ToPtr[int64](0),
		Nomad:       lo.ToPtr[int64](0),
	}
}

func (u UserCounts) clone() UserCounts {
	return UserCounts{
		WhiteCollar: clonePtr(u.WhiteCollar),
		BlueCollar:  clonePtr(u.BlueCollar),
		External:    clonePtr(u.External),
		Nomad:       clonePtr(u.Nomad),
	}
}

// InfraRecord holds the infrastructure metadata of exactly one site.
type InfraRecord struct {
	ID     string `yaml:"id"`
	SiteID string `yaml:"site"`

	InfraType      string `yaml:"infra_type,omitempty"`
	IndusType      string `yaml:"indus_type,omitempty"`
	PhoneCritical  Flag   `yaml:"phone_critical,omitempty"`
	RnD            Flag   `yaml:"rnd,omitempty"`
	VIP            Flag   `yaml:"vip,omitempty"`
	WMS            Flag   `yaml:"wms,omitempty"`
	CriticityStars string `yaml:"criticity_stars,omitempty"`

	Estimated UserCounts `yaml:"estimated,omitempty"`
	Directory UserCounts `yaml:"directory,omitempty"`

	WanComputedUsersWC *int64 `yaml:"wan_computed_users_wc,omitempty"`
	WanComputedUsersBC *int64 `yaml:"wan_computed_users_bc,omitempty"`
	WanRecoBW          *int64 `yaml:"wan_reco_bw,omitempty"`
	HardwareModel      string `yaml:"hardware_model,omitempty"`
	SiteSize           string `yaml:"site_size,omitempty"`

	Sdwan         string     `yaml:"sdwan,omitempty"`
	Sdwan1BW      string     `yaml:"sdwan1_bw,omitempty"`
	Sdwan2BW      string     `yaml:"sdwan2_bw,omitempty"`
	MigrationDate *time.Time `yaml:"migration_date,omitempty"`

	MonitorInStarting *bool `yaml:"monitor_in_starting,omitempty"`

	MasterSiteID     string `yaml:"master_site,omitempty"`
	MasterLocationID string `yaml:"master_location,omitempty"`
}

func (r *InfraRecord) IsSlave() bool {
	return r.MasterSiteID != "" || r.MasterLocationID != ""
}

func (r *InfraRecord) Clone() *InfraRecord {
	c := *r
	c.Estimated = r.Estimated.clone()
	c.Directory = r.Directory.clone()
	c.WanComputedUsersWC = clonePtr(r.WanComputedUsersWC)
	c.WanComputedUsersBC = clonePtr(r.WanComputedUsersBC)
	c.WanRecoBW = clonePtr(r.WanRecoBW)
	c.MigrationDate = clonePtr(r.MigrationDate)
	c.MonitorInStarting = clonePtr(r.MonitorInStarting)
	return &c
}

// CentreonActive reports whether the site should be monitored.
func (r *InfraRecord) CentreonActive(site *Site) bool {
	if site == nil {
		return false
	}
	if site.Status == SiteStatusActive {
		return true
	}
	return site.Status == SiteStatusStarting && r.MonitorInStarting != nil && *r.MonitorInStarting
}

// IsilogCode renders <region>-<tenant group>-<site>, or "" when part of the
// chain is missing.
func IsilogCode(site *Site, region *Group, tenantGroup *Group) string {
	if site == nil || region == nil || tenantGroup == nil {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s", region.Name, tenantGroup.Name, site.Name)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
