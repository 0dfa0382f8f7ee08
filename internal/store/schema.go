package store

import (
	"github.com/hashicorp/go-memdb"
)

const (
	TableSite           = "site"
	TableLocation       = "location"
	TableRegion         = "region"
	TableSiteGroup      = "site_group"
	TableTenantGroup    = "tenant_group"
	TableTenant         = "tenant"
	TableDeviceType     = "device_type"
	TableAsset          = "asset"
	TableSwitchSettings = "switch_settings"
	TableInfra          = "infra"
	TableDashboard      = "dashboard"
	TableOrganization   = "organization"
	TableNetwork        = "network"
	TableSwitchStack    = "switch_stack"
	TableDevice         = "device"
)

const (
	indexID               = "id"
	indexSlug             = "slug"
	indexName             = "name"
	indexSerial           = "serial"
	indexRemoteID         = "remote_id"
	indexSiteID           = "site_id"
	indexOrgID            = "org_id"
	indexNetworkID        = "network_id"
	indexStackID          = "stack_id"
	indexAssetID          = "asset_id"
	indexDashboardID      = "dashboard_id"
	indexMasterSiteID     = "master_site_id"
	indexMasterLocationID = "master_location_id"
)

type index struct {
	name     string
	field    string
	unique   bool
	optional bool
}

var tables = map[string][]index{
	TableSite: {
		{name: indexSlug, field: "Slug", unique: true},
	},
	TableLocation: {
		{name: indexSiteID, field: "SiteID"},
	},
	TableRegion: {
		{name: indexSlug, field: "Slug", unique: true},
	},
	TableSiteGroup: {
		{name: indexSlug, field: "Slug", unique: true},
	},
	TableTenantGroup: {
		{name: indexSlug, field: "Slug", unique: true},
	},
	TableTenant: {
		{name: indexSlug, field: "Slug", unique: true},
	},
	TableDeviceType: {
		{name: indexSlug, field: "Slug"},
	},
	TableAsset: {
		{name: indexSerial, field: "Serial", optional: true},
	},
	TableSwitchSettings: {
		{name: indexAssetID, field: "AssetID", unique: true},
	},
	TableInfra: {
		{name: indexSiteID, field: "SiteID", unique: true},
		{name: indexMasterSiteID, field: "MasterSiteID", optional: true},
		{name: indexMasterLocationID, field: "MasterLocationID", unique: true, optional: true},
	},
	TableDashboard: {
		{name: indexName, field: "Name", unique: true},
	},
	TableOrganization: {
		{name: indexRemoteID, field: "RemoteID", unique: true},
		{name: indexDashboardID, field: "DashboardID"},
	},
	TableNetwork: {
		{name: indexRemoteID, field: "RemoteID", unique: true},
		{name: indexOrgID, field: "OrgID"},
		{name: indexSiteID, field: "SiteID", optional: true},
	},
	TableSwitchStack: {
		{name: indexRemoteID, field: "RemoteID", unique: true},
		{name: indexNetworkID, field: "NetworkID"},
	},
	TableDevice: {
		{name: indexSerial, field: "Serial", unique: true},
		{name: indexOrgID, field: "OrgID", optional: true},
		{name: indexNetworkID, field: "NetworkID", optional: true},
		{name: indexSiteID, field: "SiteID", optional: true},
		{name: indexStackID, field: "StackID", optional: true},
		{name: indexAssetID, field: "AssetID", optional: true},
	},
}

func schema() *memdb.DBSchema {
	s := &memdb.DBSchema{Tables: make(map[string]*memdb.TableSchema, len(tables))}

	for table, indexes := range tables {
		ts := &memdb.TableSchema{
			Name: table,
			Indexes: map[string]*memdb.IndexSchema{
				indexID: {
					Name:    indexID,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
			},
		}

		for _, idx := range indexes {
			ts.Indexes[idx.name] = &memdb.IndexSchema{
				Name:         idx.name,
				Unique:       idx.unique,
				AllowMissing: idx.optional,
				Indexer:      &memdb.StringFieldIndex{Field: idx.field},
			}
		}

		s.Tables[table] = ts
	}

	return s
}
