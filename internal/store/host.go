package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sop-infra/sopctl/internal/models"
)

type GroupKind string

const (
	Region      GroupKind = TableRegion
	SiteGroup   GroupKind = TableSiteGroup
	TenantGroup GroupKind = TableTenantGroup
)

var ErrGroupLoop = errors.New("group hierarchy loops")

func (t *Txn) Site(id string) (*models.Site, error) {
	return first[*models.Site](t, TableSite, indexID, id)
}

func (t *Txn) SiteBySlug(slug string) (*models.Site, error) {
	return first[*models.Site](t, TableSite, indexSlug, slug)
}

func (t *Txn) Sites() ([]*models.Site, error) {
	return all[*models.Site](t, TableSite)
}

func (t *Txn) PutSite(site *models.Site) error {
	if site.ID == "" {
		site.ID = newID()
	}
	return t.insert(TableSite, site.Clone())
}

// DeleteSite removes the site with its locations and infra record. Networks
// and devices keep their rows with the site link cleared, slaves lose their
// master.
func (t *Txn) DeleteSite(id string) error {
	networks, err := t.NetworksBySite(id)
	if err != nil {
		return err
	}
	for _, network := range networks {
		network.SiteID = ""
		if err := t.PutNetwork(network); err != nil {
			return err
		}
	}

	devices, err := list[*models.Device](t, TableDevice, indexSiteID, id)
	if err != nil {
		return err
	}
	for _, device := range devices {
		device.SiteID = ""
		if err := t.PutDevice(device); err != nil {
			return err
		}
	}

	locations, err := t.LocationsBySite(id)
	if err != nil {
		return err
	}
	for _, location := range locations {
		if err := t.DeleteLocation(location.ID); err != nil {
			return err
		}
	}

	slaves, err := t.InfraSlaves(id)
	if err != nil {
		return err
	}
	for _, slave := range slaves {
		slave.MasterSiteID = ""
		if err := t.PutInfra(slave); err != nil {
			return err
		}
	}

	record, err := t.InfraBySite(id)
	switch {
	case err == nil:
		if err := t.DeleteInfra(record.ID); err != nil {
			return err
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}

	return t.remove(TableSite, id)
}

func (t *Txn) Location(id string) (*models.Location, error) {
	return first[*models.Location](t, TableLocation, indexID, id)
}

func (t *Txn) Locations() ([]*models.Location, error) {
	return all[*models.Location](t, TableLocation)
}

func (t *Txn) LocationsBySite(siteID string) ([]*models.Location, error) {
	return list[*models.Location](t, TableLocation, indexSiteID, siteID)
}

func (t *Txn) PutLocation(location *models.Location) error {
	if location.ID == "" {
		location.ID = newID()
	}
	return t.insert(TableLocation, location.Clone())
}

// DeleteLocation removes the location and clears the master anchor of the
// infra record pointing at it.
func (t *Txn) DeleteLocation(id string) error {
	record, err := t.InfraByMasterLocation(id)
	switch {
	case err == nil:
		record.MasterLocationID = ""
		if err := t.PutInfra(record); err != nil {
			return err
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}

	return t.remove(TableLocation, id)
}

func (t *Txn) Group(kind GroupKind, id string) (*models.Group, error) {
	return first[*models.Group](t, string(kind), indexID, id)
}

func (t *Txn) Groups(kind GroupKind) ([]*models.Group, error) {
	return all[*models.Group](t, string(kind))
}

func (t *Txn) PutGroup(kind GroupKind, group *models.Group) error {
	if group.ID == "" {
		group.ID = newID()
	}
	return t.insert(string(kind), group.Clone())
}

// GroupAncestry returns the group followed by its parents up to the root.
func (t *Txn) GroupAncestry(kind GroupKind, id string) ([]*models.Group, error) {
	ancestry := make([]*models.Group, 0)
	seen := make(map[string]struct{})

	for id != "" {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%s %s: %w", kind, id, ErrGroupLoop)
		}
		seen[id] = struct{}{}

		group, err := t.Group(kind, id)
		if err != nil {
			return nil, err
		}

		ancestry = append(ancestry, group)
		id = group.ParentID
	}

	return ancestry, nil
}

func (t *Txn) Tenant(id string) (*models.Tenant, error) {
	return first[*models.Tenant](t, TableTenant, indexID, id)
}

func (t *Txn) Tenants() ([]*models.Tenant, error) {
	return all[*models.Tenant](t, TableTenant)
}

func (t *Txn) PutTenant(tenant *models.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = newID()
	}
	return t.insert(TableTenant, tenant.Clone())
}

func (t *Txn) DeviceType(id string) (*models.DeviceType, error) {
	return first[*models.DeviceType](t, TableDeviceType, indexID, id)
}

// DeviceTypeByModel finds the catalog entry of a manufacturer whose slug is
// the lowercased model.
func (t *Txn) DeviceTypeByModel(manufacturer, model string) (*models.DeviceType, error) {
	slug := strings.ToLower(model)

	types, err := list[*models.DeviceType](t, TableDeviceType, indexSlug, slug)
	if err != nil {
		return nil, err
	}

	for _, deviceType := range types {
		if strings.EqualFold(deviceType.Manufacturer, manufacturer) {
			return deviceType, nil
		}
	}

	return nil, fmt.Errorf("device type %s/%s: %w", manufacturer, slug, ErrNotFound)
}

func (t *Txn) DeviceTypes() ([]*models.DeviceType, error) {
	return all[*models.DeviceType](t, TableDeviceType)
}

func (t *Txn) PutDeviceType(deviceType *models.DeviceType) error {
	if deviceType.ID == "" {
		deviceType.ID = newID()
	}
	return t.insert(TableDeviceType, deviceType.Clone())
}

func (t *Txn) Asset(id string) (*models.Asset, error) {
	return first[*models.Asset](t, TableAsset, indexID, id)
}

func (t *Txn) AssetsBySerial(serial string) ([]*models.Asset, error) {
	return list[*models.Asset](t, TableAsset, indexSerial, serial)
}

// AssetsBySerialAndManufacturer returns the assets of a serial whose device
// type is made by manufacturer. Assets without a device type are skipped.
func (t *Txn) AssetsBySerialAndManufacturer(serial, manufacturer string) ([]*models.Asset, error) {
	assets, err := t.AssetsBySerial(serial)
	if err != nil {
		return nil, err
	}

	result := make([]*models.Asset, 0, len(assets))
	for _, asset := range assets {
		if asset.DeviceTypeID == "" {
			continue
		}

		deviceType, err := t.DeviceType(asset.DeviceTypeID)
		switch {
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			return nil, err
		}

		if strings.EqualFold(deviceType.Manufacturer, manufacturer) {
			result = append(result, asset)
		}
	}

	return result, nil
}

func (t *Txn) Assets() ([]*models.Asset, error) {
	return all[*models.Asset](t, TableAsset)
}

func (t *Txn) PutAsset(asset *models.Asset) error {
	if asset.ID == "" {
		asset.ID = newID()
	}
	return t.insert(TableAsset, asset.Clone())
}

// DeleteAsset removes the asset and its switch settings and unlinks devices.
func (t *Txn) DeleteAsset(id string) error {
	devices, err := list[*models.Device](t, TableDevice, indexAssetID, id)
	if err != nil {
		return err
	}
	for _, device := range devices {
		device.AssetID = ""
		if err := t.PutDevice(device); err != nil {
			return err
		}
	}

	settings, err := t.SwitchSettingsByAsset(id)
	switch {
	case err == nil:
		if err := t.remove(TableSwitchSettings, settings.ID); err != nil {
			return err
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}

	return t.remove(TableAsset, id)
}

func (t *Txn) SwitchSettingsByAsset(assetID string) (*models.SwitchSettings, error) {
	return first[*models.SwitchSettings](t, TableSwitchSettings, indexAssetID, assetID)
}

func (t *Txn) AllSwitchSettings() ([]*models.SwitchSettings, error) {
	return all[*models.SwitchSettings](t, TableSwitchSettings)
}

func (t *Txn) PutSwitchSettings(settings *models.SwitchSettings) error {
	if settings.ID == "" {
		settings.ID = newID()
	}
	return t.insert(TableSwitchSettings, settings.Clone())
}
