package reconciler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/internal/dashboard"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/store"
)

// DeviceManufacturer is the catalog manufacturer of every dashboard device.
const DeviceManufacturer = "cisco"

func deviceBySerial(txn *store.Txn, serial string) (*models.Device, bool, error) {
	if serial == "" {
		return nil, false, ErrMissingSerial
	}

	device, err := txn.DeviceBySerial(serial)
	switch {
	case notFound(err):
		return &models.Device{Serial: serial}, true, nil
	case err != nil:
		return nil, false, err
	}

	return device, false, nil
}

// deviceName falls back to the MAC address for unnamed devices.
func deviceName(item dashboard.Item) string {
	if name := strings.TrimSpace(item.String("name")); name != "" {
		return name
	}
	return item.String("mac")
}

func commonDeviceFields(device *models.Device, item dashboard.Item) []Change {
	return []Change{
		Field("name", &device.Name, deviceName(item)),
		Field("model", &device.Model, item.String("model")),
		Field("mac", &device.MAC, item.String("mac")),
		SetField("tags", &device.Tags, item.Strings("tags")),
	}
}

func inventoryDeviceFields(device *models.Device, item dashboard.Item, orgID string) []Change {
	return []Change{
		Field("org", &device.OrgID, orgID),
		Field("remote_network_id", &device.RemoteNetworkID, item.String("networkId")),
		Field("product_type", &device.ProductType, item.String("productType")),
		JSONField("details", &device.Details, item.Value("details")),
	}
}

func networkDeviceFields(device *models.Device, item dashboard.Item, network *models.Network) []Change {
	return []Change{
		Field("notes", &device.Notes, item.String("notes")),
		Field("firmware", &device.Firmware, item.String("firmware")),
		Field("address", &device.Address, item.String("address")),
		PtrField("lat", &device.Lat, item.Float("lat")),
		PtrField("lng", &device.Lng, item.Float("lng")),
		Field("org", &device.OrgID, network.OrgID),
		Field("remote_network_id", &device.RemoteNetworkID, network.RemoteID),
		Field("network", &device.NetworkID, network.ID),
		Field("site", &device.SiteID, network.SiteID),
	}
}

// refreshDevice upserts an inventory device by serial and cross links it
// with the local catalog, asset, network and site.
func (r *run) refreshDevice(org *models.Organization, item dashboard.Item) error {
	return r.store.Write(func(txn *store.Txn) error {
		device, created, err := deviceBySerial(txn, item.String("serial"))
		if err != nil {
			return err
		}

		changed := Apply(append(commonDeviceFields(device, item), inventoryDeviceFields(device, item, org.ID)...)...)

		asset, links, err := r.link(txn, device)
		if err != nil {
			return fmt.Errorf("failed to link device %s: %w", device.Serial, err)
		}
		changed = append(changed, Apply(links...)...)

		if r.saved(KindDevice, device.Serial, created, changed) {
			if err := txn.PutDevice(device); err != nil {
				return fmt.Errorf("failed to save device %s: %w", device.Serial, err)
			}
		}

		if asset == nil {
			return nil
		}

		if _, err := r.linker.Link(txn, asset); err != nil {
			return fmt.Errorf("failed to ensure settings of device %s: %w", device.Serial, err)
		}

		return nil
	})
}

// link resolves the local references of a device. The site always follows
// the network.
func (r *run) link(txn *store.Txn, device *models.Device) (*models.Asset, []Change, error) {
	deviceTypeID := ""
	if device.Model != "" {
		deviceType, err := txn.DeviceTypeByModel(DeviceManufacturer, device.Model)
		switch {
		case err == nil:
			deviceTypeID = deviceType.ID
		case !notFound(err):
			return nil, nil, err
		}
	}

	asset, err := r.resolveAsset(txn, device.Serial)
	if err != nil {
		return nil, nil, err
	}
	assetID := ""
	if asset != nil {
		assetID = asset.ID
	}

	networkID, siteID := "", ""
	if device.RemoteNetworkID != "" {
		network, err := txn.NetworkByRemoteID(device.RemoteNetworkID)
		switch {
		case err == nil:
			networkID, siteID = network.ID, network.SiteID
		case !notFound(err):
			return nil, nil, err
		}
	}

	links := []Change{
		Field("device_type", &device.DeviceTypeID, deviceTypeID),
		Field("asset", &device.AssetID, assetID),
		Field("network", &device.NetworkID, networkID),
		Field("site", &device.SiteID, siteID),
	}

	return asset, links, nil
}

// resolveAsset returns the local asset of a serial made by the dashboard
// manufacturer. Duplicates are pruned down to the earliest created one.
func (r *run) resolveAsset(txn *store.Txn, serial string) (*models.Asset, error) {
	assets, err := txn.AssetsBySerialAndManufacturer(serial, DeviceManufacturer)
	if err != nil {
		return nil, err
	}

	switch len(assets) {
	case 0:
		return nil, nil
	case 1:
		return assets[0], nil
	}

	slices.SortFunc(assets, func(a, b *models.Asset) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	kept := assets[0]
	for _, duplicate := range assets[1:] {
		if err := txn.DeleteAsset(duplicate.ID); err != nil {
			return nil, fmt.Errorf("failed to prune duplicated asset %s: %w", duplicate.ID, err)
		}
	}

	r.log.WithFields(logrus.Fields{"serial": serial, "kept": kept.ID, "pruned": len(assets) - 1}).Warn("duplicated assets pruned")
	r.jobs.Warning(serial, fmt.Sprintf("%d duplicated assets pruned, kept %s", len(assets)-1, kept.Name))

	return kept, nil
}
