package reconciler

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sop-infra/sopctl/internal/dashboard"
	"github.com/sop-infra/sopctl/internal/metrics"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/store"
)

func organizationFields(org *models.Organization, item dashboard.Item, dashboardID string) []Change {
	cloudRegion, _ := item.Lookup("cloud", "region", "name").(string)

	return []Change{
		Field("name", &org.Name, item.String("name")),
		Field("remote_id", &org.RemoteID, item.String("id")),
		Field("dashboard", &org.DashboardID, dashboardID),
		Field("url", &org.URL, item.String("url")),
		JSONField("api", &org.API, item.Value("api")),
		Field("cloud_region", &org.CloudRegion, cloudRegion),
		JSONField("licensing", &org.Licensing, item.Value("licensing")),
	}
}

// refreshOrganization upserts the organization, then refreshes its networks
// and its inventory devices. A failing network or device does not stop its
// siblings; failing to list a collection skips its cleanup.
func (r *run) refreshOrganization(ctx context.Context, item dashboard.Item) error {
	var org *models.Organization

	err := r.store.Write(func(txn *store.Txn) error {
		var err error
		created := false

		org, err = txn.OrganizationByRemoteID(item.String("id"))
		switch {
		case notFound(err):
			r.jobs.Info(item.String("name"), "new organization")
			org, created = &models.Organization{}, true
		case err != nil:
			return err
		}

		changed := Apply(organizationFields(org, item, r.dashboard.ID)...)
		if !r.saved(KindOrganization, org.Name, created, changed) {
			return nil
		}

		return txn.PutOrganization(org)
	})
	if err != nil {
		r.count(KindOrganization, metrics.OutcomeFailed)
		return fmt.Errorf("failed to save organization %s: %w", item.String("id"), err)
	}

	var errs *multierror.Error

	if err := r.refreshNetworks(ctx, org); err != nil {
		errs = multierror.Append(errs, err)
	}

	if err := r.refreshInventory(ctx, org); err != nil {
		errs = multierror.Append(errs, err)
	}

	r.jobs.Info(org.Name, "organization refreshed")

	return errs.ErrorOrNil()
}

func (r *run) refreshNetworks(ctx context.Context, org *models.Organization) error {
	r.jobs.Info(org.Name, "listing networks")

	items, err := r.client.GetOrganizationNetworks(ctx, org.RemoteID)
	if err != nil {
		return fmt.Errorf("failed to list networks of organization %s: %w", org.Name, err)
	}

	var errs *multierror.Error
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return multierror.Append(errs, err)
		}

		seen[item.String("id")] = true

		if err := r.refreshNetwork(ctx, org, item); err != nil {
			r.count(KindNetwork, metrics.OutcomeFailed)
			r.jobs.Failure(item.String("name"), err.Error())
			errs = multierror.Append(errs, err)
		}
	}

	r.jobs.Info(org.Name, "networks listed, cleaning up")

	err = r.store.Write(func(txn *store.Txn) error {
		local, err := txn.NetworksByOrg(org.ID)
		if err != nil {
			return err
		}

		removed, err := cleanup(txn, networkCleanup, local, func(network *models.Network) string { return network.RemoteID }, seen)
		if err != nil {
			return err
		}

		for _, network := range removed {
			r.jobs.Info(network.Name, "network gone, deleting")
			r.count(KindNetwork, metrics.OutcomeRemoved)
		}

		return nil
	})
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("failed to clean up networks of organization %s: %w", org.Name, err))
	}

	return errs.ErrorOrNil()
}

func (r *run) refreshInventory(ctx context.Context, org *models.Organization) error {
	r.jobs.Info(org.Name, "listing inventory")

	items, err := r.client.GetOrganizationInventoryDevices(ctx, org.RemoteID)
	if err != nil {
		return fmt.Errorf("failed to list devices of organization %s: %w", org.Name, err)
	}

	var errs *multierror.Error
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return multierror.Append(errs, err)
		}

		seen[item.String("serial")] = true

		if err := r.refreshDevice(org, item); err != nil {
			r.count(KindDevice, metrics.OutcomeFailed)
			r.jobs.Failure(item.String("serial"), err.Error())
			errs = multierror.Append(errs, err)
		}
	}

	r.jobs.Info(org.Name, "inventory listed, cleaning up")

	err = r.store.Write(func(txn *store.Txn) error {
		local, err := txn.DevicesByOrg(org.ID)
		if err != nil {
			return err
		}

		orphaned, err := cleanup(txn, deviceCleanup, local, func(device *models.Device) string { return device.Serial }, seen)
		if err != nil {
			return err
		}

		for _, device := range orphaned {
			r.jobs.Info(device.Serial, fmt.Sprintf("device %s left the inventory, orphaning", device.Name))
			r.count(KindDevice, metrics.OutcomeRemoved)
		}

		return nil
	})
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("failed to clean up devices of organization %s: %w", org.Name, err))
	}

	return errs.ErrorOrNil()
}
