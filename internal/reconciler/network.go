package reconciler

import (
	"context"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/internal/dashboard"
	"github.com/sop-infra/sopctl/internal/metrics"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/store"
	"github.com/sop-infra/sopctl/pkg/utils"
)

func networkFields(network *models.Network, item dashboard.Item, orgID string) []Change {
	return []Change{
		Field("name", &network.Name, item.String("name")),
		Field("remote_id", &network.RemoteID, item.String("id")),
		Field("org", &network.OrgID, orgID),
		Field("bound_to_template", &network.BoundToTemplate, item.Bool("isBoundToConfigTemplate")),
		Field("url", &network.URL, item.String("url")),
		Field("notes", &network.Notes, item.String("notes")),
		Field("time_zone", &network.TimeZone, item.String("timeZone")),
		SetField("tags", &network.Tags, item.Strings("tags")),
		SetField("product_types", &network.ProductTypes, item.Strings("productTypes")),
	}
}

func stackFields(stack *models.SwitchStack, item dashboard.Item, networkID string) []Change {
	return []Change{
		Field("name", &stack.Name, item.String("name")),
		Field("remote_id", &stack.RemoteID, item.String("id")),
		Field("network", &stack.NetworkID, networkID),
		FieldFunc("serials", &stack.Serials, item.Strings("serials"), slices.Equal[[]string]),
	}
}

// refreshNetwork upserts the network and links it to the site its name
// designates. Tags and time zone of a linked network are corrected on the
// dashboard first; the network is not saved when the correction fails.
func (r *run) refreshNetwork(ctx context.Context, org *models.Organization, item dashboard.Item) error {
	var (
		network  *models.Network
		site     *models.Site
		siteTags []string
		created  bool
	)

	err := r.store.Read(func(txn *store.Txn) error {
		var err error

		network, err = txn.NetworkByRemoteID(item.String("id"))
		switch {
		case notFound(err):
			r.jobs.Info(item.String("name"), fmt.Sprintf("new network in organization %s", org.Name))
			network, created = &models.Network{}, true
		case err != nil:
			return err
		}

		slug := utils.ExtractSiteSlug(item.String("name"))
		if slug == "" {
			return nil
		}

		site, err = txn.SiteBySlug(slug)
		switch {
		case notFound(err):
			site = nil
			return nil
		case err != nil:
			return err
		}

		siteTags, err = SiteTags(txn, site)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to load network %s: %w", item.String("id"), err)
	}

	changed := Apply(networkFields(network, item, org.ID)...)

	siteID := ""
	if site != nil {
		siteID = site.ID
	}
	changed = append(changed, Apply(Field("site", &network.SiteID, siteID))...)

	update := make(map[string]any)
	if site != nil {
		tags := NormalizeTags(network.Tags, siteTags)
		if !utils.EqualSets(network.Tags, tags) {
			network.Tags = tags
			update["tags"] = tags
			changed = append(changed, "tags")
		}

		if timeZone := SiteTimeZone(site); network.TimeZone != timeZone {
			network.TimeZone = timeZone
			update["timeZone"] = timeZone
			changed = append(changed, "time_zone")
		}
	}

	if len(update) > 0 {
		if err := r.client.UpdateNetwork(ctx, network.RemoteID, update); err != nil {
			metrics.RemotePushesTotal.WithLabelValues(r.dashboard.Name, metrics.OutcomeFailed).Inc()
			r.jobs.Failure(network.Name, fmt.Sprintf("failed to push %v to network %s: %v", update, network.RemoteID, err))
			return fmt.Errorf("failed to push corrections of network %s: %w", network.RemoteID, err)
		}

		metrics.RemotePushesTotal.WithLabelValues(r.dashboard.Name, metrics.OutcomeUpdated).Inc()
		r.jobs.Success(network.Name, fmt.Sprintf("pushed %v to network %s", update, network.RemoteID))
	}

	if r.saved(KindNetwork, network.Name, created, changed) {
		if err := r.store.Write(func(txn *store.Txn) error { return txn.PutNetwork(network) }); err != nil {
			return fmt.Errorf("failed to save network %s: %w", network.RemoteID, err)
		}
	}

	var errs *multierror.Error

	if err := r.refreshNetworkDevices(ctx, network); err != nil {
		errs = multierror.Append(errs, err)
	}

	if err := r.refreshStacks(ctx, network); err != nil {
		errs = multierror.Append(errs, err)
	}

	return errs.ErrorOrNil()
}

// refreshNetworkDevices records the placement details only reported at the
// network level and links the devices to the network.
func (r *run) refreshNetworkDevices(ctx context.Context, network *models.Network) error {
	items, err := r.client.GetNetworkDevices(ctx, network.RemoteID)
	if err != nil {
		return fmt.Errorf("failed to list devices of network %s: %w", network.RemoteID, err)
	}

	var errs *multierror.Error

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return multierror.Append(errs, err)
		}

		err := r.store.Write(func(txn *store.Txn) error {
			device, created, err := deviceBySerial(txn, item.String("serial"))
			if err != nil {
				return err
			}

			changed := Apply(append(commonDeviceFields(device, item), networkDeviceFields(device, item, network)...)...)
			if !r.saved(KindDevice, device.Serial, created, changed) {
				return nil
			}

			return txn.PutDevice(device)
		})
		if err != nil {
			r.count(KindDevice, metrics.OutcomeFailed)
			errs = multierror.Append(errs, fmt.Errorf("failed to save device %s of network %s: %w", item.String("serial"), network.RemoteID, err))
		}
	}

	return errs.ErrorOrNil()
}

// refreshStacks upserts the switch stacks of the network and rewires the
// stack reference of their member devices.
func (r *run) refreshStacks(ctx context.Context, network *models.Network) error {
	items, err := r.client.GetNetworkSwitchStacks(ctx, network.RemoteID)
	if err != nil {
		return fmt.Errorf("failed to list switch stacks of network %s: %w", network.RemoteID, err)
	}

	var errs *multierror.Error
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return multierror.Append(errs, err)
		}

		seen[item.String("id")] = true

		if err := r.store.Write(func(txn *store.Txn) error { return r.refreshStack(txn, network, item) }); err != nil {
			r.count(KindSwitchStack, metrics.OutcomeFailed)
			errs = multierror.Append(errs, fmt.Errorf("failed to save switch stack %s: %w", item.String("id"), err))
		}
	}

	err = r.store.Write(func(txn *store.Txn) error {
		local, err := txn.SwitchStacksByNetwork(network.ID)
		if err != nil {
			return err
		}

		removed, err := cleanup(txn, stackCleanup, local, func(stack *models.SwitchStack) string { return stack.RemoteID }, seen)
		if err != nil {
			return err
		}

		for _, stack := range removed {
			r.jobs.Info(stack.Name, "switch stack gone, deleting")
			r.count(KindSwitchStack, metrics.OutcomeRemoved)
		}

		return nil
	})
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("failed to clean up switch stacks of network %s: %w", network.RemoteID, err))
	}

	return errs.ErrorOrNil()
}

func (r *run) refreshStack(txn *store.Txn, network *models.Network, item dashboard.Item) error {
	stack, err := txn.SwitchStackByRemoteID(item.String("id"))
	created := false
	switch {
	case notFound(err):
		stack, created = &models.SwitchStack{}, true
	case err != nil:
		return err
	}

	changed := Apply(stackFields(stack, item, network.ID)...)
	if r.saved(KindSwitchStack, stack.Name, created, changed) {
		if err := txn.PutSwitchStack(stack); err != nil {
			return err
		}
	}

	return r.rewireStack(txn, stack)
}

// rewireStack points every member device at the stack and detaches the
// devices that left it.
func (r *run) rewireStack(txn *store.Txn, stack *models.SwitchStack) error {
	log := r.log.WithFields(logrus.Fields{"stack": stack.Name, "network": stack.NetworkID})

	for _, serial := range stack.Serials {
		device, err := txn.DeviceBySerial(serial)
		switch {
		case notFound(err):
			r.jobs.Warning(serial, fmt.Sprintf("unknown member of stack %s", stack.Name))
			continue
		case err != nil:
			return err
		}

		if device.StackID == stack.ID {
			continue
		}

		device.StackID = stack.ID
		if err := txn.PutDevice(device); err != nil {
			return err
		}
		log.WithField("serial", serial).Info("device attached to stack")
	}

	members, err := txn.DevicesByStack(stack.ID)
	if err != nil {
		return err
	}

	for _, device := range members {
		if slices.Contains(stack.Serials, device.Serial) {
			continue
		}

		device.StackID = ""
		if err := txn.PutDevice(device); err != nil {
			return err
		}
		log.WithField("serial", device.Serial).Info("device detached from stack")
	}

	return nil
}
