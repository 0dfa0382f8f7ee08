// Package provisioner creates the dashboard network of a site.
package provisioner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/config"
	"github.com/sop-infra/sopctl/internal/dashboard"
	"github.com/sop-infra/sopctl/internal/joblog"
	"github.com/sop-infra/sopctl/internal/lock"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/reconciler"
	"github.com/sop-infra/sopctl/internal/store"
	"github.com/sop-infra/sopctl/pkg/utils"
)

var (
	ErrNetworkExists   = errors.New("site already has a network")
	ErrNoNetwork       = errors.New("site takes no network of its own")
	ErrUnknownOrg      = errors.New("organization not refreshed yet")
	ErrInvalidTimeZone = errors.New("invalid time zone")
	ErrUnlinkableName  = errors.New("network name does not designate its site")
)

type Store interface {
	Write(fn func(txn *store.Txn) error) error
	Read(fn func(txn *store.Txn) error) error
}

type Factory interface {
	Connect(dash *models.Dashboard) (dashboard.Client, error)
}

type Config struct {
	NetworkCreation config.NetworkCreation
	Simulate        bool
}

type Provisioner struct {
	store    Store
	factory  Factory
	locker   lock.Locker
	creation config.NetworkCreation
	simulate bool
	log      *logrus.Entry
}

// networkPlan is everything needed to create the network of a site.
type networkPlan struct {
	site      *models.Site
	dashboard *models.Dashboard
	org       *models.Organization
	template  string
	network   dashboard.NewNetwork
}

// Provision creates the network of the site on the configured dashboard,
// binds it to the template of its SDWAN label and stores it.
func (p *Provisioner) Provision(ctx context.Context, siteSlug string, jobs *joblog.Log) (*models.Network, error) {
	plan, err := p.plan(siteSlug)
	if err != nil {
		jobs.Failure(siteSlug, err.Error())
		return nil, fmt.Errorf("failed to plan network of site %s: %w", siteSlug, err)
	}

	unlock, err := p.locker.Lock(ctx, plan.dashboard.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to lock dashboard %s: %w", plan.dashboard.Name, err)
	}
	defer unlock()

	client, err := p.factory.Connect(plan.dashboard)
	if err != nil {
		jobs.Failure(siteSlug, err.Error())
		return nil, fmt.Errorf("failed to connect to dashboard %s: %w", plan.dashboard.Name, err)
	}

	item, err := client.CreateOrganizationNetwork(ctx, plan.org.RemoteID, plan.network)
	if err != nil {
		jobs.Failure(plan.network.Name, fmt.Sprintf("failed to create network: %v", err))
		return nil, fmt.Errorf("failed to create network %s: %w", plan.network.Name, err)
	}
	jobs.Success(plan.network.Name, fmt.Sprintf("network created in organization %s", plan.org.Name))

	remoteID := item.String("id")
	if err := client.BindNetwork(ctx, remoteID, plan.template); err != nil {
		jobs.Failure(plan.network.Name, fmt.Sprintf("failed to bind network to template %s: %v", plan.template, err))
		return nil, fmt.Errorf("failed to bind network %s: %w", plan.network.Name, err)
	}
	jobs.Success(plan.network.Name, fmt.Sprintf("network bound to template %s", plan.template))

	network := &models.Network{
		OrgID:           plan.org.ID,
		RemoteID:        remoteID,
		Name:            plan.network.Name,
		SiteID:          plan.site.ID,
		ProductTypes:    plan.network.ProductTypes,
		Tags:            plan.network.Tags,
		TimeZone:        plan.network.TimeZone,
		BoundToTemplate: true,
		URL:             item.String("url"),
	}

	if p.simulate {
		p.log.WithField("network", network.Name).Info("simulate mode, network not stored")
		return network, nil
	}

	if err := p.store.Write(func(txn *store.Txn) error { return txn.PutNetwork(network) }); err != nil {
		return nil, fmt.Errorf("failed to save network %s: %w", network.Name, err)
	}

	return network, nil
}

func (p *Provisioner) plan(siteSlug string) (*networkPlan, error) {
	result := &networkPlan{}

	err := p.store.Read(func(txn *store.Txn) error {
		site, err := txn.SiteBySlug(siteSlug)
		if err != nil {
			return err
		}
		result.site = site

		networks, err := txn.NetworksBySite(site.ID)
		if err != nil {
			return err
		}
		if len(networks) > 0 {
			return fmt.Errorf("%w: %s", ErrNetworkExists, networks[0].Name)
		}

		record, err := txn.InfraBySite(site.ID)
		if err != nil {
			return err
		}
		if lo.Contains([]string{"", models.SdwanNoNetwork, models.SdwanSlave}, record.Sdwan) {
			return fmt.Errorf("%w: %q", ErrNoNetwork, record.Sdwan)
		}

		if result.template, err = p.creation.TemplateForSdwan(record.Sdwan); err != nil {
			return err
		}

		regions, err := txn.GroupAncestry(store.Region, site.RegionID)
		if err != nil {
			return err
		}
		orgID, err := p.creation.OrgForRegions(lo.Map(regions, func(region *models.Group, _ int) string { return region.Slug }))
		if err != nil {
			return err
		}

		result.dashboard, err = txn.DashboardByName(p.creation.Dashboard)
		if errors.Is(err, store.ErrNotFound) {
			return &config.MissingKeyError{Key: "network_creation.dashboard"}
		}
		if err != nil {
			return err
		}

		result.org, err = txn.OrganizationByRemoteID(orgID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownOrg, orgID)
		}
		if err != nil {
			return err
		}

		tags, err := reconciler.SiteTags(txn, site)
		if err != nil {
			return err
		}

		timeZone := reconciler.SiteTimeZone(site)
		if _, err := time.LoadLocation(timeZone); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidTimeZone, timeZone)
		}

		// The refresh links networks to sites by parsing this name back.
		name := fmt.Sprintf("%s--%s", site.Name, site.Slug)
		if utils.ExtractSiteSlug(name) != site.Slug {
			return fmt.Errorf("%w: %q", ErrUnlinkableName, name)
		}

		result.network = dashboard.NewNetwork{
			Name:              name,
			ProductTypes:      p.creation.ProductTypes,
			Tags:              tags,
			TimeZone:          timeZone,
			CopyFromNetworkID: p.creation.CopyFrom,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func New(store Store, factory Factory, locker lock.Locker, cfg Config, log *logrus.Entry) *Provisioner {
	return &Provisioner{
		store:    store,
		factory:  factory,
		locker:   locker,
		creation: cfg.NetworkCreation,
		simulate: cfg.Simulate,
		log:      log,
	}
}
