// Package reconciler synchronizes the local inventory with the dashboards,
// top down: organizations, networks, switch stacks and devices.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/internal/dashboard"
	"github.com/sop-infra/sopctl/internal/joblog"
	"github.com/sop-infra/sopctl/internal/lock"
	"github.com/sop-infra/sopctl/internal/metrics"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/store"
	"golang.org/x/sync/errgroup"
)

const (
	KindOrganization = "organization"
	KindNetwork      = "network"
	KindSwitchStack  = "switch_stack"
	KindDevice       = "device"

	DefaultConcurrency = 1
)

var ErrMissingSerial = errors.New("device without serial")

type Store interface {
	Write(fn func(txn *store.Txn) error) error
	Read(fn func(txn *store.Txn) error) error
}

type Factory interface {
	Connect(dash *models.Dashboard) (dashboard.Client, error)
}

type Linker interface {
	Link(txn *store.Txn, asset *models.Asset) (bool, error)
}

type Config struct {
	Concurrency int
}

type Reconciler struct {
	store       Store
	factory     Factory
	locker      lock.Locker
	linker      Linker
	concurrency int
	log         *logrus.Entry
}

// run is the refresh of one dashboard.
type run struct {
	*Reconciler
	dashboard *models.Dashboard
	client    dashboard.Client
	jobs      *joblog.Log
	log       *logrus.Entry
}

// RefreshAll refreshes every stored dashboard, one after the other unless a
// higher concurrency is configured. A failing dashboard does not stop the
// others.
func (r *Reconciler) RefreshAll(ctx context.Context, jobs *joblog.Log) error {
	var dashboards []*models.Dashboard
	err := r.store.Read(func(txn *store.Txn) error {
		var err error
		dashboards, err = txn.Dashboards()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to list dashboards: %w", err)
	}

	var (
		mu     sync.Mutex
		result *multierror.Error
	)

	eg := &errgroup.Group{}
	eg.SetLimit(r.concurrency)

	for _, dash := range dashboards {
		dash := dash
		eg.Go(func() error {
			if err := r.Refresh(ctx, dash, jobs); err != nil {
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
			}
			return nil
		})
	}

	_ = eg.Wait()

	return result.ErrorOrNil()
}

// Refresh synchronizes one dashboard while holding its lock.
func (r *Reconciler) Refresh(ctx context.Context, dash *models.Dashboard, jobs *joblog.Log) error {
	unlock, err := r.locker.Lock(ctx, dash.Name)
	if err != nil {
		return fmt.Errorf("failed to lock dashboard %s: %w", dash.Name, err)
	}
	defer unlock()

	timer := prometheus.NewTimer(metrics.DashboardRefreshSeconds.WithLabelValues(dash.Name))
	defer timer.ObserveDuration()

	jobs.Info(dash.Name, fmt.Sprintf("connecting to %s", dash.APIURL))

	client, err := r.factory.Connect(dash)
	if err != nil {
		jobs.Failure(dash.Name, err.Error())
		return fmt.Errorf("failed to connect to dashboard %s: %w", dash.Name, err)
	}

	current := &run{
		Reconciler: r,
		dashboard:  dash,
		client:     client,
		jobs:       jobs,
		log:        r.log.WithField("dashboard", dash.Name),
	}

	if err := current.refreshDashboard(ctx); err != nil {
		return fmt.Errorf("failed to refresh dashboard %s: %w", dash.Name, err)
	}

	jobs.Success(dash.Name, "dashboard refreshed")

	return nil
}

func (r *run) refreshDashboard(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.jobs.Info(r.dashboard.Name, "listing organizations")

	items, err := r.client.GetOrganizations(ctx)
	if err != nil {
		r.jobs.Failure(r.dashboard.Name, fmt.Sprintf("dashboard unreachable, organizations left untouched: %v", err))
		return fmt.Errorf("failed to list organizations: %w", err)
	}

	var errs *multierror.Error
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return multierror.Append(errs, err)
		}

		seen[item.String("id")] = true

		if err := r.refreshOrganization(ctx, item); err != nil {
			r.jobs.Failure(item.String("name"), err.Error())
			errs = multierror.Append(errs, err)
		}
	}

	r.jobs.Info(r.dashboard.Name, "organizations listed, cleaning up")

	err = r.store.Write(func(txn *store.Txn) error {
		local, err := txn.OrganizationsByDashboard(r.dashboard.ID)
		if err != nil {
			return err
		}

		removed, err := cleanup(txn, organizationCleanup, local, func(org *models.Organization) string { return org.RemoteID }, seen)
		if err != nil {
			return err
		}

		for _, org := range removed {
			r.jobs.Info(org.Name, fmt.Sprintf("organization %s gone, deleting", org.RemoteID))
			r.count(KindOrganization, metrics.OutcomeRemoved)
		}

		return nil
	})
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("failed to clean up organizations: %w", err))
	}

	return errs.ErrorOrNil()
}

func (r *run) count(kind, outcome string) {
	metrics.ReconciledObjectsTotal.WithLabelValues(kind, outcome).Inc()
}

// saved records the outcome of an upsert and reports whether it must be
// written.
func (r *run) saved(kind, object string, created bool, changed []string) bool {
	switch {
	case created:
		r.count(kind, metrics.OutcomeCreated)
		r.jobs.Success(object, fmt.Sprintf("%s created", kind))
		return true
	case len(changed) > 0:
		r.count(kind, metrics.OutcomeUpdated)
		r.jobs.Success(object, fmt.Sprintf("%s updated: %s", kind, strings.Join(changed, ", ")))
		return true
	default:
		r.count(kind, metrics.OutcomeUnchanged)
		return false
	}
}

func notFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func New(store Store, factory Factory, locker lock.Locker, linker Linker, cfg Config, log *logrus.Entry) *Reconciler {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	return &Reconciler{
		store:       store,
		factory:     factory,
		locker:      locker,
		linker:      linker,
		concurrency: concurrency,
		log:         log,
	}
}
