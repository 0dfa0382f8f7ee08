package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/config"
	"github.com/sop-infra/sopctl/internal/dashboard"
	"github.com/sop-infra/sopctl/internal/exporter"
	"github.com/sop-infra/sopctl/internal/joblog"
	"github.com/sop-infra/sopctl/internal/lock"
	"github.com/sop-infra/sopctl/internal/mailer"
	"github.com/sop-infra/sopctl/internal/metrics"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/parser"
	"github.com/sop-infra/sopctl/internal/reconciler"
	"github.com/sop-infra/sopctl/internal/store"
	"github.com/sop-infra/sopctl/internal/validator"
)

// app holds what every command shares: configuration, the loaded store and
// the job log of the run.
type app struct {
	cfg     config.Config
	log     *logrus.Entry
	store   *store.Store
	jobs    *joblog.Log
	locker  lock.Locker
	factory *dashboard.Factory

	closeLocker func() error
}

func newLogger(cfg config.Log) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level := cfg.Level
	if logLevel != "" {
		level = logLevel
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	logger.SetLevel(parsed)

	if cfg.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger, nil
}

func parseSeed() (*models.Seed, error) {
	seed, err := parser.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}

	if err := validator.Validate(seed); err != nil {
		return nil, fmt.Errorf("failed to validate seed: %w", err)
	}

	return seed, nil
}

func setup() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	log := logrus.NewEntry(logger)

	seed, err := parseSeed()
	if err != nil {
		return nil, err
	}

	s, err := store.New(log.WithField("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	if err := s.Write(func(txn *store.Txn) error { return txn.Load(seed) }); err != nil {
		return nil, fmt.Errorf("failed to load seed: %w", err)
	}

	locker, closeLocker, err := lock.New(cfg.Lock, log.WithField("component", "lock"))
	if err != nil {
		return nil, fmt.Errorf("failed to create locker: %w", err)
	}

	return &app{
		cfg:         cfg,
		log:         log,
		store:       s,
		jobs:        joblog.New(log.WithField("component", "joblog")),
		locker:      locker,
		factory:     dashboard.NewFactory(cfg.SopMeraki, log.WithField("component", "dashboard")),
		closeLocker: closeLocker,
	}, nil
}

// refreshNamed refreshes the named dashboards in order. A failing dashboard
// does not stop the others.
func (a *app) refreshNamed(ctx context.Context, r *reconciler.Reconciler, names []string) error {
	var result *multierror.Error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}

		var dash *models.Dashboard
		err := a.store.Read(func(txn *store.Txn) (err error) {
			dash, err = txn.DashboardByName(name)
			return err
		})
		if err != nil {
			a.jobs.Failure(name, err.Error())
			result = multierror.Append(result, fmt.Errorf("failed to find dashboard %s: %w", name, err))
			continue
		}

		if err := r.Refresh(ctx, dash, a.jobs); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// finish publishes the outcome of a command: state export, metrics and the
// report mail. runErr is returned along with any publishing error.
func (a *app) finish(ctx context.Context, subject string, runErr error) error {
	var result *multierror.Error
	if runErr != nil {
		result = multierror.Append(result, runErr)
	}

	if statePath != "" {
		e := exporter.New(exporter.Config{Store: a.store, Directory: statePath})
		if err := e.Export(a.jobs); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to export state: %w", err))
		}
	}

	if metricsFile != "" {
		if err := metrics.WriteTextfile(metricsFile); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if ctx.Err() == nil {
		sent, err := mailer.New(a.cfg.Mail).Report(subject, a.jobs)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to mail report: %w", err))
		}
		if sent {
			a.log.WithField("receivers", a.cfg.Mail.Receivers).Info("report mailed")
		}
	}

	if err := a.closeLocker(); err != nil {
		a.log.WithError(err).Warn("failed to close locker")
	}

	return result.ErrorOrNil()
}
