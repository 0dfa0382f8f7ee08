package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sop-infra/sopctl/internal/compliance"
	"github.com/sop-infra/sopctl/internal/infra"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/provisioner"
	"github.com/sop-infra/sopctl/internal/reconciler"
	"github.com/sop-infra/sopctl/internal/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	path        string
	configPath  string
	logLevel    string
	statePath   string
	metricsFile string
	auto        bool
)

var root = &cobra.Command{
	Use:   "sopctl",
	Short: "Utility for the SOP infrastructure inventory",
}

var validate = &cobra.Command{
	Use:   "validate",
	Short: "Validate the inventory from directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		_, err := parseSeed()
		return err
	},
}

var recompute = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute sizing and cumulated users of every site",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		a, err := setup()
		if err != nil {
			return err
		}

		service := infra.New(a.store, a.log.WithField("component", "infra"))

		err = service.RecomputeAll(cmd.Context())
		if err != nil {
			a.jobs.Failure("", err.Error())
		} else {
			a.jobs.Success("", "infra records recomputed")
		}

		return a.finish(cmd.Context(), "sopctl recompute", err)
	},
}

var directory = &cobra.Command{
	Use:   "directory <counts.yaml>",
	Short: "Apply user counts read from the directory, keyed by site slug",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read counts: %w", err)
		}

		counts := make(map[string]models.UserCounts)
		if err := yaml.Unmarshal(content, &counts); err != nil {
			return fmt.Errorf("failed to unmarshal counts: %w", err)
		}

		a, err := setup()
		if err != nil {
			return err
		}

		service := infra.New(a.store, a.log.WithField("component", "infra"))

		for slug, siteCounts := range counts {
			var site *models.Site
			err := a.store.Read(func(txn *store.Txn) (err error) {
				site, err = txn.SiteBySlug(slug)
				return err
			})
			if err == nil {
				err = service.ApplyDirectoryCounts(cmd.Context(), site.ID, siteCounts)
			}

			if err != nil {
				a.jobs.Failure(slug, err.Error())
				continue
			}
			a.jobs.Success(slug, "directory counts applied")
		}

		if a.jobs.Failed() {
			err = errors.New("failed to apply every directory count")
		}

		return a.finish(cmd.Context(), "sopctl directory", err)
	},
}

var refresh = &cobra.Command{
	Use:   "refresh [dashboard...]",
	Short: "Synchronize organizations, networks and devices from the dashboards",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		a, err := setup()
		if err != nil {
			return err
		}

		if auto && a.cfg.SopMeraki.NoAutoSched {
			a.jobs.Success("", "automatic refresh disabled by no_auto_sched")
			return a.finish(cmd.Context(), "sopctl refresh", nil)
		}

		linker := compliance.New(a.store, a.log.WithField("component", "compliance"))
		r := reconciler.New(
			a.store,
			a.factory,
			a.locker,
			linker,
			reconciler.Config{Concurrency: a.cfg.SopMeraki.Concurrency},
			a.log.WithField("component", "reconciler"),
		)

		if len(args) == 0 {
			err = r.RefreshAll(cmd.Context(), a.jobs)
			return a.finish(cmd.Context(), "sopctl refresh", err)
		}

		err = a.refreshNamed(cmd.Context(), r, args)
		return a.finish(cmd.Context(), "sopctl refresh", err)
	},
}

var provision = &cobra.Command{
	Use:   "provision <site>",
	Short: "Create the dashboard network of a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		a, err := setup()
		if err != nil {
			return err
		}

		p := provisioner.New(
			a.store,
			a.factory,
			a.locker,
			provisioner.Config{NetworkCreation: a.cfg.NetworkCreation, Simulate: a.cfg.SopMeraki.Simulate},
			a.log.WithField("component", "provisioner"),
		)

		_, err = p.Provision(cmd.Context(), args[0], a.jobs)

		return a.finish(cmd.Context(), "sopctl provision "+args[0], err)
	},
}

var link = &cobra.Command{
	Use:   "link",
	Short: "Make the switch settings of every managed asset compliant",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		a, err := setup()
		if err != nil {
			return err
		}

		linker := compliance.New(a.store, a.log.WithField("component", "compliance"))

		linked, err := linker.LinkAll(cmd.Context())
		if err != nil {
			a.jobs.Failure("", err.Error())
		} else {
			a.jobs.Success("", fmt.Sprintf("%d switch settings updated", linked))
		}

		return a.finish(cmd.Context(), "sopctl link", err)
	},
}

func init() {
	root.PersistentFlags().StringVar(&path, "path", "", "Path to inventory directory")
	root.PersistentFlags().StringVar(&configPath, "config", ".", "Directory holding sopctl.yaml")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides log.level")
	root.PersistentFlags().StringVar(&statePath, "state", "", "Directory to export the resulting state to")
	root.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "File to write prometheus metrics to")
	root.MarkPersistentFlagRequired("path")

	refresh.Flags().BoolVar(&auto, "auto", false, "Scheduled run, skipped when no_auto_sched is set")

	root.AddCommand(validate, recompute, directory, refresh, provision, link)
}

func main() {
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
