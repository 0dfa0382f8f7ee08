package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/internal/metrics"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/store"
	"github.com/sop-infra/sopctl/internal/validator"
)

var ErrCycle = errors.New("loop detected in master/slave chain")

type Store interface {
	Write(fn func(txn *store.Txn) error) error
	Read(fn func(txn *store.Txn) error) error
}

// Service keeps infra records consistent with their site, their own inputs
// and the totals of their slaves.
type Service struct {
	store Store
	log   *logrus.Entry
}

func New(store Store, log *logrus.Entry) *Service {
	return &Service{
		store: store,
		log:   log,
	}
}

// Save normalizes the record, recomputes its totals and propagates them to
// every ancestor in a single transaction. It returns the stored record.
func (s *Service) Save(ctx context.Context, record *models.InfraRecord) (*models.InfraRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	saved := record.Clone()
	if err := s.store.Write(func(txn *store.Txn) error { return s.save(txn, saved) }); err != nil {
		return nil, fmt.Errorf("failed to save infra of site %s: %w", record.SiteID, err)
	}

	return saved, nil
}

// Delete removes the infra record of a site and lets its former master chain
// converge without it.
func (s *Service) Delete(ctx context.Context, siteID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.store.Write(func(txn *store.Txn) error {
		record, err := txn.InfraBySite(siteID)
		if err != nil {
			return err
		}
		return s.remove(txn, record)
	})
	if err != nil {
		return fmt.Errorf("failed to delete infra of site %s: %w", siteID, err)
	}

	return nil
}

// OnSiteSaved stores the site and creates or recomputes its infra record.
func (s *Service) OnSiteSaved(ctx context.Context, site *models.Site) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.store.Write(func(txn *store.Txn) error {
		if err := txn.PutSite(site); err != nil {
			return err
		}

		record, err := txn.InfraBySite(site.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			record = &models.InfraRecord{SiteID: site.ID}
			s.log.WithField("site", site.Slug).Info("creating infra record")
		case err != nil:
			return err
		}

		return s.save(txn, record)
	})
	if err != nil {
		return fmt.Errorf("failed to process saved site %s: %w", site.Slug, err)
	}

	return nil
}

// OnSiteDeleted removes the infra record of the site, then the site itself.
// Former slaves become standalone and are reclassified.
func (s *Service) OnSiteDeleted(ctx context.Context, siteID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.store.Write(func(txn *store.Txn) error {
		record, err := txn.InfraBySite(siteID)
		switch {
		case err == nil:
			if err := s.remove(txn, record); err != nil {
				return err
			}
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		slaves, err := txn.InfraSlaves(siteID)
		if err != nil {
			return err
		}

		if err := txn.DeleteSite(siteID); err != nil {
			return err
		}

		for _, slave := range slaves {
			current, err := txn.Infra(slave.ID)
			if err != nil {
				return err
			}
			if err := s.save(txn, current); err != nil {
				return fmt.Errorf("failed to reclassify former slave %s: %w", slave.SiteID, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to process deleted site %s: %w", siteID, err)
	}

	return nil
}

// ApplyDirectoryCounts stores user counts read from the directory and
// recomputes the record of the site.
func (s *Service) ApplyDirectoryCounts(ctx context.Context, siteID string, counts models.UserCounts) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.store.Write(func(txn *store.Txn) error {
		record, err := txn.InfraBySite(siteID)
		if err != nil {
			return err
		}

		record.Directory = counts
		return s.save(txn, record)
	})
	if err != nil {
		return fmt.Errorf("failed to apply directory counts of site %s: %w", siteID, err)
	}

	return nil
}

// RecomputeAll saves every record again, each in its own transaction. It
// stops early only when ctx is done.
func (s *Service) RecomputeAll(ctx context.Context) error {
	var records []*models.InfraRecord
	err := s.store.Read(func(txn *store.Txn) error {
		var err error
		records, err = txn.Infras()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to list infra records: %w", err)
	}

	var result *multierror.Error
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return multierror.Append(result, err)
		}

		err := s.store.Write(func(txn *store.Txn) error {
			current, err := txn.Infra(record.ID)
			if err != nil {
				return err
			}
			return s.save(txn, current)
		})
		if err != nil {
			s.log.WithField("site", record.SiteID).WithError(err).Warn("failed to recompute infra record")
			result = multierror.Append(result, fmt.Errorf("site %s: %w", record.SiteID, err))
		}
	}

	return result.ErrorOrNil()
}

func (s *Service) save(txn *store.Txn, record *models.InfraRecord) error {
	site, err := txn.Site(record.SiteID)
	if err != nil {
		return err
	}

	if err := validator.ValidateRecord(record); err != nil {
		return err
	}

	var formerMaster string
	if record.ID != "" {
		previous, err := txn.Infra(record.ID)
		switch {
		case err == nil:
			formerMaster = previous.MasterSiteID
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
	}

	changed := false
	switch {
	case site.Status == models.SiteStatusDC:
		EnforceDC(record)
	case record.IsSlave():
		if err := s.resolveMaster(txn, record); err != nil {
			return err
		}
		EnforceSlave(record)
	default:
		Classify(record, site)
	}

	if site.Status != models.SiteStatusDC {
		if changed, err = s.refreshTotals(txn, record); err != nil {
			return err
		}
	}

	if err := txn.PutInfra(record); err != nil {
		return err
	}

	if record.MasterSiteID != "" && (changed || record.MasterSiteID != formerMaster) {
		if err := s.propagate(txn, record.MasterSiteID, map[string]struct{}{record.ID: {}}); err != nil {
			return err
		}
	}

	if formerMaster != "" && formerMaster != record.MasterSiteID {
		s.log.WithFields(logrus.Fields{"site": site.Slug, "master": formerMaster}).Info("site left its master")
		if err := s.propagate(txn, formerMaster, map[string]struct{}{record.ID: {}}); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) remove(txn *store.Txn, record *models.InfraRecord) error {
	record.Estimated = models.ZeroUserCounts()
	record.Directory = models.ZeroUserCounts()

	if err := txn.DeleteInfra(record.ID); err != nil {
		return err
	}

	if record.MasterSiteID == "" {
		return nil
	}

	return s.propagate(txn, record.MasterSiteID, map[string]struct{}{record.ID: {}})
}

// resolveMaster derives the master site from the master location and checks
// the linkage.
func (s *Service) resolveMaster(txn *store.Txn, record *models.InfraRecord) error {
	var location *models.Location
	var claimant *models.InfraRecord

	if record.MasterLocationID != "" {
		var err error
		location, err = txn.Location(record.MasterLocationID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return &validator.ValidationError{Field: "master_location", Err: fmt.Errorf("%w: %s", validator.ErrUnknownReference, err)}
		case err != nil:
			return err
		}

		record.MasterSiteID = location.SiteID

		claimant, err = txn.InfraByMasterLocation(location.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			claimant = nil
		case err != nil:
			return err
		}
	}

	if _, err := txn.Site(record.MasterSiteID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &validator.ValidationError{Field: "master_site", Err: fmt.Errorf("%w: %s", validator.ErrUnknownReference, err)}
		}
		return err
	}

	return validator.ValidateSlave(record, location, claimant)
}

// refreshTotals recomputes the WAN totals of record from its own inputs and
// its slaves in the store. It reports whether the totals changed.
func (s *Service) refreshTotals(txn *store.Txn, record *models.InfraRecord) (bool, error) {
	wc, bc, err := s.siteUsers(txn, record, make(map[string]struct{}))
	if err != nil {
		return false, err
	}

	if sameTotals(record, wc, bc) && !missingSizing(record) {
		return false, nil
	}

	applyTotals(record, wc, bc)
	return true, nil
}

func (s *Service) siteUsers(txn *store.Txn, record *models.InfraRecord, visited map[string]struct{}) (int64, int64, error) {
	if _, ok := visited[record.ID]; ok {
		metrics.CyclesDetectedTotal.Inc()
		return 0, 0, fmt.Errorf("counting users of site %s: %w", record.SiteID, ErrCycle)
	}
	visited[record.ID] = struct{}{}

	site, err := txn.Site(record.SiteID)
	if err != nil {
		return 0, 0, err
	}

	wc, bc := wanInputs(record, site)

	slaves, err := txn.InfraSlaves(record.SiteID)
	if err != nil {
		return 0, 0, err
	}

	for _, slave := range slaves {
		if slave.ID == record.ID {
			continue
		}

		slaveWC, slaveBC, err := s.siteUsers(txn, slave, visited)
		if err != nil {
			return 0, 0, err
		}

		wc += slaveWC
		bc += slaveBC
	}

	return wc, bc, nil
}

// propagate walks up the master chain starting at siteID, persisting every
// record whose totals change, and stops at the first one that does not.
func (s *Service) propagate(txn *store.Txn, siteID string, visited map[string]struct{}) error {
	for siteID != "" {
		record, err := txn.InfraBySite(siteID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if _, ok := visited[record.ID]; ok {
			metrics.CyclesDetectedTotal.Inc()
			return fmt.Errorf("propagating to site %s: %w", siteID, ErrCycle)
		}
		visited[record.ID] = struct{}{}

		site, err := txn.Site(siteID)
		if err != nil {
			return err
		}
		if site.Status == models.SiteStatusDC {
			return nil
		}

		changed, err := s.refreshTotals(txn, record)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		if err := txn.PutInfra(record); err != nil {
			return err
		}

		metrics.PropagationStepsTotal.Inc()
		s.log.WithFields(logrus.Fields{
			"site": site.Slug,
			"wc":   lo.FromPtr(record.WanComputedUsersWC),
			"bc":   lo.FromPtr(record.WanComputedUsersBC),
		}).Debug("propagated user counts")

		siteID = record.MasterSiteID
	}

	return nil
}
