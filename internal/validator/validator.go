package validator

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/sop-infra/sopctl/internal/models"
)

var (
	ErrValidation = errors.New("validation failed")

	ErrSelfMaster            = errors.New("site cannot be its own master")
	ErrLocationOnOwnSite     = errors.New("master location belongs to the site itself")
	ErrLocationOutsideMaster = errors.New("master location does not belong to the master site")
	ErrLocationClaimed       = errors.New("master location already used by another site")
	ErrUnknownReference      = errors.New("unknown reference")
	ErrInvalidFlag           = errors.New("invalid flag value")
	ErrInvalidInfraType      = errors.New("invalid infra type")
	ErrInvalidIndusType      = errors.New("invalid industrial type")
	ErrNegativeUserCount     = errors.New("negative user count")
	ErrDuplicatedKey         = errors.New("duplicated key")
	ErrInvalidSetting        = errors.New("invalid switch setting")
)

var (
	flags      = []models.Flag{models.FlagUnset, models.FlagUnknown, models.FlagTrue, models.FlagFalse}
	infraTypes = []string{"", models.InfraTypeBox, models.InfraTypeSuperBox, models.InfraTypeFullCluster}
	indusTypes = []string{"", models.IndusTypeWorkshop, models.IndusTypeFactory}
)

// ValidationError rejects the save of a record because of one field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func fieldError(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// ValidateSlave checks the master linkage of a slave record. location is the
// resolved master location if any and claimant the record currently anchored
// to it.
func ValidateSlave(record *models.InfraRecord, location *models.Location, claimant *models.InfraRecord) error {
	if record.MasterSiteID == record.SiteID {
		return fieldError("master_site", ErrSelfMaster)
	}

	if location == nil {
		return nil
	}

	if location.SiteID == record.SiteID {
		return fieldError("master_location", ErrLocationOnOwnSite)
	}

	if location.SiteID != record.MasterSiteID {
		return fieldError("master_location", ErrLocationOutsideMaster)
	}

	if claimant != nil && claimant.ID != record.ID {
		return fieldError("master_location", ErrLocationClaimed)
	}

	return nil
}

// ValidateRecord checks the user-entered attributes of a record.
func ValidateRecord(record *models.InfraRecord) error {
	for _, f := range []struct {
		field string
		flag  models.Flag
	}{
		{"site_phone_critical", record.PhoneCritical},
		{"site_type_red", record.RnD},
		{"site_type_vip", record.VIP},
		{"site_type_wms", record.WMS},
	} {
		if !lo.Contains(flags, f.flag) {
			return fieldError(f.field, fmt.Errorf("%w: %q", ErrInvalidFlag, f.flag))
		}
	}

	if !lo.Contains(infraTypes, record.InfraType) {
		return fieldError("site_infra_sysinfra", fmt.Errorf("%w: %q", ErrInvalidInfraType, record.InfraType))
	}

	if !lo.Contains(indusTypes, record.IndusType) {
		return fieldError("site_type_indus", fmt.Errorf("%w: %q", ErrInvalidIndusType, record.IndusType))
	}

	for _, c := range []struct {
		field string
		count *int64
	}{
		{"est_cumul_adm_users", record.Estimated.WhiteCollar},
		{"est_cumul_prod_users", record.Estimated.BlueCollar},
		{"est_cumul_ext_users", record.Estimated.External},
		{"est_cumul_nom_users", record.Estimated.Nomad},
		{"ad_cumul_adm_users", record.Directory.WhiteCollar},
		{"ad_cumul_prod_users", record.Directory.BlueCollar},
		{"ad_cumul_ext_users", record.Directory.External},
		{"ad_cumul_nom_users", record.Directory.Nomad},
	} {
		if c.count != nil && *c.count < 0 {
			return fieldError(c.field, ErrNegativeUserCount)
		}
	}

	return nil
}

func ValidateSwitchSettings(settings *models.SwitchSettings) error {
	for _, allowed := range []struct {
		field  string
		value  string
		values []string
	}{
		{"uplink_mode", settings.UplinkMode, models.PortModes},
		{"allowed_vlans", settings.AllowedVlans, models.VlanSets},
		{"bpdu_filter", settings.BpduFilter, models.BpduFilters},
		{"stp_guard", settings.StpGuard, models.StpGuards},
	} {
		if allowed.value != "" && !lo.Contains(allowed.values, allowed.value) {
			return fieldError(allowed.field, fmt.Errorf("%w: %q", ErrInvalidSetting, allowed.value))
		}
	}

	return nil
}

// Validate checks a whole seed before it is loaded: natural keys, references
// and every infra record.
func Validate(seed *models.Seed) error {
	if err := validateKeys(seed); err != nil {
		return fmt.Errorf("failed to validate keys: %w", err)
	}

	sites := lo.KeyBy(seed.Sites, func(site *models.Site) string { return site.ID })
	locations := lo.KeyBy(seed.Locations, func(location *models.Location) string { return location.ID })
	claims := make(map[string]*models.InfraRecord)

	for _, record := range seed.Infra {
		if err := validateInfra(record, sites, locations, claims); err != nil {
			return fmt.Errorf("failed to validate infra of site %s: %w", record.SiteID, err)
		}
	}

	for _, settings := range seed.SwitchSettings {
		if err := ValidateSwitchSettings(settings); err != nil {
			return fmt.Errorf("failed to validate settings of asset %s: %w", settings.AssetID, err)
		}
	}

	return nil
}

func validateInfra(
	record *models.InfraRecord,
	sites map[string]*models.Site,
	locations map[string]*models.Location,
	claims map[string]*models.InfraRecord,
) error {
	if _, ok := sites[record.SiteID]; !ok {
		return fieldError("site", fmt.Errorf("%w: site %q", ErrUnknownReference, record.SiteID))
	}

	if err := ValidateRecord(record); err != nil {
		return err
	}

	if !record.IsSlave() {
		return nil
	}

	var location *models.Location
	if record.MasterLocationID != "" {
		var ok bool
		location, ok = locations[record.MasterLocationID]
		if !ok {
			return fieldError("master_location", fmt.Errorf("%w: location %q", ErrUnknownReference, record.MasterLocationID))
		}
	}

	masterSiteID := record.MasterSiteID
	if location != nil {
		masterSiteID = location.SiteID
	}

	if _, ok := sites[masterSiteID]; !ok {
		return fieldError("master_site", fmt.Errorf("%w: site %q", ErrUnknownReference, masterSiteID))
	}

	candidate := record.Clone()
	candidate.MasterSiteID = masterSiteID

	if err := ValidateSlave(candidate, location, claims[record.MasterLocationID]); err != nil {
		return err
	}

	if location != nil {
		claims[location.ID] = record
	}

	return nil
}

func validateKeys(seed *models.Seed) error {
	keys := map[string][]string{
		"site slug":         lo.Map(seed.Sites, func(s *models.Site, _ int) string { return s.Slug }),
		"site id":           lo.Map(seed.Sites, func(s *models.Site, _ int) string { return s.ID }),
		"infra site":        lo.Map(seed.Infra, func(r *models.InfraRecord, _ int) string { return r.SiteID }),
		"dashboard name":    lo.Map(seed.Dashboards, func(d *models.Dashboard, _ int) string { return d.Name }),
		"location id":       lo.Map(seed.Locations, func(l *models.Location, _ int) string { return l.ID }),
		"settings asset":    lo.Map(seed.SwitchSettings, func(s *models.SwitchSettings, _ int) string { return s.AssetID }),
		"region slug":       lo.Map(seed.Regions, func(g *models.Group, _ int) string { return g.Slug }),
		"tenant slug":       lo.Map(seed.Tenants, func(t *models.Tenant, _ int) string { return t.Slug }),
		"site group slug":   lo.Map(seed.SiteGroups, func(g *models.Group, _ int) string { return g.Slug }),
		"tenant group slug": lo.Map(seed.TenantGroups, func(g *models.Group, _ int) string { return g.Slug }),
	}

	for kind, values := range keys {
		values = lo.Compact(values)
		if duplicates := lo.FindDuplicates(values); len(duplicates) > 0 {
			return fmt.Errorf("%w: %s %v", ErrDuplicatedKey, kind, duplicates)
		}
	}

	return nil
}
