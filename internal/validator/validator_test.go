package validator

import (
	"errors"
	"testing"

	"github.com/samber/lo"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/stretchr/testify/assert"
)

func Test_ValidateSlave(t *testing.T) {
	location := &models.Location{ID: "loc-b", SiteID: "b"}

	testCases := []struct {
		name     string
		record   *models.InfraRecord
		location *models.Location
		claimant *models.InfraRecord
		wantErr  bool
		err      error
	}{
		{
			name:    "happy path",
			record:  &models.InfraRecord{ID: "ra", SiteID: "a", MasterSiteID: "b"},
			wantErr: false,
		},
		{
			name:    "self master",
			record:  &models.InfraRecord{ID: "ra", SiteID: "a", MasterSiteID: "a"},
			wantErr: true,
			err:     ErrSelfMaster,
		},
		{
			name:     "location on own site",
			record:   &models.InfraRecord{ID: "rb", SiteID: "b", MasterSiteID: "c", MasterLocationID: "loc-b"},
			location: location,
			wantErr:  true,
			err:      ErrLocationOnOwnSite,
		},
		{
			name:     "location outside master",
			record:   &models.InfraRecord{ID: "ra", SiteID: "a", MasterSiteID: "c", MasterLocationID: "loc-b"},
			location: location,
			wantErr:  true,
			err:      ErrLocationOutsideMaster,
		},
		{
			name:     "location claimed by another record",
			record:   &models.InfraRecord{ID: "ra", SiteID: "a", MasterSiteID: "b", MasterLocationID: "loc-b"},
			location: location,
			claimant: &models.InfraRecord{ID: "rc", SiteID: "c", MasterSiteID: "b", MasterLocationID: "loc-b"},
			wantErr:  true,
			err:      ErrLocationClaimed,
		},
		{
			name:     "location claimed by the record itself",
			record:   &models.InfraRecord{ID: "ra", SiteID: "a", MasterSiteID: "b", MasterLocationID: "loc-b"},
			location: location,
			claimant: &models.InfraRecord{ID: "ra"},
			wantErr:  false,
		},
	}

	for _, tc := range testCases {
		err := ValidateSlave(tc.record, tc.location, tc.claimant)
		if tc.wantErr {
			assert.ErrorIs(t, err, tc.err, tc.name)
			assert.ErrorIs(t, err, ErrValidation, tc.name)
		} else {
			assert.Nil(t, err, tc.name)
		}
	}
}

func Test_ValidateRecord(t *testing.T) {
	testCases := []struct {
		name    string
		record  *models.InfraRecord
		field   string
		wantErr bool
		err     error
	}{
		{
			name: "happy path",
			record: &models.InfraRecord{
				VIP:       models.FlagTrue,
				InfraType: models.InfraTypeBox,
				IndusType: models.IndusTypeFactory,
				Estimated: models.ZeroUserCounts(),
			},
			wantErr: false,
		},
		{
			name:    "invalid flag",
			record:  &models.InfraRecord{WMS: "maybe"},
			field:   "site_type_wms",
			wantErr: true,
			err:     ErrInvalidFlag,
		},
		{
			name:    "invalid infra type",
			record:  &models.InfraRecord{InfraType: "rack"},
			field:   "site_infra_sysinfra",
			wantErr: true,
			err:     ErrInvalidInfraType,
		},
		{
			name:    "invalid industrial type",
			record:  &models.InfraRecord{IndusType: "lab"},
			field:   "site_type_indus",
			wantErr: true,
			err:     ErrInvalidIndusType,
		},
		{
			name:    "negative user count",
			record:  &models.InfraRecord{Directory: models.UserCounts{Nomad: lo.ToPtr[int64](-1)}},
			field:   "ad_cumul_nom_users",
			wantErr: true,
			err:     ErrNegativeUserCount,
		},
		{
			name: "first invalid flag reported",
			record: &models.InfraRecord{
				PhoneCritical: "maybe",
				RnD:           "maybe",
				VIP:           "maybe",
				WMS:           "maybe",
			},
			field:   "site_phone_critical",
			wantErr: true,
			err:     ErrInvalidFlag,
		},
		{
			name: "first negative count reported",
			record: &models.InfraRecord{
				Estimated: models.UserCounts{External: lo.ToPtr[int64](-2), Nomad: lo.ToPtr[int64](-3)},
				Directory: models.UserCounts{WhiteCollar: lo.ToPtr[int64](-1)},
			},
			field:   "est_cumul_ext_users",
			wantErr: true,
			err:     ErrNegativeUserCount,
		},
	}

	for _, tc := range testCases {
		err := ValidateRecord(tc.record)
		if tc.wantErr {
			assert.ErrorIs(t, err, tc.err, tc.name)

			var validationErr *ValidationError
			if assert.True(t, errors.As(err, &validationErr), tc.name) {
				assert.Equal(t, tc.field, validationErr.Field, tc.name)
			}
		} else {
			assert.Nil(t, err, tc.name)
		}
	}
}

func Test_ValidateSwitchSettings(t *testing.T) {
	testCases := []struct {
		name     string
		settings *models.SwitchSettings
		wantErr  bool
		err      error
	}{
		{
			name: "happy path",
			settings: &models.SwitchSettings{
				UplinkMode:   models.PortModeTrunk,
				AllowedVlans: models.VlansIT,
				BpduFilter:   models.GuardBPDU,
				StpGuard:     models.GuardLoop,
			},
			wantErr: false,
		},
		{
			name:     "empty settings",
			settings: &models.SwitchSettings{},
			wantErr:  false,
		},
		{
			name:     "loop guard is not a bpdu filter",
			settings: &models.SwitchSettings{BpduFilter: models.GuardLoop},
			wantErr:  true,
			err:      ErrInvalidSetting,
		},
	}

	for _, tc := range testCases {
		err := ValidateSwitchSettings(tc.settings)
		if tc.wantErr {
			assert.ErrorIs(t, err, tc.err, tc.name)
		} else {
			assert.Nil(t, err, tc.name)
		}
	}
}

func Test_Validate(t *testing.T) {
	base := func() *models.Seed {
		return &models.Seed{
			Sites: []*models.Site{
				{ID: "a", Slug: "a"},
				{ID: "b", Slug: "b"},
				{ID: "c", Slug: "c"},
			},
			Locations: []*models.Location{
				{ID: "loc-b", SiteID: "b"},
			},
			Infra: []*models.InfraRecord{
				{ID: "ra", SiteID: "a", MasterLocationID: "loc-b"},
				{ID: "rb", SiteID: "b"},
				{ID: "rc", SiteID: "c", MasterSiteID: "b"},
			},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(seed *models.Seed)
		wantErr bool
		err     error
	}{
		{
			name:    "happy path",
			mutate:  func(seed *models.Seed) {},
			wantErr: false,
		},
		{
			name: "duplicated site slug",
			mutate: func(seed *models.Seed) {
				seed.Sites = append(seed.Sites, &models.Site{ID: "d", Slug: "a"})
			},
			wantErr: true,
			err:     ErrDuplicatedKey,
		},
		{
			name: "unknown site",
			mutate: func(seed *models.Seed) {
				seed.Infra = append(seed.Infra, &models.InfraRecord{ID: "rz", SiteID: "z"})
			},
			wantErr: true,
			err:     ErrUnknownReference,
		},
		{
			name: "unknown master location",
			mutate: func(seed *models.Seed) {
				seed.Infra[2].MasterLocationID = "loc-z"
			},
			wantErr: true,
			err:     ErrUnknownReference,
		},
		{
			name: "location claimed twice",
			mutate: func(seed *models.Seed) {
				seed.Infra[2].MasterLocationID = "loc-b"
			},
			wantErr: true,
			err:     ErrLocationClaimed,
		},
		{
			name: "self master",
			mutate: func(seed *models.Seed) {
				seed.Infra[1].MasterSiteID = "b"
			},
			wantErr: true,
			err:     ErrSelfMaster,
		},
	}

	for _, tc := range testCases {
		seed := base()
		tc.mutate(seed)

		err := Validate(seed)
		if tc.wantErr {
			assert.ErrorIs(t, err, tc.err, tc.name)
		} else {
			assert.Nil(t, err, tc.name)
		}
	}
}
