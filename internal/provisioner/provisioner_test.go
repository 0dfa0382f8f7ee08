package provisioner

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/config"
	"github.com/sop-infra/sopctl/internal/compliance"
	"github.com/sop-infra/sopctl/internal/dashboard"
	"github.com/sop-infra/sopctl/internal/dashboard/dashboardtest"
	"github.com/sop-infra/sopctl/internal/joblog"
	"github.com/sop-infra/sopctl/internal/lock"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/reconciler"
	"github.com/sop-infra/sopctl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvisioner(t *testing.T, simulate bool) (*Provisioner, *store.Store, *dashboardtest.Fake) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	log := logrus.NewEntry(logger)

	s, err := store.New(log)
	require.NoError(t, err)

	require.NoError(t, s.Write(func(txn *store.Txn) error {
		emea := &models.Group{Slug: "emea", Name: "EMEA"}
		require.NoError(t, txn.PutGroup(store.Region, emea))
		france := &models.Group{Slug: "fr", Name: "France", ParentID: emea.ID}
		require.NoError(t, txn.PutGroup(store.Region, france))

		dash := &models.Dashboard{Name: "main"}
		require.NoError(t, txn.PutDashboard(dash))
		require.NoError(t, txn.PutOrganization(&models.Organization{DashboardID: dash.ID, RemoteID: "111", Name: "EMEA org"}))

		sites := []struct {
			site  *models.Site
			sdwan string
		}{
			{&models.Site{Slug: "par01", Name: "Paris", RegionID: france.ID, Tags: []string{"vip"}}, models.SdwanHA},
			{&models.Site{Slug: "lil01", Name: "Lille", RegionID: france.ID}, models.SdwanSlave},
			{&models.Site{Slug: "nyc01", Name: "New York"}, models.SdwanNHA},
			{&models.Site{Slug: "bad01", Name: "Bad", RegionID: france.ID, TimeZone: "Mars/Olympus"}, models.SdwanNHA},
			{&models.Site{Slug: "par-02", Name: "Paris Two", RegionID: france.ID}, models.SdwanHA},
		}
		for _, entry := range sites {
			require.NoError(t, txn.PutSite(entry.site))
			require.NoError(t, txn.PutInfra(&models.InfraRecord{SiteID: entry.site.ID, Sdwan: entry.sdwan}))
		}

		return nil
	}))

	fake := dashboardtest.New()
	factory := &dashboardtest.Factory{Fakes: map[string]*dashboardtest.Fake{"main": fake}}

	cfg := Config{
		NetworkCreation: config.NetworkCreation{
			Dashboard:       "main",
			OrgByRegion:     map[string]string{"emea": "111"},
			TemplateBySdwan: map[string]string{"-ha-": "L_HA", "-nha-": "L_NHA"},
			CopyFrom:        "N_TEMPLATE",
			ProductTypes:    []string{"appliance", "switch"},
		},
		Simulate: simulate,
	}

	return New(s, factory, lock.NewLocal(), cfg, log), s, fake
}

func Test_Provision(t *testing.T) {
	p, s, fake := newProvisioner(t, false)
	jobs := joblog.New(p.log)

	network, err := p.Provision(context.Background(), "par01", jobs)
	require.NoError(t, err)

	require.Len(t, fake.Created, 1)
	assert.Equal(t, dashboard.NewNetwork{
		Name:              "Paris--par01",
		ProductTypes:      []string{"appliance", "switch"},
		Tags:              []string{"NETBOX_RG_emea", "NETBOX_RG_fr", "NETBOX_ST_vip"},
		TimeZone:          "UTC",
		CopyFromNetworkID: "N_TEMPLATE",
	}, fake.Created[0])

	require.Len(t, fake.Bindings, 1)
	assert.Equal(t, dashboardtest.Binding{NetworkID: network.RemoteID, TemplateID: "L_HA"}, fake.Bindings[0])

	require.NoError(t, s.Read(func(txn *store.Txn) error {
		stored, err := txn.NetworkByRemoteID(network.RemoteID)
		require.NoError(t, err)
		assert.True(t, stored.BoundToTemplate)
		assert.Equal(t, network.SiteID, stored.SiteID)
		return nil
	}))

	_, err = p.Provision(context.Background(), "par01", jobs)
	assert.ErrorIs(t, err, ErrNetworkExists)
	assert.Len(t, fake.Created, 1)
}

func Test_ProvisionRejected(t *testing.T) {
	testCases := []struct {
		name string
		site string
		err  error
	}{
		{
			name: "unknown site",
			site: "xxx01",
			err:  store.ErrNotFound,
		},
		{
			name: "slave site",
			site: "lil01",
			err:  ErrNoNetwork,
		},
		{
			name: "no organization for region",
			site: "nyc01",
			err:  config.ErrMissingKey,
		},
		{
			name: "invalid time zone",
			site: "bad01",
			err:  ErrInvalidTimeZone,
		},
		{
			name: "slug not readable from network name",
			site: "par-02",
			err:  ErrUnlinkableName,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, _, fake := newProvisioner(t, false)
			jobs := joblog.New(p.log)

			_, err := p.Provision(context.Background(), tc.site, jobs)
			assert.ErrorIs(t, err, tc.err)
			assert.True(t, jobs.Failed())
			assert.Zero(t, fake.Calls())
		})
	}
}

func Test_ProvisionSimulated(t *testing.T) {
	p, s, fake := newProvisioner(t, true)

	_, err := p.Provision(context.Background(), "par01", joblog.New(p.log))
	require.NoError(t, err)
	assert.Len(t, fake.Created, 1)

	require.NoError(t, s.Read(func(txn *store.Txn) error {
		site, err := txn.SiteBySlug("par01")
		require.NoError(t, err)
		networks, err := txn.NetworksBySite(site.ID)
		require.NoError(t, err)
		assert.Empty(t, networks)
		return nil
	}))
}

func Test_ProvisionThenRefresh(t *testing.T) {
	p, s, fake := newProvisioner(t, false)
	fake.Organizations = []dashboard.Item{{"id": "111", "name": "EMEA org"}}

	network, err := p.Provision(context.Background(), "par01", joblog.New(p.log))
	require.NoError(t, err)

	factory := &dashboardtest.Factory{Fakes: map[string]*dashboardtest.Fake{"main": fake}}
	r := reconciler.New(s, factory, lock.NewLocal(), compliance.New(s, p.log), reconciler.Config{}, p.log)

	var dash *models.Dashboard
	require.NoError(t, s.Read(func(txn *store.Txn) (err error) {
		dash, err = txn.DashboardByName("main")
		return err
	}))
	require.NoError(t, r.Refresh(context.Background(), dash, joblog.New(p.log)))

	require.NoError(t, s.Read(func(txn *store.Txn) error {
		stored, err := txn.NetworkByRemoteID(network.RemoteID)
		require.NoError(t, err)
		assert.Equal(t, network.SiteID, stored.SiteID)
		return nil
	}))

	_, err = p.Provision(context.Background(), "par01", joblog.New(p.log))
	assert.ErrorIs(t, err, ErrNetworkExists)
	assert.Len(t, fake.Created, 1)
}
