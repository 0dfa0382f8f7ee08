package reconciler

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SiteTags(t *testing.T) {
	s, err := store.New(logrus.NewEntry(logrus.New()))
	require.NoError(t, err)

	emea := &models.Group{Slug: "emea", Name: "EMEA"}
	france := &models.Group{Slug: "fr", Name: "France"}
	holding := &models.Group{Slug: "holding", Name: "Holding"}
	plants := &models.Group{Slug: "plants", Name: "Plants"}
	tenant := &models.Tenant{Slug: "acme", Name: "ACME"}

	require.NoError(t, s.Write(func(txn *store.Txn) error {
		require.NoError(t, txn.PutGroup(store.Region, emea))
		france.ParentID = emea.ID
		require.NoError(t, txn.PutGroup(store.Region, france))
		require.NoError(t, txn.PutGroup(store.TenantGroup, holding))
		require.NoError(t, txn.PutGroup(store.SiteGroup, plants))
		tenant.GroupID = holding.ID
		return txn.PutTenant(tenant)
	}))

	testCases := []struct {
		name string
		site *models.Site
		want []string
	}{
		{
			name: "full hierarchy",
			site: &models.Site{Tags: []string{"vip"}, TenantID: tenant.ID, GroupID: plants.ID, RegionID: france.ID},
			want: []string{
				"NETBOX_RG_emea",
				"NETBOX_RG_fr",
				"NETBOX_SG_plants",
				"NETBOX_ST_vip",
				"NETBOX_TENANT_acme",
				"NETBOX_TG_holding",
			},
		},
		{
			name: "bare site",
			site: &models.Site{},
			want: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, s.Read(func(txn *store.Txn) error {
				tags, err := SiteTags(txn, tc.site)
				require.NoError(t, err)
				assert.Equal(t, tc.want, tags)
				return nil
			}))
		})
	}
}

func Test_NormalizeTags(t *testing.T) {
	current := []string{"zeta", "NETBOX_RG_old", "alpha"}
	site := []string{"NETBOX_RG_emea", "NETBOX_TENANT_acme"}

	assert.Equal(t, []string{"NETBOX_RG_old"}, OnlyManagedTags(current))
	assert.Equal(t, []string{"alpha", "zeta"}, OnlyForeignTags(current))
	assert.Equal(t, []string{"alpha", "zeta", "NETBOX_RG_emea", "NETBOX_TENANT_acme"}, NormalizeTags(current, site))
}

func Test_SiteTimeZone(t *testing.T) {
	assert.Equal(t, DefaultTimeZone, SiteTimeZone(&models.Site{}))
	assert.Equal(t, "Europe/Paris", SiteTimeZone(&models.Site{TimeZone: "Europe/Paris"}))
}
