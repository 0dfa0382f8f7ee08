package reconciler

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/store"
)

const (
	DefaultTimeZone = "UTC"

	TagPrefix            = "NETBOX_"
	TagPrefixSiteTag     = TagPrefix + "ST_"
	TagPrefixTenant      = TagPrefix + "TENANT_"
	TagPrefixTenantGroup = TagPrefix + "TG_"
	TagPrefixSiteGroup   = TagPrefix + "SG_"
	TagPrefixRegion      = TagPrefix + "RG_"
)

// SiteTags computes the sorted managed tags of a site: its own tags, its
// tenant and the ancestries of its tenant group, site group and region.
func SiteTags(txn *store.Txn, site *models.Site) ([]string, error) {
	tags := lo.Map(site.Tags, func(tag string, _ int) string {
		return TagPrefixSiteTag + tag
	})

	tenantGroupID := ""
	if site.TenantID != "" {
		tenant, err := txn.Tenant(site.TenantID)
		if err != nil {
			return nil, err
		}
		tags = append(tags, TagPrefixTenant+tenant.Slug)
		tenantGroupID = tenant.GroupID
	}

	for _, ancestry := range []struct {
		kind   store.GroupKind
		id     string
		prefix string
	}{
		{store.TenantGroup, tenantGroupID, TagPrefixTenantGroup},
		{store.SiteGroup, site.GroupID, TagPrefixSiteGroup},
		{store.Region, site.RegionID, TagPrefixRegion},
	} {
		groups, err := txn.GroupAncestry(ancestry.kind, ancestry.id)
		if err != nil {
			return nil, err
		}
		for _, group := range groups {
			tags = append(tags, ancestry.prefix+group.Slug)
		}
	}

	slices.Sort(tags)
	return tags, nil
}

func OnlyManagedTags(tags []string) []string {
	return sortedTags(tags, true)
}

func OnlyForeignTags(tags []string) []string {
	return sortedTags(tags, false)
}

// NormalizeTags keeps the foreign tags of a network and replaces its
// managed tags with the ones computed for its site.
func NormalizeTags(current, site []string) []string {
	return append(OnlyForeignTags(current), site...)
}

// SiteTimeZone is the time zone a network of the site must use.
func SiteTimeZone(site *models.Site) string {
	if site.TimeZone == "" {
		return DefaultTimeZone
	}
	return site.TimeZone
}

func sortedTags(tags []string, managed bool) []string {
	result := lo.Filter(tags, func(tag string, _ int) bool {
		return strings.HasPrefix(tag, TagPrefix) == managed
	})
	slices.Sort(result)
	return result
}
