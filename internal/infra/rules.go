package infra

import (
	"github.com/samber/lo"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/sizing"
)

// Classify computes the SDWAN label and criticity of a site that is neither
// a datacenter nor a slave. Rules are evaluated in order, VIP first.
func Classify(record *models.InfraRecord, site *models.Site) {
	if lo.Contains(models.NoNetworkStatuses, site.Status) {
		record.Sdwan = models.SdwanNoNetwork
		record.Sdwan1BW = ""
		record.Sdwan2BW = ""
		record.CriticityStars = ""
		record.InfraType = ""
		return
	}

	record.Sdwan = models.SdwanNHA
	record.CriticityStars = models.StarsNormal

	switch {
	case record.VIP.IsTrue():
		record.Sdwan = models.SdwanHA
		record.CriticityStars = models.StarsVIP
	case record.IndusType == models.IndusTypeFactory,
		record.PhoneCritical.IsTrue(),
		record.RnD.IsTrue(),
		record.WMS.IsTrue(),
		record.InfraType == models.InfraTypeFullCluster,
		lo.Contains(models.LargeSiteSizes, record.SiteSize):
		record.Sdwan = models.SdwanHA
		record.CriticityStars = models.StarsCritical
	}
}

// EnforceDC puts the record of a datacenter site in its fixed state.
func EnforceDC(record *models.InfraRecord) {
	record.Sdwan = models.SdwanDC
	record.SiteSize = models.SiteSizeDC
	record.MasterSiteID = ""
	record.MasterLocationID = ""
	record.WanRecoBW = nil
	record.WanComputedUsersWC = nil
	record.WanComputedUsersBC = nil
	record.HardwareModel = ""
	record.CriticityStars = models.StarsDC
}

// EnforceSlave clears everything a slave inherits from its master.
func EnforceSlave(record *models.InfraRecord) {
	record.Sdwan = models.SdwanSlave
	record.Sdwan1BW = ""
	record.Sdwan2BW = ""
	record.MigrationDate = nil
	record.VIP = models.FlagUnset
	record.WMS = models.FlagUnset
	record.RnD = models.FlagUnset
	record.PhoneCritical = models.FlagUnset
	record.InfraType = ""
	record.IndusType = ""
	record.WanRecoBW = nil
	record.CriticityStars = ""
	record.HardwareModel = ""
}

// applyTotals stores new WAN totals with the derived sizing. Slaves keep no
// bandwidth or hardware of their own.
func applyTotals(record *models.InfraRecord, wc, bc int64) {
	record.WanComputedUsersWC = lo.ToPtr(wc)
	record.WanComputedUsersBC = lo.ToPtr(bc)

	label, model := sizing.BandwidthBucket(wc)
	record.SiteSize = label

	if record.IsSlave() {
		return
	}

	record.WanRecoBW = lo.ToPtr(sizing.RecommendedBandwidth(wc))
	record.HardwareModel = model
}

func sameTotals(record *models.InfraRecord, wc, bc int64) bool {
	return record.WanComputedUsersWC != nil && *record.WanComputedUsersWC == wc &&
		record.WanComputedUsersBC != nil && *record.WanComputedUsersBC == bc
}

// missingSizing reports a standalone record without bandwidth or hardware,
// as left behind by a former slave or datacenter state.
func missingSizing(record *models.InfraRecord) bool {
	return !record.IsSlave() && (record.WanRecoBW == nil || record.HardwareModel == "")
}

// wanInputs picks the counts feeding the WAN totals: directory counts once
// the site integration is done, estimates otherwise.
func wanInputs(record *models.InfraRecord, site *models.Site) (wc, bc int64) {
	counts := record.Estimated
	if site.IntegrationDone() {
		counts = record.Directory
	}

	return lo.FromPtr(counts.WhiteCollar), lo.FromPtr(counts.BlueCollar)
}
