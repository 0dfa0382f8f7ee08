package store

import (
	"github.com/sop-infra/sopctl/internal/models"
)

func (t *Txn) Infra(id string) (*models.InfraRecord, error) {
	return first[*models.InfraRecord](t, TableInfra, indexID, id)
}

func (t *Txn) InfraBySite(siteID string) (*models.InfraRecord, error) {
	return first[*models.InfraRecord](t, TableInfra, indexSiteID, siteID)
}

// InfraSlaves lists the records whose master site is siteID.
func (t *Txn) InfraSlaves(siteID string) ([]*models.InfraRecord, error) {
	return list[*models.InfraRecord](t, TableInfra, indexMasterSiteID, siteID)
}

func (t *Txn) InfraByMasterLocation(locationID string) (*models.InfraRecord, error) {
	return first[*models.InfraRecord](t, TableInfra, indexMasterLocationID, locationID)
}

func (t *Txn) Infras() ([]*models.InfraRecord, error) {
	return all[*models.InfraRecord](t, TableInfra)
}

func (t *Txn) PutInfra(record *models.InfraRecord) error {
	if record.ID == "" {
		record.ID = newID()
	}
	return t.insert(TableInfra, record.Clone())
}

func (t *Txn) DeleteInfra(id string) error {
	return t.remove(TableInfra, id)
}
