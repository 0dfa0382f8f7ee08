package store

import (
	"github.com/sop-infra/sopctl/internal/models"
)

func (t *Txn) Dashboard(id string) (*models.Dashboard, error) {
	return first[*models.Dashboard](t, TableDashboard, indexID, id)
}

func (t *Txn) DashboardByName(name string) (*models.Dashboard, error) {
	return first[*models.Dashboard](t, TableDashboard, indexName, name)
}

func (t *Txn) Dashboards() ([]*models.Dashboard, error) {
	return all[*models.Dashboard](t, TableDashboard)
}

func (t *Txn) PutDashboard(dashboard *models.Dashboard) error {
	if dashboard.ID == "" {
		dashboard.ID = newID()
	}
	return t.insert(TableDashboard, dashboard.Clone())
}

func (t *Txn) DeleteDashboard(id string) error {
	orgs, err := t.OrganizationsByDashboard(id)
	if err != nil {
		return err
	}
	for _, org := range orgs {
		if err := t.DeleteOrganization(org.ID); err != nil {
			return err
		}
	}

	return t.remove(TableDashboard, id)
}

func (t *Txn) Organization(id string) (*models.Organization, error) {
	return first[*models.Organization](t, TableOrganization, indexID, id)
}

func (t *Txn) OrganizationByRemoteID(remoteID string) (*models.Organization, error) {
	return first[*models.Organization](t, TableOrganization, indexRemoteID, remoteID)
}

func (t *Txn) Organizations() ([]*models.Organization, error) {
	return all[*models.Organization](t, TableOrganization)
}

func (t *Txn) OrganizationsByDashboard(dashboardID string) ([]*models.Organization, error) {
	return list[*models.Organization](t, TableOrganization, indexDashboardID, dashboardID)
}

func (t *Txn) PutOrganization(org *models.Organization) error {
	if org.ID == "" {
		org.ID = newID()
	}
	return t.insert(TableOrganization, org.Clone())
}

// DeleteOrganization deletes the organization with its networks and orphans
// its devices.
func (t *Txn) DeleteOrganization(id string) error {
	networks, err := t.NetworksByOrg(id)
	if err != nil {
		return err
	}
	for _, network := range networks {
		if err := t.DeleteNetwork(network.ID); err != nil {
			return err
		}
	}

	devices, err := t.DevicesByOrg(id)
	if err != nil {
		return err
	}
	for _, device := range devices {
		device.Orphan()
		if err := t.PutDevice(device); err != nil {
			return err
		}
	}

	return t.remove(TableOrganization, id)
}

func (t *Txn) Network(id string) (*models.Network, error) {
	return first[*models.Network](t, TableNetwork, indexID, id)
}

func (t *Txn) NetworkByRemoteID(remoteID string) (*models.Network, error) {
	return first[*models.Network](t, TableNetwork, indexRemoteID, remoteID)
}

func (t *Txn) Networks() ([]*models.Network, error) {
	return all[*models.Network](t, TableNetwork)
}

func (t *Txn) NetworksByOrg(orgID string) ([]*models.Network, error) {
	return list[*models.Network](t, TableNetwork, indexOrgID, orgID)
}

func (t *Txn) NetworksBySite(siteID string) ([]*models.Network, error) {
	return list[*models.Network](t, TableNetwork, indexSiteID, siteID)
}

func (t *Txn) PutNetwork(network *models.Network) error {
	if network.ID == "" {
		network.ID = newID()
	}
	return t.insert(TableNetwork, network.Clone())
}

// DeleteNetwork deletes the network with its switch stacks and detaches its
// devices.
func (t *Txn) DeleteNetwork(id string) error {
	stacks, err := t.SwitchStacksByNetwork(id)
	if err != nil {
		return err
	}
	for _, stack := range stacks {
		if err := t.DeleteSwitchStack(stack.ID); err != nil {
			return err
		}
	}

	devices, err := t.DevicesByNetwork(id)
	if err != nil {
		return err
	}
	for _, device := range devices {
		device.NetworkID = ""
		device.SiteID = ""
		device.StackID = ""
		if err := t.PutDevice(device); err != nil {
			return err
		}
	}

	return t.remove(TableNetwork, id)
}

func (t *Txn) SwitchStack(id string) (*models.SwitchStack, error) {
	return first[*models.SwitchStack](t, TableSwitchStack, indexID, id)
}

func (t *Txn) SwitchStackByRemoteID(remoteID string) (*models.SwitchStack, error) {
	return first[*models.SwitchStack](t, TableSwitchStack, indexRemoteID, remoteID)
}

func (t *Txn) SwitchStacks() ([]*models.SwitchStack, error) {
	return all[*models.SwitchStack](t, TableSwitchStack)
}

func (t *Txn) SwitchStacksByNetwork(networkID string) ([]*models.SwitchStack, error) {
	return list[*models.SwitchStack](t, TableSwitchStack, indexNetworkID, networkID)
}

func (t *Txn) PutSwitchStack(stack *models.SwitchStack) error {
	if stack.ID == "" {
		stack.ID = newID()
	}
	return t.insert(TableSwitchStack, stack.Clone())
}

func (t *Txn) DeleteSwitchStack(id string) error {
	devices, err := t.DevicesByStack(id)
	if err != nil {
		return err
	}
	for _, device := range devices {
		device.StackID = ""
		if err := t.PutDevice(device); err != nil {
			return err
		}
	}

	return t.remove(TableSwitchStack, id)
}

func (t *Txn) Device(id string) (*models.Device, error) {
	return first[*models.Device](t, TableDevice, indexID, id)
}

func (t *Txn) DeviceBySerial(serial string) (*models.Device, error) {
	return first[*models.Device](t, TableDevice, indexSerial, serial)
}

func (t *Txn) Devices() ([]*models.Device, error) {
	return all[*models.Device](t, TableDevice)
}

func (t *Txn) DevicesByOrg(orgID string) ([]*models.Device, error) {
	return list[*models.Device](t, TableDevice, indexOrgID, orgID)
}

func (t *Txn) DevicesByNetwork(networkID string) ([]*models.Device, error) {
	return list[*models.Device](t, TableDevice, indexNetworkID, networkID)
}

func (t *Txn) DevicesByStack(stackID string) ([]*models.Device, error) {
	return list[*models.Device](t, TableDevice, indexStackID, stackID)
}

func (t *Txn) PutDevice(device *models.Device) error {
	if device.ID == "" {
		device.ID = newID()
	}
	return t.insert(TableDevice, device.Clone())
}
