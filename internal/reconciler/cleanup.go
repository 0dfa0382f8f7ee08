package reconciler

import (
	"fmt"

	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/store"
)

const (
	StrategyDelete = "delete"
	StrategyOrphan = "orphan"
)

// Strategy is what happens to a local record whose natural key was not
// reported by the dashboard anymore.
type Strategy[T any] struct {
	Name  string
	clean func(txn *store.Txn, item T) error
}

func Delete[T any](remove func(txn *store.Txn, item T) error) Strategy[T] {
	return Strategy[T]{Name: StrategyDelete, clean: remove}
}

func Orphan[T any](orphan func(txn *store.Txn, item T) error) Strategy[T] {
	return Strategy[T]{Name: StrategyOrphan, clean: orphan}
}

var (
	organizationCleanup = Delete(func(txn *store.Txn, org *models.Organization) error {
		return txn.DeleteOrganization(org.ID)
	})

	networkCleanup = Delete(func(txn *store.Txn, network *models.Network) error {
		return txn.DeleteNetwork(network.ID)
	})

	stackCleanup = Delete(func(txn *store.Txn, stack *models.SwitchStack) error {
		return txn.DeleteSwitchStack(stack.ID)
	})

	deviceCleanup = Orphan(func(txn *store.Txn, device *models.Device) error {
		device.Orphan()
		return txn.PutDevice(device)
	})
)

// cleanup applies the strategy to every local record whose key is not in
// seen and returns the records it touched.
func cleanup[T any](txn *store.Txn, strategy Strategy[T], local []T, key func(T) string, seen map[string]bool) ([]T, error) {
	cleaned := make([]T, 0)

	for _, item := range local {
		if seen[key(item)] {
			continue
		}

		if err := strategy.clean(txn, item); err != nil {
			return nil, fmt.Errorf("failed to %s %s: %w", strategy.Name, key(item), err)
		}

		cleaned = append(cleaned, item)
	}

	return cleaned, nil
}
