package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/store"
	"github.com/sop-infra/sopctl/internal/validator"
)

// ManagedModelPrefix selects the switch models whose settings are managed.
const ManagedModelPrefix = "MS"

type Store interface {
	Write(fn func(txn *store.Txn) error) error
}

type Linker struct {
	store Store
	log   *logrus.Entry
}

func New(store Store, log *logrus.Entry) *Linker {
	return &Linker{
		store: store,
		log:   log,
	}
}

// Managed reports whether settings are kept for assets of this device type.
func Managed(deviceType *models.DeviceType) bool {
	return deviceType != nil && strings.HasPrefix(strings.ToUpper(deviceType.Model), ManagedModelPrefix)
}

// MakeCompliant replaces every missing or unknown setting by its default.
func MakeCompliant(settings *models.SwitchSettings) {
	settings.UplinkMode = orDefault(settings.UplinkMode, models.PortModes, models.PortModeTrunk)
	settings.AllowedVlans = orDefault(settings.AllowedVlans, models.VlanSets, models.VlansIT)
	settings.BpduFilter = orDefault(settings.BpduFilter, models.BpduFilters, models.GuardBPDU)
	settings.StpGuard = orDefault(settings.StpGuard, models.StpGuards, models.GuardRoot)
	settings.Compliant = true
}

// Link ensures a managed asset has compliant settings. It writes only when
// the settings were created or repaired and reports whether it did.
func (l *Linker) Link(txn *store.Txn, asset *models.Asset) (bool, error) {
	if asset.DeviceTypeID == "" {
		return false, nil
	}

	deviceType, err := txn.DeviceType(asset.DeviceTypeID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}

	if !Managed(deviceType) {
		return false, nil
	}

	settings, err := txn.SwitchSettingsByAsset(asset.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		settings = &models.SwitchSettings{AssetID: asset.ID}
	case err != nil:
		return false, err
	}

	snapshot := settings.Clone()
	MakeCompliant(settings)

	if settings.ID != "" && *snapshot == *settings {
		return false, nil
	}

	if err := validator.ValidateSwitchSettings(settings); err != nil {
		return false, err
	}

	if err := txn.PutSwitchSettings(settings); err != nil {
		return false, fmt.Errorf("failed to save settings of %s: %w", asset.Serial, err)
	}

	l.log.WithFields(logrus.Fields{"serial": asset.Serial, "model": deviceType.Model}).Info("switch settings made compliant")

	return true, nil
}

// LinkAll runs Link over every asset in one transaction.
func (l *Linker) LinkAll(ctx context.Context) (int, error) {
	linked := 0

	err := l.store.Write(func(txn *store.Txn) error {
		assets, err := txn.Assets()
		if err != nil {
			return err
		}

		for _, asset := range assets {
			if err := ctx.Err(); err != nil {
				return err
			}

			changed, err := l.Link(txn, asset)
			if err != nil {
				return fmt.Errorf("failed to link asset %s: %w", asset.Serial, err)
			}
			if changed {
				linked++
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return linked, nil
}

func orDefault(value string, allowed []string, fallback string) string {
	if lo.Contains(allowed, value) {
		return value
	}
	return fallback
}
