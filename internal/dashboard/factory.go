package dashboard

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/config"
	"github.com/sop-infra/sopctl/internal/models"
)

// Factory connects to dashboards with the keys of the configuration.
type Factory struct {
	cfg config.SopMeraki
	log *logrus.Entry
}

func NewFactory(cfg config.SopMeraki, log *logrus.Entry) *Factory {
	return &Factory{
		cfg: cfg,
		log: log,
	}
}

func (f *Factory) Simulate() bool {
	return f.cfg.Simulate
}

func (f *Factory) Connect(dashboard *models.Dashboard) (Client, error) {
	apiKey, err := f.cfg.APIKey(dashboard.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get api key of dashboard %s: %w", dashboard.Name, err)
	}

	baseURL := dashboard.APIURL
	if baseURL == "" {
		baseURL = f.cfg.APIURL
	}

	opts := Options{
		Timeout:  f.cfg.RequestTimeout,
		Retries:  f.cfg.Retries,
		Simulate: f.cfg.Simulate,
	}

	return New(baseURL, apiKey, opts, f.log.WithField("dashboard", dashboard.Name)), nil
}
