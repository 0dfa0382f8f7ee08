package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sop-infra/sopctl/internal/joblog"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/store"
	"gopkg.in/yaml.v3"
)

const (
	SeedFile = "seed.yaml"
	RunFile  = "run.yaml"
)

type Store interface {
	Read(fn func(txn *store.Txn) error) error
	Changes() []store.Change
}

type JobLog interface {
	Entries(levels ...string) []joblog.Entry
}

// Run describes what one invocation did to the store.
type Run struct {
	Time    time.Time      `yaml:"time"`
	Changes []store.Change `yaml:"changes"`
	Log     []joblog.Entry `yaml:"log"`
}

type Config struct {
	Store     Store
	Directory string
}

// Exporter writes the store content next to the run report. The seed file
// can be parsed back to resume from the exported state.
type Exporter struct {
	store     Store
	directory string
	now       func() time.Time
}

func (e *Exporter) Export(jobs JobLog) error {
	if err := os.MkdirAll(e.directory, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	var seed *models.Seed
	err := e.store.Read(func(txn *store.Txn) (err error) {
		seed, err = txn.Dump()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to dump store: %w", err)
	}

	if err := writeYAML(filepath.Join(e.directory, SeedFile), seed); err != nil {
		return fmt.Errorf("failed to export seed: %w", err)
	}

	run := Run{
		Time:    e.now(),
		Changes: e.store.Changes(),
		Log:     jobs.Entries(),
	}

	if err := writeYAML(filepath.Join(e.directory, RunFile), run); err != nil {
		return fmt.Errorf("failed to export run: %w", err)
	}

	return nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func New(config Config) *Exporter {
	return &Exporter{
		store:     config.Store,
		directory: config.Directory,
		now:       time.Now,
	}
}
