package exporter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/internal/joblog"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/parser"
	"github.com/sop-infra/sopctl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func Test_Export(t *testing.T) {
	log := logrus.NewEntry(logrus.New())

	s, err := store.New(log)
	require.NoError(t, err)
	require.NoError(t, s.Write(func(txn *store.Txn) error {
		return txn.PutSite(&models.Site{Slug: "par01", Name: "Paris", Status: models.SiteStatusActive})
	}))

	jobs := joblog.New(log)
	jobs.Success("par01", "site created")

	dir := filepath.Join(t.TempDir(), "state")
	exporter := New(Config{Store: s, Directory: dir})
	exporter.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, exporter.Export(jobs))

	seed, err := parser.ParseFile(filepath.Join(dir, SeedFile))
	require.NoError(t, err)
	require.Len(t, seed.Sites, 1)
	assert.Equal(t, "par01", seed.Sites[0].Slug)

	content, err := os.ReadFile(filepath.Join(dir, RunFile))
	require.NoError(t, err)

	var run Run
	require.NoError(t, yaml.Unmarshal(content, &run))
	assert.True(t, run.Time.Equal(exporter.now()))
	require.Len(t, run.Changes, 1)
	assert.Equal(t, store.ActionInsert, run.Changes[0].Action)
	require.Len(t, run.Log, 1)
	assert.Equal(t, joblog.LevelSuccess, run.Log[0].Level)
}
