package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
log:
  level: debug
sopmeraki:
  simulate: false
  request_timeout: 10s
network_creation:
  dashboard: main
  org_by_region:
    emea: "111"
    "*": "999"
  template_by_sdwan:
    "-HA-": L_1
mail:
  receivers: [noc@example.org]
`

const testSecrets = `
sopmeraki:
  api_keys:
    Main:
      RO: read-key
      RW: write-key
    lab:
      RO: lab-read
`

func writeConfig(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	return dir
}

func Test_Load(t *testing.T) {
	dir := writeConfig(t, map[string]string{"sopctl.yaml": testConfig, "secrets.yaml": testSecrets})
	t.Setenv("SOPCTL_SOPMERAKI_SIMULATE", "true")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.SopMeraki.Simulate)
	assert.Equal(t, 10*time.Second, cfg.SopMeraki.RequestTimeout)
	assert.Equal(t, 1, cfg.SopMeraki.Concurrency)
	assert.Equal(t, DefaultAPIURL, cfg.SopMeraki.APIURL)
	assert.Equal(t, []string{"appliance", "switch", "wireless"}, cfg.NetworkCreation.ProductTypes)
	assert.Equal(t, []string{"noc@example.org"}, cfg.Mail.Receivers)
	assert.Equal(t, "read-key", cfg.SopMeraki.APIKeys["main"].RO)
}

func Test_LoadWithoutSecrets(t *testing.T) {
	dir := writeConfig(t, map[string]string{"sopctl.yaml": testConfig})

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.SopMeraki.APIKeys)

	_, err = Load(t.TempDir())
	assert.Error(t, err)
}

func Test_APIKey(t *testing.T) {
	keys := map[string]APIKeys{
		"main": {RO: "read-key", RW: "write-key"},
		"lab":  {RO: "lab-read"},
	}

	testCases := []struct {
		name      string
		dashboard string
		simulate  bool
		expected  string
		wantErr   bool
		key       string
	}{
		{name: "read-write", dashboard: "Main", expected: "write-key"},
		{name: "simulate uses read-only", dashboard: "main", simulate: true, expected: "read-key"},
		{name: "empty key", dashboard: "lab", wantErr: true, key: "sopmeraki.api_keys.lab.RW"},
		{name: "unknown dashboard", dashboard: "other", wantErr: true, key: "sopmeraki.api_keys.other"},
	}

	for _, tc := range testCases {
		cfg := SopMeraki{APIKeys: keys, Simulate: tc.simulate}

		actual, err := cfg.APIKey(tc.dashboard)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrMissingKey, tc.name)

			var missing *MissingKeyError
			require.ErrorAs(t, err, &missing, tc.name)
			assert.Equal(t, tc.key, missing.Key, tc.name)
		} else {
			assert.NoError(t, err, tc.name)
			assert.Equal(t, tc.expected, actual, tc.name)
		}
	}
}

func Test_NetworkCreationMapping(t *testing.T) {
	cfg := NetworkCreation{
		OrgByRegion:     map[string]string{"emea": "111", AnyRegion: "999"},
		TemplateBySdwan: map[string]string{"-ha-": "L_1"},
	}

	org, err := cfg.OrgForRegions([]string{"france", "EMEA"})
	require.NoError(t, err)
	assert.Equal(t, "111", org)

	org, err = cfg.OrgForRegions([]string{"apac"})
	require.NoError(t, err)
	assert.Equal(t, "999", org)

	template, err := cfg.TemplateForSdwan("-HA-")
	require.NoError(t, err)
	assert.Equal(t, "L_1", template)

	_, err = cfg.TemplateForSdwan("-NHA-")
	assert.ErrorIs(t, err, ErrMissingKey)

	delete(cfg.OrgByRegion, AnyRegion)
	_, err = cfg.OrgForRegions([]string{"apac"})
	assert.ErrorIs(t, err, ErrMissingKey)
}
