package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "SOPCTL"
	DefaultAPIURL  = "https://api.meraki.com/api/v1"
	AnyRegion      = "*"
	KeyReadOnly    = "RO"
	KeyReadWrite   = "RW"
	mainConfig     = "sopctl"
	secretsConfig  = "secrets"
	defaultTimeout = 30 * time.Second
)

var ErrMissingKey = errors.New("missing configuration key")

// MissingKeyError names the configuration key an operation needed.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingKey, e.Key)
}

func (e *MissingKeyError) Is(target error) bool {
	return target == ErrMissingKey
}

type Config struct {
	Log             Log
	SopMeraki       SopMeraki       `mapstructure:"sopmeraki"`
	NetworkCreation NetworkCreation `mapstructure:"network_creation"`
	Mail            Mail
	Lock            Lock
}

type Log struct {
	Level string
	JSON  bool
}

type APIKeys struct {
	RO string `mapstructure:"ro"`
	RW string `mapstructure:"rw"`
}

type SopMeraki struct {
	APIKeys        map[string]APIKeys `mapstructure:"api_keys"`
	APIURL         string             `mapstructure:"api_url"`
	NoAutoSched    bool               `mapstructure:"no_auto_sched"`
	Simulate       bool
	Concurrency    int
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Retries        int
}

type NetworkCreation struct {
	Dashboard       string
	OrgByRegion     map[string]string `mapstructure:"org_by_region"`
	TemplateBySdwan map[string]string `mapstructure:"template_by_sdwan"`
	CopyFrom        string            `mapstructure:"copy_from"`
	ProductTypes    []string          `mapstructure:"product_types"`
}

type Mail struct {
	Server    string
	Sender    string
	Receivers []string
	Levels    []string
}

type Lock struct {
	EtcdEndpoints []string `mapstructure:"etcd_endpoints"`
	Prefix        string
	TTL           time.Duration
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
}

// APIKey returns the key used to reach a dashboard: read-only in simulate
// mode, read-write otherwise.
func (c *SopMeraki) APIKey(dashboard string) (string, error) {
	keys, ok := c.APIKeys[strings.ToLower(dashboard)]
	if !ok {
		return "", &MissingKeyError{Key: fmt.Sprintf("sopmeraki.api_keys.%s", dashboard)}
	}

	kind, key := KeyReadWrite, keys.RW
	if c.Simulate {
		kind, key = KeyReadOnly, keys.RO
	}

	if strings.TrimSpace(key) == "" {
		return "", &MissingKeyError{Key: fmt.Sprintf("sopmeraki.api_keys.%s.%s", dashboard, kind)}
	}

	return key, nil
}

// OrgForRegions returns the organization mapped to the first matching region
// slug, falling back to the "*" entry.
func (c *NetworkCreation) OrgForRegions(regions []string) (string, error) {
	for _, region := range regions {
		if org, ok := c.OrgByRegion[strings.ToLower(region)]; ok {
			return org, nil
		}
	}

	if org, ok := c.OrgByRegion[AnyRegion]; ok {
		return org, nil
	}

	return "", &MissingKeyError{Key: fmt.Sprintf("network_creation.org_by_region.%s", strings.Join(regions, "|"))}
}

func (c *NetworkCreation) TemplateForSdwan(sdwan string) (string, error) {
	template, ok := c.TemplateBySdwan[strings.ToLower(sdwan)]
	if !ok || template == "" {
		return "", &MissingKeyError{Key: fmt.Sprintf("network_creation.template_by_sdwan.%s", sdwan)}
	}

	return template, nil
}

// Load reads sopctl.yaml and the optional secrets.yaml from path, then the
// SOPCTL_ environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("sopmeraki.api_url", DefaultAPIURL)
	v.SetDefault("sopmeraki.concurrency", 1)
	v.SetDefault("sopmeraki.request_timeout", defaultTimeout)
	v.SetDefault("sopmeraki.retries", 3)
	v.SetDefault("network_creation.product_types", []string{"appliance", "switch", "wireless"})
	v.SetDefault("mail.levels", []string{"failure"})
	v.SetDefault("lock.prefix", "/sopctl/lock")
	v.SetDefault("lock.ttl", 60*time.Second)
	v.SetDefault("lock.dial_timeout", 5*time.Second)

	for _, name := range []string{mainConfig, secretsConfig} {
		v.SetConfigName(name)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if name == secretsConfig && errors.As(err, &notFound) {
				continue
			}
			return Config{}, fmt.Errorf("failed to read %s config: %w", name, err)
		}
	}

	cfg := Config{}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		))); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.SopMeraki.Concurrency < 1 {
		cfg.SopMeraki.Concurrency = 1
	}

	return cfg, nil
}
