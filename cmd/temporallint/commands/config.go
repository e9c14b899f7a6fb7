package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/finding"
	"github.com/bfv/temporallint/internal/rules"
)

// ConfigName is the base name of the config file searched for in the working
// directory and in $HOME.
const ConfigName = ".temporallint"

// EnvPrefix prefixes environment overrides, e.g. TEMPORALLINT_STRICT=true.
const EnvPrefix = "TEMPORALLINT"

// ConfigFile is the structure of .temporallint.yaml.
type ConfigFile struct {
	Format   string                      `yaml:"format" mapstructure:"format"`
	Strict   bool                        `yaml:"strict" mapstructure:"strict"`
	Workers  int                         `yaml:"workers" mapstructure:"workers"`
	Evidence bool                        `yaml:"evidence" mapstructure:"evidence"`
	Disable  []string                    `yaml:"disable" mapstructure:"disable"`
	Severity map[string]finding.Severity `yaml:"severity" mapstructure:"severity"`
	Policy   classify.Policy             `yaml:"policy" mapstructure:"policy"`
}

// DefaultConfigFile returns the configuration used when no file is found.
func DefaultConfigFile() ConfigFile {
	return ConfigFile{
		Format:   "text",
		Disable:  []string{},
		Severity: map[string]finding.Severity{},
		Policy:   classify.DefaultPolicy(),
	}
}

// SetDefaults registers the default configuration on v.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfigFile()
	v.SetDefault("format", d.Format)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("evidence", d.Evidence)
	v.SetDefault("disable", d.Disable)
	v.SetDefault("severity", map[string]string{})
	v.SetDefault("policy.verbs", d.Policy.Verbs)
	v.SetDefault("policy.scheduling_names", d.Policy.SchedulingNames)
	v.SetDefault("policy.scheduling_suffixes", d.Policy.SchedulingSuffixes)
	v.SetDefault("policy.log_suffixes", d.Policy.LogSuffixes)
	v.SetDefault("policy.chains", d.Policy.Chains)
	v.SetDefault("policy.now_functions", d.Policy.NowFunctions)
}

// InitConfig prepares v: defaults, the config file (explicit path or
// searched), and TEMPORALLINT_* environment overrides. A missing searched
// file is not an error; a missing explicit file is.
func InitConfig(v *viper.Viper, path string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			log.Debug().Msg("no config file found, using defaults")
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	log.Debug().Str("path", v.ConfigFileUsed()).Msg("config loaded")
	return nil
}

// LoadConfig decodes the merged configuration held by v. Defaults come from
// SetDefaults, so unset keys still decode to DefaultConfigFile values.
func LoadConfig(v *viper.Viper) (*ConfigFile, error) {
	var cfg ConfigFile
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	switch cfg.Format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("unknown format %q (want text or json)", cfg.Format)
	}
	return &cfg, nil
}

// RulesConfig converts the file settings into an engine configuration.
// Unknown rule keys are rejected so typos do not silently disable nothing.
func (c *ConfigFile) RulesConfig() (*rules.Config, error) {
	rc := rules.NewConfig()
	rc.Policy = c.Policy
	known := rules.Default()
	for _, key := range c.Disable {
		if strings.TrimSpace(key) == "" {
			continue
		}
		if _, ok := rules.Lookup(known, key); !ok {
			return nil, fmt.Errorf("disable: unknown rule %q", key)
		}
		rc.Disable(key)
	}
	for key, sev := range c.Severity {
		if _, ok := rules.Lookup(known, key); !ok {
			return nil, fmt.Errorf("severity: unknown rule %q", key)
		}
		rc.SetSeverity(key, sev)
	}
	return rc, nil
}
