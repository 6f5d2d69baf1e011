package configs

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

//go:embed config.example.yaml
var defaultConfigYAML string

// embeddedDefaults is parsed and validated once. Callers only ever see copies.
var embeddedDefaults = sync.OnceValues(func() (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(defaultConfigYAML)); err != nil {
		return Config{}, fmt.Errorf("failed to read embedded premint defaults: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode embedded premint defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("embedded premint defaults are invalid: %w", err)
	}
	return cfg, nil
})

// DefaultConfig returns the premint defaults of config.example.yaml. The result
// shares no state with other callers.
func DefaultConfig() (Config, error) {
	cfg, err := embeddedDefaults()
	if err != nil {
		return Config{}, err
	}
	return cfg.clone(), nil
}

// MustDefaultConfig is DefaultConfig for callers that cannot run without defaults.
func MustDefaultConfig() Config {
	cfg, err := DefaultConfig()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c Config) clone() Config {
	c.Premint.AllowedVersions = slices.Clone(c.Premint.AllowedVersions)
	return c
}
