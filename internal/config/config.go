// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/log"
)

// GlobalConfig represents the top-level static configuration.
// Maps to the `strix:` root key in YAML.
type GlobalConfig struct {
	Log       *log.LoggerConfig         `mapstructure:"log"`
	Craft     CraftConfig               `mapstructure:"craft"`
	Protocols map[string]ProtocolConfig `mapstructure:"protocols"`
}

// ─── Craft Defaults ───

// CraftConfig carries the craft command defaults used when the
// corresponding flags are not given.
type CraftConfig struct {
	Stack  string `mapstructure:"stack"`  // outermost-first, "/"-separated, e.g. "ipv4/udp"
	Output string `mapstructure:"output"` // hex | raw | summary
}

// Layers returns the stack as outermost-first protocol names.
func (c CraftConfig) Layers() []string {
	return strings.Split(c.Stack, "/")
}

// ─── Protocol Presets ───

// ProtocolConfig holds per-protocol field presets applied to every crafted
// probe before command-line field flags. Values stay untyped here; they are
// decoded on demand by FieldValues so string forms like "0x829a" and
// "10.0.0.1" work from YAML and from the environment alike.
type ProtocolConfig struct {
	Fields map[string]interface{} `mapstructure:"fields"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `strix: ...`.
type configRoot struct {
	Strix GlobalConfig `mapstructure:"strix"`
}

// Load loads configuration from file. The YAML file uses `strix:` as root
// key; env vars override via the key replacer (e.g., key "strix.log.level"
// maps to env STRIX_LOG_LEVEL). An empty path loads defaults and
// environment only.
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variable overrides.
	// No explicit env prefix: the `strix.` key prefix naturally maps to
	// STRIX_ in env vars via the key replacer.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Unmarshal into the wrapper, then extract the inner GlobalConfig
	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Strix

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use the "strix." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("strix.log.level", "info")
	v.SetDefault("strix.log.pattern", "%time [%level] %msg\n")
	v.SetDefault("strix.log.time", "2006-01-02 15:04:05")

	// Craft defaults
	v.SetDefault("strix.craft.stack", "ipv4/udp")
	v.SetDefault("strix.craft.output", "hex")
}

// ValidateAndApplyDefaults validates configuration and fills the zero
// values a hand-built GlobalConfig is missing.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	if cfg.Log != nil {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[cfg.Log.Level] {
			return fmt.Errorf("%w: log level %q (must be debug/info/warn/error)",
				core.ErrConfigInvalid, cfg.Log.Level)
		}
	}

	switch cfg.Craft.Output {
	case "hex", "raw", "summary":
	case "":
		cfg.Craft.Output = "hex"
	default:
		return fmt.Errorf("%w: craft output %q (must be hex/raw/summary)",
			core.ErrConfigInvalid, cfg.Craft.Output)
	}

	if cfg.Craft.Stack == "" {
		cfg.Craft.Stack = "ipv4/udp"
	}
	for _, name := range cfg.Craft.Layers() {
		if name == "" {
			return fmt.Errorf("%w: craft stack %q has an empty layer",
				core.ErrConfigInvalid, cfg.Craft.Stack)
		}
	}

	return nil
}
