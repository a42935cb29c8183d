// Package config defines all configuration for the vending machine
// simulator. Config is loaded from a YAML file (default: configs/config.yaml)
// with overrides from VENDSIM_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"vendsim/pkg/types"
)

// Config is the top-level configuration. Maps directly to the YAML file
// structure (spec.md §6, Configuration).
type Config struct {
	Seed       int64            `mapstructure:"seed"`
	Economy    EconomyConfig    `mapstructure:"economy"`
	Machine    MachineConfig    `mapstructure:"machine"`
	Limits     LimitsConfig     `mapstructure:"limits"`
	TimeCosts  TimeCostsConfig  `mapstructure:"time_costs"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Introspect IntrospectConfig `mapstructure:"introspect"`
}

// EconomyConfig carries the starting financial position.
type EconomyConfig struct {
	InitialCash string `mapstructure:"initial_cash"`
	DailyFee    string `mapstructure:"daily_fee"`
}

// InitialCashDecimal parses InitialCash, defaulting to 500 if empty.
func (e EconomyConfig) InitialCashDecimal() (decimal.Decimal, error) {
	if e.InitialCash == "" {
		return decimal.NewFromInt(500), nil
	}
	return decimal.NewFromString(e.InitialCash)
}

// DailyFeeDecimal parses DailyFee, defaulting to 2 if empty.
func (e EconomyConfig) DailyFeeDecimal() (decimal.Decimal, error) {
	if e.DailyFee == "" {
		return decimal.NewFromInt(2), nil
	}
	return decimal.NewFromString(e.DailyFee)
}

// MachineConfig describes the vending machine's physical layout.
type MachineConfig struct {
	Rows           int      `mapstructure:"rows"`
	SlotsPerRow    int      `mapstructure:"slots_per_row"`
	SlotCapacity   int      `mapstructure:"slot_capacity"`
	SizeClassByRow []string `mapstructure:"size_class_by_row"`
}

// SizeClasses converts SizeClassByRow into typed size classes, defaulting to
// the reference layout (small, small, large, large) when unset.
func (m MachineConfig) SizeClasses() []types.SizeClass {
	if len(m.SizeClassByRow) == 0 {
		return []types.SizeClass{types.Small, types.Small, types.Large, types.Large}
	}
	classes := make([]types.SizeClass, len(m.SizeClassByRow))
	for i, s := range m.SizeClassByRow {
		classes[i] = types.SizeClass(strings.ToLower(s))
	}
	return classes
}

// LimitsConfig sets the termination thresholds (spec.md §4.4 step 8).
type LimitsConfig struct {
	BankruptcyDays int `mapstructure:"bankruptcy_days"`
	MaxMessages    int `mapstructure:"max_messages"`
	MaxDays        int `mapstructure:"max_days"`
}

// TimeCostsConfig overrides the per-tool minute cost table (spec.md §4.5);
// zero-value entries fall back to the built-in defaults in pkg/types.
type TimeCostsConfig struct {
	Overrides           map[string]int `mapstructure:"overrides"`
	FallbackTimeMinutes int            `mapstructure:"fallback_time_minutes"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IntrospectConfig controls the optional local introspection WebSocket
// stream (internal/introspect); disabled by default.
type IntrospectConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads config from a YAML file with VENDSIM_* env var overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("VENDSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("seed", 1)
	v.SetDefault("economy.initial_cash", "500")
	v.SetDefault("economy.daily_fee", "2")
	v.SetDefault("machine.rows", 4)
	v.SetDefault("machine.slots_per_row", 3)
	v.SetDefault("machine.slot_capacity", 10)
	v.SetDefault("machine.size_class_by_row", []string{"small", "small", "large", "large"})
	v.SetDefault("limits.bankruptcy_days", 10)
	v.SetDefault("limits.max_messages", 2000)
	v.SetDefault("limits.max_days", 400)
	v.SetDefault("time_costs.fallback_time_minutes", types.FallbackTimeMinutes)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("introspect.enabled", false)
	v.SetDefault("introspect.addr", "127.0.0.1:8765")
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Machine.Rows <= 0 {
		return fmt.Errorf("machine.rows must be > 0")
	}
	if c.Machine.SlotsPerRow <= 0 {
		return fmt.Errorf("machine.slots_per_row must be > 0")
	}
	if c.Machine.SlotCapacity <= 0 {
		return fmt.Errorf("machine.slot_capacity must be > 0")
	}
	if len(c.Machine.SizeClassByRow) != 0 && len(c.Machine.SizeClassByRow) != c.Machine.Rows {
		return fmt.Errorf("machine.size_class_by_row must have machine.rows entries")
	}
	if c.Limits.BankruptcyDays <= 0 {
		return fmt.Errorf("limits.bankruptcy_days must be > 0")
	}
	if c.Limits.MaxMessages <= 0 {
		return fmt.Errorf("limits.max_messages must be > 0")
	}
	if c.Limits.MaxDays <= 0 {
		return fmt.Errorf("limits.max_days must be > 0")
	}
	if _, err := c.Economy.InitialCashDecimal(); err != nil {
		return fmt.Errorf("economy.initial_cash: %w", err)
	}
	if _, err := c.Economy.DailyFeeDecimal(); err != nil {
		return fmt.Errorf("economy.daily_fee: %w", err)
	}
	return nil
}

// TimeCostMinutes returns the configured minute cost for a tool, falling
// back to the built-in default table and then FallbackTimeMinutes.
func (c *Config) TimeCostMinutes(tool string) int {
	if c.TimeCosts.Overrides != nil {
		if v, ok := c.TimeCosts.Overrides[tool]; ok && v > 0 {
			return v
		}
	}
	if v, ok := types.TimeCostMinutes[tool]; ok {
		return v
	}
	if c.TimeCosts.FallbackTimeMinutes > 0 {
		return c.TimeCosts.FallbackTimeMinutes
	}
	return types.FallbackTimeMinutes
}
