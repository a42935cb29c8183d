package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// defaultConfigDoc mirrors config.Config's YAML shape with the reference
// defaults (spec.md §6, Configuration) spelled out explicitly, so a fresh
// checkout has a readable starting file instead of relying purely on
// viper's in-code defaults.
type defaultConfigDoc struct {
	Seed    int64 `yaml:"seed"`
	Economy struct {
		InitialCash string `yaml:"initial_cash"`
		DailyFee    string `yaml:"daily_fee"`
	} `yaml:"economy"`
	Machine struct {
		Rows           int      `yaml:"rows"`
		SlotsPerRow    int      `yaml:"slots_per_row"`
		SlotCapacity   int      `yaml:"slot_capacity"`
		SizeClassByRow []string `yaml:"size_class_by_row"`
	} `yaml:"machine"`
	Limits struct {
		BankruptcyDays int `yaml:"bankruptcy_days"`
		MaxMessages    int `yaml:"max_messages"`
		MaxDays        int `yaml:"max_days"`
	} `yaml:"limits"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Introspect struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"introspect"`
}

func writeDefaultConfig(path string) error {
	var doc defaultConfigDoc
	doc.Seed = 1
	doc.Economy.InitialCash = "500"
	doc.Economy.DailyFee = "2"
	doc.Machine.Rows = 4
	doc.Machine.SlotsPerRow = 3
	doc.Machine.SlotCapacity = 10
	doc.Machine.SizeClassByRow = []string{"small", "small", "large", "large"}
	doc.Limits.BankruptcyDays = 10
	doc.Limits.MaxMessages = 2000
	doc.Limits.MaxDays = 400
	doc.Logging.Level = "info"
	doc.Logging.Format = "text"
	doc.Introspect.Enabled = false
	doc.Introspect.Addr = "127.0.0.1:8765"

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
