// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package config loads hostprint's layered configuration: defaults, a YAML
// file, HOSTPRINT_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/vulntor/hostprint/pkg/fingerprint/signatures"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "HOSTPRINT_"

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a Manager with an empty koanf tree.
func NewManager() *Manager {
	return &Manager{koanfInstance: koanf.New(".")}
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Signatures: SignaturesConfig{
			VersionConstraint: signatures.DefaultVersionConstraint,
		},
		Analyzer: AnalyzerConfig{Exclude: []string{}},
	}
}

// DefaultConfigAsMap flattens DefaultConfig for koanf's confmap provider so
// every key is known before flags are mapped.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,
		"log.file":   def.Log.File,

		"workspace": def.Workspace,

		"signatures.dir":                def.Signatures.Dir,
		"signatures.version_constraint": def.Signatures.VersionConstraint,
		"signatures.cache_dir":          def.Signatures.CacheDir,
		"signatures.sync_url":           def.Signatures.SyncURL,

		"analyzer.finalize_workers": def.Analyzer.FinalizeWorkers,
		"analyzer.exclude":          def.Analyzer.Exclude,

		"capture.workers": def.Capture.Workers,

		"metrics.addr": def.Metrics.Addr,
	}
}

// Load applies the standard sources: defaults, configFile, environment and
// flags.
func (m *Manager) Load(flags *pflag.FlagSet, configFile string) error {
	debug := false
	if flags != nil {
		if f := flags.Lookup("debug"); f != nil && f.Value.String() == "true" {
			debug = true
		}
	}
	return m.LoadWithSources(DefaultSources(configFile, flags, debug))
}

// LoadWithSources loads sources in ascending priority, then unmarshals and
// validates the merged tree. The previous configuration is kept on error.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := make([]ConfigSource, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	k := koanf.New(".")
	for _, src := range ordered {
		if err := src.Load(k); err != nil {
			return fmt.Errorf("config source %s: %w", src.Name(), err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	postProcess(&cfg)
	if err := Validate(cfg); err != nil {
		return err
	}

	m.koanfInstance = k
	m.currentConfig = cfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := m.currentConfig
	cfg.Analyzer.Exclude = append([]string(nil), m.currentConfig.Analyzer.Exclude...)
	return cfg
}

// Koanf exposes the merged key tree.
func (m *Manager) Koanf() *koanf.Koanf {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance
}

func postProcess(cfg *Config) {
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	// A single env value arrives as one comma-joined element.
	var exclude []string
	for _, entry := range cfg.Analyzer.Exclude {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				exclude = append(exclude, part)
			}
		}
	}
	cfg.Analyzer.Exclude = exclude
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks cfg against its struct tags.
func Validate(cfg Config) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// BindFlags defines the flags that map onto configuration keys. Flag names
// are the dotted koanf keys.
func BindFlags(flags *pflag.FlagSet) {
	def := DefaultConfig()
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log.format", def.Log.Format, "Log format (text, json)")
	flags.String("log.file", def.Log.File, "Write logs to this file instead of stderr")
	flags.String("workspace", def.Workspace, "Workspace root directory")
	flags.String("signatures.dir", def.Signatures.Dir, "Load signature tables from this directory")
}
