// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSource_Priority(t *testing.T) {
	src := &DefaultSource{}
	assert.Equal(t, 10, src.Priority())
	assert.Equal(t, "defaults", src.Name())
}

func TestDefaultSource_Load(t *testing.T) {
	k := koanf.New(".")
	src := &DefaultSource{}

	err := src.Load(k)
	require.NoError(t, err)

	assert.Equal(t, "info", k.String("log.level"))
	assert.Equal(t, "text", k.String("log.format"))
}

func TestFileSource_Priority(t *testing.T) {
	src := &FileSource{Path: "/tmp/test.yaml"}
	assert.Equal(t, 20, src.Priority())
	assert.Equal(t, "file:/tmp/test.yaml", src.Name())
}

func TestFileSource_Load_EmptyPath(t *testing.T) {
	k := koanf.New(".")
	src := &FileSource{Path: ""}

	err := src.Load(k)
	require.NoError(t, err, "Empty path should skip silently")
}

func TestFileSource_Load_NonExistentFile(t *testing.T) {
	k := koanf.New(".")
	src := &FileSource{Path: "/nonexistent/path/config.yaml"}

	err := src.Load(k)
	require.NoError(t, err, "Non-existent file should skip silently")
}

func TestFileSource_Load_ValidFile(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
log:
  level: warn
  format: json
capture:
  workers: 9
`
	err := os.WriteFile(configPath, []byte(configContent), 0o644)
	require.NoError(t, err)

	k := koanf.New(".")
	src := &FileSource{Path: configPath}

	err = src.Load(k)
	require.NoError(t, err)

	assert.Equal(t, "warn", k.String("log.level"))
	assert.Equal(t, "json", k.String("log.format"))
	assert.Equal(t, 9, k.Int("capture.workers"))
}

func TestEnvSource_Priority(t *testing.T) {
	src := &EnvSource{}
	assert.Equal(t, 30, src.Priority())
	assert.Equal(t, "env", src.Name())
}

func TestEnvSource_Load(t *testing.T) {
	t.Setenv("HOSTPRINT_LOG_LEVEL", "error")
	t.Setenv("HOSTPRINT_CAPTURE_WORKERS", "8")
	t.Setenv("HOSTPRINT_SIGNATURES_VERSION_CONSTRAINT", ">= 1.1.0")

	k := koanf.New(".")
	src := &EnvSource{Prefix: "HOSTPRINT_"}

	err := src.Load(k)
	require.NoError(t, err)

	assert.Equal(t, "error", k.String("log.level"))
	assert.Equal(t, 8, k.Int("capture.workers"))
	assert.Equal(t, ">= 1.1.0", k.String("signatures.version_constraint"))
}

func TestEnvSource_Load_DefaultPrefix(t *testing.T) {
	t.Setenv("HOSTPRINT_LOG_FORMAT", "json")

	k := koanf.New(".")
	src := &EnvSource{} // No prefix specified, should default to HOSTPRINT_

	err := src.Load(k)
	require.NoError(t, err)

	assert.Equal(t, "json", k.String("log.format"))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "log.level", EnvKey("HOSTPRINT_", "HOSTPRINT_LOG_LEVEL"))
	assert.Equal(t, "analyzer.finalize_workers", EnvKey("HOSTPRINT_", "HOSTPRINT_ANALYZER_FINALIZE_WORKERS"))
	assert.Equal(t, "workspace", EnvKey("HOSTPRINT_", "HOSTPRINT_WORKSPACE"))
}

func TestFlagSource_Priority(t *testing.T) {
	src := &FlagSource{}
	assert.Equal(t, 40, src.Priority())
	assert.Equal(t, "flags", src.Name())
}

func TestFlagSource_Load_NilFlags(t *testing.T) {
	k := koanf.New(".")
	src := &FlagSource{Flags: nil}

	err := src.Load(k)
	require.NoError(t, err, "Nil flags should skip silently")
}

func TestFlagSource_Load(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log.level", "info", "")
	_ = flags.Set("log.level", "debug")

	k := koanf.New(".")
	// Load defaults first so koanf knows the keys
	_ = k.Load(nil, nil)

	src := &FlagSource{Flags: flags}
	err := src.Load(k)
	require.NoError(t, err)

	assert.Equal(t, "debug", k.String("log.level"))
}

func TestFlagSource_Load_DebugFlag(t *testing.T) {
	k := koanf.New(".")

	src := &FlagSource{Flags: nil, Debug: true}
	err := src.Load(k)
	require.NoError(t, err)

	assert.Equal(t, "debug", k.String("log.level"))
}

func TestDefaultSources_Order(t *testing.T) {
	sources := DefaultSources("/tmp/config.yaml", nil, false)

	require.Len(t, sources, 4)
	assert.Equal(t, "defaults", sources[0].Name())
	assert.Equal(t, "file:/tmp/config.yaml", sources[1].Name())
	assert.Equal(t, "env", sources[2].Name())
	assert.Equal(t, "flags", sources[3].Name())
}

func TestDefaultSources_Priorities(t *testing.T) {
	sources := DefaultSources("", nil, false)

	// Verify priorities are in ascending order
	for i := 1; i < len(sources); i++ {
		assert.Greater(t, sources[i].Priority(), sources[i-1].Priority(),
			"Source %s should have higher priority than %s",
			sources[i].Name(), sources[i-1].Name())
	}
}

func TestLoadWithSources_CustomSource(t *testing.T) {
	// Create a custom source that inserts between file and env
	customSource := &mockConfigSource{
		name:     "custom",
		priority: 25, // Between file (20) and env (30)
		loadFunc: func(k *koanf.Koanf) error {
			return k.Set("log.level", "warn")
		},
	}

	manager := NewManager()
	sources := []ConfigSource{
		&DefaultSource{},
		customSource,
		&EnvSource{Prefix: "HOSTPRINT_"},
	}

	err := manager.LoadWithSources(sources)
	require.NoError(t, err)

	cfg := manager.Get()
	// HOSTPRINT_LOG_LEVEL is unset, so the custom layer wins over defaults.
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadWithSources_PriorityOrdering(t *testing.T) {
	t.Setenv("HOSTPRINT_LOG_LEVEL", "error")

	manager := NewManager()
	sources := []ConfigSource{
		&EnvSource{Prefix: "HOSTPRINT_"}, // priority 30
		&DefaultSource{},                 // priority 10 - should be loaded first despite order
	}

	err := manager.LoadWithSources(sources)
	require.NoError(t, err)

	cfg := manager.Get()
	// ENV (priority 30) should override defaults (priority 10)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadWithSources_SourceError(t *testing.T) {
	manager := NewManager()
	err := manager.LoadWithSources([]ConfigSource{
		&DefaultSource{},
		&mockConfigSource{name: "broken", priority: 15, loadFunc: func(*koanf.Koanf) error {
			return assert.AnError
		}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "broken")
}

// mockConfigSource is a test helper for custom config sources
type mockConfigSource struct {
	name     string
	priority int
	loadFunc func(k *koanf.Koanf) error
}

func (m *mockConfigSource) Name() string  { return m.name }
func (m *mockConfigSource) Priority() int { return m.priority }
func (m *mockConfigSource) Load(k *koanf.Koanf) error {
	if m.loadFunc != nil {
		return m.loadFunc(k)
	}
	return nil
}
