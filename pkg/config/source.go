// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Layer priorities. A source with a higher priority is merged later and
// wins on conflicting keys.
const (
	PriorityDefaults = 10
	PriorityFile     = 20
	PriorityEnv      = 30
	PriorityFlags    = 40
)

// ConfigSource is one layer of the merged configuration tree.
type ConfigSource interface {
	Name() string
	Priority() int
	Load(k *koanf.Koanf) error
}

// DefaultSource seeds every known key from DefaultConfig.
type DefaultSource struct{}

func (s *DefaultSource) Name() string  { return "defaults" }
func (s *DefaultSource) Priority() int { return PriorityDefaults }

func (s *DefaultSource) Load(k *koanf.Koanf) error {
	if err := k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil); err != nil {
		return fmt.Errorf("load defaults: %w", err)
	}
	return nil
}

// FileSource merges a YAML file. An empty or missing Path is not an error.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string  { return "file:" + s.Path }
func (s *FileSource) Priority() int { return PriorityFile }

func (s *FileSource) Load(k *koanf.Koanf) error {
	if s.Path == "" {
		return nil
	}
	if _, err := os.Stat(s.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config file %s: %w", s.Path, err)
	}
	if err := k.Load(file.Provider(s.Path), yaml.Parser()); err != nil {
		return fmt.Errorf("load config file %s: %w", s.Path, err)
	}
	return nil
}

// EnvSource merges prefixed environment variables, see EnvKey.
type EnvSource struct {
	Prefix string // EnvPrefix when empty
}

func (s *EnvSource) Name() string  { return "env" }
func (s *EnvSource) Priority() int { return PriorityEnv }

func (s *EnvSource) Load(k *koanf.Koanf) error {
	prefix := s.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	cb := func(key string) string { return EnvKey(prefix, key) }
	if err := k.Load(env.Provider(prefix, ".", cb), nil); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}
	return nil
}

// EnvKey maps a variable name onto its koanf key. Only the first underscore
// after the prefix is a section separator:
//
//	HOSTPRINT_ANALYZER_FINALIZE_WORKERS -> analyzer.finalize_workers
//	HOSTPRINT_WORKSPACE                 -> workspace
func EnvKey(prefix, name string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(name, prefix)), "_", ".", 1)
}

// FlagSource merges command-line flags; Debug forces log.level=debug.
type FlagSource struct {
	Flags *pflag.FlagSet
	Debug bool
}

func (s *FlagSource) Name() string  { return "flags" }
func (s *FlagSource) Priority() int { return PriorityFlags }

func (s *FlagSource) Load(k *koanf.Koanf) error {
	if s.Flags != nil {
		if err := k.Load(posflag.Provider(s.Flags, ".", k), nil); err != nil {
			return fmt.Errorf("load flags: %w", err)
		}
	}
	if s.Debug {
		_ = k.Set("log.level", "debug")
	}
	return nil
}

// DefaultSources returns defaults, configPath, environment and flags.
func DefaultSources(configPath string, flags *pflag.FlagSet, debug bool) []ConfigSource {
	return []ConfigSource{
		&DefaultSource{},
		&FileSource{Path: configPath},
		&EnvSource{Prefix: EnvPrefix},
		&FlagSource{Flags: flags, Debug: debug},
	}
}
