// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

// Config is the root configuration of hostprint.
type Config struct {
	Log        LogConfig        `description:"Logging configuration" koanf:"log"`
	Workspace  string           `description:"Workspace root directory" koanf:"workspace"`
	Signatures SignaturesConfig `description:"Signature corpus configuration" koanf:"signatures"`
	Analyzer   AnalyzerConfig   `description:"Analyzer configuration" koanf:"analyzer"`
	Capture    CaptureConfig    `description:"Capture ingestion configuration" koanf:"capture"`
	Metrics    MetricsConfig    `description:"Prometheus endpoint configuration" koanf:"metrics"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level: trace | debug | info | warn | error" koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `description:"Log format: json | text" koanf:"format" validate:"oneof=text json"`
	File   string `description:"Log file path" koanf:"file"`
}

// SignaturesConfig selects the signature corpus.
type SignaturesConfig struct {
	// Dir overrides the embedded tables; empty means the sync cache if it
	// holds tables, else the embedded ones.
	Dir string `description:"Directory holding tcp_signatures.yaml, ja3_signatures.yaml and mac_vendors.yaml" koanf:"dir"`
	// VersionConstraint is a semver constraint every table version must meet.
	VersionConstraint string `description:"Accepted signature data versions" koanf:"version_constraint" validate:"required"`
	CacheDir          string `description:"Destination of signatures sync (default <workspace>/cache/signatures)" koanf:"cache_dir"`
	SyncURL           string `description:"Base URL for signatures sync" koanf:"sync_url" validate:"omitempty,url"`
}

// AnalyzerConfig tunes the analysis engine.
type AnalyzerConfig struct {
	FinalizeWorkers int      `description:"Concurrent classifiers during finalize (0 = GOMAXPROCS)" koanf:"finalize_workers" validate:"min=0"`
	Exclude         []string `description:"Addresses or CIDR prefixes that are never tracked" koanf:"exclude" validate:"dive,cidr|ip"`
}

// CaptureConfig tunes offline capture ingestion.
type CaptureConfig struct {
	Workers int `description:"Concurrent packet decoders (0 = GOMAXPROCS)" koanf:"workers" validate:"min=0"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `description:"Listen address for /metrics; empty disables it" koanf:"addr" validate:"omitempty,hostname_port"`
}
