// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package version provides version metadata for the application.
package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// These variables are typically injected at build time using -ldflags
var (
	// Version holds the current version of hostprint.
	Version = "dev"
	// Commit holds the current version commit of hostprint.
	Commit = "none"
	// BuildDate holds the build date of hostprint.
	BuildDate = "unknown"
)

// Struct returns version information in a structured format.
type Struct struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("hostprint %s (commit: %s, date: %s)", Version, Commit, BuildDate)
}

// Get returns version information as a Struct.
func Get() Struct {
	return Struct{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// IsRelease reports whether Version is a semantic version without a
// pre-release suffix.
func IsRelease() bool {
	v, err := semver.NewVersion(Version)
	return err == nil && v.Prerelease() == ""
}
