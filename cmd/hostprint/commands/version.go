// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vulntor/hostprint/cmd/hostprint/internal/format"
	"github.com/vulntor/hostprint/pkg/fingerprint/signatures"
	"github.com/vulntor/hostprint/pkg/version"
)

func newVersionCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Print version information and embedded signature versions",
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := newFormatter(cmd, output)
			if err != nil {
				return err
			}

			info := version.Get()
			corpus := signatures.Default()
			counts := corpus.Counts()
			if f.Mode() == format.ModeJSON {
				tables := make(map[string]string, len(counts))
				entries := make(map[string]int, len(counts))
				for _, t := range signatures.Tables() {
					tables[string(t)] = corpus.Version(t)
					entries[string(t)] = counts[t]
				}
				return f.PrintJSON(map[string]any{
					"version":    info,
					"release":    version.IsRelease(),
					"signatures": tables,
					"entries":    entries,
				})
			}

			build := "development"
			if version.IsRelease() {
				build = "release"
			}

			stats := []format.Stat{
				{Label: "Version", Value: info.Version},
				{Label: "Commit", Value: info.Commit},
				{Label: "Built", Value: info.BuildDate},
				{Label: "Go", Value: info.GoVersion},
				{Label: "Build", Value: build},
			}
			for _, t := range signatures.Tables() {
				stats = append(stats, format.Stat{Label: string(t), Value: fmt.Sprintf("%s (%d entries)", corpus.Version(t), counts[t])})
			}
			return f.PrintSummaryBox(cliExecutable, stats)
		},
	}
	outputFlag(cmd, &output)
	return cmd
}
