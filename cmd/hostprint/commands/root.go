// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package commands implements the hostprint command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/hostprint/cmd/hostprint/internal/format"
	"github.com/vulntor/hostprint/pkg/config"
	"github.com/vulntor/hostprint/pkg/logging"
	"github.com/vulntor/hostprint/pkg/version"
	"github.com/vulntor/hostprint/pkg/workspace"
)

const cliExecutable = "hostprint"

type stateKey struct{}

// state is what PersistentPreRunE resolves for every subcommand.
type state struct {
	cfg       config.Config
	logCloser io.Closer
}

func stateFrom(ctx context.Context) *state {
	if st, ok := ctx.Value(stateKey{}).(*state); ok {
		return st
	}
	return &state{cfg: config.DefaultConfig()}
}

// NewCommand constructs the top-level hostprint command.
func NewCommand() *cobra.Command {
	var (
		configFile        string
		workspaceDisabled bool
		verbosityCount    int
		st                *state
	)

	cmd := &cobra.Command{
		Use:     cliExecutable,
		Version: version.Version,
		Short:   "Passive host fingerprinting from packet captures",
		Long: `hostprint classifies hosts seen in pcap/pcapng captures by operating system
and device type using TCP SYN, JA3, MAC vendor, DHCP and banner evidence.
It never sends a packet.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			mgr := config.NewManager()
			if err := mgr.Load(cmd.Flags(), configFile); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg := mgr.Get()
			if lvl := verbosityLevel(verbosityCount); lvl != "" {
				cfg.Log.Level = lvl
			}

			closer, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
			if err != nil {
				return err
			}
			st = &state{cfg: cfg, logCloser: closer}

			ctx := context.WithValue(cmd.Context(), stateKey{}, st)
			if !workspaceDisabled {
				prepared, err := workspace.Prepare(cfg.Workspace)
				if err != nil {
					return fmt.Errorf("prepare workspace: %w", err)
				}
				log.Debug().Str("workspace", prepared).Msg("workspace ready")
				ctx = workspace.WithContext(ctx, prepared)
			}
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if st != nil && st.logCloser != nil {
				return st.logCloser.Close()
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetVersionTemplate(version.Info() + "\n")

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().BoolVar(&workspaceDisabled, "no-workspace", false, "Do not create or use the workspace directory")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "analysis", Title: "Analysis Commands"})
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands"})

	cmd.AddCommand(newAnalyzeCommand())
	cmd.AddCommand(newHostCommand())
	cmd.AddCommand(newSignaturesCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// verbosityLevel maps -v counts onto log levels; zero keeps the configured
// level.
func verbosityLevel(count int) string {
	switch {
	case count <= 0:
		return ""
	case count == 1:
		return "info"
	case count == 2:
		return "debug"
	default:
		return "trace"
	}
}

// outputFlag registers --output on cmd.
func outputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", string(format.ModeTable), "Output format: table | json")
}

func newFormatter(cmd *cobra.Command, mode string) (*format.Formatter, error) {
	if err := format.ValidateMode(mode); err != nil {
		return nil, err
	}
	return format.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), format.ParseMode(mode), useColor(cmd.OutOrStdout())), nil
}

func useColor(w io.Writer) bool {
	if color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (f == os.Stdout || f == os.Stderr)
}
