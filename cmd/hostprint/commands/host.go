// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"

	"github.com/vulntor/hostprint/pkg/analyzer"
)

func newHostCommand() *cobra.Command {
	var (
		output string
		opts   runOptions
	)

	cmd := &cobra.Command{
		Use:     "host <ip> <capture>...",
		Short:   "Show every observation and the classification of one host",
		GroupID: "analysis",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := newFormatter(cmd, output)
			if err != nil {
				return err
			}
			addr, err := netip.ParseAddr(args[0])
			if err != nil {
				return fmt.Errorf("invalid host address %q: %w", args[0], err)
			}
			ip := addr.Unmap().String()

			res, err := runPipeline(cmd.Context(), stateFrom(cmd.Context()), args[1:], opts)
			if err != nil {
				_ = f.PrintFailure("analyze captures", err, errorCode(err), suggestionsFor(err))
				return reported(err)
			}

			h, ok := res.analyzer.Host(ip)
			if !ok {
				err := analyzer.NewHostNotFoundError(ip)
				_ = f.PrintFailure("inspect host", err, errorCode(err), nil)
				return reported(err)
			}
			return f.PrintHostDetail(h)
		},
	}

	outputFlag(cmd, &output)
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Packet decode workers (default capture.workers)")
	return cmd
}
