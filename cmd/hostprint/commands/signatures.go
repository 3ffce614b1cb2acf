// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/hostprint/cmd/hostprint/internal/format"
	"github.com/vulntor/hostprint/pkg/fingerprint/signatures"
)

func newSignaturesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "signatures",
		Aliases: []string{"sig"},
		Short:   "Inspect, validate and sync the signature corpus",
		GroupID: "core",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newSignaturesValidateCommand())
	cmd.AddCommand(newSignaturesSyncCommand())
	return cmd
}

type reportRow struct {
	Table    string `json:"table"`
	Version  string `json:"version"`
	Count    int    `json:"count"`
	Fallback bool   `json:"fallback"`
	Error    string `json:"error,omitempty"`
}

func printReport(f *format.Formatter, report signatures.Report) error {
	if f.Mode() == format.ModeJSON {
		rows := make([]reportRow, 0, len(report.Tables))
		for _, t := range report.Tables {
			row := reportRow{Table: string(t.Table), Version: t.Version, Count: t.Count, Fallback: t.Fallback}
			if t.Err != nil {
				row.Error = t.Err.Error()
			}
			rows = append(rows, row)
		}
		return f.PrintJSON(map[string]any{"source": report.Source, "tables": rows})
	}

	rows := make([][]string, 0, len(report.Tables))
	for _, t := range report.Tables {
		status := "ok"
		switch {
		case t.Err != nil && t.Fallback:
			status = "fallback: " + t.Err.Error()
		case t.Err != nil:
			status = t.Err.Error()
		}
		rows = append(rows, []string{string(t.Table), t.Version, strconv.Itoa(t.Count), status})
	}
	if err := f.PrintTable([]string{"table", "version", "entries", "status"}, rows); err != nil {
		return err
	}
	return f.PrintSummary("source: " + report.Source)
}

func newSignaturesValidateCommand() *cobra.Command {
	var (
		dir    string
		watch  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate signature tables (embedded, --dir, or the configured corpus)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := newFormatter(cmd, output)
			if err != nil {
				return err
			}
			st := stateFrom(cmd.Context())
			loader, err := signatures.NewLoader(st.cfg.Signatures.VersionConstraint, log.Logger)
			if err != nil {
				return err
			}

			var src signatures.Source = signatures.DirSource{Dir: dir}
			if dir == "" {
				if watch {
					return errors.New("--watch requires --dir")
				}
				src = signatureSource(cmd.Context(), st)
			}

			_, report := loader.Load(src)
			if err := printReport(f, report); err != nil {
				return err
			}
			if !watch {
				if err := report.Err(); err != nil {
					_ = f.PrintFailure("validate signatures", err, signatures.ErrorCode(err), signatures.Suggestions(err))
					return reported(err)
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watchSignatures(ctx, f, dir, loader)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory holding the three signature tables")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-validate whenever a table in --dir changes")
	outputFlag(cmd, &output)
	return cmd
}

func watchSignatures(ctx context.Context, f *format.Formatter, dir string, loader *signatures.Loader) error {
	w, err := signatures.NewWatcher(dir, loader, func(_ *signatures.Corpus, report signatures.Report) {
		if err := printReport(f, report); err != nil {
			log.Warn().Err(err).Msg("print signature report")
		}
		if err := report.Err(); err != nil {
			_ = f.PrintWarning(err.Error())
		}
	}, log.Logger)
	if err != nil {
		return err
	}
	_ = f.PrintSummary(fmt.Sprintf("watching %s (Ctrl+C to stop)", dir))

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newSignaturesSyncCommand() *cobra.Command {
	var (
		dir           string
		url           string
		cacheOverride string
		output        string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch, validate and cache signature tables from a directory or URL",
		Example: `  hostprint signatures sync --file ./signatures
  hostprint signatures sync --url https://example.org/hostprint/signatures`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := newFormatter(cmd, output)
			if err != nil {
				return err
			}
			st := stateFrom(cmd.Context())

			fail := func(err error) error {
				_ = f.PrintFailure("sync signatures", err, signatures.ErrorCode(err), signatures.Suggestions(err))
				return reported(err)
			}

			if dir != "" && url != "" {
				return fail(signatures.NewSourceConflictError())
			}
			if dir == "" && url == "" {
				url = st.cfg.Signatures.SyncURL
			}
			if dir == "" && url == "" {
				return fail(signatures.NewSourceRequiredError())
			}

			destination := cacheOverride
			if destination == "" {
				destination = cacheDir(cmd.Context(), st)
			}
			if destination == "" {
				return errors.New("workspace disabled; specify --cache-dir")
			}

			loader, err := signatures.NewLoader(st.cfg.Signatures.VersionConstraint, log.Logger)
			if err != nil {
				return err
			}

			svc := signatures.SyncService{Loader: loader, CacheDir: destination}
			if dir != "" {
				svc.Fetcher = signatures.FileFetcher{Dir: dir}
			} else {
				svc.Fetcher = signatures.HTTPFetcher{BaseURL: url}
			}

			_, report, err := svc.Sync(cmd.Context())
			if err != nil {
				if len(report.Tables) > 0 {
					_ = printReport(f, report)
				}
				return fail(err)
			}

			log.Info().Str("cache", destination).Msg("signatures synced")
			return printReport(f, report)
		},
	}

	cmd.Flags().StringVar(&dir, "file", "", "Copy tables from a local directory")
	cmd.Flags().StringVar(&url, "url", "", "Download tables from <url>/<table>.yaml (default signatures.sync_url)")
	cmd.Flags().StringVar(&cacheOverride, "cache-dir", "", "Override the cache destination (default signatures.cache_dir)")
	outputFlag(cmd, &output)
	return cmd
}
