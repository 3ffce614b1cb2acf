// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vulntor/hostprint/cmd/hostprint/internal/format"
	"github.com/vulntor/hostprint/pkg/capture"
	"github.com/vulntor/hostprint/pkg/fingerprint"
)

type analyzeReport struct {
	Session string                        `json:"session"`
	Capture capture.Stats                 `json:"capture"`
	Hosts   []fingerprint.HostFingerprint `json:"hosts"`
	Corpus  map[string]string             `json:"corpus"`
}

func newAnalyzeCommand() *cobra.Command {
	var (
		output string
		opts   runOptions
	)

	cmd := &cobra.Command{
		Use:     "analyze <capture>...",
		Short:   "Classify every host seen in one or more captures",
		GroupID: "analysis",
		Args:    cobra.MinimumNArgs(1),
		Example: `  hostprint analyze office.pcapng
  hostprint analyze -o json --exclude 10.0.0.0/24 day1.pcap day2.pcap
  hostprint analyze --metrics-addr 127.0.0.1:9100 big.pcap`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := newFormatter(cmd, output)
			if err != nil {
				return err
			}
			st := stateFrom(cmd.Context())

			res, err := runPipeline(cmd.Context(), st, args, opts)
			if err != nil {
				_ = f.PrintFailure("analyze captures", err, errorCode(err), suggestionsFor(err))
				return reported(err)
			}
			for _, w := range fallbackWarnings(res.report) {
				_ = f.PrintWarning(w)
			}

			hosts := res.analyzer.HostFingerprints()
			if f.Mode() == format.ModeJSON {
				return f.PrintJSON(analyzeReport{
					Session: res.analyzer.SessionID(),
					Capture: res.stats,
					Hosts:   hosts,
					Corpus:  corpusVersions(res),
				})
			}

			if err := f.PrintTable(format.HostHeaders, f.HostRows(hosts)); err != nil {
				return err
			}
			classified := 0
			for i := range hosts {
				if hosts[i].OSDetection != nil {
					classified++
				}
			}
			return f.PrintSummaryBox("Analysis", []format.Stat{
				{Label: "Files", Value: strconv.Itoa(res.stats.Files)},
				{Label: "Packets", Value: fmt.Sprintf("%d (%d without IP)", res.stats.Packets, res.stats.Skipped)},
				{Label: "Hosts", Value: strconv.Itoa(len(hosts))},
				{Label: "Classified", Value: strconv.Itoa(classified)},
				{Label: "Elapsed", Value: res.elapsed.Round(time.Millisecond).String()},
			})
		},
	}

	outputFlag(cmd, &output)
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Addresses or CIDRs to ignore (adds to analyzer.exclude)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Packet decode workers (default capture.workers)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while analyzing")

	return cmd
}

func corpusVersions(res *runResult) map[string]string {
	out := make(map[string]string, len(res.report.Tables)+1)
	out["source"] = res.report.Source
	for _, t := range res.report.Tables {
		out[string(t.Table)] = t.Version
	}
	return out
}
