// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/hostprint/pkg/analyzer"
	"github.com/vulntor/hostprint/pkg/capture"
	"github.com/vulntor/hostprint/pkg/fingerprint/signatures"
	"github.com/vulntor/hostprint/pkg/workspace"
)

// signatureSource picks the corpus location: an explicit directory, then a
// populated sync cache, then the embedded tables.
func signatureSource(ctx context.Context, st *state) signatures.Source {
	if st.cfg.Signatures.Dir != "" {
		return signatures.DirSource{Dir: st.cfg.Signatures.Dir}
	}
	if cache := cacheDir(ctx, st); cache != "" {
		if _, err := os.Stat(filepath.Join(cache, signatures.TableTCP.FileName())); err == nil {
			return signatures.DirSource{Dir: cache}
		}
	}
	return signatures.EmbeddedSource{}
}

func cacheDir(ctx context.Context, st *state) string {
	if st.cfg.Signatures.CacheDir != "" {
		return st.cfg.Signatures.CacheDir
	}
	if root, ok := workspace.FromContext(ctx); ok {
		return workspace.SignatureCacheDir(root)
	}
	return ""
}

func loadCorpus(ctx context.Context, st *state) (*signatures.Corpus, signatures.Report, error) {
	loader, err := signatures.NewLoader(st.cfg.Signatures.VersionConstraint, log.Logger)
	if err != nil {
		return nil, signatures.Report{}, err
	}
	corpus, report := loader.Load(signatureSource(ctx, st))
	return corpus, report, nil
}

// runOptions are the per-invocation overrides of the analyze pipeline.
type runOptions struct {
	exclude     []string
	workers     int
	metricsAddr string
}

type runResult struct {
	analyzer *analyzer.Analyzer
	stats    capture.Stats
	report   signatures.Report
	elapsed  time.Duration
}

// runPipeline feeds paths through a fresh analyzer and finalizes it.
func runPipeline(ctx context.Context, st *state, paths []string, opts runOptions) (*runResult, error) {
	start := time.Now()

	corpus, report, err := loadCorpus(ctx, st)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	exclude := append(append([]string(nil), st.cfg.Analyzer.Exclude...), opts.exclude...)
	a, err := analyzer.New(corpus,
		analyzer.WithLogger(log.Logger),
		analyzer.WithMetrics(reg),
		analyzer.WithFinalizeWorkers(st.cfg.Analyzer.FinalizeWorkers),
		analyzer.WithExclude(exclude...),
	)
	if err != nil {
		return nil, err
	}

	addr := opts.metricsAddr
	if addr == "" {
		addr = st.cfg.Metrics.Addr
	}
	if addr != "" {
		stop, err := serveMetrics(addr, reg)
		if err != nil {
			return nil, err
		}
		defer stop()
	}

	workers := opts.workers
	if workers == 0 {
		workers = st.cfg.Capture.Workers
	}
	logger := log.Logger
	stats, err := capture.Feeder{Sink: a, Workers: workers, Logger: &logger}.Run(ctx, paths...)
	if err != nil {
		return nil, err
	}
	if err := a.Finalize(ctx); err != nil {
		return nil, err
	}

	log.Info().
		Str("session", a.SessionID()).
		Int("hosts", a.HostCount()).
		Uint64("packets", stats.Packets).
		Msg("analysis complete")

	return &runResult{analyzer: a, stats: stats, report: report, elapsed: time.Since(start)}, nil
}

// serveMetrics exposes reg on addr until the returned stop func is called.
func serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func fallbackWarnings(report signatures.Report) []string {
	var out []string
	for _, t := range report.Tables {
		if t.Err == nil {
			continue
		}
		if t.Fallback {
			out = append(out, fmt.Sprintf("%s unavailable (%v); using built-in signatures", t.Table, t.Err))
		} else {
			out = append(out, fmt.Sprintf("%s unavailable (%v); continuing without it", t.Table, t.Err))
		}
	}
	return out
}
