// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package analyzer aggregates per-packet signals into per-host fingerprints
// and fuses them into an OS and device classification.
//
// Typical use:
//
//	a, err := analyzer.New(corpus, analyzer.WithLogger(logger))
//	for pkt := range packets {
//	    a.ProcessPacket(&pkt.Fields, pkt.Meta)
//	}
//	if err := a.Finalize(ctx); err != nil { ... }
//	hosts := a.HostFingerprints()
//
// ProcessPacket is safe for many concurrent callers. Finalize must not
// overlap with ingestion, and Clear must not run while packets are still
// being processed.
package analyzer

import (
	"fmt"
	"net/netip"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go4.org/netipx"

	"github.com/vulntor/hostprint/pkg/fingerprint"
	"github.com/vulntor/hostprint/pkg/fingerprint/signatures"
)

// Option configures an Analyzer.
type Option func(*options)

type options struct {
	logger          *zerolog.Logger
	registerer      prometheus.Registerer
	finalizeWorkers int
	exclude         []string
}

// WithLogger sets the logger. Default: the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithMetrics registers the analyzer's collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithFinalizeWorkers bounds the number of hosts finalized in parallel.
//
// Default: GOMAXPROCS
func WithFinalizeWorkers(n int) Option {
	return func(o *options) {
		o.finalizeWorkers = n
	}
}

// WithExclude drops every packet address inside one of the given CIDRs or
// single addresses, e.g. "10.0.0.0/8" or "192.168.1.1".
func WithExclude(prefixes ...string) Option {
	return func(o *options) {
		o.exclude = append(o.exclude, prefixes...)
	}
}

// Analyzer is the host state aggregator and evidence fusion engine.
type Analyzer struct {
	corpus  *signatures.Corpus
	hosts   cmap.ConcurrentMap[string, *hostRecord]
	exclude *netipx.IPSet
	workers int
	metrics *Metrics
	logger  zerolog.Logger
	session atomic.Value // string
}

// hostRecord guards one host's fingerprint. Every read or write of fp
// happens under mu.
type hostRecord struct {
	mu sync.Mutex
	fp fingerprint.HostFingerprint
}

// New creates an Analyzer over corpus. A nil corpus means the embedded
// default corpus. It fails only on an unusable exclusion entry.
func New(corpus *signatures.Corpus, opts ...Option) (*Analyzer, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}
	if corpus == nil {
		corpus = signatures.Default()
	}
	workers := o.finalizeWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	exclude, err := buildExcludeSet(o.exclude)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		corpus:  corpus,
		hosts:   cmap.New[*hostRecord](),
		exclude: exclude,
		workers: workers,
		metrics: NewMetrics(o.registerer),
		logger:  logger.With().Str("component", "analyzer").Logger(),
	}
	a.session.Store(uuid.NewString())

	a.logger.Debug().
		Str("session", a.SessionID()).
		Int("finalize_workers", workers).
		Int("tcp_signatures", len(corpus.TCPSignatures())).
		Msg("analyzer created")
	return a, nil
}

func buildExcludeSet(entries []string) (*netipx.IPSet, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	var b netipx.IPSetBuilder
	for _, raw := range entries {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid exclude prefix %q: %w", raw, err)
			}
			b.AddPrefix(p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude address %q: %w", raw, err)
		}
		b.Add(addr)
	}
	return b.IPSet()
}

// excluded reports whether ip is inside the exclusion set. Strings that are
// not IP addresses are never excluded.
func (a *Analyzer) excluded(ip string) bool {
	if a.exclude == nil || ip == "" {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return a.exclude.Contains(addr.Unmap())
}

// SessionID identifies the current analysis session. Clear starts a new one.
func (a *Analyzer) SessionID() string {
	return a.session.Load().(string)
}

// Corpus returns the signature corpus the analyzer classifies against.
func (a *Analyzer) Corpus() *signatures.Corpus {
	return a.corpus
}

// HostFingerprints returns a snapshot of every host, ordered by descending
// packet count. Hosts with equal counts are ordered by IP.
func (a *Analyzer) HostFingerprints() []fingerprint.HostFingerprint {
	out := make([]fingerprint.HostFingerprint, 0, a.hosts.Count())
	for _, rec := range a.hosts.Items() {
		rec.mu.Lock()
		out = append(out, rec.fp.Clone())
		rec.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PacketCount != out[j].PacketCount {
			return out[i].PacketCount > out[j].PacketCount
		}
		return out[i].IPAddress < out[j].IPAddress
	})
	return out
}

// Host returns a snapshot of the host with the given IP.
func (a *Analyzer) Host(ip string) (fingerprint.HostFingerprint, bool) {
	rec, ok := a.hosts.Get(ip)
	if !ok {
		return fingerprint.HostFingerprint{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.fp.Clone(), true
}

// HostCount is the number of distinct hosts observed.
func (a *Analyzer) HostCount() int {
	return a.hosts.Count()
}

// Clear discards all host state and starts a new session.
func (a *Analyzer) Clear() {
	prev := a.SessionID()
	a.hosts.Clear()
	a.metrics.HostsTracked.Set(0)
	a.session.Store(uuid.NewString())
	a.logger.Debug().
		Str("previous_session", prev).
		Str("session", a.SessionID()).
		Msg("analyzer state cleared")
}
