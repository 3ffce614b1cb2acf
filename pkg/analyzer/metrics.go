// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analyzer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fingerprint kinds used as the "kind" label.
const (
	kindTCP  = "tcp_syn"
	kindJA3  = "ja3"
	kindDHCP = "dhcp"
	kindSSH  = "ssh_banner"
	kindHTTP = "http_banner"
)

// Metrics holds the analyzer's Prometheus collectors.
type Metrics struct {
	PacketsProcessed      prometheus.Counter
	PacketsExcluded       prometheus.Counter
	FingerprintsExtracted *prometheus.CounterVec
	HostsTracked          prometheus.Gauge
	Classifications       *prometheus.CounterVec
	JA3Conflicts          prometheus.Counter
	MaliciousJA3          prometheus.Counter
	FinalizeDuration      prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// yields working but unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PacketsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hostprint",
			Name:      "packets_processed_total",
			Help:      "Total number of packets handed to the analyzer",
		}),
		PacketsExcluded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hostprint",
			Name:      "packets_excluded_total",
			Help:      "Packets whose addresses all fell inside an excluded range",
		}),
		FingerprintsExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostprint",
			Name:      "fingerprints_extracted_total",
			Help:      "Fingerprints extracted from packets, by kind",
		}, []string{"kind"}),
		HostsTracked: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hostprint",
			Name:      "hosts_tracked",
			Help:      "Distinct hosts in the current session",
		}),
		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostprint",
			Name:      "classifications_total",
			Help:      "OS classifications produced by finalization, by method and confidence",
		}, []string{"method", "confidence"}),
		JA3Conflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hostprint",
			Name:      "ja3_conflicts_total",
			Help:      "Hosts whose JA3 OS hint contradicts the fused classification",
		}),
		MaliciousJA3: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hostprint",
			Name:      "ja3_malicious_total",
			Help:      "Hosts presenting a JA3 hash flagged as malware",
		}),
		FinalizeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hostprint",
			Name:      "finalize_duration_seconds",
			Help:      "Wall time of a finalization pass",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}
