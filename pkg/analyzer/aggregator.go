// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analyzer

import (
	"strings"
	"time"

	"github.com/vulntor/hostprint/pkg/fingerprint"
)

// record returns the host record for ip, creating it on first sight. The
// map shard lock is held across the check and the insert, so concurrent
// callers always receive the same record.
func (a *Analyzer) record(ip string, seen time.Time) *hostRecord {
	if rec, ok := a.hosts.Get(ip); ok {
		return rec
	}
	fresh := &hostRecord{fp: fingerprint.HostFingerprint{
		IPAddress: ip,
		FirstSeen: seen,
		LastSeen:  seen,
	}}
	rec := a.hosts.Upsert(ip, fresh, func(exist bool, cur, newVal *hostRecord) *hostRecord {
		if exist {
			return cur
		}
		return newVal
	})
	if rec == fresh {
		a.metrics.HostsTracked.Inc()
	}
	return rec
}

// ProcessPacket folds one packet into the per-host state. It never fails;
// fields that cannot be parsed are ignored.
func (a *Analyzer) ProcessPacket(f *fingerprint.Fields, meta fingerprint.PacketMeta) {
	if meta.SrcIP == "" && meta.DstIP == "" {
		return
	}
	if f == nil {
		f = &fingerprint.Fields{}
	}
	a.metrics.PacketsProcessed.Inc()

	srcExcluded := a.excluded(meta.SrcIP)
	dstExcluded := a.excluded(meta.DstIP)
	if srcExcluded && (meta.DstIP == "" || dstExcluded) {
		a.metrics.PacketsExcluded.Inc()
		return
	}

	if meta.SrcIP != "" && !srcExcluded {
		a.updateSource(a.record(meta.SrcIP, meta.Timestamp), f, meta)
	}

	if meta.DstIP != "" && !dstExcluded && f.HTTPServer != "" {
		if banner, ok := fingerprint.ParseHTTPServer(f.HTTPServer, meta.DstPort); ok {
			rec := a.record(meta.DstIP, meta.Timestamp)
			rec.mu.Lock()
			rec.fp.AddBanner(banner)
			rec.mu.Unlock()
			a.metrics.FingerprintsExtracted.WithLabelValues(kindHTTP).Inc()
		}
	}
}

func (a *Analyzer) updateSource(rec *hostRecord, f *fingerprint.Fields, meta fingerprint.PacketMeta) {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	fp := &rec.fp
	fp.PacketCount++
	if meta.Timestamp.After(fp.LastSeen) {
		fp.LastSeen = meta.Timestamp
	}
	if meta.Timestamp.Before(fp.FirstSeen) {
		fp.FirstSeen = meta.Timestamp
	}

	if fp.MACAddress == "" && f.EthSrc != "" {
		fp.MACAddress = strings.ToLower(strings.TrimSpace(f.EthSrc))
		if vendor, ok := a.corpus.LookupMAC(fp.MACAddress); ok {
			fp.MACVendor = vendor.Vendor
		}
	}

	if tcp, ok := fingerprint.ExtractTCPSyn(f, meta); ok {
		fp.TCPFingerprints = append(fp.TCPFingerprints, tcp)
		a.metrics.FingerprintsExtracted.WithLabelValues(kindTCP).Inc()
	}

	if ja3, ok := fingerprint.ExtractJA3(f, meta.Frame); ok {
		fp.JA3Fingerprints = append(fp.JA3Fingerprints, ja3)
		a.metrics.FingerprintsExtracted.WithLabelValues(kindJA3).Inc()
	}

	if dhcp, ok := fingerprint.ExtractDHCP(f, meta.Frame); ok {
		fp.DHCPFingerprint = &dhcp
		if dhcp.Hostname != "" {
			fp.Hostname = dhcp.Hostname
		}
		a.metrics.FingerprintsExtracted.WithLabelValues(kindDHCP).Inc()
	}

	if f.SSHBanner != "" {
		if banner, ok := fingerprint.ParseSSHBanner(f.SSHBanner, meta.SrcPort); ok {
			fp.AddBanner(banner)
			a.metrics.FingerprintsExtracted.WithLabelValues(kindSSH).Inc()
		}
	}

	// A SYN+ACK answers a connection request, so the source listens on
	// the port it replies from.
	if meta.IsSYNACK() && meta.SrcPort != 0 {
		fp.AddOpenPort(meta.SrcPort)
	}
}
