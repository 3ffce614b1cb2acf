// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analyzer

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/vulntor/hostprint/pkg/fingerprint"
	"github.com/vulntor/hostprint/pkg/fingerprint/signatures"
	"github.com/vulntor/hostprint/pkg/stringutil"
)

// Sub-criterion weights of the TCP signature score.
const (
	weightTTL         = 0.30
	weightDF          = 0.10
	weightWindowSize  = 0.20
	weightMSS         = 0.15
	weightWindowScale = 0.15

	// minTCPMatches is the number of matched sub-criteria a signature
	// needs before it may be selected.
	minTCPMatches = 3
)

// Fixed scores of the non-TCP signal families.
const (
	scoreJA3       = 0.60
	scoreMACVendor = 0.30
	scoreBanner    = 0.50

	agreementBonus = 0.20
)

// candidate is one signal family's opinion about a host.
type candidate struct {
	family      string
	version     string
	deviceType  fingerprint.DeviceType
	score       float64
	confidence  fingerprint.ConfidenceLevel
	method      fingerprint.DetectionMethod
	signatureID string
}

func (c candidate) result() *fingerprint.OSDetectionResult {
	return &fingerprint.OSDetectionResult{
		OSFamily:        c.family,
		OSVersion:       c.version,
		DeviceType:      c.deviceType,
		Confidence:      c.confidence,
		ConfidenceScore: c.score,
		Method:          c.method,
		SignatureID:     c.signatureID,
	}
}

// Finalize classifies every host. It may be called repeatedly; each call
// replaces earlier results. Hosts are finalized in parallel; cancellation is
// observed between hosts and reported as ctx.Err().
func (a *Analyzer) Finalize(ctx context.Context) error {
	start := time.Now()
	records := a.hosts.Items()

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(a.workers, func(item interface{}) {
		defer wg.Done()
		a.finalizeHost(item.(*hostRecord))
	})
	if err != nil {
		return fmt.Errorf("create finalize pool: %w", err)
	}
	defer pool.Release()

	var dispatchErr error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			dispatchErr = err
			break
		}
		wg.Add(1)
		if err := pool.Invoke(rec); err != nil {
			wg.Done()
			dispatchErr = fmt.Errorf("dispatch finalize: %w", err)
			break
		}
	}
	wg.Wait()

	elapsed := time.Since(start)
	a.metrics.FinalizeDuration.Observe(elapsed.Seconds())

	if dispatchErr != nil {
		a.logger.Warn().Err(dispatchErr).Str("session", a.SessionID()).Msg("finalization interrupted")
		return dispatchErr
	}
	a.logger.Debug().
		Str("session", a.SessionID()).
		Int("hosts", len(records)).
		Dur("elapsed", elapsed).
		Msg("finalization complete")
	return nil
}

func (a *Analyzer) finalizeHost(rec *hostRecord) {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	detection, verification := Classify(&rec.fp, a.corpus)
	rec.fp.OSDetection = detection
	rec.fp.JA3Verification = verification

	if detection != nil {
		a.metrics.Classifications.WithLabelValues(string(detection.Method), string(detection.Confidence)).Inc()
	}
	if verification != nil {
		if verification.ConflictReason != "" {
			a.metrics.JA3Conflicts.Inc()
		}
		if verification.Malicious {
			a.metrics.MaliciousJA3.Inc()
			a.logger.Warn().
				Str("host", rec.fp.IPAddress).
				Str("ja3", verification.JA3Hash).
				Str("application", verification.DetectedApplication).
				Msg("host presented a JA3 hash flagged as malware")
		}
	}
}

// Classify fuses the evidence gathered for h into an OS detection and a JA3
// cross-verification. Either result is nil when there is nothing to report.
// It reads only h and the corpus.
func Classify(h *fingerprint.HostFingerprint, corpus *signatures.Corpus) (*fingerprint.OSDetectionResult, *fingerprint.JA3DetectionResult) {
	candidates := make([]candidate, 0, 4)
	if c, ok := tcpCandidate(h.TCPFingerprints, corpus.TCPSignatures()); ok {
		candidates = append(candidates, c)
	}
	if c, ok := ja3Candidate(h.JA3Fingerprints, corpus); ok {
		candidates = append(candidates, c)
	}
	if c, ok := macCandidate(h.MACAddress, corpus); ok {
		candidates = append(candidates, c)
	}
	if c, ok := bannerCandidate(h.ServerBanners); ok {
		candidates = append(candidates, c)
	}

	detection := fuse(candidates)
	return detection, verifyJA3(detection, h.JA3Fingerprints, corpus)
}

// fuse picks the highest-scoring candidate. Earlier candidates win ties.
// When at least two candidates (the winner included) name overlapping OS
// families, the winner is promoted to a combined High detection.
func fuse(candidates []candidate) *fingerprint.OSDetectionResult {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}

	agree := 0
	for _, c := range candidates {
		if stringutil.Overlaps(c.family, best.family) {
			agree++
		}
	}
	if agree >= 2 {
		best.confidence = fingerprint.ConfidenceHigh
		best.score = round2(min(best.score+agreementBonus, 1.0))
		best.method = fingerprint.MethodCombined
	}
	return best.result()
}

// tcpCandidate matches only the first observed SYN; later SYNs are kept
// as evidence but never reclassify the host.
func tcpCandidate(observed []fingerprint.TCPFingerprintData, table []signatures.TCPSignature) (candidate, bool) {
	if len(observed) == 0 {
		return candidate{}, false
	}
	first := &observed[0]

	var (
		best  candidate
		found bool
	)
	for j := range table {
		score, matched := scoreTCP(first, &table[j])
		if matched < minTCPMatches {
			continue
		}
		if found && score <= best.score {
			continue
		}
		sig := &table[j]
		best = candidate{
			family:      sig.OSFamily,
			version:     sig.OSVersion,
			deviceType:  deviceTypeOrUnknown(sig.DeviceType),
			score:       score,
			confidence:  fingerprint.ConfidenceForScore(score),
			method:      fingerprint.MethodTCPSyn,
			signatureID: sig.ID,
		}
		found = true
	}
	return best, found
}

// scoreTCP returns the weighted score of sig against fp and how many of the
// signature's defined sub-criteria matched. Absent observations never match.
func scoreTCP(fp *fingerprint.TCPFingerprintData, sig *signatures.TCPSignature) (float64, int) {
	var (
		score   float64
		matched int
	)
	if sig.InitialTTL != nil && fp.TTL != nil && InferInitialTTL(*fp.TTL) == *sig.InitialTTL {
		score += weightTTL
		matched++
	}
	if sig.DFFlag != nil && fp.DFFlag == *sig.DFFlag {
		score += weightDF
		matched++
	}
	if fp.WindowSize != nil && matchAlternatives(sig.WindowSizePattern, uint64(*fp.WindowSize)) {
		score += weightWindowSize
		matched++
	}
	if fp.MSS != nil && matchAlternatives(sig.MSSPattern, uint64(*fp.MSS)) {
		score += weightMSS
		matched++
	}
	if fp.WindowScale != nil && matchAlternatives(sig.WindowScalePattern, uint64(*fp.WindowScale)) {
		score += weightWindowScale
		matched++
	}
	return round2(score), matched
}

// round2 drops the float noise accumulated by summing weights.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// matchAlternatives reports whether v equals one of the "|"-separated
// numbers in pattern. An empty pattern matches nothing.
func matchAlternatives(pattern string, v uint64) bool {
	for pattern != "" {
		alt := pattern
		if i := strings.IndexByte(pattern, '|'); i >= 0 {
			alt, pattern = pattern[:i], pattern[i+1:]
		} else {
			pattern = ""
		}
		if n, err := strconv.ParseUint(strings.TrimSpace(alt), 10, 64); err == nil && n == v {
			return true
		}
	}
	return false
}

// lookupJA3 returns the first of the host's hashes present in the corpus.
func lookupJA3(observed []fingerprint.JA3FingerprintData, corpus *signatures.Corpus) (signatures.JA3Signature, bool) {
	for i := range observed {
		if sig, ok := corpus.LookupJA3(observed[i].JA3Hash); ok {
			return sig, true
		}
	}
	return signatures.JA3Signature{}, false
}

func ja3Candidate(observed []fingerprint.JA3FingerprintData, corpus *signatures.Corpus) (candidate, bool) {
	sig, ok := lookupJA3(observed, corpus)
	if !ok || sig.OSHint == "" {
		return candidate{}, false
	}
	return candidate{
		family:      sig.OSHint,
		deviceType:  deviceTypeOrUnknown(sig.DeviceType),
		score:       scoreJA3,
		confidence:  fingerprint.ConfidenceMedium,
		method:      fingerprint.MethodJA3,
		signatureID: sig.JA3Hash,
	}, true
}

func macCandidate(mac string, corpus *signatures.Corpus) (candidate, bool) {
	if mac == "" {
		return candidate{}, false
	}
	vendor, ok := corpus.LookupMAC(mac)
	if !ok || vendor.OSHint == "" {
		return candidate{}, false
	}
	return candidate{
		family:      vendor.OSHint,
		deviceType:  deviceTypeOrUnknown(vendor.DeviceTypeHint),
		score:       scoreMACVendor,
		confidence:  fingerprint.ConfidenceLow,
		method:      fingerprint.MethodMACVendor,
		signatureID: vendor.OUI,
	}, true
}

func bannerCandidate(banners []fingerprint.ServerBanner) (candidate, bool) {
	for _, b := range banners {
		if b.OSHint == "" {
			continue
		}
		return candidate{
			family:     b.OSHint,
			deviceType: fingerprint.DeviceServer,
			score:      scoreBanner,
			confidence: fingerprint.ConfidenceMedium,
			method:     fingerprint.MethodServerBanner,
		}, true
	}
	return candidate{}, false
}

// verifyJA3 checks the host's known JA3 hash against the fused detection.
func verifyJA3(detection *fingerprint.OSDetectionResult, observed []fingerprint.JA3FingerprintData, corpus *signatures.Corpus) *fingerprint.JA3DetectionResult {
	if detection == nil || len(observed) == 0 {
		return nil
	}
	sig, ok := lookupJA3(observed, corpus)
	if !ok {
		return nil
	}

	res := &fingerprint.JA3DetectionResult{
		JA3Hash:             sig.JA3Hash,
		DetectedApplication: sig.Application,
		OSHint:              sig.OSHint,
		Malicious:           sig.IsMalware,
	}
	// No hint: neutral, neither confirms nor conflicts.
	if sig.OSHint == "" {
		return res
	}
	res.ConfirmsTCPDetection = stringutil.ContainsFold(detection.OSFamily, sig.OSHint)
	if !res.ConfirmsTCPDetection {
		res.ConflictReason = fmt.Sprintf("JA3 suggests %s, TCP suggests %s", sig.OSHint, detection.OSFamily)
	}
	return res
}

func deviceTypeOrUnknown(dt fingerprint.DeviceType) fingerprint.DeviceType {
	if dt == "" {
		return fingerprint.DeviceUnknown
	}
	return dt
}
