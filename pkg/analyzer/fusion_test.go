// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/hostprint/pkg/fingerprint"
	"github.com/vulntor/hostprint/pkg/fingerprint/signatures"
)

func u8(v uint8) *uint8    { return &v }
func u16(v uint16) *uint16 { return &v }
func flag(v bool) *bool    { return &v }

func TestInferInitialTTL(t *testing.T) {
	for ttl := 1; ttl <= 255; ttl++ {
		got := InferInitialTTL(uint8(ttl))
		switch {
		case ttl <= 64:
			assert.Equal(t, uint8(64), got, "ttl %d", ttl)
		case ttl <= 128:
			assert.Equal(t, uint8(128), got, "ttl %d", ttl)
		default:
			assert.Equal(t, uint8(255), got, "ttl %d", ttl)
		}
	}
	assert.Zero(t, InferInitialTTL(0))
}

func TestMatchAlternatives(t *testing.T) {
	assert.True(t, matchAlternatives("64240|65535|8192", 8192))
	assert.True(t, matchAlternatives("1460", 1460))
	assert.True(t, matchAlternatives(" 7 | 9 ", 9))
	assert.False(t, matchAlternatives("64240|65535", 1024))
	assert.False(t, matchAlternatives("", 0))
	assert.False(t, matchAlternatives("abc|", 0))
}

func TestMinimumEvidenceGate(t *testing.T) {
	corpus := signatures.NewCorpus([]signatures.TCPSignature{
		{
			// Fully specified, but the probe below only hits TTL and window:
			// 0.50 from two criteria.
			ID:                 "two-of-five",
			OSFamily:           "Windows",
			InitialTTL:         u8(128),
			DFFlag:             flag(false),
			WindowSizePattern:  "8192",
			MSSPattern:         "536",
			WindowScalePattern: "2",
			Priority:           100,
		},
		{
			// DF, MSS and window scale match: 0.40 from three criteria.
			ID:                 "three-of-five",
			OSFamily:           "Linux",
			InitialTTL:         u8(64),
			DFFlag:             flag(true),
			WindowSizePattern:  "29200",
			MSSPattern:         "1460",
			WindowScalePattern: "7",
			Priority:           10,
		},
	}, nil, nil)

	h := &fingerprint.HostFingerprint{
		TCPFingerprints: []fingerprint.TCPFingerprintData{{
			TTL:         u8(120),
			DFFlag:      true,
			WindowSize:  u16(8192),
			MSS:         u16(1460),
			WindowScale: u8(7),
		}},
	}

	det, _ := Classify(h, corpus)
	require.NotNil(t, det)
	assert.Equal(t, "three-of-five", det.SignatureID)
	assert.Equal(t, "Linux", det.OSFamily)
	assert.InDelta(t, 0.40, det.ConfidenceScore, 1e-9)
	assert.Equal(t, fingerprint.ConfidenceLow, det.Confidence)
}

func TestGateWithNoEligibleSignature(t *testing.T) {
	corpus := signatures.NewCorpus([]signatures.TCPSignature{
		{ID: "ttl-only", OSFamily: "Windows", InitialTTL: u8(128), WindowSizePattern: "8192", Priority: 1},
	}, nil, nil)
	h := &fingerprint.HostFingerprint{
		TCPFingerprints: []fingerprint.TCPFingerprintData{{TTL: u8(128), WindowSize: u16(8192)}},
	}
	det, ver := Classify(h, corpus)
	assert.Nil(t, det)
	assert.Nil(t, ver)
}

func TestHigherPriorityWinsTies(t *testing.T) {
	corpus := signatures.NewCorpus([]signatures.TCPSignature{
		{ID: "low", OSFamily: "FreeBSD", InitialTTL: u8(64), DFFlag: flag(true), MSSPattern: "1460", Priority: 1},
		{ID: "high", OSFamily: "Linux", InitialTTL: u8(64), DFFlag: flag(true), MSSPattern: "1460", Priority: 50},
	}, nil, nil)
	h := &fingerprint.HostFingerprint{
		TCPFingerprints: []fingerprint.TCPFingerprintData{{TTL: u8(61), DFFlag: true, MSS: u16(1460)}},
	}
	det, _ := Classify(h, corpus)
	require.NotNil(t, det)
	assert.Equal(t, "high", det.SignatureID)
	assert.Equal(t, fingerprint.DeviceUnknown, det.DeviceType)
	assert.Equal(t, fingerprint.ConfidenceMedium, det.Confidence)
}

func TestConfidencePromotion(t *testing.T) {
	// TTL, DF and window match linux-modern for 0.60 (Medium); the banner
	// adds a Linux opinion at 0.50.
	h := &fingerprint.HostFingerprint{
		TCPFingerprints: []fingerprint.TCPFingerprintData{{
			TTL:        u8(63),
			DFFlag:     true,
			WindowSize: u16(29200),
		}},
		ServerBanners: []fingerprint.ServerBanner{{Protocol: fingerprint.ProtocolHTTP, Port: 80, OSHint: "Linux"}},
	}

	det, _ := Classify(h, signatures.Default())
	require.NotNil(t, det)
	assert.Equal(t, "Linux", det.OSFamily)
	assert.Equal(t, fingerprint.ConfidenceHigh, det.Confidence)
	assert.Equal(t, fingerprint.MethodCombined, det.Method)
	assert.InDelta(t, 0.80, det.ConfidenceScore, 1e-9)
	assert.Equal(t, "linux-modern", det.SignatureID)
}

func TestPromotionIsCapped(t *testing.T) {
	h := &fingerprint.HostFingerprint{
		TCPFingerprints: []fingerprint.TCPFingerprintData{{
			TTL:         u8(64),
			DFFlag:      true,
			WindowSize:  u16(64240),
			MSS:         u16(1460),
			WindowScale: u8(7),
		}},
		ServerBanners: []fingerprint.ServerBanner{{Protocol: fingerprint.ProtocolSSH, Port: 22, OSHint: "Linux"}},
	}
	det, _ := Classify(h, signatures.Default())
	require.NotNil(t, det)
	assert.InDelta(t, 1.0, det.ConfidenceScore, 1e-9)
	assert.Equal(t, fingerprint.MethodCombined, det.Method)
}

func TestAgreementIsSubstringBased(t *testing.T) {
	candidates := []candidate{
		{family: "Linux", score: 0.30, confidence: fingerprint.ConfidenceLow, method: fingerprint.MethodMACVendor},
		{family: "Debian Linux", score: 0.50, confidence: fingerprint.ConfidenceMedium, method: fingerprint.MethodServerBanner},
	}
	det := fuse(candidates)
	require.NotNil(t, det)
	assert.Equal(t, "Debian Linux", det.OSFamily)
	assert.Equal(t, fingerprint.ConfidenceHigh, det.Confidence)
	assert.InDelta(t, 0.70, det.ConfidenceScore, 1e-9)

	det = fuse([]candidate{
		{family: "Windows", score: 0.60, confidence: fingerprint.ConfidenceMedium, method: fingerprint.MethodJA3},
		{family: "Linux", score: 0.50, confidence: fingerprint.ConfidenceMedium, method: fingerprint.MethodServerBanner},
	})
	require.NotNil(t, det)
	assert.Equal(t, fingerprint.MethodJA3, det.Method)
	assert.Equal(t, fingerprint.ConfidenceMedium, det.Confidence)

	assert.Nil(t, fuse(nil))
}

func TestMACVendorCandidate(t *testing.T) {
	h := &fingerprint.HostFingerprint{MACAddress: "dc:a6:32:00:11:22"}
	det, _ := Classify(h, signatures.Default())
	require.NotNil(t, det)
	assert.Equal(t, "Linux", det.OSFamily)
	assert.Equal(t, fingerprint.DeviceIoT, det.DeviceType)
	assert.Equal(t, fingerprint.ConfidenceLow, det.Confidence)
	assert.Equal(t, fingerprint.MethodMACVendor, det.Method)
	assert.InDelta(t, 0.30, det.ConfidenceScore, 1e-9)

	// Vendor without an OS hint yields nothing.
	det, _ = Classify(&fingerprint.HostFingerprint{MACAddress: "00:1b:21:00:00:01"}, signatures.Default())
	assert.Nil(t, det)
}

func TestBannerCandidate(t *testing.T) {
	h := &fingerprint.HostFingerprint{
		ServerBanners: []fingerprint.ServerBanner{
			{Protocol: fingerprint.ProtocolHTTP, Port: 8080},
			{Protocol: fingerprint.ProtocolSSH, Port: 22, OSHint: "FreeBSD"},
		},
	}
	det, _ := Classify(h, signatures.Default())
	require.NotNil(t, det)
	assert.Equal(t, "FreeBSD", det.OSFamily)
	assert.Equal(t, fingerprint.DeviceServer, det.DeviceType)
	assert.Equal(t, fingerprint.MethodServerBanner, det.Method)
	assert.Equal(t, fingerprint.ConfidenceMedium, det.Confidence)
}

func TestJA3CandidateAndConfirmation(t *testing.T) {
	h := &fingerprint.HostFingerprint{
		JA3Fingerprints: []fingerprint.JA3FingerprintData{
			{JA3Hash: "00000000000000000000000000000000"},
			{JA3Hash: "92983639f466731839d94961a144c87c"},
		},
	}
	det, ver := Classify(h, signatures.Default())
	require.NotNil(t, det)
	assert.Equal(t, "Windows", det.OSFamily)
	assert.Equal(t, fingerprint.MethodJA3, det.Method)
	assert.InDelta(t, 0.60, det.ConfidenceScore, 1e-9)

	require.NotNil(t, ver)
	assert.True(t, ver.ConfirmsTCPDetection)
	assert.Empty(t, ver.ConflictReason)
	assert.Equal(t, "Schannel (WinHTTP)", ver.DetectedApplication)
	assert.False(t, ver.Malicious)
}

func TestJA3WithoutOSHint(t *testing.T) {
	h := &fingerprint.HostFingerprint{
		MACAddress:      "f0:18:98:00:00:01",
		JA3Fingerprints: []fingerprint.JA3FingerprintData{{JA3Hash: "72a589da586844d7f0818ce684948eea"}},
	}
	det, ver := Classify(h, signatures.Default())
	require.NotNil(t, det)
	assert.Equal(t, "macOS", det.OSFamily, "a hash without OS hint is no candidate")

	require.NotNil(t, ver)
	assert.True(t, ver.Malicious)
	assert.False(t, ver.ConfirmsTCPDetection)
	assert.Empty(t, ver.ConflictReason)
}

func TestJA3VerificationNeedsDetection(t *testing.T) {
	h := &fingerprint.HostFingerprint{
		JA3Fingerprints: []fingerprint.JA3FingerprintData{{JA3Hash: "e1d8b04eeb8ef3954ec4f49267a783ef"}},
	}
	det, ver := Classify(h, signatures.Default())
	assert.Nil(t, det)
	assert.Nil(t, ver)
}

func TestTCPCandidateUsesFirstSYN(t *testing.T) {
	weak := fingerprint.TCPFingerprintData{TTL: u8(61), DFFlag: true, WindowSize: u16(65535)}
	strong := fingerprint.TCPFingerprintData{TTL: u8(125), DFFlag: true, WindowSize: u16(65535), MSS: u16(1460), WindowScale: u8(8)}
	table := signatures.BuiltinTCPSignatures()

	_, ok := tcpCandidate(nil, table)
	assert.False(t, ok)

	c, ok := tcpCandidate([]fingerprint.TCPFingerprintData{strong, weak}, table)
	require.True(t, ok)
	assert.Equal(t, "builtin-windows", c.signatureID)

	c, ok = tcpCandidate([]fingerprint.TCPFingerprintData{weak, strong}, table)
	require.True(t, ok)
	assert.Equal(t, "builtin-linux", c.signatureID)
}
