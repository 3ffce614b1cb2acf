// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/hostprint/pkg/fingerprint"
)

func TestPrintJSON(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		expected string
	}{
		{
			name:     "simple object",
			data:     map[string]string{"ip": "10.0.0.5"},
			expected: "{\n  \"ip\": \"10.0.0.5\"\n}\n",
		},
		{
			name:     "nil",
			data:     nil,
			expected: "null\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			f := New(&stdout, &stderr, ModeJSON, false)
			require.NoError(t, f.PrintJSON(tt.data))
			assert.Equal(t, tt.expected, stdout.String())
			assert.Empty(t, stderr.String())
		})
	}
}

func TestPrintTable(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeTable, false)
	require.NoError(t, f.PrintTable([]string{"ip", "os"}, [][]string{{"10.0.0.5", "Windows"}, {"10.0.0.17", "Linux"}}))

	out := stdout.String()
	assert.Contains(t, out, "IP")
	assert.Contains(t, out, "10.0.0.17  Linux")
}

func TestPrintTableJSONMode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeJSON, false)
	require.NoError(t, f.PrintTable([]string{"ip", "os"}, [][]string{{"10.0.0.5", "Windows"}}))

	var items []map[string]string
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &items))
	assert.Equal(t, []map[string]string{{"ip": "10.0.0.5", "os": "Windows"}}, items)
}

func TestPrintSummaryRouting(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, New(&stdout, &stderr, ModeTable, false).PrintSummary("done"))
	assert.Equal(t, "done\n", stdout.String())

	stdout.Reset()
	require.NoError(t, New(&stdout, &stderr, ModeJSON, false).PrintSummary("done"))
	assert.Empty(t, stdout.String())
	assert.Equal(t, "done\n", stderr.String())
}

func TestPrintError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, New(&stdout, &stderr, ModeTable, false).PrintError(errors.New("boom")))
	assert.Equal(t, "Error: boom\n", stderr.String())

	stdout.Reset()
	require.NoError(t, New(&stdout, &stderr, ModeJSON, false).PrintError(errors.New("boom")))
	assert.JSONEq(t, `{"success": false, "error": "boom"}`, stdout.String())

	assert.NoError(t, New(&stdout, &stderr, ModeJSON, false).PrintError(nil))
}

func TestPrintFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeTable, false)
	require.NoError(t, f.PrintFailure("inspect host", errors.New("host not found: 10.9.9.9"), "HOST_NOT_FOUND", []string{"extra hint"}))

	out := stderr.String()
	assert.Contains(t, out, "✗ Failed to inspect host: host not found: 10.9.9.9")
	assert.Contains(t, out, "→ List observed hosts:")
	assert.Contains(t, out, "→ extra hint")

	stdout.Reset()
	f = New(&stdout, &stderr, ModeJSON, false)
	require.NoError(t, f.PrintFailure("open capture", errors.New("nope"), "CAPTURE_OPEN_FAILED", nil))
	var payload map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &payload))
	assert.Equal(t, "CAPTURE_OPEN_FAILED", payload["error_code"])
	assert.Len(t, payload["suggestions"], 2)
}

func TestPrintSummaryBoxPlain(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeTable, false)
	require.NoError(t, f.PrintSummaryBox("Analysis", []Stat{{"Hosts", "3"}, {"Packets", "120"}}))
	assert.Equal(t, "Analysis\nHosts:   3\nPackets: 120\n", stdout.String())
}

func TestValidateAndParseMode(t *testing.T) {
	assert.NoError(t, ValidateMode("json"))
	assert.NoError(t, ValidateMode("TABLE"))
	assert.Error(t, ValidateMode("yaml"))
	assert.Equal(t, ModeJSON, ParseMode("JSON"))
	assert.Equal(t, ModeTable, ParseMode("anything"))
}

func sampleHost() fingerprint.HostFingerprint {
	ttl, win := uint8(125), uint16(65535)
	seen := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return fingerprint.HostFingerprint{
		IPAddress:   "10.0.0.5",
		MACAddress:  "00:15:5d:01:02:03",
		MACVendor:   "Microsoft Hyper-V",
		FirstSeen:   seen,
		LastSeen:    seen,
		PacketCount: 4,
		OpenPorts:   []uint16{135, 445},
		TCPFingerprints: []fingerprint.TCPFingerprintData{
			{FrameNumber: 1, TTL: &ttl, DFFlag: true, WindowSize: &win, OptionsOrder: "MSS,NOP,WS"},
		},
		OSDetection: &fingerprint.OSDetectionResult{
			OSFamily:        "Windows",
			OSVersion:       "10/11",
			DeviceType:      fingerprint.DeviceWorkstation,
			Confidence:      fingerprint.ConfidenceHigh,
			ConfidenceScore: 1,
			Method:          fingerprint.MethodCombined,
			SignatureID:     "windows-10",
		},
		JA3Verification: &fingerprint.JA3DetectionResult{JA3Hash: "abc", ConflictReason: "JA3 suggests Linux, TCP suggests Windows"},
	}
}

func TestHostRows(t *testing.T) {
	f := New(&bytes.Buffer{}, &bytes.Buffer{}, ModeTable, false)
	rows := f.HostRows([]fingerprint.HostFingerprint{sampleHost(), {IPAddress: "10.0.0.9", PacketCount: 1}})

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"10.0.0.5", "Microsoft Hyper-V", "Windows 10/11", "Workstation", "High", "1.00", "Combined", "4", "conflict"}, rows[0])
	assert.Equal(t, []string{"10.0.0.9", "-", "-", "-", "-", "-", "-", "1", "-"}, rows[1])
	assert.Len(t, rows[0], len(HostHeaders))
}

func TestPrintHostDetail(t *testing.T) {
	var stdout bytes.Buffer
	f := New(&stdout, &bytes.Buffer{}, ModeTable, false)
	require.NoError(t, f.PrintHostDetail(sampleHost()))

	out := stdout.String()
	assert.Contains(t, out, "Host 10.0.0.5")
	assert.Contains(t, out, "Open ports:    135, 445")
	assert.Contains(t, out, "Signature:     windows-10")
	assert.Contains(t, out, "frame 1: ttl=125 df=true window=65535 mss=- wscale=- options=MSS,NOP,WS")
	assert.Contains(t, out, "Conflict:      JA3 suggests Linux")

	stdout.Reset()
	f = New(&stdout, &bytes.Buffer{}, ModeJSON, false)
	require.NoError(t, f.PrintHostDetail(sampleHost()))
	var decoded fingerprint.HostFingerprint
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	assert.Equal(t, "windows-10", decoded.OSDetection.SignatureID)
}

func TestPrintHostDetailTruncatesBanners(t *testing.T) {
	host := sampleHost()
	host.ServerBanners = []fingerprint.ServerBanner{
		{Protocol: "http", Port: 80, Banner: strings.Repeat("x", 100)},
		{Protocol: "ssh", Port: 22, Banner: "SSH-2.0-OpenSSH_8.9p1 Ubuntu-3ubuntu0.6"},
	}

	var stdout bytes.Buffer
	f := New(&stdout, &bytes.Buffer{}, ModeTable, false)
	require.NoError(t, f.PrintHostDetail(host))

	out := stdout.String()
	assert.Contains(t, out, "http/80: "+strings.Repeat("x", maxBannerWidth-3)+"...\n")
	assert.Contains(t, out, "ssh/22: SSH-2.0-OpenSSH_8.9p1 Ubuntu-3ubuntu0.6\n")
}
