// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package fingerprint holds the passive fingerprint value types and the pure,
// per-packet signal extractors that produce them.
//
// Nothing in this package keeps state between packets. Host aggregation and
// evidence fusion live in pkg/analyzer.
package fingerprint

import "time"

// TCPFingerprintData is the stack fingerprint of one client SYN.
type TCPFingerprintData struct {
	FrameNumber      uint64  `json:"frame_number"`
	TTL              *uint8  `json:"ttl,omitempty"`
	DFFlag           bool    `json:"df_flag"`
	WindowSize       *uint16 `json:"window_size,omitempty"`
	MSS              *uint16 `json:"mss,omitempty"`
	WindowScale      *uint8  `json:"window_scale,omitempty"`
	SACKPermitted    bool    `json:"sack_permitted"`
	TimestampPresent bool    `json:"timestamp_present"`
	TimestampValue   *uint32 `json:"timestamp_value,omitempty"`
	RawOptions       string  `json:"raw_options,omitempty"`
	// OptionsOrder is derived from RawOptions once, e.g. "MSS,SACK,TS,NOP,WS".
	OptionsOrder string `json:"options_order,omitempty"`
}

// JA3FingerprintData is the JA3 summary of one TLS ClientHello.
type JA3FingerprintData struct {
	FrameNumber    uint64  `json:"frame_number"`
	TLSVersion     *uint16 `json:"tls_version,omitempty"`
	CipherSuites   string  `json:"cipher_suites,omitempty"`
	Extensions     string  `json:"extensions,omitempty"`
	EllipticCurves string  `json:"elliptic_curves,omitempty"`
	ECPointFormats string  `json:"ec_point_formats,omitempty"`
	JA3String      string  `json:"ja3_string"`
	JA3Hash        string  `json:"ja3_hash"`
}

// DHCPFingerprintData captures the client-identifying DHCP options.
type DHCPFingerprintData struct {
	FrameNumber   uint64 `json:"frame_number"`
	Option55      string `json:"option55,omitempty"`
	VendorClassID string `json:"vendor_class_id,omitempty"`
	Hostname      string `json:"hostname,omitempty"`
	MessageType   *uint8 `json:"message_type,omitempty"`
}

// Banner protocols.
const (
	ProtocolSSH  = "SSH"
	ProtocolHTTP = "HTTP"
)

// ServerBanner is a decomposed SSH identification string or HTTP Server header.
type ServerBanner struct {
	Protocol    string `json:"protocol"`
	Port        uint16 `json:"port"`
	Banner      string `json:"banner"`
	ProductName string `json:"product_name,omitempty"`
	Version     string `json:"version,omitempty"`
	OSHint      string `json:"os_hint,omitempty"`
}

// OSDetectionResult is a fused OS classification. Values are replaced as a
// whole, never edited in place.
type OSDetectionResult struct {
	OSFamily        string          `json:"os_family"`
	OSVersion       string          `json:"os_version,omitempty"`
	DeviceType      DeviceType      `json:"device_type"`
	Confidence      ConfidenceLevel `json:"confidence"`
	ConfidenceScore float64         `json:"confidence_score"`
	Method          DetectionMethod `json:"method"`
	SignatureID     string          `json:"signature_id,omitempty"`
}

// JA3DetectionResult records how a host's JA3 hash relates to the fused OS.
type JA3DetectionResult struct {
	JA3Hash              string `json:"ja3_hash"`
	DetectedApplication  string `json:"detected_application,omitempty"`
	OSHint               string `json:"os_hint,omitempty"`
	ConfirmsTCPDetection bool   `json:"confirms_tcp_detection"`
	ConflictReason       string `json:"conflict_reason,omitempty"`
	Malicious            bool   `json:"malicious,omitempty"`
}

// HostFingerprint is everything observed about one IP address.
type HostFingerprint struct {
	IPAddress       string               `json:"ip_address"`
	MACAddress      string               `json:"mac_address,omitempty"`
	MACVendor       string               `json:"mac_vendor,omitempty"`
	Hostname        string               `json:"hostname,omitempty"`
	FirstSeen       time.Time            `json:"first_seen"`
	LastSeen        time.Time            `json:"last_seen"`
	PacketCount     uint64               `json:"packet_count"`
	TCPFingerprints []TCPFingerprintData `json:"tcp_fingerprints,omitempty"`
	JA3Fingerprints []JA3FingerprintData `json:"ja3_fingerprints,omitempty"`
	DHCPFingerprint *DHCPFingerprintData `json:"dhcp_fingerprint,omitempty"`
	ServerBanners   []ServerBanner       `json:"server_banners,omitempty"`
	OpenPorts       []uint16             `json:"open_ports,omitempty"`
	OSDetection     *OSDetectionResult   `json:"os_detection,omitempty"`
	JA3Verification *JA3DetectionResult  `json:"ja3_verification,omitempty"`
}

// Clone returns a deep copy that shares no mutable state with h.
func (h *HostFingerprint) Clone() HostFingerprint {
	out := *h
	out.TCPFingerprints = append([]TCPFingerprintData(nil), h.TCPFingerprints...)
	out.JA3Fingerprints = append([]JA3FingerprintData(nil), h.JA3Fingerprints...)
	out.ServerBanners = append([]ServerBanner(nil), h.ServerBanners...)
	out.OpenPorts = append([]uint16(nil), h.OpenPorts...)
	if h.DHCPFingerprint != nil {
		dhcp := *h.DHCPFingerprint
		out.DHCPFingerprint = &dhcp
	}
	if h.OSDetection != nil {
		det := *h.OSDetection
		out.OSDetection = &det
	}
	if h.JA3Verification != nil {
		ver := *h.JA3Verification
		out.JA3Verification = &ver
	}
	return out
}

// AddBanner inserts b, replacing any banner with the same protocol and port.
func (h *HostFingerprint) AddBanner(b ServerBanner) {
	for i := range h.ServerBanners {
		if h.ServerBanners[i].Protocol == b.Protocol && h.ServerBanners[i].Port == b.Port {
			h.ServerBanners[i] = b
			return
		}
	}
	h.ServerBanners = append(h.ServerBanners, b)
}

// AddOpenPort records port once, keeping OpenPorts sorted.
func (h *HostFingerprint) AddOpenPort(port uint16) {
	i := 0
	for i < len(h.OpenPorts) && h.OpenPorts[i] < port {
		i++
	}
	if i < len(h.OpenPorts) && h.OpenPorts[i] == port {
		return
	}
	h.OpenPorts = append(h.OpenPorts, 0)
	copy(h.OpenPorts[i+1:], h.OpenPorts[i:])
	h.OpenPorts[i] = port
}
