// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package fingerprint

import "time"

// TCP flag bits as carried in PacketMeta.TCPFlags.
const (
	FlagFIN uint16 = 0x01
	FlagSYN uint16 = 0x02
	FlagRST uint16 = 0x04
	FlagPSH uint16 = 0x08
	FlagACK uint16 = 0x10
	FlagURG uint16 = 0x20
)

// Fields are the raw wire attributes of one packet as rendered by the packet
// decoder. Every field is optional; an empty string means "not present".
// Numbers may be decimal or 0x-prefixed hex.
type Fields struct {
	IPTTL  string // ip.ttl
	IPDF   string // ip.flags.df ("1"/"0", "true"/"false")
	EthSrc string // eth.src
	EthDst string // eth.dst

	TCPOptions     string // textual option list, e.g. "MSS:1460,NOP,WScale:8,SACK_PERM,Timestamp"
	TCPMSS         string
	TCPWindowScale string // shift count
	TCPSACKPerm    string // presence flag
	TCPTimestamp   string // TSval
	TCPWindowSize  string

	TLSHandshakeType string
	TLSVersion       string // ClientHello legacy_version
	TLSCipherSuites  string
	TLSExtensions    string
	TLSCurves        string
	TLSPointFormats  string

	DHCPMessageType string // option 53
	DHCPOption55    string // parameter request list
	DHCPVendorClass string // option 60
	DHCPHostname    string // option 12

	SSHBanner  string // identification string, e.g. "SSH-2.0-OpenSSH_8.9p1 Ubuntu-3ubuntu0.3"
	HTTPServer string // value of the Server: response header
}

// HasDHCP reports whether any DHCP field is present.
func (f *Fields) HasDHCP() bool {
	return f.DHCPMessageType != "" || f.DHCPOption55 != "" || f.DHCPVendorClass != "" || f.DHCPHostname != ""
}

// PacketMeta is the per-packet envelope that accompanies Fields.
type PacketMeta struct {
	Frame     uint64
	Timestamp time.Time
	SrcIP     string
	DstIP     string
	SrcPort   uint16
	DstPort   uint16
	TCPFlags  uint16
}

// IsClientSYN reports a connection request: SYN set, ACK clear.
func (m PacketMeta) IsClientSYN() bool {
	return m.TCPFlags&FlagSYN != 0 && m.TCPFlags&FlagACK == 0
}

// IsSYNACK reports the listener's reply to a connection request.
func (m PacketMeta) IsSYNACK() bool {
	return m.TCPFlags&(FlagSYN|FlagACK) == FlagSYN|FlagACK
}
