// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package fingerprint

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/vulntor/hostprint/pkg/stringutil"
)

// optionTokens is the fixed scan order used to canonicalize TCP options.
var optionTokens = []struct {
	token   string
	needles []string
}{
	{"MSS", []string{"mss", "maximum segment"}},
	{"SACK", []string{"sack"}},
	{"TS", []string{"timestamp", "tsval"}},
	{"NOP", []string{"nop", "no-operation"}},
	{"WS", []string{"wscale", "window scale", "window-scale"}},
}

// ExtractTCPSyn builds a stack fingerprint from a client SYN. It returns
// false for any packet that is not a SYN without ACK.
func ExtractTCPSyn(f *Fields, meta PacketMeta) (TCPFingerprintData, bool) {
	if !meta.IsClientSYN() {
		return TCPFingerprintData{}, false
	}

	fp := TCPFingerprintData{
		FrameNumber:   meta.Frame,
		DFFlag:        parseFlag(f.IPDF),
		SACKPermitted: parsePresence(f.TCPSACKPerm),
		RawOptions:    f.TCPOptions,
	}
	if v, ok := parseUint(f.IPTTL, 8); ok {
		ttl := uint8(v)
		fp.TTL = &ttl
	}
	if v, ok := parseUint(f.TCPWindowSize, 16); ok {
		win := uint16(v)
		fp.WindowSize = &win
	}
	if v, ok := parseUint(f.TCPMSS, 16); ok {
		mss := uint16(v)
		fp.MSS = &mss
	}
	if v, ok := parseUint(f.TCPWindowScale, 8); ok {
		ws := uint8(v)
		fp.WindowScale = &ws
	}
	if f.TCPTimestamp != "" {
		fp.TimestampPresent = true
		if v, ok := parseUint(f.TCPTimestamp, 32); ok {
			ts := uint32(v)
			fp.TimestampValue = &ts
		}
	}
	if !fp.SACKPermitted && f.TCPOptions != "" {
		fp.SACKPermitted = stringutil.ContainsFold(f.TCPOptions, "sack")
	}
	fp.OptionsOrder = CanonicalOptionsOrder(f.TCPOptions)
	return fp, true
}

// CanonicalOptionsOrder lists the known option names present in raw, in the
// fixed order MSS, SACK, TS, NOP, WS. Matching is case-insensitive.
func CanonicalOptionsOrder(raw string) string {
	if raw == "" {
		return ""
	}
	var b strings.Builder
	for _, opt := range optionTokens {
		if !stringutil.ContainsAnyFold(raw, opt.needles...) {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(opt.token)
	}
	return b.String()
}

// ExtractDHCP captures the DHCP options of a packet. It returns false when
// the packet carries no DHCP field at all.
func ExtractDHCP(f *Fields, frame uint64) (DHCPFingerprintData, bool) {
	if !f.HasDHCP() {
		return DHCPFingerprintData{}, false
	}
	fp := DHCPFingerprintData{
		FrameNumber:   frame,
		Option55:      NormalizeList(f.DHCPOption55),
		VendorClassID: strings.TrimSpace(f.DHCPVendorClass),
		Hostname:      strings.TrimSpace(f.DHCPHostname),
	}
	if v, ok := parseUint(f.DHCPMessageType, 8); ok {
		mt := uint8(v)
		fp.MessageType = &mt
	}
	return fp, true
}

// parseUint parses s as an unsigned integer that fits in bits. Decimal and
// 0x-prefixed hex are accepted; anything else is reported as absent.
// Leading zeros are decimal padding, never an octal prefix.
func parseUint(s string, bits int) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	var (
		v   uint64
		err error
	)
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		v, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		digits := strings.TrimLeft(s, "0")
		if digits == "" {
			digits = "0"
		}
		v, err = cast.ToUint64E(digits)
	}
	if err != nil || v > (uint64(1)<<bits)-1 {
		return 0, false
	}
	return v, true
}

// parseFlag reads a boolean wire flag. Unparsable values count as unset.
func parseFlag(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if b, err := cast.ToBoolE(s); err == nil {
		return b
	}
	return strings.EqualFold(s, "set") || strings.EqualFold(s, "yes")
}

// parsePresence reads a field whose mere presence means true, unless it
// explicitly spells a false value.
func parsePresence(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if b, err := cast.ToBoolE(s); err == nil {
		return b
	}
	return true
}
