// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func synMeta() PacketMeta {
	return PacketMeta{Frame: 7, SrcIP: "10.0.0.5", DstIP: "10.0.0.1", SrcPort: 50000, DstPort: 443, TCPFlags: FlagSYN}
}

func TestExtractTCPSyn(t *testing.T) {
	f := &Fields{
		IPTTL:          "125",
		IPDF:           "1",
		TCPOptions:     "MSS:1460,NOP,WScale:8,NOP,NOP,SACK_PERM",
		TCPMSS:         "1460",
		TCPWindowScale: "8",
		TCPWindowSize:  "64240",
		TCPTimestamp:   "0x0000abcd",
	}

	fp, ok := ExtractTCPSyn(f, synMeta())
	require.True(t, ok)
	assert.Equal(t, uint64(7), fp.FrameNumber)
	require.NotNil(t, fp.TTL)
	assert.Equal(t, uint8(125), *fp.TTL)
	assert.True(t, fp.DFFlag)
	require.NotNil(t, fp.WindowSize)
	assert.Equal(t, uint16(64240), *fp.WindowSize)
	require.NotNil(t, fp.MSS)
	assert.Equal(t, uint16(1460), *fp.MSS)
	require.NotNil(t, fp.WindowScale)
	assert.Equal(t, uint8(8), *fp.WindowScale)
	assert.True(t, fp.SACKPermitted, "SACK inferred from option text")
	assert.True(t, fp.TimestampPresent)
	require.NotNil(t, fp.TimestampValue)
	assert.Equal(t, uint32(0xabcd), *fp.TimestampValue)
	assert.Equal(t, f.TCPOptions, fp.RawOptions)
	assert.Equal(t, "MSS,SACK,NOP,WS", fp.OptionsOrder)
}

func TestExtractTCPSynZeroPaddedFields(t *testing.T) {
	fp, ok := ExtractTCPSyn(&Fields{IPTTL: "064", TCPMSS: "01460", TCPWindowScale: "08"}, synMeta())
	require.True(t, ok)
	require.NotNil(t, fp.TTL)
	assert.Equal(t, uint8(64), *fp.TTL)
	require.NotNil(t, fp.MSS)
	assert.Equal(t, uint16(1460), *fp.MSS)
	require.NotNil(t, fp.WindowScale)
	assert.Equal(t, uint8(8), *fp.WindowScale)
}

func TestExtractTCPSynRejectsNonSYN(t *testing.T) {
	f := &Fields{IPTTL: "64"}
	for _, flags := range []uint16{0, FlagACK, FlagSYN | FlagACK, FlagPSH | FlagACK, FlagRST} {
		meta := synMeta()
		meta.TCPFlags = flags
		_, ok := ExtractTCPSyn(f, meta)
		assert.False(t, ok, "flags %#x", flags)
	}
}

func TestExtractTCPSynMalformedFields(t *testing.T) {
	f := &Fields{
		IPTTL:          "300",
		IPDF:           "maybe",
		TCPMSS:         "abc",
		TCPWindowScale: "-1",
		TCPWindowSize:  "70000",
		TCPSACKPerm:    "0",
	}
	fp, ok := ExtractTCPSyn(f, synMeta())
	require.True(t, ok)
	assert.Nil(t, fp.TTL)
	assert.False(t, fp.DFFlag)
	assert.Nil(t, fp.MSS)
	assert.Nil(t, fp.WindowScale)
	assert.Nil(t, fp.WindowSize)
	assert.False(t, fp.SACKPermitted)
	assert.False(t, fp.TimestampPresent)
	assert.Empty(t, fp.OptionsOrder)
}

func TestExtractTCPSynExplicitSACK(t *testing.T) {
	fp, ok := ExtractTCPSyn(&Fields{TCPSACKPerm: "1", IPDF: "True"}, synMeta())
	require.True(t, ok)
	assert.True(t, fp.SACKPermitted)
	assert.True(t, fp.DFFlag)
}

func TestCanonicalOptionsOrder(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"MSS:1460,SACK_PERM,Timestamp,NOP,WScale:7", "MSS,SACK,TS,NOP,WS"},
		{"nop,nop,tsval 1 ecr 0,mss 1460", "MSS,TS,NOP"},
		{"Maximum segment size: 1460 bytes, Window scale: 8", "MSS,WS"},
		{"EOL", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalOptionsOrder(tt.raw), tt.raw)
	}
}

func TestExtractDHCP(t *testing.T) {
	_, ok := ExtractDHCP(&Fields{IPTTL: "64"}, 1)
	assert.False(t, ok)

	fp, ok := ExtractDHCP(&Fields{
		DHCPMessageType: "1",
		DHCPOption55:    "1 3 6 15 0x1f 33",
		DHCPVendorClass: " MSFT 5.0 ",
		DHCPHostname:    "DESKTOP-1",
	}, 12)
	require.True(t, ok)
	assert.Equal(t, uint64(12), fp.FrameNumber)
	assert.Equal(t, "1,3,6,15,31,33", fp.Option55)
	assert.Equal(t, "MSFT 5.0", fp.VendorClassID)
	assert.Equal(t, "DESKTOP-1", fp.Hostname)
	require.NotNil(t, fp.MessageType)
	assert.Equal(t, uint8(1), *fp.MessageType)
}

func TestParseUint(t *testing.T) {
	tests := []struct {
		in   string
		bits int
		want uint64
		ok   bool
	}{
		{"64", 8, 64, true},
		{" 255 ", 8, 255, true},
		{"256", 8, 0, false},
		{"0x40", 8, 64, true},
		{"0XFFFF", 16, 65535, true},
		{"", 16, 0, false},
		{"-3", 16, 0, false},
		{"ten", 16, 0, false},
		{"064", 8, 64, true},
		{"01460", 16, 1460, true},
		{"08", 8, 8, true},
		{"000", 8, 0, true},
		{"0256", 8, 0, false},
		{"0o17", 8, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseUint(tt.in, tt.bits)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPacketMetaFlags(t *testing.T) {
	assert.True(t, PacketMeta{TCPFlags: FlagSYN}.IsClientSYN())
	assert.False(t, PacketMeta{TCPFlags: FlagSYN | FlagACK}.IsClientSYN())
	assert.True(t, PacketMeta{TCPFlags: FlagSYN | FlagACK}.IsSYNACK())
	assert.False(t, PacketMeta{TCPFlags: FlagACK}.IsSYNACK())
}
