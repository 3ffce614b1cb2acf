// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package capture

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/vulntor/hostprint/pkg/fingerprint"
)

var (
	sshPrefix  = []byte("SSH-")
	httpPrefix = []byte("HTTP/")
)

// Decode renders a decoded packet into the analyzer's raw field set. It
// returns false for frames without an IP layer.
func Decode(pkt gopacket.Packet, frame uint64) (fingerprint.Fields, fingerprint.PacketMeta, bool) {
	var (
		f    fingerprint.Fields
		meta = fingerprint.PacketMeta{Frame: frame, Timestamp: pkt.Metadata().Timestamp}
	)

	if eth, ok := pkt.LinkLayer().(*layers.Ethernet); ok {
		f.EthSrc = eth.SrcMAC.String()
		f.EthDst = eth.DstMAC.String()
	}

	switch ip := pkt.NetworkLayer().(type) {
	case *layers.IPv4:
		meta.SrcIP = ip.SrcIP.String()
		meta.DstIP = ip.DstIP.String()
		f.IPTTL = strconv.Itoa(int(ip.TTL))
		if ip.Flags&layers.IPv4DontFragment != 0 {
			f.IPDF = "1"
		} else {
			f.IPDF = "0"
		}
	case *layers.IPv6:
		meta.SrcIP = ip.SrcIP.String()
		meta.DstIP = ip.DstIP.String()
		f.IPTTL = strconv.Itoa(int(ip.HopLimit))
	default:
		return f, meta, false
	}

	switch tr := pkt.TransportLayer().(type) {
	case *layers.TCP:
		meta.SrcPort = uint16(tr.SrcPort)
		meta.DstPort = uint16(tr.DstPort)
		meta.TCPFlags = tcpFlags(tr)
		decodeTCP(&f, tr)
	case *layers.UDP:
		meta.SrcPort = uint16(tr.SrcPort)
		meta.DstPort = uint16(tr.DstPort)
		if dhcp, ok := pkt.Layer(layers.LayerTypeDHCPv4).(*layers.DHCPv4); ok {
			decodeDHCP(&f, dhcp)
		}
	}
	return f, meta, true
}

func tcpFlags(tcp *layers.TCP) uint16 {
	var flags uint16
	if tcp.FIN {
		flags |= fingerprint.FlagFIN
	}
	if tcp.SYN {
		flags |= fingerprint.FlagSYN
	}
	if tcp.RST {
		flags |= fingerprint.FlagRST
	}
	if tcp.PSH {
		flags |= fingerprint.FlagPSH
	}
	if tcp.ACK {
		flags |= fingerprint.FlagACK
	}
	if tcp.URG {
		flags |= fingerprint.FlagURG
	}
	return flags
}

func decodeTCP(f *fingerprint.Fields, tcp *layers.TCP) {
	f.TCPWindowSize = strconv.Itoa(int(tcp.Window))

	var opts strings.Builder
	appendOpt := func(s string) {
		if opts.Len() > 0 {
			opts.WriteByte(',')
		}
		opts.WriteString(s)
	}
	for _, opt := range tcp.Options {
		switch opt.OptionType {
		case layers.TCPOptionKindEndList:
			appendOpt("EOL")
		case layers.TCPOptionKindNop:
			appendOpt("NOP")
		case layers.TCPOptionKindMSS:
			if len(opt.OptionData) == 2 {
				f.TCPMSS = strconv.Itoa(int(binary.BigEndian.Uint16(opt.OptionData)))
				appendOpt("MSS:" + f.TCPMSS)
			}
		case layers.TCPOptionKindWindowScale:
			if len(opt.OptionData) == 1 {
				f.TCPWindowScale = strconv.Itoa(int(opt.OptionData[0]))
				appendOpt("WScale:" + f.TCPWindowScale)
			}
		case layers.TCPOptionKindSACKPermitted:
			f.TCPSACKPerm = "1"
			appendOpt("SACK_PERM")
		case layers.TCPOptionKindSACK:
			appendOpt("SACK")
		case layers.TCPOptionKindTimestamps:
			if len(opt.OptionData) == 8 {
				f.TCPTimestamp = strconv.FormatUint(uint64(binary.BigEndian.Uint32(opt.OptionData)), 10)
			}
			appendOpt("Timestamp")
		}
	}
	f.TCPOptions = opts.String()

	payload := tcp.Payload
	switch {
	case len(payload) == 0:
	case payload[0] == recordTypeHandshake:
		if hello, err := parseClientHello(payload); err == nil {
			f.TLSHandshakeType = strconv.Itoa(handshakeTypeClientHello)
			f.TLSVersion = strconv.Itoa(int(hello.version))
			f.TLSCipherSuites = joinUint16(hello.ciphers)
			f.TLSExtensions = joinUint16(hello.extensions)
			f.TLSCurves = joinUint16(hello.curves)
			f.TLSPointFormats = joinUint8(hello.pointFormats)
		}
	case bytes.HasPrefix(payload, sshPrefix):
		f.SSHBanner = string(firstLine(payload))
	case bytes.HasPrefix(payload, httpPrefix):
		f.HTTPServer = httpServerHeader(payload)
	}
}

func decodeDHCP(f *fingerprint.Fields, dhcp *layers.DHCPv4) {
	for _, opt := range dhcp.Options {
		switch opt.Type {
		case layers.DHCPOptMessageType:
			if len(opt.Data) == 1 {
				f.DHCPMessageType = strconv.Itoa(int(opt.Data[0]))
			}
		case layers.DHCPOptParamsRequest:
			f.DHCPOption55 = joinUint8(opt.Data)
		case layers.DHCPOptClassID:
			f.DHCPVendorClass = string(opt.Data)
		case layers.DHCPOptHostname:
			f.DHCPHostname = string(opt.Data)
		}
	}
}

// httpServerHeader returns the Server header of an HTTP response head.
func httpServerHeader(payload []byte) string {
	rest := payload
	for len(rest) > 0 {
		line := firstLine(rest)
		if len(line) == 0 {
			return ""
		}
		if i := bytes.IndexByte(line, ':'); i > 0 && strings.EqualFold(string(bytes.TrimSpace(line[:i])), "server") {
			return string(bytes.TrimSpace(line[i+1:]))
		}
		next := bytes.IndexByte(rest, '\n')
		if next < 0 {
			return ""
		}
		rest = rest[next+1:]
	}
	return ""
}

func firstLine(b []byte) []byte {
	if i := bytes.IndexAny(b, "\r\n"); i >= 0 {
		return b[:i]
	}
	return b
}

func joinUint16(vals []uint16) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(v)))
	}
	return b.String()
}

func joinUint8(vals []uint8) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(v)))
	}
	return b.String()
}
