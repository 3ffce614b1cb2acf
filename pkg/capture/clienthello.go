// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package capture

import (
	"encoding/binary"
	"errors"
)

const (
	recordTypeHandshake      = 0x16
	handshakeTypeClientHello = 0x01
	tlsRecordHeaderSize      = 5

	extensionSupportedGroups = 0x000a
	extensionECPointFormats  = 0x000b
)

var (
	errNotClientHello = errors.New("not a TLS ClientHello")
	errTruncated      = errors.New("truncated ClientHello")
)

// clientHello holds the JA3-relevant parts of a ClientHello. GREASE values
// are already removed.
type clientHello struct {
	version      uint16
	ciphers      []uint16
	extensions   []uint16
	curves       []uint16
	pointFormats []uint8
}

// isGREASE reports RFC 8701 reserved values (0x0a0a, 0x1a1a, ... 0xfafa).
func isGREASE(v uint16) bool {
	return v&0x0f0f == 0x0a0a && v>>8 == v&0xff
}

// parseClientHello decodes a ClientHello carried at the start of a TLS
// record. Only the first record of the payload is inspected; a hello split
// across TCP segments is reported as truncated.
func parseClientHello(payload []byte) (*clientHello, error) {
	if len(payload) < tlsRecordHeaderSize+4 || payload[0] != recordTypeHandshake {
		return nil, errNotClientHello
	}
	data := payload[tlsRecordHeaderSize:]
	if data[0] != handshakeTypeClientHello {
		return nil, errNotClientHello
	}

	// type(1) + length(3)
	pos := 4
	if pos+2 > len(data) {
		return nil, errTruncated
	}
	hello := &clientHello{version: binary.BigEndian.Uint16(data[pos:])}
	pos += 2

	// random
	pos += 32
	if pos >= len(data) {
		return nil, errTruncated
	}

	sessionIDLen := int(data[pos])
	pos += 1 + sessionIDLen
	if pos+2 > len(data) {
		return nil, errTruncated
	}

	cipherLen := int(binary.BigEndian.Uint16(data[pos:]))
	pos += 2
	if pos+cipherLen > len(data) || cipherLen%2 != 0 {
		return nil, errTruncated
	}
	hello.ciphers = readUint16List(data[pos:pos+cipherLen], hello.ciphers)
	pos += cipherLen

	if pos >= len(data) {
		return nil, errTruncated
	}
	compressionLen := int(data[pos])
	pos += 1 + compressionLen
	if pos > len(data) {
		return nil, errTruncated
	}

	// No extensions block is legal.
	if pos+2 > len(data) {
		return hello, nil
	}
	extLen := int(binary.BigEndian.Uint16(data[pos:]))
	pos += 2
	end := pos + extLen
	if end > len(data) {
		return nil, errTruncated
	}

	for pos+4 <= end {
		extType := binary.BigEndian.Uint16(data[pos:])
		n := int(binary.BigEndian.Uint16(data[pos+2:]))
		pos += 4
		if pos+n > end {
			return nil, errTruncated
		}
		body := data[pos : pos+n]
		pos += n

		if isGREASE(extType) {
			continue
		}
		hello.extensions = append(hello.extensions, extType)

		switch extType {
		case extensionSupportedGroups:
			if len(body) >= 2 {
				listLen := int(binary.BigEndian.Uint16(body))
				if 2+listLen <= len(body) {
					hello.curves = readUint16List(body[2:2+listLen], hello.curves)
				}
			}
		case extensionECPointFormats:
			if len(body) >= 1 {
				listLen := int(body[0])
				if 1+listLen <= len(body) {
					hello.pointFormats = append(hello.pointFormats, body[1:1+listLen]...)
				}
			}
		}
	}
	return hello, nil
}

// readUint16List appends the big-endian values of b to dst, skipping GREASE.
func readUint16List(b []byte, dst []uint16) []uint16 {
	for i := 0; i+1 < len(b); i += 2 {
		v := binary.BigEndian.Uint16(b[i:])
		if isGREASE(v) {
			continue
		}
		dst = append(dst, v)
	}
	return dst
}
