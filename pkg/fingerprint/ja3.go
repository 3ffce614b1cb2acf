// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package fingerprint

import (
	"crypto/md5" //nolint:gosec // JA3 identity hash, not used for integrity
	"encoding/hex"
	"strconv"
	"strings"
)

// tlsHandshakeClientHello is the TLS handshake type of a ClientHello.
const tlsHandshakeClientHello = 1

// ExtractJA3 builds the JA3 fingerprint of a TLS ClientHello. Any other
// handshake type, or a packet without TLS fields, yields false.
func ExtractJA3(f *Fields, frame uint64) (JA3FingerprintData, bool) {
	ht, ok := parseUint(firstToken(f.TLSHandshakeType), 8)
	if !ok || ht != tlsHandshakeClientHello {
		return JA3FingerprintData{}, false
	}

	fp := JA3FingerprintData{
		FrameNumber:    frame,
		CipherSuites:   NormalizeList(f.TLSCipherSuites),
		Extensions:     NormalizeList(f.TLSExtensions),
		EllipticCurves: NormalizeList(f.TLSCurves),
		ECPointFormats: NormalizeList(f.TLSPointFormats),
	}
	if v, ok := parseUint(firstToken(f.TLSVersion), 16); ok {
		ver := uint16(v)
		fp.TLSVersion = &ver
	}
	fp.JA3String = BuildJA3String(fp.TLSVersion, fp.CipherSuites, fp.Extensions, fp.EllipticCurves, fp.ECPointFormats)
	fp.JA3Hash = JA3Hash(fp.JA3String)
	return fp, true
}

// BuildJA3String renders "version,ciphers,extensions,curves,formats". Each
// list argument is a normalized comma-joined list; inside the JA3 string its
// values are dash-joined as JA3 prescribes. Empty components stay in place.
func BuildJA3String(version *uint16, ciphers, extensions, curves, formats string) string {
	var b strings.Builder
	b.Grow(len(ciphers) + len(extensions) + len(curves) + len(formats) + 10)
	if version != nil {
		b.WriteString(strconv.FormatUint(uint64(*version), 10))
	}
	for _, list := range [...]string{ciphers, extensions, curves, formats} {
		b.WriteByte(',')
		for i := 0; i < len(list); i++ {
			if list[i] == ',' {
				b.WriteByte('-')
				continue
			}
			b.WriteByte(list[i])
		}
	}
	return b.String()
}

// JA3Hash is the lowercase hex MD5 of a JA3 string.
func JA3Hash(ja3 string) string {
	sum := md5.Sum([]byte(ja3)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// NormalizeList turns a loosely formatted value list ("0x1301, 0x1302",
// "4865-4866", "4865,,4866 ") into "4865,4866". Numeric tokens are rendered
// in decimal; other tokens are kept verbatim.
func NormalizeList(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, tok := range strings.FieldsFunc(s, isListSeparator) {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if v, ok := parseUint(tok, 32); ok {
			b.WriteString(strconv.FormatUint(v, 10))
			continue
		}
		b.WriteString(tok)
	}
	return b.String()
}

func isListSeparator(r rune) bool {
	switch r {
	case ',', '-', ';', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// firstToken returns the first list element of s. Decoders that emit one
// value per TLS record join repeated fields, e.g. "1,16".
func firstToken(s string) string {
	if i := strings.IndexFunc(s, isListSeparator); i >= 0 {
		if i == 0 {
			return firstToken(strings.TrimLeftFunc(s, isListSeparator))
		}
		return s[:i]
	}
	return s
}
