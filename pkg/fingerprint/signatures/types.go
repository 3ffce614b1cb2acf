// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package signatures

import (
	"sort"
	"strings"

	"github.com/vulntor/hostprint/pkg/fingerprint"
)

// Table identifies one of the three signature tables.
type Table string

const (
	TableTCP Table = "tcp_signatures"
	TableJA3 Table = "ja3_signatures"
	TableMAC Table = "mac_vendors"
)

// Tables lists every table in load order.
func Tables() []Table {
	return []Table{TableTCP, TableJA3, TableMAC}
}

// FileName is the data file backing t.
func (t Table) FileName() string {
	return string(t) + ".yaml"
}

// TCPSignature describes the SYN characteristics of one TCP/IP stack.
// Pattern fields hold "|"-separated alternatives, e.g. "64240|65535".
type TCPSignature struct {
	ID                 string                 `yaml:"id" validate:"required"`
	OSFamily           string                 `yaml:"os_family" validate:"required"`
	OSVersion          string                 `yaml:"os_version,omitempty"`
	DeviceType         fingerprint.DeviceType `yaml:"device_type,omitempty"`
	InitialTTL         *uint8                 `yaml:"initial_ttl,omitempty" validate:"omitempty,min=1"`
	DFFlag             *bool                  `yaml:"df_flag,omitempty"`
	WindowSizePattern  string                 `yaml:"window_size,omitempty" validate:"omitempty,altnum"`
	MSSPattern         string                 `yaml:"mss,omitempty" validate:"omitempty,altnum"`
	WindowScalePattern string                 `yaml:"window_scale,omitempty" validate:"omitempty,altnum"`
	Priority           int                    `yaml:"priority"`
}

// JA3Signature maps a JA3 hash to the client software that produces it.
type JA3Signature struct {
	JA3Hash     string                 `yaml:"ja3_hash" validate:"required,len=32,hexadecimal,lowercase"`
	Application string                 `yaml:"application,omitempty"`
	OSHint      string                 `yaml:"os_hint,omitempty"`
	DeviceType  fingerprint.DeviceType `yaml:"device_type,omitempty"`
	IsMalware   bool                   `yaml:"is_malware,omitempty"`
}

// MACVendor maps an OUI ("AA:BB:CC") to its vendor.
type MACVendor struct {
	OUI            string                 `yaml:"oui" validate:"required"`
	Vendor         string                 `yaml:"vendor" validate:"required"`
	DeviceTypeHint fingerprint.DeviceType `yaml:"device_type_hint,omitempty"`
	OSHint         string                 `yaml:"os_hint,omitempty"`
}

// tableFile is the on-disk shape shared by all three tables.
type tableFile[T any] struct {
	Version    string `yaml:"version" validate:"required"`
	Signatures []T    `yaml:"signatures" validate:"dive"`
}

// Corpus is the immutable, loaded signature set. It is safe for concurrent
// readers; nothing mutates it after Load returns.
type Corpus struct {
	tcp      []TCPSignature
	ja3      map[string]JA3Signature
	mac      map[string]MACVendor
	versions map[Table]string
}

// NewCorpus builds a corpus from in-memory tables. TCP signatures are ordered
// by descending priority; ties keep their given order.
func NewCorpus(tcp []TCPSignature, ja3 []JA3Signature, mac []MACVendor) *Corpus {
	c := &Corpus{
		tcp:      append([]TCPSignature(nil), tcp...),
		ja3:      make(map[string]JA3Signature, len(ja3)),
		mac:      make(map[string]MACVendor, len(mac)),
		versions: make(map[Table]string, 3),
	}
	sort.SliceStable(c.tcp, func(i, j int) bool { return c.tcp[i].Priority > c.tcp[j].Priority })
	for _, s := range ja3 {
		c.ja3[strings.ToLower(s.JA3Hash)] = s
	}
	for _, v := range mac {
		oui := NormalizeOUI(v.OUI)
		if oui == "" {
			continue
		}
		v.OUI = oui
		c.mac[oui] = v
	}
	return c
}

// TCPSignatures returns the TCP table in descending priority. Callers must
// not modify the returned slice.
func (c *Corpus) TCPSignatures() []TCPSignature {
	return c.tcp
}

// LookupJA3 finds the signature for a JA3 hash.
func (c *Corpus) LookupJA3(hash string) (JA3Signature, bool) {
	s, ok := c.ja3[hash]
	return s, ok
}

// LookupMAC finds the vendor entry for the OUI of mac. Any of the common MAC
// notations is accepted.
func (c *Corpus) LookupMAC(mac string) (MACVendor, bool) {
	oui := NormalizeOUI(mac)
	if oui == "" {
		return MACVendor{}, false
	}
	v, ok := c.mac[oui]
	return v, ok
}

// Counts returns the number of entries per table.
func (c *Corpus) Counts() map[Table]int {
	return map[Table]int{
		TableTCP: len(c.tcp),
		TableJA3: len(c.ja3),
		TableMAC: len(c.mac),
	}
}

// Version returns the data version a table was loaded with, if any.
func (c *Corpus) Version(t Table) string {
	return c.versions[t]
}

// NormalizeOUI extracts the first three octets of a MAC address as
// upper-case, colon-separated hex ("AA:BB:CC"). It accepts colon, dash, dot
// and unseparated notations and returns "" when fewer than six hex digits
// are present.
func NormalizeOUI(mac string) string {
	var digits [6]byte
	n := 0
	for i := 0; i < len(mac) && n < 6; i++ {
		c := mac[i]
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'F':
			digits[n] = c
		case c >= 'a' && c <= 'f':
			digits[n] = c - 'a' + 'A'
		case c == ':' || c == '-' || c == '.' || c == ' ':
			continue
		default:
			return ""
		}
		n++
	}
	if n < 6 {
		return ""
	}
	return string([]byte{digits[0], digits[1], ':', digits[2], digits[3], ':', digits[4], digits[5]})
}
