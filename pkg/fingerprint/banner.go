// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package fingerprint

import (
	"strings"

	"github.com/vulntor/hostprint/pkg/stringutil"
)

// osVocabulary is scanned in order; the first hit names the OS hint.
var osVocabulary = []struct {
	name    string
	needles []string
}{
	{"Ubuntu", []string{"ubuntu"}},
	{"Debian", []string{"debian"}},
	{"CentOS", []string{"centos"}},
	{"Red Hat", []string{"red hat", "redhat", "rhel"}},
	{"Windows", []string{"windows", "win32", "win64", "microsoft-iis"}},
	{"FreeBSD", []string{"freebsd"}},
	{"Linux", []string{"linux"}},
}

// OSHintFromText returns the first OS name of the vocabulary found in s.
func OSHintFromText(s string) string {
	for _, entry := range osVocabulary {
		if stringutil.ContainsAnyFold(s, entry.needles...) {
			return entry.name
		}
	}
	return ""
}

// ParseSSHBanner decomposes an SSH identification string such as
// "SSH-2.0-OpenSSH_8.9p1 Ubuntu-3ubuntu0.3". It returns false if the banner
// does not start with "SSH-".
func ParseSSHBanner(banner string, port uint16) (ServerBanner, bool) {
	line := strings.TrimSpace(firstLine(banner))
	if !strings.HasPrefix(line, "SSH-") {
		return ServerBanner{}, false
	}

	out := ServerBanner{Protocol: ProtocolSSH, Port: port, Banner: line}

	parts := strings.SplitN(line, "-", 3)
	if len(parts) < 3 {
		return out, true
	}
	software := strings.TrimSpace(parts[2])
	if i := strings.IndexByte(software, ' '); i >= 0 {
		software = software[:i]
	}

	switch {
	case strings.Contains(software, "_"):
		i := strings.IndexByte(software, '_')
		out.ProductName, out.Version = software[:i], software[i+1:]
	case strings.Contains(software, "-"):
		i := strings.LastIndexByte(software, '-')
		out.ProductName, out.Version = software[:i], software[i+1:]
	default:
		out.ProductName = software
	}
	out.OSHint = OSHintFromText(line)
	return out, true
}

// ParseHTTPServer decomposes an HTTP Server header value such as
// "Apache/2.4.41 (Ubuntu)". A leading "Server:" is tolerated.
func ParseHTTPServer(value string, port uint16) (ServerBanner, bool) {
	line := strings.TrimSpace(firstLine(value))
	if len(line) >= 7 && strings.EqualFold(line[:7], "server:") {
		line = strings.TrimSpace(line[7:])
	}
	if line == "" {
		return ServerBanner{}, false
	}

	out := ServerBanner{Protocol: ProtocolHTTP, Port: port, Banner: line}

	product := line
	if i := strings.IndexByte(product, ' '); i >= 0 {
		product = product[:i]
	}
	if i := strings.IndexByte(product, '/'); i >= 0 {
		out.ProductName, out.Version = product[:i], product[i+1:]
	} else {
		out.ProductName = product
	}
	out.OSHint = OSHintFromText(line)
	return out, true
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}
