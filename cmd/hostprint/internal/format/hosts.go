// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/vulntor/hostprint/pkg/fingerprint"
	"github.com/vulntor/hostprint/pkg/stringutil"
)

const maxBannerWidth = 72

// HostHeaders are the columns of the host overview table.
var HostHeaders = []string{"ip", "mac_vendor", "os", "device", "confidence", "score", "method", "packets", "ja3"}

// HostRows renders the overview table rows.
func (f *Formatter) HostRows(hosts []fingerprint.HostFingerprint) [][]string {
	rows := make([][]string, 0, len(hosts))
	for i := range hosts {
		h := &hosts[i]
		row := []string{h.IPAddress, dash(h.MACVendor), "-", "-", "-", "-", "-", strconv.FormatUint(h.PacketCount, 10), ja3Note(h.JA3Verification)}
		if det := h.OSDetection; det != nil {
			osName := det.OSFamily
			if det.OSVersion != "" {
				osName += " " + det.OSVersion
			}
			row[2] = osName
			row[3] = string(det.DeviceType)
			row[4] = f.confidence(det.Confidence)
			row[5] = strconv.FormatFloat(det.ConfidenceScore, 'f', 2, 64)
			row[6] = string(det.Method)
		}
		rows = append(rows, row)
	}
	return rows
}

func (f *Formatter) confidence(c fingerprint.ConfidenceLevel) string {
	if !f.color {
		return string(c)
	}
	switch c {
	case fingerprint.ConfidenceHigh:
		return color.GreenString(string(c))
	case fingerprint.ConfidenceMedium:
		return color.YellowString(string(c))
	default:
		return color.RedString(string(c))
	}
}

func ja3Note(v *fingerprint.JA3DetectionResult) string {
	switch {
	case v == nil:
		return "-"
	case v.Malicious:
		return "malicious"
	case v.ConflictReason != "":
		return "conflict"
	case v.ConfirmsTCPDetection:
		return "confirms"
	default:
		return "seen"
	}
}

// PrintHostDetail prints every observation of one host.
func (f *Formatter) PrintHostDetail(h fingerprint.HostFingerprint) error {
	if f.mode == ModeJSON {
		return f.PrintJSON(h)
	}

	var sb strings.Builder
	section := func(title string) {
		if f.color {
			title = color.New(color.Bold).Sprint(title)
		}
		sb.WriteString("\n" + title + "\n")
	}
	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "  %-14s %s\n", label+":", value)
		}
	}

	section("Host " + h.IPAddress)
	field("MAC", h.MACAddress)
	field("Vendor", h.MACVendor)
	field("Hostname", h.Hostname)
	field("First seen", h.FirstSeen.Format(time.RFC3339))
	field("Last seen", h.LastSeen.Format(time.RFC3339))
	field("Packets", strconv.FormatUint(h.PacketCount, 10))
	if len(h.OpenPorts) > 0 {
		ports := make([]string, len(h.OpenPorts))
		for i, p := range h.OpenPorts {
			ports[i] = strconv.Itoa(int(p))
		}
		field("Open ports", strings.Join(ports, ", "))
	}

	if det := h.OSDetection; det != nil {
		section("Classification")
		field("OS family", det.OSFamily)
		field("OS version", det.OSVersion)
		field("Device", string(det.DeviceType))
		field("Confidence", fmt.Sprintf("%s (%.2f)", f.confidence(det.Confidence), det.ConfidenceScore))
		field("Method", string(det.Method))
		field("Signature", det.SignatureID)
	}

	if v := h.JA3Verification; v != nil {
		section("JA3")
		field("Hash", v.JA3Hash)
		field("Application", v.DetectedApplication)
		field("OS hint", v.OSHint)
		field("Confirms", strconv.FormatBool(v.ConfirmsTCPDetection))
		field("Conflict", v.ConflictReason)
		if v.Malicious {
			field("Malicious", "yes")
		}
	}

	if len(h.TCPFingerprints) > 0 {
		section(fmt.Sprintf("TCP SYN fingerprints (%d)", len(h.TCPFingerprints)))
		for _, fp := range h.TCPFingerprints {
			fmt.Fprintf(&sb, "  frame %d: ttl=%s df=%t window=%s mss=%s wscale=%s options=%s\n",
				fp.FrameNumber, optU8(fp.TTL), fp.DFFlag, optU16(fp.WindowSize), optU16(fp.MSS), optU8(fp.WindowScale), dash(fp.OptionsOrder))
		}
	}
	if len(h.JA3Fingerprints) > 0 {
		section(fmt.Sprintf("TLS ClientHellos (%d)", len(h.JA3Fingerprints)))
		for _, fp := range h.JA3Fingerprints {
			fmt.Fprintf(&sb, "  frame %d: %s  %s\n", fp.FrameNumber, fp.JA3Hash, fp.JA3String)
		}
	}
	if d := h.DHCPFingerprint; d != nil {
		section("DHCP")
		field("Options (55)", d.Option55)
		field("Vendor class", d.VendorClassID)
		field("Hostname", d.Hostname)
	}
	if len(h.ServerBanners) > 0 {
		section("Server banners")
		for _, b := range h.ServerBanners {
			fmt.Fprintf(&sb, "  %s/%d: %s\n", b.Protocol, b.Port, stringutil.Ellipsis(b.Banner, maxBannerWidth))
		}
	}

	_, err := f.stdout.Write([]byte(sb.String()))
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func optU8(v *uint8) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(int(*v))
}

func optU16(v *uint16) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(int(*v))
}
