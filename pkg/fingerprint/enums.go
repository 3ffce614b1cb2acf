// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package fingerprint

import (
	"fmt"
	"strings"
)

// DeviceType is the coarse class of a host.
type DeviceType string

const (
	DeviceUnknown     DeviceType = "Unknown"
	DeviceWorkstation DeviceType = "Workstation"
	DeviceServer      DeviceType = "Server"
	DeviceRouter      DeviceType = "Router"
	DeviceIoT         DeviceType = "IoT"
	DeviceMobile      DeviceType = "Mobile"
	DevicePrinter     DeviceType = "Printer"
)

var deviceTypes = []DeviceType{
	DeviceUnknown, DeviceWorkstation, DeviceServer, DeviceRouter, DeviceIoT, DeviceMobile, DevicePrinter,
}

// ParseDeviceType matches s case-insensitively. An empty string is Unknown.
func ParseDeviceType(s string) (DeviceType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DeviceUnknown, nil
	}
	for _, dt := range deviceTypes {
		if strings.EqualFold(s, string(dt)) {
			return dt, nil
		}
	}
	return DeviceUnknown, fmt.Errorf("unknown device type %q", s)
}

// IsValid reports whether d is one of the declared device types.
func (d DeviceType) IsValid() bool {
	for _, dt := range deviceTypes {
		if d == dt {
			return true
		}
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DeviceType) UnmarshalText(text []byte) error {
	dt, err := ParseDeviceType(string(text))
	if err != nil {
		return err
	}
	*d = dt
	return nil
}

// ConfidenceLevel is the tier attached to a detection.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "Low"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceHigh   ConfidenceLevel = "High"
)

// ConfidenceForScore maps a TCP signature score onto a tier.
func ConfidenceForScore(score float64) ConfidenceLevel {
	switch {
	case score >= 0.70:
		return ConfidenceHigh
	case score >= 0.50:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// DetectionMethod names the evidence family behind a detection.
type DetectionMethod string

const (
	MethodTCPSyn       DetectionMethod = "TcpSyn"
	MethodJA3          DetectionMethod = "Ja3"
	MethodMACVendor    DetectionMethod = "MacVendor"
	MethodServerBanner DetectionMethod = "ServerBanner"
	MethodCombined     DetectionMethod = "Combined"
)
