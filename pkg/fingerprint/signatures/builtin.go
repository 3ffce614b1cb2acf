// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package signatures

import "github.com/vulntor/hostprint/pkg/fingerprint"

// BuiltinVersion tags tables that came from the built-in fallback.
const BuiltinVersion = "builtin"

// BuiltinTCPSignatures is the minimal stack set used when the TCP table
// cannot be loaded: Windows (TTL 128, DF), Linux (TTL 64, DF) and macOS
// (TTL 64, DF, lower priority). Each entry carries enough sub-criteria to
// pass the three-match gate on a default SYN.
func BuiltinTCPSignatures() []TCPSignature {
	return []TCPSignature{
		{
			ID:                 "builtin-windows",
			OSFamily:           "Windows",
			DeviceType:         fingerprint.DeviceWorkstation,
			InitialTTL:         ptr[uint8](128),
			DFFlag:             ptr(true),
			WindowSizePattern:  "8192|64240|65535",
			MSSPattern:         "1460|1440",
			WindowScalePattern: "8",
			Priority:           100,
		},
		{
			ID:                 "builtin-linux",
			OSFamily:           "Linux",
			DeviceType:         fingerprint.DeviceUnknown,
			InitialTTL:         ptr[uint8](64),
			DFFlag:             ptr(true),
			WindowSizePattern:  "29200|64240|65535",
			MSSPattern:         "1460|1448",
			WindowScalePattern: "7",
			Priority:           90,
		},
		{
			ID:                 "builtin-macos",
			OSFamily:           "macOS",
			DeviceType:         fingerprint.DeviceWorkstation,
			InitialTTL:         ptr[uint8](64),
			DFFlag:             ptr(true),
			WindowSizePattern:  "65535",
			MSSPattern:         "1460",
			WindowScalePattern: "6",
			Priority:           80,
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
