// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analyzer

// InferInitialTTL maps an observed TTL to the stack default it most likely
// started from: 64 (Unix-like), 128 (Windows) or 255 (network equipment).
// Zero has no plausible origin and maps to zero.
func InferInitialTTL(observed uint8) uint8 {
	switch {
	case observed == 0:
		return 0
	case observed <= 64:
		return 64
	case observed <= 128:
		return 128
	default:
		return 255
	}
}
