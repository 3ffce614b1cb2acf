// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package stringutil provides small, allocation-free string helpers shared by
// the extractor, the fusion engine and the CLI.
package stringutil

import "strings"

// Ellipsis shortens a string to a maximum length, adding "..." if truncated.
// Newlines become spaces so the result fits a single table cell. If maxLength
// is 3 or less the string is cut without an ellipsis.
func Ellipsis(s string, maxLength int) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")

	if maxLength < 0 {
		return ""
	}
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}

// ContainsFold reports whether substr is within s, ignoring ASCII case.
// An empty substr is always contained.
func ContainsFold(s, substr string) bool {
	n := len(substr)
	if n == 0 {
		return true
	}
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return true
		}
	}
	return false
}

// ContainsAnyFold reports whether any of needles is within s, ignoring ASCII case.
func ContainsAnyFold(s string, needles ...string) bool {
	for _, n := range needles {
		if n != "" && ContainsFold(s, n) {
			return true
		}
	}
	return false
}

// Overlaps reports whether a and b are equal or one contains the other,
// ignoring case. Two empty strings never overlap.
func Overlaps(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return ContainsFold(a, b) || ContainsFold(b, a)
}
