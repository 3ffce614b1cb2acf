// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package capture

import (
	"errors"
	"fmt"
)

const errorCodeOpenFailed = "CAPTURE_OPEN_FAILED"

// ErrOpen indicates a capture file could not be opened or is not a pcap or
// pcapng file.
var ErrOpen = errors.New("cannot open capture")

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

func newOpenError(path string, err error) error {
	return &withCodeError{error: fmt.Errorf("%w %s: %w", ErrOpen, path, err), code: errorCodeOpenFailed}
}

// ErrorCode resolves a capture error to its code.
func ErrorCode(err error) string {
	var coded *withCodeError
	if errors.As(err, &coded) {
		return coded.code
	}
	if errors.Is(err, ErrOpen) {
		return errorCodeOpenFailed
	}
	return ""
}
