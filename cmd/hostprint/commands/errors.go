// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"errors"

	"github.com/vulntor/hostprint/pkg/analyzer"
	"github.com/vulntor/hostprint/pkg/capture"
	"github.com/vulntor/hostprint/pkg/fingerprint/signatures"
)

// Exit codes beyond the signature ones (0 ok, 1 failure, 2 usage, 3 invalid
// signatures).
const (
	exitHostNotFound = 4
	exitCaptureOpen  = 5
)

// ExitCode maps a command error onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, analyzer.ErrHostNotFound):
		return exitHostNotFound
	case errors.Is(err, capture.ErrOpen):
		return exitCaptureOpen
	default:
		return signatures.ExitCode(err)
	}
}

func errorCode(err error) string {
	if code := analyzer.ErrorCode(err); code != "" {
		return code
	}
	if code := capture.ErrorCode(err); code != "" {
		return code
	}
	if isSignatureError(err) {
		return signatures.ErrorCode(err)
	}
	return ""
}

func isSignatureError(err error) bool {
	return errors.Is(err, signatures.ErrInvalidTable) ||
		errors.Is(err, signatures.ErrEmptyTable) ||
		errors.Is(err, signatures.ErrSourceRequired) ||
		errors.Is(err, signatures.ErrSourceConflict)
}

// suggestionsFor returns hints that the error carries itself; code-based
// hints come from format.GetSuggestions.
func suggestionsFor(err error) []string {
	if isSignatureError(err) {
		return signatures.Suggestions(err)
	}
	return nil
}

// reportedError marks an error whose failure summary was already printed.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err}
}

// Reported reports whether err was already shown to the user.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
