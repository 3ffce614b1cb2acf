// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package signatures

import (
	"errors"
	"fmt"
)

const (
	errorCodeSourceRequired = "SIGNATURE_SOURCE_REQUIRED"
	errorCodeSourceConflict = "SIGNATURE_SOURCE_CONFLICT"
	errorCodeInvalid        = "SIGNATURE_INVALID"
	errorCodeSyncFailed     = "SIGNATURE_SYNC_FAILED"
)

var (
	// Sync sentinels; ExitCode and Suggestions key off these.
	ErrSourceRequired = errors.New("source required")
	ErrSourceConflict = errors.New("multiple sources provided")
	ErrInvalidTable = errors.New("invalid signature table")
	ErrEmptyTable = errors.New("signature table is empty")
)

type errorCoder interface {
	error
	Code() string
}

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

// WithErrorCode attaches code to err; ErrorCode prefers it over the
// sentinel mapping.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

func NewSourceRequiredError() error {
	return WithErrorCode(fmt.Errorf("%w: either --file or --url must be provided", ErrSourceRequired), errorCodeSourceRequired)
}

func NewSourceConflictError() error {
	return WithErrorCode(fmt.Errorf("%w: only one of --file or --url may be provided at a time", ErrSourceConflict), errorCodeSourceConflict)
}

// WrapSyncError tags err as SIGNATURE_SYNC_FAILED.
func WrapSyncError(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeSyncFailed)
}

// ErrorCode returns the attached code, else the code of the wrapped
// sentinel, else SIGNATURE_SYNC_FAILED.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrSourceRequired):
		return errorCodeSourceRequired
	case errors.Is(err, ErrSourceConflict):
		return errorCodeSourceConflict
	case errors.Is(err, ErrInvalidTable), errors.Is(err, ErrEmptyTable):
		return errorCodeInvalid
	default:
		return errorCodeSyncFailed
	}
}

// ExitCode is 2 for source flag misuse and 3 for a bad table.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, ErrSourceRequired),
		errors.Is(err, ErrSourceConflict):
		return 2
	case errors.Is(err, ErrInvalidTable), errors.Is(err, ErrEmptyTable):
		return 3
	default:
		return 1
	}
}

// Suggestions returns remediation lines printed under the error.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeSourceRequired:
		return []string{
			"Provide a source:          --file <dir> or --url <base-url>",
			"Example:                   hostprint signatures sync --file ./signatures",
		}
	case errorCodeSourceConflict:
		return []string{
			"Use only one source flag",
			"Remove either --file or --url",
		}
	case errorCodeInvalid:
		return []string{
			"Run 'hostprint signatures validate --dir <dir>' for per-entry details",
			"Check the 'version' field of each table against signatures.version_constraint",
		}
	case errorCodeSyncFailed:
		return []string{
			"Retry with --url pointing to a reachable signature mirror",
			"Check network connectivity and cache directory permissions",
		}
	default:
		return nil
	}
}
