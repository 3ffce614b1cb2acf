// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analyzer

import (
	"errors"
	"fmt"
)

const errorCodeHostNotFound = "HOST_NOT_FOUND"

// ErrHostNotFound indicates the requested IP was never observed.
var ErrHostNotFound = errors.New("host not found")

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

// NewHostNotFoundError formats a lookup miss for ip.
func NewHostNotFoundError(ip string) error {
	return &withCodeError{error: fmt.Errorf("%w: %s", ErrHostNotFound, ip), code: errorCodeHostNotFound}
}

// ErrorCode resolves an analyzer error to its code.
func ErrorCode(err error) string {
	var coded *withCodeError
	if errors.As(err, &coded) {
		return coded.code
	}
	if errors.Is(err, ErrHostNotFound) {
		return errorCodeHostNotFound
	}
	return ""
}
