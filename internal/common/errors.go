// Package common defines shared constants and sentinel errors used across
// ConsentVault components. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Authorization errors. These are terminal for a request: retrying
	// cannot fix an invalid credential.
	ErrBadSignature = errors.New("bad signature")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
	ErrScopeMissing = errors.New("scope missing")

	// Validation errors, rejected before any state mutation.
	ErrInvalidScope    = errors.New("invalid scope")
	ErrInvalidTTL      = errors.New("invalid ttl")
	ErrUnknownCategory = errors.New("unknown category")

	// Data integrity errors, isolated per record.
	ErrIntegrityViolation = errors.New("integrity violation")

	// Profile-level errors.
	ErrInsufficientData = errors.New("insufficient data")
)
