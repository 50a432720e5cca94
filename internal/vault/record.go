// Package vault implements the encrypted, per-user record store.
//
// Records are encrypted at rest with a partition key owned by a single
// user; the owning user and the record category are bound into the
// authenticated encryption as associated data, so a misrouted read turns
// into a detectable cryptographic failure rather than silent leakage.
// The package is independent of consent logic: callers present a
// consent.Grant, i.e. proof of an already-verified token.
package vault

import "time"

// Record is an encrypted vault record. Ciphertext is only decryptable
// with the owner's partition key, and Tag must verify before any
// plaintext is trusted.
type Record struct {
	ID         string
	UserID     string
	Category   Category
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
	CreatedAt  time.Time
	ExpiresAt  time.Time // zero value means the record never expires
}

// Expired reports whether the record's TTL has elapsed at now. Records
// without an expiry never expire.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}
