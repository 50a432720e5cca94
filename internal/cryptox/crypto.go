// Package cryptox implements the vault's authenticated encryption.
//
// Every user owns an isolated partition key derived from the vault master
// key with Argon2id. Records are sealed with AES-256-GCM, binding the
// owning user and the record category as associated data, so a record
// replayed into another partition or category fails tag verification
// instead of decrypting silently.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/dmitrijs2005/consentvault/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	keySize   = 32
	nonceSize = 12
	tagSize   = 16
)

// DerivePartitionKey derives the per-user AES-256 key from the vault
// master key using Argon2id with the user ID as salt. The derivation is
// deterministic, so the key never needs to be stored.
func DerivePartitionKey(masterKey []byte, userID string) []byte {
	return argon2.IDKey(masterKey, []byte(userID), 1, 64*1024, 4, keySize)
}

// AssociatedData builds the authenticated associated data binding a
// record to its owner and category. The NUL separator prevents
// ("ab","c") and ("a","bc") from aliasing.
func AssociatedData(userID, category string) []byte {
	return []byte(userID + "\x00" + category)
}

// Seal encrypts plaintext under key with AES-256-GCM and a fresh random
// 12-byte nonce. The GCM tag is returned separately from the ciphertext
// body so the two are stored as distinct record fields.
func Seal(plaintext, key, ad []byte) (ciphertext, nonce, tag []byte, err error) {
	nonce = make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, nil, err
	}

	sealed := aesgcm.Seal(nil, nonce, plaintext, ad)

	n := len(sealed) - tagSize
	return sealed[:n], nonce, sealed[n:], nil
}

// Open decrypts a record sealed by Seal. Any mismatch in ciphertext,
// nonce, tag, key or associated data yields common.ErrIntegrityViolation;
// plaintext is never returned unless the tag verifies.
func Open(ciphertext, nonce, tag, key, ad []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aesgcm.Open(nil, nonce, sealed, ad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIntegrityViolation, err)
	}
	return plaintext, nil
}
