package cryptox

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dmitrijs2005/consentvault/internal/common"
)

func testKey() []byte {
	return DerivePartitionKey([]byte("master-key-for-tests"), "user-1")
}

func TestSealOpen_RoundTrip(t *testing.T) {
	t.Parallel()

	key := testKey()
	ad := AssociatedData("user-1", "shopping.history")

	cases := [][]byte{
		[]byte("{}"),
		[]byte(`{"amount": 569.59, "brand": "Acme"}`),
		{},
		bytes.Repeat([]byte{0xab}, 1<<16),
	}

	for _, plaintext := range cases {
		ct, nonce, tag, err := Seal(plaintext, key, ad)
		if err != nil {
			t.Fatalf("Seal error: %v", err)
		}
		got, err := Open(ct, nonce, tag, key, ad)
		if err != nil {
			t.Fatalf("Open error: %v", err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("round trip mismatch: got %d bytes want %d", len(got), len(plaintext))
		}
	}
}

func TestOpen_SingleBitCorruption(t *testing.T) {
	t.Parallel()

	key := testKey()
	ad := AssociatedData("user-1", "shopping.history")

	ct, nonce, tag, err := Seal([]byte("sensitive payload"), key, ad)
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}

	corrupted := append([]byte(nil), ct...)
	corrupted[0] ^= 0x01

	_, err = Open(corrupted, nonce, tag, key, ad)
	if !errors.Is(err, common.ErrIntegrityViolation) {
		t.Fatalf("expected ErrIntegrityViolation, got %v", err)
	}
}

func TestOpen_WrongAssociatedData(t *testing.T) {
	t.Parallel()

	key := testKey()

	ct, nonce, tag, err := Seal([]byte("payload"), key, AssociatedData("user-1", "shopping.history"))
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}

	// Same key, record rerouted to a different category.
	_, err = Open(ct, nonce, tag, key, AssociatedData("user-1", "shopping.preferences"))
	if !errors.Is(err, common.ErrIntegrityViolation) {
		t.Fatalf("expected ErrIntegrityViolation, got %v", err)
	}
}

func TestDerivePartitionKey_PerUserIsolation(t *testing.T) {
	t.Parallel()

	master := []byte("master")
	k1 := DerivePartitionKey(master, "user-1")
	k2 := DerivePartitionKey(master, "user-2")
	if bytes.Equal(k1, k2) {
		t.Fatalf("expected distinct partition keys per user")
	}

	// Deterministic for the same user.
	if !bytes.Equal(k1, DerivePartitionKey(master, "user-1")) {
		t.Fatalf("expected deterministic derivation")
	}

	ct, nonce, tag, err := Seal([]byte("payload"), k1, AssociatedData("user-1", "shopping.history"))
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}
	_, err = Open(ct, nonce, tag, k2, AssociatedData("user-1", "shopping.history"))
	if !errors.Is(err, common.ErrIntegrityViolation) {
		t.Fatalf("expected ErrIntegrityViolation with foreign key, got %v", err)
	}
}
