package chacha20poly1305

import (
	"bytes"
	"testing"

	refchacha20poly1305 "golang.org/x/crypto/chacha20poly1305"
)

// Differential test against golang.org/x/crypto/chacha20poly1305 (its
// New, not the extended-nonce NewX): both implement the same RFC 8439 construction with a 12-byte
// nonce, so Seal/Open output must agree byte-for-byte on every input.
func TestCrossVendorAgreement(t *testing.T) {
	key, nonce := testKeyNonce()

	ref, err := refchacha20poly1305.New(key)
	if err != nil {
		t.Fatalf("reference New: %v", err)
	}

	cases := []struct {
		name      string
		plaintext []byte
		aad       []byte
	}{
		{"empty", nil, nil},
		{"aad-only", nil, []byte("associated data, no payload")},
		{"plaintext-only", []byte("payload, no associated data"), nil},
		{"both", []byte("payload with associated data"), []byte("associated data")},
		{"one-block", bytes.Repeat([]byte{0x5a}, 64), []byte("aad")},
		{"multi-block", bytes.Repeat([]byte{0x5a}, 4096), bytes.Repeat([]byte{0x11}, 33)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ours, err := Encrypt(key, nonce, tc.plaintext, tc.aad)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			theirs := ref.Seal(nil, nonce, tc.plaintext, tc.aad)

			if !bytes.Equal(ours, theirs) {
				t.Fatalf("sealed output diverged:\n ours   %x\n theirs %x", ours, theirs)
			}

			recoveredByRef, err := ref.Open(nil, nonce, ours, tc.aad)
			if err != nil {
				t.Fatalf("reference Open rejected our ciphertext: %v", err)
			}
			if !bytes.Equal(recoveredByRef, tc.plaintext) {
				t.Fatalf("reference Open recovered wrong plaintext")
			}

			recoveredByUs, err := Decrypt(key, nonce, theirs, tc.aad)
			if err != nil {
				t.Fatalf("our Decrypt rejected the reference ciphertext: %v", err)
			}
			if !bytes.Equal(recoveredByUs, tc.plaintext) {
				t.Fatalf("our Decrypt recovered wrong plaintext")
			}
		})
	}
}
