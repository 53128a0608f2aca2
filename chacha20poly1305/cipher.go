package chacha20poly1305

import "crypto/cipher"

// aead adapts Encrypt/Decrypt to the standard library's crypto/cipher.AEAD
// interface, the same shape used across the corpus's own AEAD wrappers
// (chacha20poly1305, SIV-AEAD) so this package drops into code written
// against crypto/cipher without callers needing to know the difference.
type aead struct {
	key []byte
}

// New returns a crypto/cipher.AEAD backed by AEAD_CHACHA20_POLY1305 under
// the given 32-byte key.
func New(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return &aead{key: k}, nil
}

func (*aead) NonceSize() int { return NonceSize }

func (*aead) Overhead() int { return Overhead }

// Seal encrypts and authenticates plaintext, appends the result to dst,
// and returns the updated slice, matching crypto/cipher.AEAD.Seal.
// It panics on a wrong-size nonce, as the stdlib AEADs do - Seal has no
// error return to report it through.
func (a *aead) Seal(dst, nonce, plaintext, additionalData []byte) []byte {
	if len(nonce) != NonceSize {
		panic(ErrInvalidNonce)
	}
	sealed, err := Encrypt(a.key, nonce, plaintext, additionalData)
	if err != nil {
		panic(err)
	}
	return append(dst, sealed...)
}

// Open authenticates and decrypts ciphertext, appending the plaintext to
// dst, matching crypto/cipher.AEAD.Open. A wrong-size nonce is reported as
// ErrInvalidNonce rather than a panic.
func (a *aead) Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonce
	}
	plaintext, err := Decrypt(a.key, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, err
	}
	return append(dst, plaintext...), nil
}
