// Package chacha20poly1305 implements the AEAD_CHACHA20_POLY1305
// construction from RFC 8439 §2.8: a one-time Poly1305 key is derived
// from the first ChaCha20 keystream block, the message is encrypted
// starting at block counter 1, and the tag authenticates the associated
// data and ciphertext together with their lengths.
package chacha20poly1305

import (
	"encoding/binary"
	"errors"

	"github.com/streamforge/chachapoly/chacha20"
	"github.com/streamforge/chachapoly/poly1305"
	"github.com/streamforge/chachapoly/secure"
)

const (
	KeySize   = chacha20.KeySize
	NonceSize = chacha20.NonceSize
	Overhead  = poly1305.TagSize
)

var (
	ErrInvalidKey           = errors.New("chacha20poly1305: key must be 32 bytes")
	ErrInvalidNonce         = errors.New("chacha20poly1305: nonce must be 12 bytes")
	ErrAuthenticationFailed = errors.New("chacha20poly1305: message authentication failed")
)

// deriveMAC runs ChaCha20 at block counter 0 over 64 zero bytes and uses
// the resulting keystream block as the Poly1305 one-time key, per RFC
// 8439 §2.6. The cipher's counter is left at 1 on return, positioned for
// the data that follows.
func deriveMAC(c *chacha20.Cipher) (*poly1305.MAC, error) {
	c.SetCounter(0)
	var block [64]byte
	if err := c.Process(block[:], block[:]); err != nil {
		return nil, err
	}
	c.SetCounter(1)

	m, err := poly1305.New(block[:32])
	secure.Zero(block[:])
	return m, err
}

// absorbPadded feeds data into mac followed by however many zero bytes
// bring the total up to the next 16-byte boundary, per RFC 8439 §2.8 step
// 2.4 ("pad16"). The padding bytes are literal zero bytes run through the
// ordinary absorption path, not a synthetic marker block.
func absorbPadded(mac *poly1305.MAC, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := mac.Update(data); err != nil {
		return err
	}
	if rem := len(data) % 16; rem != 0 {
		var pad [16]byte
		return mac.Update(pad[:16-rem])
	}
	return nil
}

func lengthTrailer(aadLen, ctLen int) [16]byte {
	var trailer [16]byte
	binary.LittleEndian.PutUint64(trailer[0:8], uint64(aadLen))
	binary.LittleEndian.PutUint64(trailer[8:16], uint64(ctLen))
	return trailer
}

func checkKeyNonce(key, nonce []byte) error {
	if len(key) != KeySize {
		return ErrInvalidKey
	}
	if len(nonce) != NonceSize {
		return ErrInvalidNonce
	}
	return nil
}

// Encrypt seals plaintext under key and nonce, authenticating aad
// alongside it, and returns the ciphertext with the 16-byte tag appended.
// Encrypt allocates the output buffer itself so callers need not size it
// in advance.
func Encrypt(key, nonce, plaintext, aad []byte) ([]byte, error) {
	if err := checkKeyNonce(key, nonce); err != nil {
		return nil, err
	}

	c, err := chacha20.New(key, nonce)
	if err != nil {
		return nil, err
	}
	defer c.Destroy()

	mac, err := deriveMAC(c)
	if err != nil {
		return nil, err
	}
	defer mac.Destroy()

	out := make([]byte, len(plaintext)+Overhead)
	ciphertext := out[:len(plaintext)]
	if len(plaintext) > 0 {
		if err := c.Process(ciphertext, plaintext); err != nil {
			return nil, err
		}
	}

	if err := absorbPadded(mac, aad); err != nil {
		return nil, err
	}
	if err := absorbPadded(mac, ciphertext); err != nil {
		return nil, err
	}
	trailer := lengthTrailer(len(aad), len(plaintext))
	if err := mac.Update(trailer[:]); err != nil {
		return nil, err
	}

	if err := mac.Final(out[len(plaintext):]); err != nil {
		return nil, err
	}
	return out, nil
}

// Decrypt verifies the trailing tag of in (aad, ciphertext||tag) under
// key and nonce before decrypting, and returns the plaintext only on
// success. It never writes decrypted output for a message that fails
// authentication: verify, then decrypt, never the reverse.
func Decrypt(key, nonce, in, aad []byte) ([]byte, error) {
	if err := checkKeyNonce(key, nonce); err != nil {
		return nil, err
	}
	if len(in) < Overhead {
		return nil, ErrAuthenticationFailed
	}
	ciphertext := in[:len(in)-Overhead]
	receivedTag := in[len(in)-Overhead:]

	c, err := chacha20.New(key, nonce)
	if err != nil {
		return nil, err
	}
	defer c.Destroy()

	mac, err := deriveMAC(c)
	if err != nil {
		return nil, err
	}
	defer mac.Destroy()

	if err := absorbPadded(mac, aad); err != nil {
		return nil, err
	}
	if err := absorbPadded(mac, ciphertext); err != nil {
		return nil, err
	}
	trailer := lengthTrailer(len(aad), len(ciphertext))
	if err := mac.Update(trailer[:]); err != nil {
		return nil, err
	}

	var calculated [poly1305.TagSize]byte
	if err := mac.Final(calculated[:]); err != nil {
		return nil, err
	}
	if !poly1305.Equal(calculated[:], receivedTag) {
		return nil, ErrAuthenticationFailed
	}

	plaintext := make([]byte, len(ciphertext))
	if len(ciphertext) > 0 {
		if err := c.Process(plaintext, ciphertext); err != nil {
			return nil, err
		}
	}
	return plaintext, nil
}

// DecryptInPlace verifies and decrypts in (ciphertext||tag) into buf
// itself, overwriting the ciphertext bytes with plaintext and returning
// the plaintext-length slice of buf. buf must have at least Overhead
// trailing bytes beyond the ciphertext for the tag.
func DecryptInPlace(key, nonce, buf, aad []byte) ([]byte, error) {
	if err := checkKeyNonce(key, nonce); err != nil {
		return nil, err
	}
	if len(buf) < Overhead {
		return nil, ErrAuthenticationFailed
	}
	ciphertext := buf[:len(buf)-Overhead]
	receivedTag := buf[len(buf)-Overhead:]

	c, err := chacha20.New(key, nonce)
	if err != nil {
		return nil, err
	}
	defer c.Destroy()

	mac, err := deriveMAC(c)
	if err != nil {
		return nil, err
	}
	defer mac.Destroy()

	if err := absorbPadded(mac, aad); err != nil {
		return nil, err
	}
	if err := absorbPadded(mac, ciphertext); err != nil {
		return nil, err
	}
	trailer := lengthTrailer(len(aad), len(ciphertext))
	if err := mac.Update(trailer[:]); err != nil {
		return nil, err
	}

	var calculated [poly1305.TagSize]byte
	if err := mac.Final(calculated[:]); err != nil {
		return nil, err
	}
	if !poly1305.Equal(calculated[:], receivedTag) {
		return nil, ErrAuthenticationFailed
	}

	if len(ciphertext) > 0 {
		if err := c.Process(ciphertext, ciphertext); err != nil {
			return nil, err
		}
	}
	return ciphertext, nil
}
