// Package poly1305 implements the Poly1305 one-time authenticator as
// specified in RFC 8439: messages are absorbed in 16-byte blocks into a
// 130-bit accumulator held as five 26-bit limbs, multiplied by a clamped
// key-derived value r after each block, and the running accumulator is
// added to a secret pad s to produce the final 16-byte tag.
package poly1305

import (
	"encoding/binary"
	"errors"

	"github.com/streamforge/chachapoly/secure"
)

const (
	// KeySize is the length in bytes of the one-time key consumed by New.
	// The first 16 bytes become r (clamped), the last 16 become s.
	KeySize = 32

	// TagSize is the length in bytes of a Poly1305 tag.
	TagSize = 16

	blockSize = 16
	mask26    = uint64(0x3FFFFFF)
)

var (
	ErrInvalidKey   = errors.New("poly1305: key must be 32 bytes")
	ErrInvalidTag   = errors.New("poly1305: tag buffer must be 16 bytes")
	ErrMACFinalized = errors.New("poly1305: MAC already finalized")
)

// MAC accumulates a message under a single-use key and produces one tag.
// Per RFC 8439 §2.5, a MAC value must never be reused across messages; New
// must be called again with a fresh key for every message to authenticate.
type MAC struct {
	r   [5]uint64
	s   [2]uint64
	acc [5]uint64

	partial    [blockSize]byte
	partialLen int

	finalized bool
}

// New derives r and s from a 32-byte one-time key and returns a MAC ready
// to absorb a single message.
func New(oneTimeKey []byte) (*MAC, error) {
	if len(oneTimeKey) != KeySize {
		return nil, ErrInvalidKey
	}

	m := &MAC{}

	var clamped [16]byte
	copy(clamped[:], oneTimeKey[0:16])
	clamped[3] &= 15
	clamped[7] &= 15
	clamped[11] &= 15
	clamped[15] &= 15
	clamped[4] &= 252
	clamped[8] &= 252
	clamped[12] &= 252

	b0 := binary.LittleEndian.Uint32(clamped[0:4]) & 0x0FFFFFFF
	b1 := binary.LittleEndian.Uint32(clamped[4:8]) & 0x0FFFFFFC
	b2 := binary.LittleEndian.Uint32(clamped[8:12]) & 0x0FFFFFFC
	b3 := binary.LittleEndian.Uint32(clamped[12:16]) & 0x0FFFFFFC

	m.r[0] = uint64(b0) & mask26
	m.r[1] = ((uint64(b0) >> 26) | (uint64(b1) << 6)) & mask26
	m.r[2] = ((uint64(b1) >> 20) | (uint64(b2) << 12)) & mask26
	m.r[3] = ((uint64(b2) >> 14) | (uint64(b3) << 18)) & mask26
	m.r[4] = (uint64(b3) >> 8) & mask26

	m.s[0] = binary.LittleEndian.Uint64(oneTimeKey[16:24])
	m.s[1] = binary.LittleEndian.Uint64(oneTimeKey[24:32])

	if err := lockMAC(m); err != nil {
		logLockFailure(err)
	}

	return m, nil
}

// blockLimbs decomposes a zero-padded 16-byte block into five 26-bit limbs
// and ORs in the implicit high bit that marks the byte immediately past
// the real message data, per RFC 8439 §2.5.1.
func blockLimbs(block [blockSize]byte, length int) [5]uint64 {
	low := binary.LittleEndian.Uint64(block[0:8])
	high := binary.LittleEndian.Uint64(block[8:16])

	var limbs [5]uint64
	limbs[0] = low & mask26
	limbs[1] = (low >> 26) & mask26
	limbs[2] = ((low >> 52) | (high << 12)) & mask26
	limbs[3] = (high >> 14) & mask26
	limbs[4] = high >> 40

	bitPos := length * 8
	limbs[bitPos/26] |= uint64(1) << uint(bitPos%26)
	return limbs
}

// addLimbs adds b into a in place, carrying 26-bit limbs and folding the
// final carry back in multiplied by 5 (since 2^130 ≡ 5 mod p).
func addLimbs(a, b *[5]uint64) {
	var carry uint64
	for i := 0; i < 5; i++ {
		a[i] += b[i] + carry
		carry = a[i] >> 26
		a[i] &= mask26
	}
	a[0] += carry * 5
	carry = a[0] >> 26
	a[0] &= mask26
	a[1] += carry
}

// mulModP computes acc = acc*r mod (2^130 - 5) using the standard
// schoolbook multiply with 5x-folding of the terms that land in the top
// limb, since 2^130 ≡ 5 mod p.
func mulModP(r, acc *[5]uint64) {
	a0, a1, a2, a3, a4 := acc[0], acc[1], acc[2], acc[3], acc[4]
	r0, r1, r2, r3, r4 := r[0], r[1], r[2], r[3], r[4]

	r1_5 := r1 * 5
	r2_5 := r2 * 5
	r3_5 := r3 * 5
	r4_5 := r4 * 5

	t0 := a0*r0 + a1*r4_5 + a2*r3_5 + a3*r2_5 + a4*r1_5
	t1 := a0*r1 + a1*r0 + a2*r4_5 + a3*r3_5 + a4*r2_5
	t2 := a0*r2 + a1*r1 + a2*r0 + a3*r4_5 + a4*r3_5
	t3 := a0*r3 + a1*r2 + a2*r1 + a3*r0 + a4*r4_5
	t4 := a0*r4 + a1*r3 + a2*r2 + a3*r1 + a4*r0

	var c uint64
	c = t0 >> 26
	acc[0] = t0 & mask26
	t1 += c
	c = t1 >> 26
	acc[1] = t1 & mask26
	t2 += c
	c = t2 >> 26
	acc[2] = t2 & mask26
	t3 += c
	c = t3 >> 26
	acc[3] = t3 & mask26
	t4 += c
	c = t4 >> 26
	acc[4] = t4 & mask26

	acc[0] += c * 5
	c = acc[0] >> 26
	acc[0] &= mask26
	acc[1] += c
}

func (m *MAC) processBlock(block [blockSize]byte, length int) {
	limbs := blockLimbs(block, length)
	addLimbs(&m.acc, &limbs)
	mulModP(&m.r, &m.acc)
}

// Update absorbs more message bytes. It may be called any number of times
// before Final; streaming arbitrarily chunked input must produce the same
// tag as a single call with the concatenation of all chunks.
func (m *MAC) Update(data []byte) error {
	if m.finalized {
		return ErrMACFinalized
	}

	offset := 0
	if m.partialLen > 0 {
		take := blockSize - m.partialLen
		if take > len(data) {
			take = len(data)
		}
		copy(m.partial[m.partialLen:], data[:take])
		m.partialLen += take
		offset += take

		if m.partialLen == blockSize {
			m.processBlock(m.partial, blockSize)
			m.partialLen = 0
		}
	}

	for offset+blockSize <= len(data) {
		var block [blockSize]byte
		copy(block[:], data[offset:offset+blockSize])
		m.processBlock(block, blockSize)
		offset += blockSize
	}

	if offset < len(data) {
		m.partialLen = len(data) - offset
		copy(m.partial[:], data[offset:])
	}

	return nil
}

// Final reduces the accumulator mod 2^130-5, folds in any left-over
// partial block, adds the secret pad s mod 2^128, writes the 16-byte tag
// to tag, and destroys the instance: r, s, acc and the partial-block
// buffer all read back as zero once Final returns, and the MAC may not be
// extended or re-finalized. Subsequent calls to Update or Final return
// ErrMACFinalized.
func (m *MAC) Final(tag []byte) error {
	if m.finalized {
		return ErrMACFinalized
	}
	if len(tag) != TagSize {
		return ErrInvalidTag
	}

	if m.partialLen > 0 {
		var block [blockSize]byte
		copy(block[:], m.partial[:m.partialLen])
		m.processBlock(block, m.partialLen)
		m.partialLen = 0
	}
	m.finalized = true

	low, high := m.reduce()

	var carry uint64
	low, carry = addWithCarry(low, m.s[0])
	high = high + m.s[1] + carry

	binary.LittleEndian.PutUint64(tag[0:8], low)
	binary.LittleEndian.PutUint64(tag[8:16], high)

	m.Destroy()
	return nil
}

// reduce fully reduces the accumulator mod p = 2^130-5 and serializes it
// as two little-endian 64-bit words, selecting between acc and acc-p at
// the end without a data-dependent branch.
func (m *MAC) reduce() (low, high uint64) {
	var c uint64
	for i := 0; i < 5; i++ {
		m.acc[i] += c
		c = m.acc[i] >> 26
		m.acc[i] &= mask26
	}
	m.acc[0] += c * 5
	c = m.acc[0] >> 26
	m.acc[0] &= mask26
	m.acc[1] += c

	var g [5]uint64
	g[0] = m.acc[0] + 5
	c = g[0] >> 26
	g[0] &= mask26
	g[1] = m.acc[1] + c
	c = g[1] >> 26
	g[1] &= mask26
	g[2] = m.acc[2] + c
	c = g[2] >> 26
	g[2] &= mask26
	g[3] = m.acc[3] + c
	c = g[3] >> 26
	g[3] &= mask26
	g[4] = m.acc[4] + c - (1 << 26)

	// g[4] underflows (top bit set) exactly when acc < p; select mask is
	// all-ones when acc >= p, so g replaces acc in that case.
	selectMask := (g[4] >> 63) - 1

	h0 := (m.acc[0] &^ selectMask) | (g[0] & selectMask)
	h1 := (m.acc[1] &^ selectMask) | (g[1] & selectMask)
	h2 := (m.acc[2] &^ selectMask) | (g[2] & selectMask)
	h3 := (m.acc[3] &^ selectMask) | (g[3] & selectMask)
	h4 := (m.acc[4] &^ selectMask) | (g[4] & selectMask)

	low = h0 | (h1 << 26) | (h2 << 52)
	high = (h2 >> 12) | (h3 << 14) | (h4 << 40)
	return low, high
}

func addWithCarry(a, b uint64) (sum, carry uint64) {
	sum = a + b
	if sum < a {
		carry = 1
	}
	return sum, carry
}

// Destroy wipes the key material and accumulator so they do not linger in
// memory. Final calls this itself once it has produced a tag; Destroy is
// exposed separately for callers that abandon a MAC before ever calling
// Final. Safe to call more than once.
func (m *MAC) Destroy() {
	secure.ZeroUint64(m.r[:])
	secure.ZeroUint64(m.s[:])
	secure.ZeroUint64(m.acc[:])
	secure.Zero(m.partial[:])
	if err := unlockMAC(m); err != nil && err != secure.ErrLockUnsupported {
		logLockFailure(err)
	}
}

// Sum is a convenience wrapper that authenticates msg under key in one
// call and returns the 16-byte tag.
func Sum(key, msg []byte) ([]byte, error) {
	m, err := New(key)
	if err != nil {
		return nil, err
	}
	defer m.Destroy()

	if err := m.Update(msg); err != nil {
		return nil, err
	}
	tag := make([]byte, TagSize)
	if err := m.Final(tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// Verify recomputes the tag for msg under key and reports whether it
// matches want, using a constant-time comparison.
func Verify(want, key, msg []byte) (bool, error) {
	got, err := Sum(key, msg)
	if err != nil {
		return false, err
	}
	return Equal(got, want), nil
}

// Equal reports whether a and b are the same tag, comparing in constant
// time to avoid leaking a mismatch position through timing.
func Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
