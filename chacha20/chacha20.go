// Package chacha20 implements the ChaCha20 stream cipher as specified in
// RFC 8439: a 16-word state, the 20-round block function, and a keystream
// XOR pipeline over arbitrary-length buffers.
package chacha20

import (
	"encoding/binary"
	"errors"
	"math"
	"math/bits"

	"github.com/streamforge/chachapoly/secure"
)

const (
	// KeySize is the ChaCha20 key size in bytes.
	KeySize = 32

	// NonceSize is the ChaCha20 nonce size in bytes, per RFC 8439's IETF
	// variant (a 32-bit counter plus a 96-bit nonce).
	NonceSize = 12

	// BlockSize is the size in bytes of one ChaCha20 keystream block.
	BlockSize = 64

	// stateSize is the size of the ChaCha20 state in 32-bit words.
	stateSize = 16

	rounds = 20
)

// the four words of "expand 32-byte k", little-endian - the first four
// words of the state, never mutated after construction.
const (
	sigma0 = uint32(0x61707865)
	sigma1 = uint32(0x3320646e)
	sigma2 = uint32(0x79622d32)
	sigma3 = uint32(0x6b206574)
)

var (
	// ErrInvalidKey is returned by New when key is not KeySize bytes.
	ErrInvalidKey = errors.New("chacha20: key must be 32 bytes")

	// ErrInvalidNonce is returned by New when nonce is not NonceSize bytes.
	ErrInvalidNonce = errors.New("chacha20: nonce must be 12 bytes")

	// ErrInvalidArgument is returned by Process when called with an empty
	// buffer.
	ErrInvalidArgument = errors.New("chacha20: input must not be empty")

	// ErrCounterOverflow is returned by Process when encrypting the
	// requested length would advance the 32-bit block counter past its
	// range (more than 2^32-1 blocks, 256 GiB). Rejected rather than
	// silently wrapped, to avoid a keystream collision with the start of
	// the message.
	ErrCounterOverflow = errors.New("chacha20: message exceeds the 2^32 block counter range")
)

// Cipher is a single ChaCha20 instance bound to one (key, nonce) pair. It is
// not safe for concurrent use: Process mutates the block counter.
type Cipher struct {
	// state is the 16-word block: sigma0..3, key[0:8], counter, nonce[0:3].
	// The original C++ source aligns this to 64 bytes for unaligned-free
	// SIMD loads; Go gives [16]uint32 natural 4-byte alignment, which is
	// all the portable block function below needs.
	state [stateSize]uint32
}

// New constructs a Cipher from an 8-word key and a 3-word (96-bit) nonce.
// The block counter starts at zero; the backing memory is page-locked,
// best-effort.
func New(key, nonce []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonce
	}

	c := &Cipher{}
	c.state[0] = sigma0
	c.state[1] = sigma1
	c.state[2] = sigma2
	c.state[3] = sigma3
	c.state[4] = binary.LittleEndian.Uint32(key[0:4])
	c.state[5] = binary.LittleEndian.Uint32(key[4:8])
	c.state[6] = binary.LittleEndian.Uint32(key[8:12])
	c.state[7] = binary.LittleEndian.Uint32(key[12:16])
	c.state[8] = binary.LittleEndian.Uint32(key[16:20])
	c.state[9] = binary.LittleEndian.Uint32(key[20:24])
	c.state[10] = binary.LittleEndian.Uint32(key[24:28])
	c.state[11] = binary.LittleEndian.Uint32(key[28:32])
	c.state[12] = 0
	c.state[13] = binary.LittleEndian.Uint32(nonce[0:4])
	c.state[14] = binary.LittleEndian.Uint32(nonce[4:8])
	c.state[15] = binary.LittleEndian.Uint32(nonce[8:12])

	if err := lockState(c); err != nil {
		logLockFailure(err)
	}

	return c, nil
}

// SetCounter overwrites the block counter (state word 12). Unvalidated:
// callers needing deterministic positioning within a stream call this
// explicitly between Process calls.
func (c *Cipher) SetCounter(counter uint32) {
	c.state[12] = counter
}

// Process XORs successive 64-byte keystream blocks into src, writing the
// result to dst, and advances the block counter by the number of blocks
// consumed (a final partial block advances it by one). dst and src must
// either be the exact same slice (in-place XOR) or not overlap at all; dst
// must be at least len(src) bytes. Consecutive calls continue from the
// cipher's current counter.
func (c *Cipher) Process(dst, src []byte) error {
	if len(src) == 0 || len(dst) < len(src) {
		return ErrInvalidArgument
	}

	nrBlocks := (len(src) + BlockSize - 1) / BlockSize
	if uint64(c.state[12])+uint64(nrBlocks) > math.MaxUint32+1 {
		return ErrCounterOverflow
	}

	var keystream [BlockSize]byte
	offset := 0
	for offset < len(src) {
		toCopy := len(src) - offset
		if toCopy > BlockSize {
			toCopy = BlockSize
		}
		c.block(keystream[:], toCopy)
		xorBytes(dst[offset:offset+toCopy], src[offset:offset+toCopy], keystream[:toCopy])
		offset += toCopy
	}
	return nil
}

// xorBytes XORs a against b into dst, word at a time where possible. This
// is the portable equivalent of the original source's cascading
// 256/128/64/32-bit SIMD chunk functions: process the widest aligned unit
// available, then fall back narrower for the tail.
func xorBytes(dst, a, b []byte) {
	n := len(a)
	i := 0
	for ; i+8 <= n; i += 8 {
		binary.LittleEndian.PutUint64(dst[i:i+8], binary.LittleEndian.Uint64(a[i:i+8])^binary.LittleEndian.Uint64(b[i:i+8]))
	}
	for ; i+4 <= n; i += 4 {
		binary.LittleEndian.PutUint32(dst[i:i+4], binary.LittleEndian.Uint32(a[i:i+4])^binary.LittleEndian.Uint32(b[i:i+4]))
	}
	for ; i < n; i++ {
		dst[i] = a[i] ^ b[i]
	}
}

// block runs the 20-round ChaCha20 block function over the current state
// and writes the first toCopy bytes (toCopy <= BlockSize) of the resulting
// keystream block to out, then advances the counter by one.
func (c *Cipher) block(out []byte, toCopy int) {
	x0, x1, x2, x3 := c.state[0], c.state[1], c.state[2], c.state[3]
	x4, x5, x6, x7 := c.state[4], c.state[5], c.state[6], c.state[7]
	x8, x9, x10, x11 := c.state[8], c.state[9], c.state[10], c.state[11]
	x12, x13, x14, x15 := c.state[12], c.state[13], c.state[14], c.state[15]

	for i := 0; i < rounds; i += 2 {
		// column round
		x0, x4, x8, x12 = quarterRound(x0, x4, x8, x12)
		x1, x5, x9, x13 = quarterRound(x1, x5, x9, x13)
		x2, x6, x10, x14 = quarterRound(x2, x6, x10, x14)
		x3, x7, x11, x15 = quarterRound(x3, x7, x11, x15)
		// diagonal round
		x0, x5, x10, x15 = quarterRound(x0, x5, x10, x15)
		x1, x6, x11, x12 = quarterRound(x1, x6, x11, x12)
		x2, x7, x8, x13 = quarterRound(x2, x7, x8, x13)
		x3, x4, x9, x14 = quarterRound(x3, x4, x9, x14)
	}

	var block [BlockSize]byte
	binary.LittleEndian.PutUint32(block[0:4], x0+c.state[0])
	binary.LittleEndian.PutUint32(block[4:8], x1+c.state[1])
	binary.LittleEndian.PutUint32(block[8:12], x2+c.state[2])
	binary.LittleEndian.PutUint32(block[12:16], x3+c.state[3])
	binary.LittleEndian.PutUint32(block[16:20], x4+c.state[4])
	binary.LittleEndian.PutUint32(block[20:24], x5+c.state[5])
	binary.LittleEndian.PutUint32(block[24:28], x6+c.state[6])
	binary.LittleEndian.PutUint32(block[28:32], x7+c.state[7])
	binary.LittleEndian.PutUint32(block[32:36], x8+c.state[8])
	binary.LittleEndian.PutUint32(block[36:40], x9+c.state[9])
	binary.LittleEndian.PutUint32(block[40:44], x10+c.state[10])
	binary.LittleEndian.PutUint32(block[44:48], x11+c.state[11])
	binary.LittleEndian.PutUint32(block[48:52], x12+c.state[12])
	binary.LittleEndian.PutUint32(block[52:56], x13+c.state[13])
	binary.LittleEndian.PutUint32(block[56:60], x14+c.state[14])
	binary.LittleEndian.PutUint32(block[60:64], x15+c.state[15])

	copy(out[:toCopy], block[:toCopy])
	c.state[12]++
}

// quarterRound is the four-operation ARX primitive at the heart of
// ChaCha20, applied to one index quadruple.
func quarterRound(a, b, c, d uint32) (uint32, uint32, uint32, uint32) {
	a += b
	d ^= a
	d = bits.RotateLeft32(d, 16)
	c += d
	b ^= c
	b = bits.RotateLeft32(b, 12)
	a += b
	d ^= a
	d = bits.RotateLeft32(d, 8)
	c += d
	b ^= c
	b = bits.RotateLeft32(b, 7)
	return a, b, c, d
}

// Destroy wipes the cipher's state and releases its page lock. A Cipher
// must not be used again after Destroy returns.
func (c *Cipher) Destroy() {
	secure.ZeroUint32(c.state[:])
	if err := secure.Unlock(stateBytes(c)); err != nil && err != secure.ErrLockUnsupported {
		logLockFailure(err)
	}
}
