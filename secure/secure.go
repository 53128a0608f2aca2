// Package secure provides the secret-hygiene primitives shared by the
// chacha20, poly1305 and chacha20poly1305 packages: best-effort page
// locking and a wipe that the compiler cannot turn into a dead store.
package secure

import (
	"errors"
	"runtime"
)

// ErrLockUnsupported is returned by Lock and Unlock on platforms with no
// page-locking primitive wired in. Where the primitive exists, a failure
// (for example when the calling process lacks the rlimit to use it) is
// returned as the underlying system error instead. Callers must treat
// either as a warning, not a fatal condition: log it and carry on with
// unlocked memory.
var ErrLockUnsupported = errors.New("secure: page locking not supported on this platform")

// Zero overwrites every byte of b with zero. It is used on destruction of
// any structure holding key material, clamped Poly1305 limbs, or residual
// cipher state, and must run even though the caller never reads b again -
// runtime.KeepAlive keeps the compiler from proving the loop dead and
// removing it.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ZeroUint32 overwrites every word of s with zero, for state arrays kept as
// [N]uint32 rather than bytes (the ChaCha20 block state).
func ZeroUint32(s []uint32) {
	for i := range s {
		s[i] = 0
	}
	runtime.KeepAlive(s)
}

// ZeroUint64 overwrites every word of s with zero, for Poly1305's limb and
// accumulator arrays.
func ZeroUint64(s []uint64) {
	for i := range s {
		s[i] = 0
	}
	runtime.KeepAlive(s)
}
