//go:build linux || darwin || freebsd

package secure

import "golang.org/x/sys/unix"

// Lock pins the pages backing b in physical memory, best-effort. Failure is
// reported to the caller but is never fatal - see ErrLockUnsupported and the
// package doc.
func Lock(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Mlock(b); err != nil {
		return err
	}
	return nil
}

// Unlock reverses Lock. It is idempotent from the caller's point of view:
// unlocking memory that was never locked, or already unlocked, is not an
// error worth surfacing.
func Unlock(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Munlock(b); err != nil {
		return err
	}
	return nil
}
