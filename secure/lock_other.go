//go:build !(linux || darwin || freebsd)

package secure

// Lock is a no-op on platforms without a wired page-locking primitive.
func Lock(b []byte) error {
	return ErrLockUnsupported
}

// Unlock is a no-op on platforms without a wired page-locking primitive.
func Unlock(b []byte) error {
	return ErrLockUnsupported
}
