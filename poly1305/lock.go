package poly1305

import (
	"log"
	"unsafe"

	"github.com/streamforge/chachapoly/secure"
)

// rBytes, sBytes and accBytes view the individual limb arrays of m as
// byte slices for page-locking purposes; kept separate rather than
// spanning the struct, since Go makes no layout guarantee across fields.
func rBytes(m *MAC) []byte   { return unsafe.Slice((*byte)(unsafe.Pointer(&m.r[0])), len(m.r)*8) }
func sBytes(m *MAC) []byte   { return unsafe.Slice((*byte)(unsafe.Pointer(&m.s[0])), len(m.s)*8) }
func accBytes(m *MAC) []byte { return unsafe.Slice((*byte)(unsafe.Pointer(&m.acc[0])), len(m.acc)*8) }

func lockMAC(m *MAC) error {
	if err := secure.Lock(rBytes(m)); err != nil {
		return err
	}
	if err := secure.Lock(sBytes(m)); err != nil {
		return err
	}
	return secure.Lock(accBytes(m))
}

func unlockMAC(m *MAC) error {
	if err := secure.Unlock(rBytes(m)); err != nil {
		return err
	}
	if err := secure.Unlock(sBytes(m)); err != nil {
		return err
	}
	return secure.Unlock(accBytes(m))
}

func logLockFailure(err error) {
	log.Printf("poly1305: page lock unavailable: %v", err)
}
