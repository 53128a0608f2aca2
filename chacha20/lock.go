package chacha20

import (
	"log"
	"unsafe"

	"github.com/streamforge/chachapoly/secure"
)

// stateBytes views a Cipher's state array as a byte slice for the benefit
// of the page-locking primitives, which operate on byte ranges. Go has no
// portable "lock this struct" operation, so the state array - the only
// field worth pinning - stands in for the whole instance.
func stateBytes(c *Cipher) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&c.state[0])), len(c.state)*4)
}

func lockState(c *Cipher) error {
	return secure.Lock(stateBytes(c))
}

// logLockFailure reports a best-effort page-lock failure: never fatal,
// never propagated as a hard error.
func logLockFailure(err error) {
	log.Printf("chacha20: page lock unavailable: %v", err)
}
