package chacha20

import (
	"log"

	"golang.org/x/sys/cpu"
)

// Debug reports the CPU features this build noticed at startup. The
// reference hardware-dispatch pattern in the corpus (vendored
// gitlab.com/yawning/chacha20.git) registers a SIMD block function per
// available feature; this package has only the portable implementation in
// block, so Debug exists as the hook such a backend would register into
// and otherwise reports what it found.
var Debug string

func init() {
	switch {
	case cpu.X86.HasAVX2:
		Debug = "amd64/avx2 detected, portable implementation in use"
	case cpu.X86.HasSSSE3:
		Debug = "amd64/ssse3 detected, portable implementation in use"
	case cpu.ARM64.HasASIMD:
		Debug = "arm64/asimd detected, portable implementation in use"
	default:
		Debug = "no accelerated implementation available, portable implementation in use"
	}
	log.Print("chacha20: " + Debug)
}
