package chacha20

import (
	"bytes"
	"testing"

	"github.com/streamforge/chachapoly/internal/vectors"
)

func TestBlockVectors(t *testing.T) {
	blocks, _ := vectors.ChaCha20()
	for _, v := range blocks {
		t.Run(v.Name, func(t *testing.T) {
			key := vectors.Bytes(v.Key)
			nonce := vectors.Bytes(v.Nonce)
			want := vectors.Bytes(v.Keystream)

			c, err := New(key, nonce)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			c.SetCounter(v.Counter)

			zero := make([]byte, BlockSize)
			got := make([]byte, BlockSize)
			if err := c.Process(got, zero); err != nil {
				t.Fatalf("Process: %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Fatalf("keystream mismatch:\n got %x\nwant %x", got, want)
			}
		})
	}
}

func TestEncryptVectors(t *testing.T) {
	_, encrypts := vectors.ChaCha20()
	for _, v := range encrypts {
		t.Run(v.Name, func(t *testing.T) {
			key := vectors.Bytes(v.Key)
			nonce := vectors.Bytes(v.Nonce)
			want := vectors.Bytes(v.Ciphertext)
			plaintext := []byte(v.PlaintextASCII)

			c, err := New(key, nonce)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			c.SetCounter(v.Counter)

			got := make([]byte, len(plaintext))
			if err := c.Process(got, plaintext); err != nil {
				t.Fatalf("Process: %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Fatalf("ciphertext mismatch:\n got %x\nwant %x", got, want)
			}
		})
	}
}

func testKeyNonce() ([]byte, []byte) {
	key := make([]byte, KeySize)
	nonce := make([]byte, NonceSize)
	for i := range key {
		key[i] = byte(i)
	}
	for i := range nonce {
		nonce[i] = byte(0x40 + i)
	}
	return key, nonce
}

func TestNewRejectsBadLengths(t *testing.T) {
	key, nonce := testKeyNonce()
	if _, err := New(key[:31], nonce); err != ErrInvalidKey {
		t.Fatalf("short key: got %v, want ErrInvalidKey", err)
	}
	if _, err := New(nil, nonce); err != ErrInvalidKey {
		t.Fatalf("nil key: got %v, want ErrInvalidKey", err)
	}
	if _, err := New(key, nonce[:11]); err != ErrInvalidNonce {
		t.Fatalf("short nonce: got %v, want ErrInvalidNonce", err)
	}
	if _, err := New(key, nil); err != ErrInvalidNonce {
		t.Fatalf("nil nonce: got %v, want ErrInvalidNonce", err)
	}
}

func TestProcessRejectsEmpty(t *testing.T) {
	key, nonce := testKeyNonce()
	c, err := New(key, nonce)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Process(nil, nil); err != ErrInvalidArgument {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
	if err := c.Process([]byte{}, []byte{}); err != ErrInvalidArgument {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

// Involution: encrypting a message and then encrypting the result again
// with the counter reset recovers the original message, since XOR with
// the same keystream twice is the identity.
func TestProcessIsInvolution(t *testing.T) {
	key, nonce := testKeyNonce()
	for _, length := range []int{0, 1, 31, 32, 33, 63, 64, 65, 127, 200, 4096} {
		if length == 0 {
			continue
		}
		t.Run(lengthName(length), func(t *testing.T) {
			plaintext := make([]byte, length)
			for i := range plaintext {
				plaintext[i] = byte(i * 7)
			}

			c, err := New(key, nonce)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			ciphertext := make([]byte, length)
			if err := c.Process(ciphertext, plaintext); err != nil {
				t.Fatalf("Process (encrypt): %v", err)
			}

			c.SetCounter(0)
			recovered := make([]byte, length)
			if err := c.Process(recovered, ciphertext); err != nil {
				t.Fatalf("Process (decrypt): %v", err)
			}

			if !bytes.Equal(recovered, plaintext) {
				t.Fatalf("round trip mismatch at length %d", length)
			}
		})
	}
}

// In-place XOR (dst == src) must match out-of-place XOR byte-for-byte.
func TestProcessInPlace(t *testing.T) {
	key, nonce := testKeyNonce()
	plaintext := bytes.Repeat([]byte("in-place chacha20 "), 10)

	c1, _ := New(key, nonce)
	outOfPlace := make([]byte, len(plaintext))
	if err := c1.Process(outOfPlace, plaintext); err != nil {
		t.Fatalf("Process: %v", err)
	}

	c2, _ := New(key, nonce)
	inPlace := append([]byte(nil), plaintext...)
	if err := c2.Process(inPlace, inPlace); err != nil {
		t.Fatalf("Process in-place: %v", err)
	}

	if !bytes.Equal(inPlace, outOfPlace) {
		t.Fatalf("in-place result diverged from out-of-place result")
	}
}

func TestSetCounterOverridesPosition(t *testing.T) {
	key, nonce := testKeyNonce()
	c, _ := New(key, nonce)

	zero := make([]byte, BlockSize)
	block1 := make([]byte, BlockSize)
	c.SetCounter(5)
	if err := c.Process(block1, zero); err != nil {
		t.Fatalf("Process: %v", err)
	}

	c.SetCounter(5)
	block2 := make([]byte, BlockSize)
	if err := c.Process(block2, zero); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !bytes.Equal(block1, block2) {
		t.Fatalf("resetting the counter did not reproduce the same block")
	}
}

func TestCounterOverflowRejected(t *testing.T) {
	key, nonce := testKeyNonce()
	c, _ := New(key, nonce)
	c.SetCounter(0xFFFFFFFF)

	// Two blocks' worth of input starting at the last valid counter value
	// would need counter 0xFFFFFFFF and then wrap to 0; must be rejected.
	buf := make([]byte, BlockSize*2)
	if err := c.Process(buf, buf); err != ErrCounterOverflow {
		t.Fatalf("got %v, want ErrCounterOverflow", err)
	}
}

func TestDestroyWipesState(t *testing.T) {
	key, nonce := testKeyNonce()
	c, _ := New(key, nonce)
	c.Destroy()
	for i, w := range c.state {
		if w != 0 {
			t.Fatalf("state word %d not wiped: %#x", i, w)
		}
	}
}

func lengthName(n int) string {
	return "len_" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
