// Package vectors decodes the known-answer test fixtures used by the
// chacha20, poly1305 and chacha20poly1305 test suites from TOML, the same
// way piknik.go decodes its runtime configuration with
// github.com/BurntSushi/toml - the corpus's own idiom for "typed data from
// a text file" reused here for test fixtures instead of a config file.
package vectors

import (
	"embed"
	"encoding/hex"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed testdata/*.toml
var testdataFS embed.FS

// BlockVector is one ChaCha20 block-function known-answer vector.
type BlockVector struct {
	Name      string `toml:"name"`
	Key       string `toml:"key"`
	Nonce     string `toml:"nonce"`
	Counter   uint32 `toml:"counter"`
	Keystream string `toml:"keystream"`
}

// EncryptVector is one ChaCha20 whole-message encryption known-answer
// vector.
type EncryptVector struct {
	Name           string `toml:"name"`
	Key            string `toml:"key"`
	Nonce          string `toml:"nonce"`
	Counter        uint32 `toml:"counter"`
	PlaintextASCII string `toml:"plaintext_ascii"`
	Ciphertext     string `toml:"ciphertext"`
}

type chacha20Doc struct {
	Block   []BlockVector   `toml:"block"`
	Encrypt []EncryptVector `toml:"encrypt"`
}

// MACVector is one Poly1305 known-answer vector.
type MACVector struct {
	Name         string `toml:"name"`
	Key          string `toml:"key"`
	MessageASCII string `toml:"message_ascii"`
	Tag          string `toml:"tag"`
}

type poly1305Doc struct {
	MAC []MACVector `toml:"mac"`
}

// SealVector is one AEAD_CHACHA20_POLY1305 known-answer vector.
type SealVector struct {
	Name           string `toml:"name"`
	Key            string `toml:"key"`
	Nonce          string `toml:"nonce"`
	AAD            string `toml:"aad"`
	PlaintextASCII string `toml:"plaintext_ascii"`
	Ciphertext     string `toml:"ciphertext"`
	Tag            string `toml:"tag"`
}

// EmptyVector is an AEAD vector with no AAD and no plaintext - §8 "Empty
// AAD and empty plaintext" still requires a well-defined tag.
type EmptyVector struct {
	Name  string `toml:"name"`
	Key   string `toml:"key"`
	Nonce string `toml:"nonce"`
}

type aeadDoc struct {
	Seal  []SealVector  `toml:"seal"`
	Empty []EmptyVector `toml:"empty"`
}

func decode(name string, v interface{}) {
	data, err := testdataFS.ReadFile("testdata/" + name)
	if err != nil {
		panic(fmt.Sprintf("vectors: reading %s: %v", name, err))
	}
	if _, err := toml.Decode(string(data), v); err != nil {
		panic(fmt.Sprintf("vectors: decoding %s: %v", name, err))
	}
}

// ChaCha20 returns the ChaCha20 block-function and whole-message vectors.
func ChaCha20() (blocks []BlockVector, encrypts []EncryptVector) {
	var doc chacha20Doc
	decode("chacha20.toml", &doc)
	return doc.Block, doc.Encrypt
}

// Poly1305 returns the Poly1305 MAC vectors.
func Poly1305() []MACVector {
	var doc poly1305Doc
	decode("poly1305.toml", &doc)
	return doc.MAC
}

// AEAD returns the AEAD_CHACHA20_POLY1305 seal and empty-input vectors.
func AEAD() (seals []SealVector, empties []EmptyVector) {
	var doc aeadDoc
	decode("aead.toml", &doc)
	return doc.Seal, doc.Empty
}

// Bytes decodes a hex string fixture field, panicking on malformed test
// data - a broken fixture is a bug in the fixture, not a recoverable
// runtime condition.
func Bytes(h string) []byte {
	b, err := hex.DecodeString(h)
	if err != nil {
		panic(fmt.Sprintf("vectors: invalid hex %q: %v", h, err))
	}
	return b
}
