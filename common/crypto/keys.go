package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const SeedSize = ed25519.SeedSize

func GenerateKeyPair() (ed25519.PrivateKey, ed25519.PublicKey, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	return privateKey, publicKey, nil
}

// KeyFromSeed expands a 32-byte seed into an ed25519 private key
func KeyFromSeed(seed []byte) (ed25519.PrivateKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("invalid seed length: %d (need %d bytes)", len(seed), SeedSize)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// DeriveSeed is a keyed blake2b-256 over parts joined by "-".
// The domain is the blake2b key, so seeds of different purposes never collide.
func DeriveSeed(domain string, parts ...string) ([SeedSize]byte, error) {
	var seed [SeedSize]byte

	h, err := blake2b.New256([]byte(domain))
	if err != nil {
		return seed, fmt.Errorf("failed to init blake2b: %w", err)
	}
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte("-"))
		}
		h.Write([]byte(p))
	}
	copy(seed[:], h.Sum(nil))
	return seed, nil
}

// NewSalt draws a random 64-bit salt
func NewSalt() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read random salt: %w", err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// PrivateKeyToBytes returns the 32-byte seed of the key
func PrivateKeyToBytes(privateKey ed25519.PrivateKey) []byte {
	if privateKey == nil {
		return nil
	}
	return privateKey.Seed()
}

func BytesToPrivateKey(data []byte) (ed25519.PrivateKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("private key bytes is empty")
	}
	return KeyFromSeed(data)
}
