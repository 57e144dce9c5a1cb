package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"
)

type Address [32]byte // blake2b-256 of flag || public key material
type ObjectID = Address
type Hash [32]byte

// Signature is a base64 serialized signature: flag || payload
type Signature string

// Signature scheme flags (first byte of a serialized signature)
const (
	SchemeEd25519 byte = 0x00
	SchemeZkLogin byte = 0x05
)

// MarshalText renders the address as 0x + 64 lowercase hex digits
func (a Address) MarshalText() ([]byte, error) {
	return []byte("0x" + hex.EncodeToString(a[:])), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(string(text), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid address hex: %w", err)
	}
	if len(b) != len(a) {
		return fmt.Errorf("invalid address length: %d (need %d bytes)", len(b), len(a))
	}
	copy(a[:], b)
	return nil
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}
