package crypto

import (
	"crypto/ed25519"
	"encoding/binary"

	prt "github.com/abcfe/abcfe-wallet/protocol"
	"golang.org/x/crypto/blake2b"
)

const addressSeedDomain = "abcfe/zklogin/address-seed/v1"

// PublicKeyToAddress blake2b-256(flag || public key)
func PublicKeyToAddress(publicKey ed25519.PublicKey) prt.Address {
	buf := make([]byte, 0, 1+len(publicKey))
	buf = append(buf, prt.SchemeEd25519)
	buf = append(buf, publicKey...)
	return prt.Address(blake2b.Sum256(buf))
}

// AddressSeed binds the claim fields and the salt. It is public once embedded
// in a proof; the salt itself never leaves the wallet.
func AddressSeed(salt uint64, subject, audience string) prt.Hash {
	h, _ := blake2b.New256([]byte(addressSeedDomain))

	var saltBytes [8]byte
	binary.BigEndian.PutUint64(saltBytes[:], salt)
	h.Write(saltBytes[:])
	writeLenPrefixed(h, subject)
	writeLenPrefixed(h, audience)

	var seed prt.Hash
	copy(seed[:], h.Sum(nil))
	return seed
}

// ZkLoginAddress blake2b-256(flag || len(iss) || iss || addressSeed)
func ZkLoginAddress(issuer string, addressSeed prt.Hash) prt.Address {
	buf := make([]byte, 0, 2+len(issuer)+len(addressSeed))
	buf = append(buf, prt.SchemeZkLogin, byte(len(issuer)))
	buf = append(buf, issuer...)
	buf = append(buf, addressSeed[:]...)
	return prt.Address(blake2b.Sum256(buf))
}

type byteWriter interface {
	Write(p []byte) (int, error)
}

func writeLenPrefixed(w byteWriter, s string) {
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(s)))
	w.Write(l[:])
	w.Write([]byte(s))
}
