package prover

import (
	"context"
	"crypto/ed25519"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/abcfe/abcfe-wallet/common/crypto"
	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/abcfe/abcfe-wallet/wallet"
	"golang.org/x/crypto/blake2b"
)

const commitmentDomain = "abcfe/prover/mock-commitment/v1"

// MockProver stands in for a zero knowledge proving service on devnet. Its
// "proof" is an unkeyed commitment over the public inputs, so Verify can check
// that the artifact and the ephemeral key belong together.
//
// The commitment has no secret. Anyone who has seen one composite signature
// learns the issuer and address seed and can build valid points for a key of
// their own, so this is devnet only and must not back a real verifier.
type MockProver struct{}

func New() *MockProver {
	return &MockProver{}
}

func (p *MockProver) Prove(ctx context.Context, req wallet.ProofRequest) (*prt.ProofArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Issuer == "" || req.Subject == "" || req.Audience == "" {
		return nil, fmt.Errorf("proof request is missing issuer, subject or audience")
	}
	if len(req.EphemeralPublicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid ephemeral public key length: %d", len(req.EphemeralPublicKey))
	}

	seed := crypto.AddressSeed(req.Salt, req.Subject, req.Audience)
	return &prt.ProofArtifact{
		Points:      points(seed, req.Issuer, req.EphemeralPublicKey, req.MaxEpoch),
		Issuer:      req.Issuer,
		AddressSeed: utils.HashToString(seed),
	}, nil
}

// Verify checks the artifact against the ephemeral key and maxEpoch it was
// issued for and returns the address the proof speaks for. It proves nothing
// about the login, see MockProver.
func Verify(proof prt.ProofArtifact, ephemeralPub ed25519.PublicKey, maxEpoch uint64) (prt.Address, error) {
	seed, err := utils.StringToHash(proof.AddressSeed)
	if err != nil {
		return prt.Address{}, fmt.Errorf("invalid address seed: %w", err)
	}

	want := points(seed, proof.Issuer, ephemeralPub, maxEpoch)
	if !equalPoints(want, proof.Points) {
		return prt.Address{}, fmt.Errorf("proof does not match ephemeral key and max epoch")
	}

	return crypto.ZkLoginAddress(proof.Issuer, seed), nil
}

func points(seed prt.Hash, issuer string, ephemeralPub ed25519.PublicKey, maxEpoch uint64) prt.ProofPoints {
	h, _ := blake2b.New256([]byte(commitmentDomain))
	h.Write(seed[:])
	h.Write([]byte(issuer))
	h.Write(ephemeralPub)
	var epoch [8]byte
	binary.BigEndian.PutUint64(epoch[:], maxEpoch)
	h.Write(epoch[:])
	commitment := h.Sum(nil)

	derive := func(tag byte) string {
		sum := blake2b.Sum256(append([]byte{tag}, commitment...))
		return hex.EncodeToString(sum[:])
	}

	return prt.ProofPoints{
		A: []string{hex.EncodeToString(commitment)},
		B: []string{derive('b')},
		C: []string{derive('c')},
	}
}

func equalPoints(a, b prt.ProofPoints) bool {
	return equalStrings(a.A, b.A) && equalStrings(a.B, b.B) && equalStrings(a.C, b.C)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if subtle.ConstantTimeCompare([]byte(a[i]), []byte(b[i])) != 1 {
			return false
		}
	}
	return true
}
