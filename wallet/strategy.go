package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/abcfe/abcfe-wallet/common/crypto"
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

type Scheme string

const (
	SchemeDirect Scheme = "direct"
	SchemeProof  Scheme = "proof"
)

func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeDirect, SchemeProof:
		return Scheme(s), nil
	default:
		return "", fmt.Errorf("%w: unknown wallet scheme %q", ErrConfiguration, s)
	}
}

// SigningMaterial lives in the ephemeral scope for the session's lifetime.
// For the direct scheme Key is the account key, for the proof scheme it is
// the ephemeral key and Proof/MaxEpoch are set.
type SigningMaterial struct {
	Key      []byte             `json:"key"` // ed25519 seed
	MaxEpoch uint64             `json:"maxEpoch,omitempty"`
	Proof    *prt.ProofArtifact `json:"proof,omitempty"`
}

func (m *SigningMaterial) privateKey() (ed25519.PrivateKey, error) {
	if m == nil {
		return nil, fmt.Errorf("signing material is missing")
	}
	return crypto.BytesToPrivateKey(m.Key)
}

type Account struct {
	Address  prt.Address
	Scheme   Scheme
	Material *SigningMaterial
}

// AccountStrategy turns an identity into an account and signs for it
type AccountStrategy interface {
	Scheme() Scheme
	Open(ctx context.Context, id Identity) (*Account, error)
	Sign(acct *Account, txBytes []byte) (prt.Signature, error)
}
