package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/abcfe/abcfe-wallet/common/crypto"
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

const directSeedDomain = "abcfe/wallet/direct-seed/v1"

// DirectStrategy derives the account key from the identity alone. Anyone who
// learns (provider, subject, email) can rebuild the key.
type DirectStrategy struct{}

func NewDirectStrategy() *DirectStrategy {
	return &DirectStrategy{}
}

func (d *DirectStrategy) Scheme() Scheme { return SchemeDirect }

// DeriveDirectSeed hash(provider-subject-email), always 32 bytes
func DeriveDirectSeed(id Identity) ([crypto.SeedSize]byte, error) {
	return crypto.DeriveSeed(directSeedDomain, string(id.Provider), id.Subject, id.Email)
}

func (d *DirectStrategy) Open(_ context.Context, id Identity) (*Account, error) {
	seed, err := DeriveDirectSeed(id)
	if err != nil {
		return nil, fmt.Errorf("failed to derive seed: %w", err)
	}

	priv, err := crypto.KeyFromSeed(seed[:])
	if err != nil {
		return nil, err
	}

	return &Account{
		Address:  crypto.PublicKeyToAddress(priv.Public().(ed25519.PublicKey)),
		Scheme:   SchemeDirect,
		Material: &SigningMaterial{Key: seed[:]},
	}, nil
}

func (d *DirectStrategy) Sign(acct *Account, txBytes []byte) (prt.Signature, error) {
	priv, err := acct.Material.privateKey()
	if err != nil {
		return "", err
	}
	return crypto.SignTransaction(priv, txBytes)
}
