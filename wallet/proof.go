package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/abcfe/abcfe-wallet/common/crypto"
	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

// ProofRequest is everything the proof service binds into one artifact
type ProofRequest struct {
	Issuer             string
	Audience           string
	Subject            string
	Salt               uint64
	EphemeralPublicKey ed25519.PublicKey
	MaxEpoch           uint64
}

type ProofService interface {
	Prove(ctx context.Context, req ProofRequest) (*prt.ProofArtifact, error)
}

type EpochSource interface {
	CurrentEpoch(ctx context.Context) (uint64, error)
}

// ProofStrategy derives the address from (issuer, audience, subject, salt).
// Each login draws a fresh ephemeral key that signs for the address until
// maxEpoch.
type ProofStrategy struct {
	salts     *SaltStore
	prover    ProofService
	epochs    EpochSource
	audiences map[Provider]string
	window    uint64
}

// NewProofStrategy fails when no provider has a client id configured
func NewProofStrategy(salts *SaltStore, prover ProofService, epochs EpochSource, audiences map[Provider]string, window uint64) (*ProofStrategy, error) {
	configured := make(map[Provider]string, len(audiences))
	for p, aud := range audiences {
		if aud != "" {
			configured[p] = aud
		}
	}
	if len(configured) == 0 {
		return nil, fmt.Errorf("%w: proof scheme needs at least one provider client id", ErrConfiguration)
	}
	if salts == nil || prover == nil || epochs == nil {
		return nil, fmt.Errorf("%w: proof scheme needs a salt store, a prover and an epoch source", ErrConfiguration)
	}

	return &ProofStrategy{
		salts:     salts,
		prover:    prover,
		epochs:    epochs,
		audiences: configured,
		window:    window,
	}, nil
}

func (p *ProofStrategy) Scheme() Scheme { return SchemeProof }

// Audience returns the configured client id for provider
func (p *ProofStrategy) Audience(provider Provider) (string, error) {
	aud, ok := p.audiences[provider]
	if !ok {
		return "", fmt.Errorf("%w: no client id for provider %s", ErrConfiguration, provider)
	}
	return aud, nil
}

// ProofAddress is the address the proof scheme assigns to the inputs
func ProofAddress(provider Provider, subject, audience string, salt uint64) prt.Address {
	return crypto.ZkLoginAddress(provider.Issuer(), crypto.AddressSeed(salt, subject, audience))
}

func (p *ProofStrategy) Open(ctx context.Context, id Identity) (*Account, error) {
	aud, err := p.Audience(id.Provider)
	if err != nil {
		return nil, err
	}

	salt, err := p.salts.GetOrCreate(id.Provider, id.Subject)
	if err != nil {
		return nil, err
	}

	ephemeral, ephemeralPub, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	epoch, err := p.epochs.CurrentEpoch(ctx)
	if err != nil {
		return nil, &TransientNetworkError{Op: "current epoch", Err: err}
	}
	maxEpoch := epoch + p.window

	proof, err := p.prover.Prove(ctx, ProofRequest{
		Issuer:             id.Provider.Issuer(),
		Audience:           aud,
		Subject:            id.Subject,
		Salt:               salt,
		EphemeralPublicKey: ephemeralPub,
		MaxEpoch:           maxEpoch,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to obtain proof: %w", err)
	}

	seed := crypto.AddressSeed(salt, id.Subject, aud)
	if proof.AddressSeed != utils.HashToString(seed) {
		return nil, fmt.Errorf("proof address seed mismatch")
	}

	return &Account{
		Address: crypto.ZkLoginAddress(id.Provider.Issuer(), seed),
		Scheme:  SchemeProof,
		Material: &SigningMaterial{
			Key:      crypto.PrivateKeyToBytes(ephemeral),
			MaxEpoch: maxEpoch,
			Proof:    proof,
		},
	}, nil
}

// Sign produces the composite signature {proof, maxEpoch, inner signature}
func (p *ProofStrategy) Sign(acct *Account, txBytes []byte) (prt.Signature, error) {
	if acct.Material == nil || acct.Material.Proof == nil {
		return "", fmt.Errorf("account has no proof artifact")
	}

	ephemeral, err := acct.Material.privateKey()
	if err != nil {
		return "", err
	}

	inner, err := crypto.SignTransaction(ephemeral, txBytes)
	if err != nil {
		return "", err
	}

	return crypto.EncodeZkLoginSignature(prt.ZkLoginSignature{
		Inputs:        *acct.Material.Proof,
		MaxEpoch:      acct.Material.MaxEpoch,
		UserSignature: inner,
	})
}
