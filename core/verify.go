package core

import (
	"fmt"

	"github.com/abcfe/abcfe-wallet/common/crypto"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/abcfe/abcfe-wallet/prover"
)

// verifySignatureLocked returns the address that signed txBytes
func (p *Ledger) verifySignatureLocked(sig prt.Signature, txBytes []byte) (prt.Address, error) {
	flag, _, err := crypto.SignatureScheme(sig)
	if err != nil {
		return prt.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch flag {
	case prt.SchemeEd25519:
		signer, _, err := crypto.VerifyEd25519Signature(sig, txBytes)
		if err != nil {
			return prt.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return signer, nil

	case prt.SchemeZkLogin:
		z, err := crypto.DecodeZkLoginSignature(sig)
		if err != nil {
			return prt.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}

		if epoch := p.epochLocked(); epoch > z.MaxEpoch {
			return prt.Address{}, fmt.Errorf("%w: proof expired at epoch %d, current epoch %d", ErrInvalidSignature, z.MaxEpoch, epoch)
		}

		_, ephemeralPub, err := crypto.VerifyEd25519Signature(z.UserSignature, txBytes)
		if err != nil {
			return prt.Address{}, fmt.Errorf("%w: inner signature: %v", ErrInvalidSignature, err)
		}

		signer, err := prover.Verify(z.Inputs, ephemeralPub, z.MaxEpoch)
		if err != nil {
			return prt.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return signer, nil

	default:
		return prt.Address{}, fmt.Errorf("%w: unsupported scheme 0x%02x", ErrInvalidSignature, flag)
	}
}
