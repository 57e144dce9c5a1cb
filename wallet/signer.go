package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/abcfe/abcfe-wallet/common/logger"
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

// Signer signs with the strategy that produced the account and submits the
// result. Execution is never retried.
type Signer struct {
	strategies map[Scheme]AccountStrategy
	ledger     LedgerClient
	timeout    time.Duration
}

func NewSigner(ledger LedgerClient, timeout time.Duration, strategies ...AccountStrategy) *Signer {
	s := &Signer{
		strategies: make(map[Scheme]AccountStrategy, len(strategies)),
		ledger:     ledger,
		timeout:    timeout,
	}
	for _, st := range strategies {
		s.strategies[st.Scheme()] = st
	}
	return s
}

// CheckProofWindow fails once the ledger epoch has passed the account's maxEpoch
func (s *Signer) CheckProofWindow(ctx context.Context, acct *Account) error {
	if acct.Scheme != SchemeProof {
		return nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	epoch, err := s.ledger.CurrentEpoch(ctx)
	if err != nil {
		return &TransientNetworkError{Op: "current epoch", Err: err}
	}
	if epoch > acct.Material.MaxEpoch {
		return fmt.Errorf("%w: epoch %d is past max epoch %d", ErrExpiredProofWindow, epoch, acct.Material.MaxEpoch)
	}
	return nil
}

func (s *Signer) SignAndExecute(ctx context.Context, acct *Account, txBytes []byte) (*prt.ExecutionResult, error) {
	strategy, ok := s.strategies[acct.Scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSchemeMismatch, acct.Scheme)
	}

	if err := s.CheckProofWindow(ctx, acct); err != nil {
		return nil, err
	}

	sig, err := strategy.Sign(acct, txBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.ledger.Execute(ctx, txBytes, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to execute transaction: %w", err)
	}
	if res.Status != prt.StatusSuccess {
		logger.Warn("transaction ", res.Digest, " failed: ", res.Error)
		return res, &LedgerExecutionError{Digest: res.Digest, Status: string(res.Status), Reason: res.Error}
	}

	logger.Info("transaction ", res.Digest, " executed, gas used ", res.GasUsed)
	return res, nil
}
