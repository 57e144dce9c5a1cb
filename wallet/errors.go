package wallet

import (
	"errors"
	"fmt"
)

// Configuration and identity errors
var (
	ErrConfiguration       = errors.New("wallet configuration error")
	ErrUnsupportedProvider = errors.New("unsupported identity provider")
	ErrInvalidClaim        = errors.New("invalid identity claim")
)

// Input validation errors, checked locally before any ledger call
var (
	ErrInvalidAddressFormat = errors.New("invalid address format")
	ErrInvalidAmount        = errors.New("invalid amount")
)

// Payment errors
var (
	ErrInsufficientBalance         = errors.New("insufficient balance")
	ErrInsufficientContiguousFunds = errors.New("no single coin covers the amount, try a smaller amount")
)

// Session and signing errors
var (
	ErrNoSession          = errors.New("no active session")
	ErrSessionExpired     = errors.New("session expired")
	ErrExpiredProofWindow = errors.New("proof window expired, log in again")
	ErrSchemeMismatch     = errors.New("account scheme has no signer")
	ErrExportUnsupported  = errors.New("recovery phrase export needs a direct scheme session")
)

var (
	ErrLedgerExecution  = errors.New("ledger execution failed")
	ErrTransientNetwork = errors.New("transient network error")
)

// LedgerExecutionError carries the ledger's own failure reason verbatim
type LedgerExecutionError struct {
	Digest string
	Status string
	Reason string
}

func (e *LedgerExecutionError) Error() string {
	return fmt.Sprintf("ledger execution failed: tx %s status %s: %s", e.Digest, e.Status, e.Reason)
}

func (e *LedgerExecutionError) Is(target error) bool {
	return target == ErrLedgerExecution
}

// TransientNetworkError wraps a failed read against the ledger
type TransientNetworkError struct {
	Op  string
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientNetworkError) Unwrap() error {
	return e.Err
}

func (e *TransientNetworkError) Is(target error) bool {
	return target == ErrTransientNetwork
}
