package wallet

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/tyler-smith/go-bip39"
)

type Options struct {
	CoinType  string
	Decimals  int
	PageSize  int
	GasBudget uint64
	Timeout   time.Duration // per ledger call

	// ClientIDs holds the OAuth client id per provider. Nil skips the check.
	ClientIDs map[Provider]string
}

// Wallet ties one account strategy, one session and one ledger together
type Wallet struct {
	strategy AccountStrategy
	sessions *SessionStore
	ledger   LedgerClient
	view     *LedgerView
	signer   *Signer
	history  *HistoryReconciler
	opts     Options

	sendMu sync.Mutex
}

func New(strategy AccountStrategy, sessions *SessionStore, ledger LedgerClient, opts Options) *Wallet {
	if opts.CoinType == "" {
		opts.CoinType = prt.NativeCoinType
	}
	if opts.Decimals == 0 {
		opts.Decimals = prt.NativeDecimals
	}
	if opts.PageSize == 0 {
		opts.PageSize = 20
	}

	return &Wallet{
		strategy: strategy,
		sessions: sessions,
		ledger:   ledger,
		view:     NewLedgerView(ledger, opts.CoinType, opts.Timeout),
		signer:   NewSigner(ledger, opts.Timeout, strategy),
		history:  NewHistoryReconciler(ledger, opts.CoinType, opts.PageSize, opts.Timeout),
		opts:     opts,
	}
}

func (w *Wallet) Scheme() Scheme {
	return w.strategy.Scheme()
}

func (w *Wallet) Decimals() int {
	return w.opts.Decimals
}

// Login normalizes the claim, opens the account and starts a new session
func (w *Wallet) Login(ctx context.Context, provider string, claim Claim) (*Session, error) {
	id, err := Normalize(provider, claim)
	if err != nil {
		return nil, err
	}
	if w.opts.ClientIDs != nil && strings.TrimSpace(w.opts.ClientIDs[id.Provider]) == "" {
		return nil, fmt.Errorf("%w: no client id configured for %s", ErrConfiguration, id.Provider)
	}

	acct, err := w.strategy.Open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to open account: %w", err)
	}

	sess, err := w.sessions.Create(id, acct)
	if err != nil {
		return nil, err
	}

	logger.Info("logged in ", id.Provider, ":", id.Subject, " as ", sess.Address.String())
	return sess, nil
}

// Restore resumes the persisted session, if any
func (w *Wallet) Restore(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return w.sessions.Restore()
}

func (w *Wallet) Logout() error {
	return w.sessions.Teardown()
}

func (w *Wallet) Active() (*Session, error) {
	return w.sessions.Current()
}

// Balance is "0" when there is no session or the ledger is unreachable
func (w *Wallet) Balance(ctx context.Context) string {
	sess, err := w.Active()
	if err != nil {
		logger.Debug("balance without session: ", err)
		return "0"
	}
	return w.view.BalanceOf(ctx, sess.Address)
}

func (w *Wallet) Coins(ctx context.Context) ([]prt.Coin, error) {
	sess, err := w.Active()
	if err != nil {
		return nil, err
	}
	return w.view.CoinsOf(ctx, sess.Address)
}

// Send pays amount (a decimal in whole coins) to recipient from a single coin
func (w *Wallet) Send(ctx context.Context, recipient, amount string) (*prt.ExecutionResult, error) {
	to, err := utils.StringToAddress(recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddressFormat, err)
	}

	units, err := ParseAmount(amount, w.opts.Decimals)
	if err != nil {
		return nil, err
	}

	sess, err := w.Active()
	if err != nil {
		return nil, err
	}
	acct := sess.Account()

	w.sendMu.Lock()
	defer w.sendMu.Unlock()

	coins, err := w.view.CoinsOf(ctx, acct.Address)
	if err != nil {
		return nil, err
	}

	pay, err := PlanPayment(units, coins)
	if err != nil {
		return nil, err
	}

	if err := w.signer.CheckProofWindow(ctx, acct); err != nil {
		return nil, err
	}

	gasPrice, err := w.gasPrice(ctx)
	if err != nil {
		return nil, err
	}

	txBytes, err := w.build(ctx, prt.TransferRequest{
		Sender:      acct.Address,
		Recipient:   to,
		CoinType:    w.opts.CoinType,
		CoinID:      pay.Coin.ObjectID,
		CoinVersion: pay.Coin.Version,
		Amount:      pay.Amount,
		Split:       pay.Split,
		GasPrice:    gasPrice,
		GasBudget:   w.opts.GasBudget,
	})
	if err != nil {
		return nil, err
	}

	return w.signer.SignAndExecute(ctx, acct, txBytes)
}

func (w *Wallet) gasPrice(ctx context.Context) (uint64, error) {
	ctx, cancel := withTimeout(ctx, w.opts.Timeout)
	defer cancel()

	price, err := w.ledger.GetReferenceGasPrice(ctx)
	if err != nil {
		return 0, &TransientNetworkError{Op: "reference gas price", Err: err}
	}
	return price, nil
}

func (w *Wallet) build(ctx context.Context, req prt.TransferRequest) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, w.opts.Timeout)
	defer cancel()

	txBytes, err := w.ledger.BuildTransaction(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	return txBytes, nil
}

// History returns the merged transaction list, most recent first
func (w *Wallet) History(ctx context.Context) []TxRecord {
	sess, err := w.Active()
	if err != nil {
		logger.Debug("history without session: ", err)
		return nil
	}
	return w.history.Reconcile(ctx, sess.Address)
}

// ExportRecoveryPhrase encodes the direct-scheme seed as a 24 word mnemonic
func (w *Wallet) ExportRecoveryPhrase() (string, error) {
	sess, err := w.Active()
	if err != nil {
		return "", err
	}
	acct := sess.Account()
	if acct.Scheme != SchemeDirect {
		return "", ErrExportUnsupported
	}
	return bip39.NewMnemonic(acct.Material.Key)
}
