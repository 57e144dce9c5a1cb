package wallet

import (
	"context"
	"math/big"
	"time"

	"github.com/abcfe/abcfe-wallet/common/logger"
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

// LedgerClient is the remote ledger contract. Every call is bounded by ctx.
type LedgerClient interface {
	GetCoins(ctx context.Context, owner prt.Address, coinType string) ([]prt.Coin, error)
	GetBalance(ctx context.Context, owner prt.Address, coinType string) (string, error)
	GetReferenceGasPrice(ctx context.Context) (uint64, error)
	BuildTransaction(ctx context.Context, req prt.TransferRequest) ([]byte, error)
	Execute(ctx context.Context, txBytes []byte, sig prt.Signature) (*prt.ExecutionResult, error)
	QueryTransactions(ctx context.Context, filter prt.TxFilter, page prt.Page) ([]prt.TxBlock, error)
	CurrentEpoch(ctx context.Context) (uint64, error)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// LedgerView is the read side over the ledger for one coin type
type LedgerView struct {
	client   LedgerClient
	coinType string
	timeout  time.Duration
}

func NewLedgerView(client LedgerClient, coinType string, timeout time.Duration) *LedgerView {
	return &LedgerView{client: client, coinType: coinType, timeout: timeout}
}

// BalanceOf returns the total balance in minimal units. It never fails:
// read errors are logged and reported as "0".
func (v *LedgerView) BalanceOf(ctx context.Context, address prt.Address) string {
	ctx, cancel := withTimeout(ctx, v.timeout)
	defer cancel()

	raw, err := v.client.GetBalance(ctx, address, v.coinType)
	if err != nil {
		logger.Warn((&TransientNetworkError{Op: "balance of " + address.String(), Err: err}).Error())
		return "0"
	}

	total, ok := new(big.Int).SetString(raw, 10)
	if !ok || total.Sign() < 0 {
		logger.Error("ledger returned malformed balance ", raw, " for ", address.String())
		return "0"
	}
	return total.String()
}

// CoinsOf lists the coins of the designated type, in ledger order
func (v *LedgerView) CoinsOf(ctx context.Context, address prt.Address) ([]prt.Coin, error) {
	ctx, cancel := withTimeout(ctx, v.timeout)
	defer cancel()

	coins, err := v.client.GetCoins(ctx, address, v.coinType)
	if err != nil {
		return nil, &TransientNetworkError{Op: "coins of " + address.String(), Err: err}
	}

	out := make([]prt.Coin, 0, len(coins))
	for _, c := range coins {
		if c.CoinType == v.coinType {
			out = append(out, c)
		}
	}
	return out, nil
}

// TotalBalance sums coin balances without overflow
func TotalBalance(coins []prt.Coin) *big.Int {
	total := new(big.Int)
	for _, c := range coins {
		total.Add(total, new(big.Int).SetUint64(c.Balance))
	}
	return total
}
