package wallet

import (
	"fmt"
	"math/big"

	prt "github.com/abcfe/abcfe-wallet/protocol"
)

// Payment is the single coin chosen to fund a transfer
type Payment struct {
	Coin      prt.Coin
	Amount    uint64
	Split     bool // coin larger than Amount, the remainder stays with the sender
	Remainder uint64
}

// CheckBalance fails when amount exceeds the total across all coins
func CheckBalance(amount, total *big.Int) error {
	if amount.Cmp(total) > 0 {
		return fmt.Errorf("%w: need %s, have %s", ErrInsufficientBalance, amount, total)
	}
	return nil
}

// SelectPayment picks the first coin, in the given order, whose balance
// covers amount. Coins are never merged.
func SelectPayment(amount *big.Int, coins []prt.Coin) (*Payment, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if !amount.IsUint64() {
		return nil, fmt.Errorf("%w: no single coin covers %s", ErrInsufficientContiguousFunds, amount)
	}

	want := amount.Uint64()
	for _, c := range coins {
		if c.Balance < want {
			continue
		}
		return &Payment{
			Coin:      c,
			Amount:    want,
			Split:     c.Balance > want,
			Remainder: c.Balance - want,
		}, nil
	}
	return nil, fmt.Errorf("%w: largest coin is below %d", ErrInsufficientContiguousFunds, want)
}

// PlanPayment runs the balance precondition before coin selection, so the
// two failures stay distinct
func PlanPayment(amount *big.Int, coins []prt.Coin) (*Payment, error) {
	if err := CheckBalance(amount, TotalBalance(coins)); err != nil {
		return nil, err
	}
	return SelectPayment(amount, coins)
}
