package wallet

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/abcfe/abcfe-wallet/common/logger"
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// PlaceholderAmount stands in when a transaction carries no usable balance change
const PlaceholderAmount = "0"

type TxRecord struct {
	ID           string              `json:"id"`
	Direction    Direction           `json:"direction"`
	Amount       string              `json:"amount"` // minimal units
	AmountKnown  bool                `json:"amountKnown"`
	Counterparty *prt.Address        `json:"counterparty,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
	Status       prt.ExecutionStatus `json:"status"`
	Error        string              `json:"error,omitempty"`
}

// HistoryReconciler merges the sent and received views of an account
type HistoryReconciler struct {
	client   LedgerClient
	coinType string
	pageSize int
	timeout  time.Duration
}

func NewHistoryReconciler(client LedgerClient, coinType string, pageSize int, timeout time.Duration) *HistoryReconciler {
	return &HistoryReconciler{client: client, coinType: coinType, pageSize: pageSize, timeout: timeout}
}

// Reconcile runs both queries. A failed query is logged and counts as empty.
func (h *HistoryReconciler) Reconcile(ctx context.Context, account prt.Address) []TxRecord {
	sent := h.query(ctx, "sent by", prt.TxFilter{FromAddress: &account})
	received := h.query(ctx, "received by", prt.TxFilter{ToAddress: &account})

	records := Merge(account, h.coinType, sent, received)
	SortMostRecentFirst(records)
	return records
}

func (h *HistoryReconciler) query(ctx context.Context, op string, filter prt.TxFilter) []prt.TxBlock {
	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	page := prt.Page{Limit: h.pageSize, Descending: true}
	blocks, err := h.client.QueryTransactions(ctx, filter, page)
	if err != nil {
		logger.Warn((&TransientNetworkError{Op: "transactions " + op, Err: err}).Error())
		return nil
	}
	return blocks
}

// Merge dedupes by id keeping the first occurrence and classifies each
// transaction relative to account
func Merge(account prt.Address, coinType string, lists ...[]prt.TxBlock) []TxRecord {
	seen := make(map[string]struct{})
	var out []TxRecord

	for _, list := range lists {
		for _, b := range list {
			if _, dup := seen[b.Digest]; dup {
				continue
			}
			seen[b.Digest] = struct{}{}
			out = append(out, classify(account, coinType, b))
		}
	}
	return out
}

func SortMostRecentFirst(records []TxRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}

func classify(account prt.Address, coinType string, b prt.TxBlock) TxRecord {
	rec := TxRecord{
		ID:        b.Digest,
		Direction: DirectionReceived,
		Amount:    PlaceholderAmount,
		Timestamp: time.UnixMilli(b.TimestampMs),
		Status:    b.Status,
		Error:     b.Error,
	}
	if b.Sender == account {
		rec.Direction = DirectionSent
	}

	if rec.Direction == DirectionReceived {
		sender := b.Sender
		rec.Counterparty = &sender
	}

	var self *big.Int
	for _, bc := range b.BalanceChanges {
		if bc.CoinType != coinType {
			continue
		}
		amt, ok := new(big.Int).SetString(bc.Amount, 10)
		if !ok || amt.Sign() <= 0 {
			continue
		}

		switch {
		case rec.Direction == DirectionSent && bc.Owner != account:
			owner := bc.Owner
			rec.Counterparty = &owner
		case rec.Direction == DirectionReceived && bc.Owner == account:
		default:
			if self == nil {
				self = amt
			}
			continue
		}
		rec.Amount = amt.String()
		rec.AmountKnown = true
		return rec
	}

	// sent to itself
	if rec.Direction == DirectionSent && self != nil {
		rec.Amount = self.String()
		rec.AmountKnown = true
		rec.Counterparty = &account
	}
	return rec
}
