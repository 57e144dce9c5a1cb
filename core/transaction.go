package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/syndtr/goleveldb/leveldb"
)

// computation units charged per transfer, gas used = units * gas price
const transferComputationUnits = 1000

// BuildTransaction returns the canonical bytes the sender signs
func (p *Ledger) BuildTransaction(req prt.TransferRequest) ([]byte, error) {
	if req.Sender.IsZero() || req.Recipient.IsZero() {
		return nil, fmt.Errorf("%w: sender and recipient are required", ErrInvalidTransaction)
	}
	if req.CoinID.IsZero() {
		return nil, fmt.Errorf("%w: coin id is required", ErrInvalidTransaction)
	}
	if req.Amount == 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	if req.CoinType == "" {
		req.CoinType = prt.NativeCoinType
	}

	p.mu.RLock()
	createdAt := p.now().UnixMilli()
	p.mu.RUnlock()

	return json.Marshal(prt.TransactionData{
		Version:   p.cfg.Node.TxVersion,
		Transfer:  req,
		CreatedAt: createdAt,
	})
}

func txDigest(txBytes []byte) string {
	return utils.HashToString(utils.HashBytes(txBytes))
}

// Execute verifies and applies a signed transfer. Malformed or badly signed
// input is rejected with an error and leaves no trace; a well formed
// transaction that cannot be applied is recorded with a failure status.
func (p *Ledger) Execute(txBytes []byte, sig prt.Signature) (*prt.ExecutionResult, error) {
	var tx prt.TransactionData
	if err := json.Unmarshal(txBytes, &tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	if tx.Version != p.cfg.Node.TxVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidTransaction, tx.Version)
	}

	digest := txDigest(txBytes)

	p.mu.Lock()
	blk, err := p.executeLocked(digest, tx, txBytes, sig)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	p.notify(*blk)

	gasUsed := uint64(0)
	if blk.Status == prt.StatusSuccess {
		gasUsed = tx.Transfer.GasPrice * transferComputationUnits
	}
	return &prt.ExecutionResult{
		Digest:  blk.Digest,
		Status:  blk.Status,
		Error:   blk.Error,
		GasUsed: gasUsed,
	}, nil
}

func (p *Ledger) executeLocked(digest string, tx prt.TransactionData, txBytes []byte, sig prt.Signature) (*prt.TxBlock, error) {
	if _, err := p.db.Get(utils.GetTxKey(digest), nil); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTx, digest)
	} else if err != leveldb.ErrNotFound {
		return nil, fmt.Errorf("failed to check transaction: %w", err)
	}

	signer, err := p.verifySignatureLocked(sig, txBytes)
	if err != nil {
		return nil, err
	}

	t := tx.Transfer
	if signer != t.Sender {
		return nil, fmt.Errorf("%w: signer %s is not sender %s", ErrInvalidSignature, signer, t.Sender)
	}

	blk := prt.TxBlock{
		Digest:         digest,
		Sender:         t.Sender,
		TimestampMs:    p.now().UnixMilli(),
		Status:         prt.StatusSuccess,
		BalanceChanges: []prt.BalanceChange{},
	}
	batch := new(leveldb.Batch)
	coins := p.newCoinBatchLocked(batch)

	if err := p.applyTransferLocked(coins, digest, t); err != nil {
		var failure *executionFailure
		if !errors.As(err, &failure) {
			return nil, err
		}
		blk.Status = prt.StatusFailure
		blk.Error = failure.reason
		batch.Reset()
		coins = nil
		logger.Warn("tx ", digest, " failed: ", failure.reason)
	} else {
		blk.BalanceChanges = []prt.BalanceChange{
			{Owner: t.Sender, CoinType: t.CoinType, Amount: "-" + strconv.FormatUint(t.Amount, 10)},
			{Owner: t.Recipient, CoinType: t.CoinType, Amount: strconv.FormatUint(t.Amount, 10)},
		}
	}

	if err := p.recordLocked(batch, blk, t.Recipient); err != nil {
		return nil, err
	}
	if err := p.commitLocked(batch, coins); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Info("tx ", digest, " ", blk.Status, " from ", t.Sender.String(), " to ", t.Recipient.String(), " amount ", t.Amount)
	return &blk, nil
}

// executionFailure is a transaction that is recorded but has no effect
type executionFailure struct {
	reason string
}

func (e *executionFailure) Error() string { return e.reason }

func fail(format string, args ...interface{}) error {
	return &executionFailure{reason: fmt.Sprintf(format, args...)}
}

func (p *Ledger) applyTransferLocked(coins *coinBatch, digest string, t prt.TransferRequest) error {
	if t.GasPrice < p.cfg.Node.GasPrice {
		return fail("gas price %d below reference gas price %d", t.GasPrice, p.cfg.Node.GasPrice)
	}
	if t.GasPrice > math.MaxUint64/transferComputationUnits {
		return fail("gas price %d too large", t.GasPrice)
	}
	if gas := t.GasPrice * transferComputationUnits; t.GasBudget < gas {
		return fail("insufficient gas budget: need %d, budget %d", gas, t.GasBudget)
	}
	if t.Amount == 0 {
		return fail("amount must be positive")
	}

	coin, err := p.getCoin(t.CoinID)
	if errors.Is(err, ErrCoinNotFound) {
		return fail("coin %s not found", t.CoinID)
	}
	if err != nil {
		return err
	}

	switch {
	case coin.Owner != t.Sender:
		return fail("coin %s is not owned by sender", t.CoinID)
	case coin.Version != t.CoinVersion:
		return fail("object version mismatch for coin %s: have %d, transaction uses %d", t.CoinID, coin.Version, t.CoinVersion)
	case coin.CoinType != t.CoinType:
		return fail("coin type mismatch: coin is %s", coin.CoinType)
	case t.Split && t.Amount >= coin.Balance:
		return fail("split amount %d must be below coin balance %d", t.Amount, coin.Balance)
	case !t.Split && t.Amount != coin.Balance:
		return fail("whole transfer amount %d must equal coin balance %d", t.Amount, coin.Balance)
	}

	if err := coins.unlink(*coin); err != nil {
		return err
	}

	if t.Split {
		// remainder stays with the sender under the same object id
		coin.Balance -= t.Amount
		coin.Version++
		if err := coins.put(*coin); err != nil {
			return err
		}
		if err := coins.put(prt.Coin{
			ObjectID: newCoinID(digest, 0),
			Version:  1,
			Balance:  t.Amount,
			Owner:    t.Recipient,
			CoinType: t.CoinType,
			Seq:      coins.nextSeq(),
		}); err != nil {
			return err
		}
	} else {
		coin.Owner = t.Recipient
		coin.Version++
		if err := coins.put(*coin); err != nil {
			return err
		}
	}

	return coins.flush()
}

// recordLocked stores the block and indexes it for the sender and recipient
func (p *Ledger) recordLocked(batch *leveldb.Batch, blk prt.TxBlock, recipient prt.Address) error {
	data, err := utils.SerializeData(blk, utils.SerializationFormatGob)
	if err != nil {
		return fmt.Errorf("failed to serialize transaction: %w", err)
	}
	batch.Put(utils.GetTxKey(blk.Digest), data)

	if !blk.Sender.IsZero() {
		if err := p.appendIndexLocked(batch, utils.GetAddressSentKey(blk.Sender), blk.Digest); err != nil {
			return err
		}
	}
	if blk.Status == prt.StatusSuccess && !recipient.IsZero() {
		if err := p.appendIndexLocked(batch, utils.GetAddressReceivedKey(recipient), blk.Digest); err != nil {
			return err
		}
	}
	return nil
}

func (p *Ledger) GetTx(digest string) (*prt.TxBlock, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data, err := p.db.Get(utils.GetTxKey(digest), nil)
	if err == leveldb.ErrNotFound {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, digest)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	var blk prt.TxBlock
	if err := utils.DeserializeData(data, &blk, utils.SerializationFormatGob); err != nil {
		return nil, fmt.Errorf("failed to deserialize transaction: %w", err)
	}
	return &blk, nil
}
