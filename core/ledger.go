package core

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/abcfe/abcfe-wallet/config"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/syndtr/goleveldb/leveldb"
)

var (
	ErrCoinNotFound       = errors.New("coin not found")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrDuplicateTx        = errors.New("transaction already executed")
	ErrTxNotFound         = errors.New("transaction not found")
	ErrFaucetCooldown     = errors.New("faucet cooldown active")
)

// TxListener is notified after a transaction is committed
type TxListener func(blk prt.TxBlock)

// Ledger is a single node coin-object ledger. Each coin carries a version
// that changes on every mutation, so a transfer built against an old
// snapshot of a coin is rejected.
type Ledger struct {
	db  *leveldb.DB
	cfg *config.Config

	GenesisTime time.Time
	CoinSeq     uint64

	mu        sync.RWMutex // guards db writes and CoinSeq
	now       func() time.Time
	listeners []TxListener
}

func NewLedger(db *leveldb.DB, cfg *config.Config) (*Ledger, error) {
	l := &Ledger{
		db:  db,
		cfg: cfg,
		now: time.Now,
	}

	if err := l.LoadLedgerDB(); err != nil {
		return nil, err
	}

	if l.GenesisTime.IsZero() {
		if err := l.SetGenesis(); err != nil {
			return nil, err
		}
	}

	return l, nil
}

func (p *Ledger) LoadLedgerDB() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	genesisBytes, err := p.db.Get([]byte(prt.PrefixMetaGenesis), nil)
	if err != nil && err != leveldb.ErrNotFound {
		return fmt.Errorf("failed to load genesis time: %w", err)
	}
	if err == leveldb.ErrNotFound {
		p.GenesisTime = time.Time{}
		p.CoinSeq = 0
		return nil
	}

	sec, err := strconv.ParseInt(string(genesisBytes), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid genesis time format: %w", err)
	}
	p.GenesisTime = time.Unix(sec, 0)

	seqBytes, err := p.db.Get([]byte(prt.PrefixMetaCoinSeq), nil)
	if err != nil && err != leveldb.ErrNotFound {
		return fmt.Errorf("failed to load coin sequence: %w", err)
	}
	if err == nil {
		seq, err := strconv.ParseUint(string(seqBytes), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid coin sequence format: %w", err)
		}
		p.CoinSeq = seq
	}

	logger.Info("ledger loaded, genesis ", p.GenesisTime.UTC().Format(time.RFC3339), " coin seq ", p.CoinSeq)
	return nil
}

// SetClock overrides wall-clock time for epochs and the faucet cooldown
func (p *Ledger) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Subscribe registers a listener for committed transactions
func (p *Ledger) Subscribe(fn TxListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *Ledger) notify(blk prt.TxBlock) {
	p.mu.RLock()
	listeners := append([]TxListener(nil), p.listeners...)
	p.mu.RUnlock()

	for _, fn := range listeners {
		fn(blk)
	}
}

// CurrentEpoch counts whole EpochSec periods since genesis
func (p *Ledger) CurrentEpoch() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.epochLocked()
}

func (p *Ledger) epochLocked() uint64 {
	elapsed := p.now().Sub(p.GenesisTime)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / (time.Duration(p.cfg.Node.EpochSec) * time.Second))
}

func (p *Ledger) ReferenceGasPrice() uint64 {
	return p.cfg.Node.GasPrice
}

type LedgerStatus struct {
	GenesisTime  int64  `json:"genesisTime"`
	CurrentEpoch uint64 `json:"currentEpoch"`
	EpochSec     int    `json:"epochSec"`
	GasPrice     uint64 `json:"gasPrice"`
	CoinSeq      uint64 `json:"coinSeq"`
	NetworkID    string `json:"networkId"`
}

func (p *Ledger) GetStatus() LedgerStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return LedgerStatus{
		GenesisTime:  p.GenesisTime.Unix(),
		CurrentEpoch: p.epochLocked(),
		EpochSec:     p.cfg.Node.EpochSec,
		GasPrice:     p.cfg.Node.GasPrice,
		CoinSeq:      p.CoinSeq,
		NetworkID:    p.cfg.Common.NetworkID,
	}
}

// commitLocked writes batch and adopts the coin sequence staged in coins
func (p *Ledger) commitLocked(batch *leveldb.Batch, coins *coinBatch) error {
	if err := p.db.Write(batch, nil); err != nil {
		return err
	}
	if coins != nil && coins.seq > p.CoinSeq {
		p.CoinSeq = coins.seq
	}
	return nil
}
