package core

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
)

// RequestFaucet mints FaucetAmount to address, at most once per cooldown
func (p *Ledger) RequestFaucet(address prt.Address) (*prt.ExecutionResult, error) {
	if address.IsZero() {
		return nil, fmt.Errorf("%w: faucet address is required", ErrInvalidTransaction)
	}
	if p.cfg.Node.FaucetAmount == 0 {
		return nil, fmt.Errorf("faucet is disabled")
	}

	p.mu.Lock()
	blk, err := p.faucetLocked(address)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	p.notify(*blk)
	return &prt.ExecutionResult{Digest: blk.Digest, Status: blk.Status}, nil
}

func (p *Ledger) faucetLocked(address prt.Address) (*prt.TxBlock, error) {
	now := p.now()
	cooldown := time.Duration(p.cfg.Node.FaucetCooldownSec) * time.Second

	last, err := p.db.Get(utils.GetFaucetKey(address), nil)
	if err != nil && err != leveldb.ErrNotFound {
		return nil, fmt.Errorf("failed to read faucet record: %w", err)
	}
	if err == nil {
		sec, perr := strconv.ParseInt(string(last), 10, 64)
		if perr == nil {
			if wait := time.Unix(sec, 0).Add(cooldown).Sub(now); wait > 0 {
				return nil, fmt.Errorf("%w: retry in %s", ErrFaucetCooldown, wait.Round(time.Second))
			}
		}
	}

	// request id keeps digests unique for repeated mints to one address
	digest := utils.HashToString(utils.HashBytes([]byte(uuid.NewString() + address.String())))
	amount := p.cfg.Node.FaucetAmount

	batch := new(leveldb.Batch)
	coins := p.newCoinBatchLocked(batch)
	if err := coins.put(prt.Coin{
		ObjectID: newCoinID(digest, 0),
		Version:  1,
		Balance:  amount,
		Owner:    address,
		CoinType: prt.NativeCoinType,
		Seq:      coins.nextSeq(),
	}); err != nil {
		return nil, err
	}
	if err := coins.flush(); err != nil {
		return nil, err
	}

	blk := prt.TxBlock{
		Digest:      digest,
		TimestampMs: now.UnixMilli(),
		Status:      prt.StatusSuccess,
		BalanceChanges: []prt.BalanceChange{
			{Owner: address, CoinType: prt.NativeCoinType, Amount: strconv.FormatUint(amount, 10)},
		},
	}
	if err := p.recordLocked(batch, blk, address); err != nil {
		return nil, err
	}
	batch.Put(utils.GetFaucetKey(address), []byte(strconv.FormatInt(now.Unix(), 10)))

	if err := p.commitLocked(batch, coins); err != nil {
		return nil, fmt.Errorf("failed to commit faucet mint: %w", err)
	}

	logger.Info("faucet sent ", amount, " to ", address.String())
	return &blk, nil
}
