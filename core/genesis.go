package core

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/syndtr/goleveldb/leveldb"
)

// SetGenesis fixes the epoch origin and mints the configured allocations
func (p *Ledger) SetGenesis() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	systemAddrs := p.cfg.Genesis.SystemAddresses
	systemBals := p.cfg.Genesis.SystemBalances
	if len(systemAddrs) != len(systemBals) {
		return fmt.Errorf("system address and balance count mismatch")
	}

	// Get timestamp from config (use current time if 0)
	genesisTimestamp := p.cfg.Genesis.Timestamp
	if genesisTimestamp == 0 {
		genesisTimestamp = p.now().Unix()
	}

	digest := utils.HashToString(utils.Hash(p.cfg.Genesis))
	batch := new(leveldb.Batch)
	coins := p.newCoinBatchLocked(batch)
	blk := prt.TxBlock{
		Digest:      digest,
		TimestampMs: genesisTimestamp * 1000,
		Status:      prt.StatusSuccess,
	}

	for i, systemAddr := range systemAddrs {
		addr, err := utils.StringToAddress(systemAddr)
		if err != nil {
			return fmt.Errorf("invalid genesis address %q: %w", systemAddr, err)
		}

		if err := coins.put(prt.Coin{
			ObjectID: newCoinID(digest, i),
			Version:  1,
			Balance:  systemBals[i],
			Owner:    addr,
			CoinType: prt.NativeCoinType,
			Seq:      coins.nextSeq(),
		}); err != nil {
			return err
		}

		blk.BalanceChanges = append(blk.BalanceChanges, prt.BalanceChange{
			Owner:    addr,
			CoinType: prt.NativeCoinType,
			Amount:   strconv.FormatUint(systemBals[i], 10),
		})
		if err := p.appendIndexLocked(batch, utils.GetAddressReceivedKey(addr), digest); err != nil {
			return err
		}
	}
	if err := coins.flush(); err != nil {
		return err
	}

	data, err := utils.SerializeData(blk, utils.SerializationFormatGob)
	if err != nil {
		return fmt.Errorf("failed to serialize genesis: %w", err)
	}
	batch.Put(utils.GetTxKey(digest), data)
	batch.Put([]byte(prt.PrefixMetaGenesis), []byte(strconv.FormatInt(genesisTimestamp, 10)))

	if err := p.commitLocked(batch, coins); err != nil {
		return fmt.Errorf("failed to write genesis: %w", err)
	}

	p.GenesisTime = time.Unix(genesisTimestamp, 0)
	logger.Info("genesis set at ", p.GenesisTime.UTC().Format(time.RFC3339), " with ", len(systemAddrs), " allocations")
	return nil
}
