package core

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/syndtr/goleveldb/leveldb"
)

type AddrCoinSet map[string]bool // coin keys owned by an address

// coinBatch stages coin writes. Address coin lists are loaded once per
// address so several updates in one batch do not overwrite each other.
// seq is the staged coin sequence, it reaches the ledger only on commit.
type coinBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
	lists map[prt.Address]AddrCoinSet
	seq   uint64
}

func (p *Ledger) newCoinBatchLocked(batch *leveldb.Batch) *coinBatch {
	return &coinBatch{db: p.db, batch: batch, lists: make(map[prt.Address]AddrCoinSet), seq: p.CoinSeq}
}

// nextSeq reserves a coin sequence number, persisted with the batch
func (c *coinBatch) nextSeq() uint64 {
	c.seq++
	c.batch.Put([]byte(prt.PrefixMetaCoinSeq), []byte(strconv.FormatUint(c.seq, 10)))
	return c.seq
}

func (c *coinBatch) list(address prt.Address) (AddrCoinSet, error) {
	if set, ok := c.lists[address]; ok {
		return set, nil
	}

	set := make(AddrCoinSet)
	data, err := c.db.Get(utils.GetCoinListKey(address), nil)
	if err != nil && err != leveldb.ErrNotFound {
		return nil, fmt.Errorf("failed to get coin list: %w", err)
	}
	if err == nil {
		if err := utils.DeserializeData(data, &set, utils.SerializationFormatGob); err != nil {
			return nil, fmt.Errorf("failed to deserialize coin list: %w", err)
		}
	}
	c.lists[address] = set
	return set, nil
}

// put writes the coin and indexes it under its owner
func (c *coinBatch) put(coin prt.Coin) error {
	data, err := utils.SerializeData(coin, utils.SerializationFormatGob)
	if err != nil {
		return fmt.Errorf("failed to serialize coin: %w", err)
	}
	key := utils.GetCoinKey(coin.ObjectID)
	c.batch.Put(key, data)

	set, err := c.list(coin.Owner)
	if err != nil {
		return err
	}
	set[string(key)] = true
	return nil
}

// unlink drops the coin from its owner's index, the coin record stays
func (c *coinBatch) unlink(coin prt.Coin) error {
	set, err := c.list(coin.Owner)
	if err != nil {
		return err
	}
	delete(set, string(utils.GetCoinKey(coin.ObjectID)))
	return nil
}

func (c *coinBatch) flush() error {
	for address, set := range c.lists {
		data, err := utils.SerializeData(set, utils.SerializationFormatGob)
		if err != nil {
			return fmt.Errorf("failed to serialize coin list: %w", err)
		}
		c.batch.Put(utils.GetCoinListKey(address), data)
	}
	return nil
}

func (p *Ledger) GetCoin(id prt.ObjectID) (*prt.Coin, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.getCoin(id)
}

func (p *Ledger) getCoin(id prt.ObjectID) (*prt.Coin, error) {
	data, err := p.db.Get(utils.GetCoinKey(id), nil)
	if err == leveldb.ErrNotFound {
		return nil, fmt.Errorf("%w: %s", ErrCoinNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get coin from db: %w", err)
	}

	var coin prt.Coin
	if err := utils.DeserializeData(data, &coin, utils.SerializationFormatGob); err != nil {
		return nil, fmt.Errorf("failed to deserialize coin: %w", err)
	}
	return &coin, nil
}

// GetCoins lists live coins of address in creation order. An empty coinType
// matches every type.
func (p *Ledger) GetCoins(address prt.Address, coinType string) ([]prt.Coin, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data, err := p.db.Get(utils.GetCoinListKey(address), nil)
	if err == leveldb.ErrNotFound {
		return []prt.Coin{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get coin list: %w", err)
	}

	var set AddrCoinSet
	if err := utils.DeserializeData(data, &set, utils.SerializationFormatGob); err != nil {
		return nil, fmt.Errorf("failed to deserialize coin list: %w", err)
	}

	result := make([]prt.Coin, 0, len(set))
	for key := range set {
		coinBytes, err := p.db.Get([]byte(key), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get coin data from db: %w", err)
		}

		var coin prt.Coin
		if err := utils.DeserializeData(coinBytes, &coin, utils.SerializationFormatGob); err != nil {
			return nil, fmt.Errorf("failed to deserialize coin: %w", err)
		}
		if coinType != "" && coin.CoinType != coinType {
			continue
		}
		result = append(result, coin)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Seq < result[j].Seq })
	return result, nil
}

func (p *Ledger) GetBalance(address prt.Address, coinType string) (*big.Int, error) {
	coins, err := p.GetCoins(address, coinType)
	if err != nil {
		return nil, err
	}

	total := new(big.Int)
	for _, c := range coins {
		total.Add(total, new(big.Int).SetUint64(c.Balance))
	}
	return total, nil
}

// newCoinID derives a fresh object id from the creating digest and an index
func newCoinID(digest string, index int) prt.ObjectID {
	return prt.ObjectID(utils.HashBytes([]byte(fmt.Sprintf("%s/%d", digest, index))))
}
