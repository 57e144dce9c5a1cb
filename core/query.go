package core

import (
	"fmt"
	"strconv"

	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/syndtr/goleveldb/leveldb"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// AccountTxList digests of an address in execution order
type AccountTxList struct {
	Digests []string `json:"digests"`
}

func (p *Ledger) loadIndex(key []byte) (AccountTxList, error) {
	var list AccountTxList
	data, err := p.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return list, nil
	}
	if err != nil {
		return list, fmt.Errorf("failed to get tx list: %w", err)
	}
	if err := utils.DeserializeData(data, &list, utils.SerializationFormatGob); err != nil {
		return list, fmt.Errorf("failed to deserialize tx list: %w", err)
	}
	return list, nil
}

func (p *Ledger) appendIndexLocked(batch *leveldb.Batch, key []byte, digest string) error {
	list, err := p.loadIndex(key)
	if err != nil {
		return err
	}
	list.Digests = append(list.Digests, digest)

	data, err := utils.SerializeData(list, utils.SerializationFormatGob)
	if err != nil {
		return fmt.Errorf("failed to serialize tx list: %w", err)
	}
	batch.Put(key, data)
	return nil
}

// QueryTransactions pages through the sent or received index of an address.
// The cursor is an opaque offset; the returned cursor is empty on the last page.
func (p *Ledger) QueryTransactions(filter prt.TxFilter, page prt.Page) ([]prt.TxBlock, string, error) {
	var key []byte
	switch {
	case filter.FromAddress != nil && filter.ToAddress == nil:
		key = utils.GetAddressSentKey(*filter.FromAddress)
	case filter.ToAddress != nil && filter.FromAddress == nil:
		key = utils.GetAddressReceivedKey(*filter.ToAddress)
	default:
		return nil, "", fmt.Errorf("filter needs exactly one of fromAddress or toAddress")
	}

	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	offset := 0
	if page.Cursor != "" {
		n, err := strconv.Atoi(page.Cursor)
		if err != nil || n < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q", page.Cursor)
		}
		offset = n
	}

	p.mu.RLock()
	list, err := p.loadIndex(key)
	p.mu.RUnlock()
	if err != nil {
		return nil, "", err
	}

	digests := list.Digests
	if page.Descending {
		reversed := make([]string, len(digests))
		for i, d := range digests {
			reversed[len(digests)-1-i] = d
		}
		digests = reversed
	}

	if offset >= len(digests) {
		return []prt.TxBlock{}, "", nil
	}
	end := offset + limit
	next := strconv.Itoa(end)
	if end >= len(digests) {
		end = len(digests)
		next = ""
	}

	blocks := make([]prt.TxBlock, 0, end-offset)
	for _, d := range digests[offset:end] {
		blk, err := p.GetTx(d)
		if err != nil {
			return nil, "", err
		}
		blocks = append(blocks, *blk)
	}
	return blocks, next, nil
}
