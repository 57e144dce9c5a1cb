package core

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"
	"time"

	"github.com/abcfe/abcfe-wallet/common/crypto"
	"github.com/abcfe/abcfe-wallet/common/utils"
	"github.com/abcfe/abcfe-wallet/config"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/abcfe/abcfe-wallet/prover"
	"github.com/abcfe/abcfe-wallet/storage"
	"github.com/abcfe/abcfe-wallet/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
)

var genesisTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type testKey struct {
	priv ed25519.PrivateKey
	addr prt.Address
}

func newTestKey(t *testing.T) testKey {
	t.Helper()
	priv, pub, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return testKey{priv: priv, addr: crypto.PublicKeyToAddress(pub)}
}

// setTestLedger opens an in-memory ledger whose genesis funds owner with the given coins
func setTestLedger(t *testing.T, owner prt.Address, balances ...uint64) (*Ledger, *time.Time) {
	t.Helper()

	cfg := config.Default()
	cfg.Node.EpochSec = 60
	cfg.Node.FaucetAmount = 500
	cfg.Node.FaucetCooldownSec = 30
	cfg.Genesis.Timestamp = genesisTime.Unix()
	for _, b := range balances {
		cfg.Genesis.SystemAddresses = append(cfg.Genesis.SystemAddresses, utils.AddressToString(owner))
		cfg.Genesis.SystemBalances = append(cfg.Genesis.SystemBalances, b)
	}

	db, err := storage.OpenMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	l, err := NewLedger(db, cfg)
	require.NoError(t, err)

	now := genesisTime
	l.SetClock(func() time.Time { return now })
	return l, &now
}

func transferReq(l *Ledger, from, to prt.Address, coin prt.Coin, amount uint64) prt.TransferRequest {
	return prt.TransferRequest{
		Sender:      from,
		Recipient:   to,
		CoinType:    prt.NativeCoinType,
		CoinID:      coin.ObjectID,
		CoinVersion: coin.Version,
		Amount:      amount,
		Split:       amount < coin.Balance,
		GasPrice:    l.ReferenceGasPrice(),
		GasBudget:   l.ReferenceGasPrice() * transferComputationUnits,
	}
}

func signAndExecute(t *testing.T, l *Ledger, key testKey, req prt.TransferRequest) (*prt.ExecutionResult, error) {
	t.Helper()
	txBytes, err := l.BuildTransaction(req)
	require.NoError(t, err)
	sig, err := crypto.SignTransaction(key.priv, txBytes)
	require.NoError(t, err)
	return l.Execute(txBytes, sig)
}

func TestGenesisCoins(t *testing.T) {
	owner := newTestKey(t)
	l, _ := setTestLedger(t, owner.addr, 100, 50)

	coins, err := l.GetCoins(owner.addr, prt.NativeCoinType)
	require.NoError(t, err)
	require.Len(t, coins, 2)
	assert.Equal(t, uint64(100), coins[0].Balance)
	assert.Equal(t, uint64(50), coins[1].Balance)
	assert.Less(t, coins[0].Seq, coins[1].Seq)

	bal, err := l.GetBalance(owner.addr, prt.NativeCoinType)
	require.NoError(t, err)
	assert.Equal(t, "150", bal.String())

	recv, _, err := l.QueryTransactions(prt.TxFilter{ToAddress: &owner.addr}, prt.Page{})
	require.NoError(t, err)
	require.Len(t, recv, 1)
	assert.True(t, recv[0].Sender.IsZero())
}

func TestGenesisMismatch(t *testing.T) {
	cfg := config.Default()
	cfg.Genesis.SystemAddresses = []string{utils.AddressToString(prt.Address{1})}

	db, err := storage.OpenMemoryDB()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewLedger(db, cfg)
	assert.Error(t, err)
}

func TestExecuteSplitTransfer(t *testing.T) {
	sender, recipient := newTestKey(t), newTestKey(t)
	l, _ := setTestLedger(t, sender.addr, 100, 50)

	var events []prt.TxBlock
	l.Subscribe(func(blk prt.TxBlock) { events = append(events, blk) })

	coins, err := l.GetCoins(sender.addr, prt.NativeCoinType)
	require.NoError(t, err)

	res, err := signAndExecute(t, l, sender, transferReq(l, sender.addr, recipient.addr, coins[0], 40))
	require.NoError(t, err)
	require.Equal(t, prt.StatusSuccess, res.Status, res.Error)
	assert.Equal(t, l.ReferenceGasPrice()*transferComputationUnits, res.GasUsed)

	after, err := l.GetCoins(sender.addr, prt.NativeCoinType)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, uint64(60), after[0].Balance)
	assert.Equal(t, coins[0].ObjectID, after[0].ObjectID)
	assert.Equal(t, uint64(2), after[0].Version)

	got, err := l.GetCoins(recipient.addr, prt.NativeCoinType)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(40), got[0].Balance)

	blk, err := l.GetTx(res.Digest)
	require.NoError(t, err)
	require.Len(t, blk.BalanceChanges, 2)
	assert.Equal(t, "-40", blk.BalanceChanges[0].Amount)
	assert.Equal(t, recipient.addr, blk.BalanceChanges[1].Owner)
	assert.Equal(t, "40", blk.BalanceChanges[1].Amount)

	require.Len(t, events, 1)
	assert.Equal(t, res.Digest, events[0].Digest)
}

func TestExecuteWholeTransfer(t *testing.T) {
	sender, recipient := newTestKey(t), newTestKey(t)
	l, _ := setTestLedger(t, sender.addr, 100, 50)

	coins, _ := l.GetCoins(sender.addr, prt.NativeCoinType)
	res, err := signAndExecute(t, l, sender, transferReq(l, sender.addr, recipient.addr, coins[1], 50))
	require.NoError(t, err)
	require.Equal(t, prt.StatusSuccess, res.Status, res.Error)

	left, _ := l.GetCoins(sender.addr, prt.NativeCoinType)
	require.Len(t, left, 1)
	assert.Equal(t, uint64(100), left[0].Balance)

	moved, _ := l.GetCoins(recipient.addr, prt.NativeCoinType)
	require.Len(t, moved, 1)
	assert.Equal(t, coins[1].ObjectID, moved[0].ObjectID)
	assert.Equal(t, recipient.addr, moved[0].Owner)
}

func TestExecuteStaleCoinRecordedAsFailure(t *testing.T) {
	sender, recipient := newTestKey(t), newTestKey(t)
	l, now := setTestLedger(t, sender.addr, 100)

	coins, _ := l.GetCoins(sender.addr, prt.NativeCoinType)
	res, err := signAndExecute(t, l, sender, transferReq(l, sender.addr, recipient.addr, coins[0], 10))
	require.NoError(t, err)
	require.Equal(t, prt.StatusSuccess, res.Status)

	// same coin snapshot, new transaction bytes
	*now = now.Add(time.Millisecond)
	res, err = signAndExecute(t, l, sender, transferReq(l, sender.addr, recipient.addr, coins[0], 10))
	require.NoError(t, err)
	assert.Equal(t, prt.StatusFailure, res.Status)
	assert.Contains(t, res.Error, "version mismatch")
	assert.Zero(t, res.GasUsed)

	bal, _ := l.GetBalance(sender.addr, prt.NativeCoinType)
	assert.Equal(t, "90", bal.String())

	sent, _, err := l.QueryTransactions(prt.TxFilter{FromAddress: &sender.addr}, prt.Page{Descending: true})
	require.NoError(t, err)
	require.Len(t, sent, 2)
	assert.Equal(t, prt.StatusFailure, sent[0].Status)
}

func TestExecuteRejects(t *testing.T) {
	sender, other := newTestKey(t), newTestKey(t)
	l, _ := setTestLedger(t, sender.addr, 100)
	coins, _ := l.GetCoins(sender.addr, prt.NativeCoinType)

	req := transferReq(l, sender.addr, other.addr, coins[0], 10)
	txBytes, err := l.BuildTransaction(req)
	require.NoError(t, err)

	// signed by someone else
	sig, err := crypto.SignTransaction(other.priv, txBytes)
	require.NoError(t, err)
	_, err = l.Execute(txBytes, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	sig, err = crypto.SignTransaction(sender.priv, txBytes)
	require.NoError(t, err)
	_, err = l.Execute(txBytes, sig)
	require.NoError(t, err)
	_, err = l.Execute(txBytes, sig)
	assert.ErrorIs(t, err, ErrDuplicateTx)

	_, err = l.Execute([]byte("{"), sig)
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestExecuteGasChecks(t *testing.T) {
	sender, recipient := newTestKey(t), newTestKey(t)
	l, _ := setTestLedger(t, sender.addr, 100)
	coins, _ := l.GetCoins(sender.addr, prt.NativeCoinType)

	req := transferReq(l, sender.addr, recipient.addr, coins[0], 10)
	req.GasBudget = 1
	res, err := signAndExecute(t, l, sender, req)
	require.NoError(t, err)
	assert.Equal(t, prt.StatusFailure, res.Status)
	assert.Contains(t, res.Error, "gas budget")

	req = transferReq(l, sender.addr, recipient.addr, coins[0], 10)
	req.GasPrice = 1
	res, err = signAndExecute(t, l, sender, req)
	require.NoError(t, err)
	assert.Equal(t, prt.StatusFailure, res.Status)
	assert.Contains(t, res.Error, "gas price")

	// 1<<61 * 1000 wraps to zero in uint64
	req = transferReq(l, sender.addr, recipient.addr, coins[0], 10)
	req.GasPrice = 1 << 61
	req.GasBudget = 1
	res, err = signAndExecute(t, l, sender, req)
	require.NoError(t, err)
	assert.Equal(t, prt.StatusFailure, res.Status)
	assert.Contains(t, res.Error, "too large")
	assert.Zero(t, res.GasUsed)

	got, _ := l.GetCoins(recipient.addr, prt.NativeCoinType)
	assert.Empty(t, got)
}

func TestCoinSeqAdvancesOnCommit(t *testing.T) {
	sender, recipient := newTestKey(t), newTestKey(t)
	l, _ := setTestLedger(t, sender.addr, 100, 50)
	require.Equal(t, uint64(2), l.CoinSeq)

	coins, _ := l.GetCoins(sender.addr, prt.NativeCoinType)
	res, err := signAndExecute(t, l, sender, transferReq(l, sender.addr, recipient.addr, coins[0], 40))
	require.NoError(t, err)
	require.Equal(t, prt.StatusSuccess, res.Status, res.Error)
	assert.Equal(t, uint64(3), l.CoinSeq)

	req := transferReq(l, sender.addr, recipient.addr, coins[0], 10)
	res, err = signAndExecute(t, l, sender, req)
	require.NoError(t, err)
	require.Equal(t, prt.StatusFailure, res.Status)
	assert.Equal(t, uint64(3), l.CoinSeq)

	batch := new(leveldb.Batch)
	staged := l.newCoinBatchLocked(batch)
	assert.Equal(t, uint64(4), staged.nextSeq())
	assert.Equal(t, uint64(3), l.CoinSeq)

	require.NoError(t, l.db.Close())
	assert.Error(t, l.commitLocked(batch, staged))
	assert.Equal(t, uint64(3), l.CoinSeq)
}

func TestEpochs(t *testing.T) {
	l, now := setTestLedger(t, prt.Address{1})
	assert.Equal(t, uint64(0), l.CurrentEpoch())

	*now = genesisTime.Add(3*time.Minute + 10*time.Second)
	assert.Equal(t, uint64(3), l.CurrentEpoch())
	assert.Equal(t, uint64(3), l.GetStatus().CurrentEpoch)
}

func TestFaucetCooldown(t *testing.T) {
	key := newTestKey(t)
	l, now := setTestLedger(t, prt.Address{1})

	res, err := l.RequestFaucet(key.addr)
	require.NoError(t, err)
	assert.Equal(t, prt.StatusSuccess, res.Status)

	_, err = l.RequestFaucet(key.addr)
	assert.ErrorIs(t, err, ErrFaucetCooldown)

	*now = now.Add(31 * time.Second)
	_, err = l.RequestFaucet(key.addr)
	require.NoError(t, err)

	bal, _ := l.GetBalance(key.addr, prt.NativeCoinType)
	assert.Equal(t, "1000", bal.String())
}

func TestQueryPaging(t *testing.T) {
	sender, recipient := newTestKey(t), newTestKey(t)
	l, _ := setTestLedger(t, sender.addr, 10, 10, 10)
	coins, _ := l.GetCoins(sender.addr, prt.NativeCoinType)

	var digests []string
	for _, c := range coins {
		res, err := signAndExecute(t, l, sender, transferReq(l, sender.addr, recipient.addr, c, 10))
		require.NoError(t, err)
		digests = append(digests, res.Digest)
	}

	page, next, err := l.QueryTransactions(prt.TxFilter{ToAddress: &recipient.addr}, prt.Page{Limit: 2, Descending: true})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, digests[2], page[0].Digest)
	assert.Equal(t, "2", next)

	page, next, err = l.QueryTransactions(prt.TxFilter{ToAddress: &recipient.addr}, prt.Page{Limit: 2, Cursor: next, Descending: true})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, digests[0], page[0].Digest)
	assert.Empty(t, next)

	_, _, err = l.QueryTransactions(prt.TxFilter{}, prt.Page{})
	assert.Error(t, err)
}

func TestExecuteProofSignature(t *testing.T) {
	recipient := newTestKey(t)
	l, now := setTestLedger(t, prt.Address{1})

	ephemeral, ephemeralPub, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	maxEpoch := l.CurrentEpoch() + 1
	proof, err := prover.New().Prove(t.Context(), wallet.ProofRequest{
		Issuer:             wallet.ProviderGoogle.Issuer(),
		Audience:           "client",
		Subject:            "g-42",
		Salt:               9,
		EphemeralPublicKey: ephemeralPub,
		MaxEpoch:           maxEpoch,
	})
	require.NoError(t, err)
	owner := wallet.ProofAddress(wallet.ProviderGoogle, "g-42", "client", 9)

	_, err = l.RequestFaucet(owner)
	require.NoError(t, err)
	coins, _ := l.GetCoins(owner, prt.NativeCoinType)
	require.Len(t, coins, 1)

	sign := func(req prt.TransferRequest) ([]byte, prt.Signature) {
		txBytes, err := l.BuildTransaction(req)
		require.NoError(t, err)
		inner, err := crypto.SignTransaction(ephemeral, txBytes)
		require.NoError(t, err)
		sig, err := crypto.EncodeZkLoginSignature(prt.ZkLoginSignature{Inputs: *proof, MaxEpoch: maxEpoch, UserSignature: inner})
		require.NoError(t, err)
		return txBytes, sig
	}

	txBytes, sig := sign(transferReq(l, owner, recipient.addr, coins[0], 100))
	res, err := l.Execute(txBytes, sig)
	require.NoError(t, err)
	require.Equal(t, prt.StatusSuccess, res.Status, res.Error)

	// past maxEpoch the proof no longer authorizes anything
	*now = genesisTime.Add(2 * time.Minute)
	coins, _ = l.GetCoins(owner, prt.NativeCoinType)
	txBytes, sig = sign(transferReq(l, owner, recipient.addr, coins[0], 100))
	_, err = l.Execute(txBytes, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestBuildTransactionCanonical(t *testing.T) {
	l, _ := setTestLedger(t, prt.Address{1})

	_, err := l.BuildTransaction(prt.TransferRequest{})
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	txBytes, err := l.BuildTransaction(prt.TransferRequest{
		Sender: prt.Address{1}, Recipient: prt.Address{2}, CoinID: prt.ObjectID{3}, Amount: 1,
	})
	require.NoError(t, err)

	var tx prt.TransactionData
	require.NoError(t, json.Unmarshal(txBytes, &tx))
	assert.Equal(t, "1", tx.Version)
	assert.Equal(t, prt.NativeCoinType, tx.Transfer.CoinType)
	assert.Equal(t, genesisTime.UnixMilli(), tx.CreatedAt)
}
