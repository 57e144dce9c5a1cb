package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/abcfe/abcfe-wallet/common/crypto"
	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/abcfe/abcfe-wallet/storage"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	mu sync.Mutex

	coins      []prt.Coin
	coinsErr   error
	balance    string
	balanceErr error
	gasPrice   uint64
	epoch      uint64
	epochErr   error
	execResult *prt.ExecutionResult
	execErr    error
	sent       []prt.TxBlock
	received   []prt.TxBlock
	sentErr    error
	recvErr    error

	built        []prt.TransferRequest
	executed     int
	balanceCalls int
}

func (f *fakeLedger) GetCoins(_ context.Context, _ prt.Address, _ string) ([]prt.Coin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]prt.Coin(nil), f.coins...), f.coinsErr
}

func (f *fakeLedger) GetBalance(_ context.Context, _ prt.Address, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	return f.balance, f.balanceErr
}

func (f *fakeLedger) GetReferenceGasPrice(context.Context) (uint64, error) {
	return f.gasPrice, nil
}

func (f *fakeLedger) BuildTransaction(_ context.Context, req prt.TransferRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.built = append(f.built, req)
	return json.Marshal(prt.TransactionData{Version: "1", Transfer: req})
}

func (f *fakeLedger) Execute(_ context.Context, _ []byte, _ prt.Signature) (*prt.ExecutionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed++
	if f.execErr != nil {
		return nil, f.execErr
	}
	if f.execResult != nil {
		return f.execResult, nil
	}
	return &prt.ExecutionResult{Digest: fmt.Sprintf("tx-%d", f.executed), Status: prt.StatusSuccess, GasUsed: 1000}, nil
}

func (f *fakeLedger) QueryTransactions(_ context.Context, filter prt.TxFilter, _ prt.Page) ([]prt.TxBlock, error) {
	if filter.FromAddress != nil {
		return f.sent, f.sentErr
	}
	return f.received, f.recvErr
}

func (f *fakeLedger) CurrentEpoch(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.epoch, f.epochErr
}

func (f *fakeLedger) setEpoch(e uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.epoch = e
}

type fakeProver struct {
	calls int
}

func (p *fakeProver) Prove(_ context.Context, req ProofRequest) (*prt.ProofArtifact, error) {
	p.calls++
	seed := crypto.AddressSeed(req.Salt, req.Subject, req.Audience)
	return &prt.ProofArtifact{
		Points:      prt.ProofPoints{A: []string{"1"}, B: []string{"2"}, C: []string{"3"}},
		Issuer:      req.Issuer,
		AddressSeed: utils.HashToString(seed),
	}, nil
}

type testStores struct {
	base      storage.Store
	durable   *storage.Scoped
	ephemeral *storage.Scoped
}

func newTestStores(t *testing.T) *testStores {
	t.Helper()
	base, err := storage.OpenLevelMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = base.Close() })

	return &testStores{
		base:      base,
		durable:   storage.NewScoped(base, prt.PrefixScopeDurable),
		ephemeral: storage.NewScoped(base, prt.PrefixScopeEphemeral),
	}
}

func coinsOf(balances ...uint64) []prt.Coin {
	coins := make([]prt.Coin, len(balances))
	for i, b := range balances {
		coins[i] = prt.Coin{
			ObjectID: prt.ObjectID{byte(i + 1)},
			Version:  1,
			Balance:  b,
			CoinType: prt.NativeCoinType,
			Seq:      uint64(i),
		}
	}
	return coins
}

var (
	githubClaim = Claim{"sub": "1001", "email": "dev@example.com", "login": "dev", "avatar_url": "https://a/1.png"}
	googleClaim = Claim{"sub": "g-42", "email": "someone@example.org", "picture": "https://p/42.png"}
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
