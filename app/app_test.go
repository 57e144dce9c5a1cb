package app

import (
	"context"
	"testing"

	"github.com/abcfe/abcfe-wallet/config"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/abcfe/abcfe-wallet/storage"
	"github.com/abcfe/abcfe-wallet/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedEpoch uint64

func (e fixedEpoch) CurrentEpoch(context.Context) (uint64, error) {
	return uint64(e), nil
}

func TestNewStrategy(t *testing.T) {
	store, err := storage.OpenLevelMemory()
	require.NoError(t, err)
	defer store.Close()
	durable := storage.NewScoped(store, prt.PrefixScopeDurable)

	cfg := config.Default()
	s, err := NewStrategy(cfg, durable, fixedEpoch(1))
	require.NoError(t, err)
	assert.Equal(t, wallet.SchemeDirect, s.Scheme())

	cfg.Wallet.Scheme = "proof"
	_, err = NewStrategy(cfg, durable, fixedEpoch(1))
	assert.ErrorIs(t, err, wallet.ErrConfiguration)

	cfg.Auth.GoogleClientID = "client-id"
	s, err = NewStrategy(cfg, durable, fixedEpoch(1))
	require.NoError(t, err)
	assert.Equal(t, wallet.SchemeProof, s.Scheme())

	cfg.Wallet.Scheme = "hardware"
	_, err = NewStrategy(cfg, durable, fixedEpoch(1))
	assert.ErrorIs(t, err, wallet.ErrConfiguration)
}

func TestBuildWallet(t *testing.T) {
	store, err := storage.OpenLevelMemory()
	require.NoError(t, err)
	defer store.Close()

	cfg := config.Default()
	cfg.Ledger.URL = "http://127.0.0.1:1"

	w, client, err := BuildWallet(cfg, store)
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, wallet.SchemeDirect, w.Scheme())
	assert.Equal(t, 9, w.Decimals())

	_, err = w.Active()
	assert.ErrorIs(t, err, wallet.ErrNoSession)
}

func TestBuildWalletRequiresClientID(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Ledger.URL = "http://127.0.0.1:1"

	store, err := storage.OpenLevelMemory()
	require.NoError(t, err)
	defer store.Close()

	w, _, err := BuildWallet(cfg, store)
	require.NoError(t, err)
	require.Equal(t, wallet.SchemeDirect, w.Scheme())

	_, err = w.Login(ctx, "github", wallet.Claim{"sub": "1"})
	assert.ErrorIs(t, err, wallet.ErrConfiguration)
	_, err = w.Active()
	assert.ErrorIs(t, err, wallet.ErrNoSession)

	cfg.Auth.GithubClientID = "gh-client"
	store2, err := storage.OpenLevelMemory()
	require.NoError(t, err)
	defer store2.Close()

	w, _, err = BuildWallet(cfg, store2)
	require.NoError(t, err)
	sess, err := w.Login(ctx, "github", wallet.Claim{"sub": "1"})
	require.NoError(t, err)
	assert.NotNil(t, sess)

	_, err = w.Login(ctx, "google", wallet.Claim{"sub": "g-1"})
	assert.ErrorIs(t, err, wallet.ErrConfiguration)
}
