package storage

import (
	"path/filepath"
	"testing"

	"github.com/abcfe/abcfe-wallet/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	level, err := OpenLevelMemory()
	require.NoError(t, err)

	bolt, err := OpenBolt(filepath.Join(t.TempDir(), "wallet.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = level.Close()
		_ = bolt.Close()
	})
	return map[string]Store{"leveldb": level, "bolt": bolt}
}

func TestStore_CRUD(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get([]byte("missing"))
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put([]byte("k"), []byte("v")))
			v, err := s.Get([]byte("k"))
			require.NoError(t, err)
			assert.Equal(t, []byte("v"), v)

			require.NoError(t, s.Delete([]byte("k")))
			_, err = s.Get([]byte("k"))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestScoped_ClearKeepsOtherScopes(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			durable := NewScoped(s, "dur:")
			ephemeral := NewScoped(s, "eph:")

			require.NoError(t, durable.Put([]byte("salt:github:1"), []byte{1}))
			require.NoError(t, ephemeral.Put([]byte("signkey:a"), []byte{2}))
			require.NoError(t, ephemeral.Put([]byte("signkey:b"), []byte{3}))

			require.NoError(t, ephemeral.Clear())

			_, err := ephemeral.Get([]byte("signkey:a"))
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = ephemeral.Get([]byte("signkey:b"))
			assert.ErrorIs(t, err, ErrNotFound)

			v, err := durable.Get([]byte("salt:github:1"))
			require.NoError(t, err)
			assert.Equal(t, []byte{1}, v)
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "redis"
	_, err := Open(cfg)
	assert.Error(t, err)
}
