package wallet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/abcfe/abcfe-wallet/common/crypto"
	"github.com/abcfe/abcfe-wallet/common/utils"
	"github.com/abcfe/abcfe-wallet/storage"
)

// KVStore is the subset of storage.Store the wallet needs
type KVStore interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
}

// ClearableStore additionally drops everything it holds
type ClearableStore interface {
	KVStore
	Clear() error
}

// SaltStore keeps one salt per (provider, subject) in the durable scope.
// Salts are never removed; losing one loses the proof-scheme address.
type SaltStore struct {
	store KVStore
	mu    sync.Mutex
}

func NewSaltStore(store KVStore) *SaltStore {
	return &SaltStore{store: store}
}

func (s *SaltStore) Lookup(provider Provider, subject string) (uint64, bool, error) {
	data, err := s.store.Get(utils.GetSaltKey(string(provider), subject))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read salt: %w", err)
	}
	if len(data) != 8 {
		return 0, false, fmt.Errorf("corrupt salt record for %s/%s", provider, subject)
	}
	return utils.BytesToUint64(data), true, nil
}

// GetOrCreate returns the stored salt, generating it on first use
func (s *SaltStore) GetOrCreate(provider Provider, subject string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	salt, ok, err := s.Lookup(provider, subject)
	if err != nil {
		return 0, err
	}
	if ok {
		return salt, nil
	}

	salt, err = crypto.NewSalt()
	if err != nil {
		return 0, err
	}
	if err := s.store.Put(utils.GetSaltKey(string(provider), subject), utils.Uint64ToBytes(salt)); err != nil {
		return 0, fmt.Errorf("failed to persist salt: %w", err)
	}
	return salt, nil
}
