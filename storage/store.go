package storage

import (
	"errors"
	"fmt"

	"github.com/abcfe/abcfe-wallet/config"
)

var ErrNotFound = errors.New("storage: key not found")

// Store is the durable key-value storage behind sessions and salts
type Store interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	DeletePrefix(prefix []byte) error
	Close() error
}

// Open selects the backend configured in [Store]
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case "", "leveldb":
		s, err := OpenLevel(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "bolt":
		s, err := OpenBolt(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %q", cfg.Store.Backend)
	}
}

// Scoped is a prefixed view over a Store. Clear removes only its own keys.
type Scoped struct {
	store  Store
	prefix []byte
}

func NewScoped(store Store, prefix string) *Scoped {
	return &Scoped{store: store, prefix: []byte(prefix)}
}

func (s *Scoped) key(k []byte) []byte {
	out := make([]byte, 0, len(s.prefix)+len(k))
	out = append(out, s.prefix...)
	return append(out, k...)
}

func (s *Scoped) Get(key []byte) ([]byte, error) {
	return s.store.Get(s.key(key))
}

func (s *Scoped) Put(key, value []byte) error {
	return s.store.Put(s.key(key), value)
}

func (s *Scoped) Delete(key []byte) error {
	return s.store.Delete(s.key(key))
}

func (s *Scoped) DeletePrefix(prefix []byte) error {
	return s.store.DeletePrefix(s.key(prefix))
}

func (s *Scoped) Clear() error {
	return s.store.DeletePrefix(s.prefix)
}
