package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/abcfe/abcfe-wallet/storage"
	"github.com/google/uuid"
)

type Session struct {
	ID        string      `json:"id"`
	Identity  Identity    `json:"identity"`
	Address   prt.Address `json:"address"`
	Scheme    Scheme      `json:"scheme"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`

	account *Account
}

// Account returns the signing account bound to the session
func (s *Session) Account() *Account {
	return s.account
}

func (s *Session) expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type SessionOption func(*SessionStore)

// WithClock overrides the wall clock used for expiry
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) { s.now = now }
}

// SessionStore holds at most one session. The record lives in the durable
// scope, the signing material in the ephemeral scope.
type SessionStore struct {
	durable   KVStore
	ephemeral ClearableStore
	ttl       time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	current *Session
}

func NewSessionStore(durable KVStore, ephemeral ClearableStore, ttl time.Duration, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		durable:   durable,
		ephemeral: ephemeral,
		ttl:       ttl,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create replaces any existing session
func (s *SessionStore) Create(id Identity, acct *Account) (*Session, error) {
	if acct == nil || acct.Material == nil {
		return nil, fmt.Errorf("account without signing material")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.teardownLocked(); err != nil {
		return nil, err
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Identity:  id,
		Address:   acct.Address,
		Scheme:    acct.Scheme,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		account:   acct,
	}

	material, err := json.Marshal(acct.Material)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signing material: %w", err)
	}
	if err := s.ephemeral.Put(utils.GetSigningKeyKey(sess.ID), material); err != nil {
		return nil, fmt.Errorf("failed to store signing material: %w", err)
	}

	record, err := utils.SerializeData(sess, utils.SerializationFormatJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.durable.Put(utils.GetSessionKey(), record); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.current = sess
	return sess, nil
}

// Restore loads the persisted session. An expired or incomplete session is
// torn down and (nil, nil) is returned.
func (s *SessionStore) Restore() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.durable.Get(utils.GetSessionKey())
	if errors.Is(err, storage.ErrNotFound) {
		s.current = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess Session
	if err := utils.DeserializeData(data, &sess, utils.SerializationFormatJSON); err != nil {
		logger.Warn("discarding unreadable session: ", err)
		return nil, s.teardownLocked()
	}

	if sess.expired(s.now()) {
		logger.Info("session ", sess.ID, " expired at ", sess.ExpiresAt.Format(time.RFC3339))
		return nil, s.teardownLocked()
	}

	raw, err := s.ephemeral.Get(utils.GetSigningKeyKey(sess.ID))
	if errors.Is(err, storage.ErrNotFound) {
		logger.Warn("session ", sess.ID, " has no signing material")
		return nil, s.teardownLocked()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read signing material: %w", err)
	}

	var material SigningMaterial
	if err := json.Unmarshal(raw, &material); err != nil {
		logger.Warn("discarding unreadable signing material: ", err)
		return nil, s.teardownLocked()
	}

	sess.account = &Account{Address: sess.Address, Scheme: sess.Scheme, Material: &material}
	s.current = &sess
	return &sess, nil
}

// Current returns the live session, tearing it down once it has expired
func (s *SessionStore) Current() (*Session, error) {
	s.mu.RLock()
	sess := s.current
	s.mu.RUnlock()

	if sess == nil {
		return nil, ErrNoSession
	}
	if !sess.expired(s.now()) {
		return sess, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == sess {
		if err := s.teardownLocked(); err != nil {
			return nil, err
		}
	}
	return nil, ErrSessionExpired
}

func (s *SessionStore) IsActive() bool {
	_, err := s.Current()
	return err == nil
}

// Teardown removes the session and all ephemeral material. Salts stay.
func (s *SessionStore) Teardown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teardownLocked()
}

func (s *SessionStore) teardownLocked() error {
	s.current = nil
	if err := s.durable.Delete(utils.GetSessionKey()); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := s.ephemeral.Clear(); err != nil {
		return fmt.Errorf("failed to clear ephemeral store: %w", err)
	}
	return nil
}
