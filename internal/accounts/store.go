package accounts

import (
	"context"
	"sync"
	"time"
)

// Store persists accounts. Update applies fn to the current account (or a
// fresh free one) and saves the result atomically; an error from fn aborts.
type Store interface {
	Get(ctx context.Context, userID string) (Account, error)
	Update(ctx context.Context, userID string, fn func(*Account) error) (Account, error)
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string]Account
	now  func() time.Time
}

// NewMemoryStore returns a process-local Store.
func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string]Account), now: func() time.Time { return time.Now().UTC() }}
}

func (s *memoryStore) Get(ctx context.Context, userID string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.data[userID]; ok {
		return acct, nil
	}
	return newAccount(userID, s.now()), nil
}

func (s *memoryStore) Update(ctx context.Context, userID string, fn func(*Account) error) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.data[userID]
	if !ok {
		acct = newAccount(userID, s.now())
	}
	if err := fn(&acct); err != nil {
		return Account{}, err
	}
	acct.UpdatedAt = s.now()
	s.data[userID] = acct
	return acct, nil
}
