package wallet

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

type memoryStore struct {
	mu      sync.RWMutex
	storage map[string]Wallet // keyed by wallet number
}

// NewMemoryStore constructs an in-memory store for tests and local runs.
func NewMemoryStore() Store {
	return &memoryStore{storage: make(map[string]Wallet)}
}

func (s *memoryStore) Create(_ context.Context, w Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.storage[w.WalletNumber]; exists {
		return ErrConflict
	}
	s.storage[w.WalletNumber] = w
	return nil
}

func (s *memoryStore) Get(_ context.Context, walletNumber string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.storage[walletNumber]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

func (s *memoryStore) ListForOwner(_ context.Context, ownerID string) ([]Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var wallets []Wallet
	for _, w := range s.storage {
		if w.OwnerID == ownerID {
			wallets = append(wallets, w)
		}
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].CreatedAt.Before(wallets[j].CreatedAt) })
	return wallets, nil
}

func (s *memoryStore) AdjustBalance(_ context.Context, walletNumber string, delta decimal.Decimal) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.storage[walletNumber]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	next := w.Balance.Add(delta)
	if next.IsNegative() {
		return Wallet{}, ErrInsufficientFunds
	}
	w.Balance = next
	s.storage[walletNumber] = w
	return w, nil
}
