package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanduq-pay/sanduq_pay/internal/wallet"
)

type inMemoryStore struct {
	mu      sync.Mutex
	wallets wallet.Store
	entries map[string]Entry // keyed by transfer id
}

// NewInMemory creates a concurrency-safe in-memory ledger store backed by the
// given wallet store. Useful for unit tests and local runs without Postgres.
func NewInMemory(wallets wallet.Store) Store {
	return &inMemoryStore{
		wallets: wallets,
		entries: make(map[string]Entry),
	}
}

func (s *inMemoryStore) ApplyTransfer(ctx context.Context, entry Entry) (TransferOutcome, error) {
	if !entry.AmountSent.IsPositive() {
		return TransferOutcome{}, fmt.Errorf("amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.TransferID]; exists {
		return TransferOutcome{}, ErrDuplicateTransfer
	}

	sender, err := s.wallets.AdjustBalance(ctx, entry.SenderWallet, entry.AmountSent.Neg())
	if err != nil {
		return TransferOutcome{}, err
	}
	recipient, err := s.wallets.AdjustBalance(ctx, entry.RecipientWallet, entry.AmountReceived)
	if err != nil {
		// Compensate the debit so the aborted unit leaves no trace.
		if _, undoErr := s.wallets.AdjustBalance(ctx, entry.SenderWallet, entry.AmountSent); undoErr != nil {
			return TransferOutcome{}, fmt.Errorf("abort transfer: %w", undoErr)
		}
		return TransferOutcome{}, err
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Status = StatusSuccess
	s.entries[entry.TransferID] = entry

	return TransferOutcome{
		Entry:            entry,
		SenderBalance:    sender.Balance,
		RecipientBalance: recipient.Balance,
	}, nil
}

func (s *inMemoryStore) Get(_ context.Context, transferID string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[transferID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (s *inMemoryStore) MarkSuccess(_ context.Context, transferID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[transferID]
	if !ok || e.Status != StatusPending {
		return ErrNotFound
	}
	e.Status = StatusSuccess
	s.entries[transferID] = e
	return nil
}

func (s *inMemoryStore) QueryForUser(_ context.Context, walletNumbers []string, f Filter, p Page) ([]Entry, int, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	mine := toSet(walletNumbers)

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Entry
	for _, e := range s.entries {
		if !mine[e.SenderWallet] && !mine[e.RecipientWallet] {
			continue
		}
		if !matchesFilter(e, f) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })

	total := len(matched)
	start := p.offset()
	if start >= total {
		return nil, total, nil
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *inMemoryStore) ListBetween(_ context.Context, walletNumbers []string, from, to time.Time) ([]Entry, error) {
	mine := toSet(walletNumbers)

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Entry
	for _, e := range s.entries {
		if e.Status != StatusSuccess {
			continue
		}
		if !mine[e.SenderWallet] && !mine[e.RecipientWallet] {
			continue
		}
		if e.Timestamp.Before(from) || e.Timestamp.After(to) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.Before(matched[j].Timestamp) })
	return matched, nil
}

func matchesFilter(e Entry, f Filter) bool {
	if f.SenderWallet != "" && e.SenderWallet != f.SenderWallet {
		return false
	}
	if f.RecipientWallet != "" && e.RecipientWallet != f.RecipientWallet {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Start != nil && e.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && e.Timestamp.After(*f.End) {
		return false
	}
	if f.MinAmount != nil && e.AmountSent.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && e.AmountSent.GreaterThan(*f.MaxAmount) {
		return false
	}
	return true
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
