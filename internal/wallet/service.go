package wallet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service exposes wallet lifecycle operations.
type Service struct {
	store           Store
	defaultCurrency string
}

// NewService builds a wallet service instance.
func NewService(store Store, defaultCurrency string) *Service {
	if defaultCurrency == "" {
		defaultCurrency = "SAR"
	}
	return &Service{store: store, defaultCurrency: defaultCurrency}
}

// CreateInput captures data required to create a wallet.
type CreateInput struct {
	OwnerID        string
	WalletNumber   string
	InitialBalance decimal.Decimal
	DisplayName    string
	Currency       string
}

// Create provisions a wallet with an initial balance. The display name
// defaults to the wallet number and the currency to the configured default.
func (s *Service) Create(ctx context.Context, input CreateInput) (Wallet, error) {
	if _, err := uuid.Parse(input.OwnerID); err != nil {
		return Wallet{}, err
	}
	number := strings.TrimSpace(input.WalletNumber)
	if number == "" {
		return Wallet{}, fmt.Errorf("wallet number is required")
	}
	if input.InitialBalance.IsNegative() {
		return Wallet{}, fmt.Errorf("initial balance must not be negative")
	}

	displayName := input.DisplayName
	if displayName == "" {
		displayName = number
	}
	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}

	w := Wallet{
		ID:           uuid.NewString(),
		WalletNumber: number,
		OwnerID:      input.OwnerID,
		DisplayName:  displayName,
		Currency:     currency,
		Balance:      input.InitialBalance.RoundBank(2),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Create(ctx, w); err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// Get retrieves a wallet by wallet number.
func (s *Service) Get(ctx context.Context, walletNumber string) (Wallet, error) {
	return s.store.Get(ctx, walletNumber)
}

// ListForOwner returns the user's wallets together with their count.
func (s *Service) ListForOwner(ctx context.Context, ownerID string) ([]Wallet, int, error) {
	wallets, err := s.store.ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	return wallets, len(wallets), nil
}
