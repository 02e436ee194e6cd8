package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestCreateDefaults(t *testing.T) {
	svc := NewService(NewMemoryStore(), "SAR")
	ctx := context.Background()

	w, err := svc.Create(ctx, CreateInput{
		OwnerID:        uuid.NewString(),
		WalletNumber:   "W-100",
		InitialBalance: decimal.RequireFromString("25.5"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if w.Currency != "SAR" {
		t.Fatalf("currency = %s, want SAR default", w.Currency)
	}
	if w.DisplayName != "W-100" {
		t.Fatalf("display name = %s, want wallet number", w.DisplayName)
	}
	if !w.Balance.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("balance = %s, want 25.50", w.Balance)
	}
	if w.ID == "" {
		t.Fatalf("wallet id not assigned")
	}
}

func TestCreateNormalizesCurrency(t *testing.T) {
	svc := NewService(NewMemoryStore(), "SAR")

	w, err := svc.Create(context.Background(), CreateInput{
		OwnerID:      uuid.NewString(),
		WalletNumber: "W-100",
		Currency:     "usd",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.Currency != "USD" {
		t.Fatalf("currency = %s, want USD", w.Currency)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(NewMemoryStore(), "SAR")
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{OwnerID: "not-a-uuid", WalletNumber: "W-1"}); err == nil {
		t.Fatalf("expected error for invalid owner id")
	}
	if _, err := svc.Create(ctx, CreateInput{OwnerID: uuid.NewString()}); err == nil {
		t.Fatalf("expected error for missing wallet number")
	}
	if _, err := svc.Create(ctx, CreateInput{
		OwnerID:        uuid.NewString(),
		WalletNumber:   "W-1",
		InitialBalance: decimal.NewFromInt(-1),
	}); err == nil {
		t.Fatalf("expected error for negative balance")
	}
}

func TestCreateDuplicateNumber(t *testing.T) {
	svc := NewService(NewMemoryStore(), "SAR")
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{OwnerID: uuid.NewString(), WalletNumber: "W-1"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{OwnerID: uuid.NewString(), WalletNumber: "W-1"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestListForOwner(t *testing.T) {
	svc := NewService(NewMemoryStore(), "SAR")
	ctx := context.Background()
	owner := uuid.NewString()

	for _, number := range []string{"W-1", "W-2", "W-3"} {
		if _, err := svc.Create(ctx, CreateInput{OwnerID: owner, WalletNumber: number}); err != nil {
			t.Fatalf("create %s: %v", number, err)
		}
	}
	if _, err := svc.Create(ctx, CreateInput{OwnerID: uuid.NewString(), WalletNumber: "W-9"}); err != nil {
		t.Fatalf("create other: %v", err)
	}

	wallets, total, err := svc.ListForOwner(ctx, owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(wallets) != 3 {
		t.Fatalf("got %d wallets, want 3", total)
	}
}

func TestAdjustBalanceGuardsNegative(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	err := store.Create(ctx, Wallet{
		ID:           uuid.NewString(),
		WalletNumber: "W-1",
		OwnerID:      uuid.NewString(),
		Balance:      decimal.NewFromInt(10),
		Currency:     "SAR",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.AdjustBalance(ctx, "W-1", decimal.NewFromInt(-20)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	w, err := store.AdjustBalance(ctx, "W-1", decimal.NewFromInt(-10))
	if err != nil {
		t.Fatalf("exact drain should succeed: %v", err)
	}
	if !w.Balance.IsZero() {
		t.Fatalf("balance = %s, want 0", w.Balance)
	}

	if _, err := store.AdjustBalance(ctx, "W-9", decimal.NewFromInt(1)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
