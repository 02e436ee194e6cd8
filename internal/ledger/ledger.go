package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the ledger entry does not exist or is not pending.
	ErrNotFound = errors.New("ledger entry not found")

	// ErrDuplicateTransfer indicates the transfer identifier was already used.
	ErrDuplicateTransfer = errors.New("duplicate transfer")
)

// Status tracks the lifecycle of a ledger entry. An entry is created Pending
// inside the atomic transfer unit and flips to Success exactly once before
// commit; an aborted unit leaves no entry behind.
type Status string

const (
	StatusPending Status = "Pending"
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed:
		return true
	default:
		return false
	}
}

// Entry is the immutable audit record of one money movement.
type Entry struct {
	ID                string
	TransferID        string
	SenderWallet      string
	RecipientWallet   string
	RecipientName     string
	SenderCurrency    string
	RecipientCurrency string
	AmountSent        decimal.Decimal
	AmountReceived    decimal.Decimal
	ConversionRate    decimal.Decimal
	Status            Status
	Timestamp         time.Time
}

// TransferOutcome reports the committed result of the atomic transfer unit.
type TransferOutcome struct {
	Entry            Entry
	SenderBalance    decimal.Decimal
	RecipientBalance decimal.Decimal
}

// Filter narrows a ledger query. Zero values mean "no constraint"; when both
// bounds of a range are set they are inclusive.
type Filter struct {
	SenderWallet    string
	RecipientWallet string
	Status          Status
	Start           *time.Time
	End             *time.Time
	MinAmount       *decimal.Decimal
	MaxAmount       *decimal.Decimal
}

// Page requests one page of results. Page numbering starts at 1.
type Page struct {
	Page  int
	Limit int
}

func (p Page) offset() int {
	return (p.Page - 1) * p.Limit
}

// Store is the append-only ledger contract. ApplyTransfer realizes the atomic
// unit: both balance adjustments and the entry write commit together or not
// at all, with the sender's balance check held under the same isolation scope
// as the debit.
type Store interface {
	ApplyTransfer(ctx context.Context, entry Entry) (TransferOutcome, error)
	Get(ctx context.Context, transferID string) (Entry, error)
	MarkSuccess(ctx context.Context, transferID string) error
	QueryForUser(ctx context.Context, walletNumbers []string, f Filter, p Page) ([]Entry, int, error)
	ListBetween(ctx context.Context, walletNumbers []string, from, to time.Time) ([]Entry, error)
}
