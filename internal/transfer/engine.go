package transfer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanduq-pay/sanduq_pay/internal/identity"
	"github.com/sanduq-pay/sanduq_pay/internal/ledger"
	"github.com/sanduq-pay/sanduq_pay/internal/notification"
	"github.com/sanduq-pay/sanduq_pay/internal/rates"
	"github.com/sanduq-pay/sanduq_pay/internal/wallet"
)

var (
	// ErrInvalidAmount indicates the requested amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrCurrencyMismatch indicates a declared currency does not match the
	// wallet's actual currency.
	ErrCurrencyMismatch = errors.New("wallet currency mismatch")

	// ErrRecipientMismatch indicates the claimed recipient name does not match
	// the recipient wallet's owner.
	ErrRecipientMismatch = errors.New("recipient name and wallet number do not match")
)

// amountReceived is stored at the ledger's fixed precision.
const ledgerPrecision = 2

// Engine orchestrates validation, conversion and the atomic transfer unit.
// It owns the protocol, not the stores: balances move only inside the ledger
// store's ApplyTransfer.
type Engine struct {
	wallets  wallet.Store
	entries  ledger.Store
	users    identity.Repository
	rates    rates.Provider
	notifier notification.Notifier
}

// NewEngine constructs a transfer engine.
func NewEngine(wallets wallet.Store, entries ledger.Store, users identity.Repository, provider rates.Provider, notifier notification.Notifier) *Engine {
	return &Engine{wallets: wallets, entries: entries, users: users, rates: provider, notifier: notifier}
}

// Request captures the data needed to move value between wallets.
type Request struct {
	RequesterID   string
	FromWallet    string
	ToWallet      string
	Amount        decimal.Decimal
	FromCurrency  string
	ToCurrency    string
	RecipientName string
}

// Result describes a committed transfer.
type Result struct {
	TransferID     string
	FromWallet     string
	ToWallet       string
	AmountSent     decimal.Decimal
	AmountReceived decimal.Decimal
	FromCurrency   string
	ToCurrency     string
	ConversionRate decimal.Decimal
	Timestamp      time.Time
}

// Transfer validates the request, converts the amount at the fetched rate and
// applies the atomic unit. Validation failures abort before any mutation; a
// failure inside the unit leaves no observable partial state. Nothing is
// retried here; resubmission is the caller's decision.
func (e *Engine) Transfer(ctx context.Context, req Request) (Result, error) {
	// Validation and the debit both operate on the ledger-precision amount,
	// so a sub-cent request is rejected here rather than deep in the store.
	amount := req.Amount.RoundBank(ledgerPrecision)
	if !amount.IsPositive() {
		return Result{}, ErrInvalidAmount
	}

	sender, err := e.wallets.Get(ctx, req.FromWallet)
	if err != nil {
		return Result{}, err
	}
	// A foreign wallet is indistinguishable from a missing one.
	if sender.OwnerID != req.RequesterID {
		return Result{}, wallet.ErrNotFound
	}

	recipient, err := e.wallets.Get(ctx, req.ToWallet)
	if err != nil {
		return Result{}, err
	}

	if sender.Currency != req.FromCurrency || recipient.Currency != req.ToCurrency {
		return Result{}, ErrCurrencyMismatch
	}

	owner, err := e.users.FindByID(ctx, recipient.OwnerID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return Result{}, ErrRecipientMismatch
		}
		return Result{}, err
	}
	if owner.Name != req.RecipientName {
		return Result{}, ErrRecipientMismatch
	}

	// Early rejection only; the authoritative check runs inside the atomic
	// unit under the row lock.
	if sender.Balance.LessThan(amount) {
		return Result{}, wallet.ErrInsufficientFunds
	}

	rate, err := e.rates.Rate(ctx, req.FromCurrency, req.ToCurrency)
	if err != nil {
		return Result{}, err
	}

	converted := amount.Mul(rate).RoundBank(ledgerPrecision)

	entry := ledger.Entry{
		TransferID:        uuid.NewString(),
		SenderWallet:      sender.WalletNumber,
		RecipientWallet:   recipient.WalletNumber,
		RecipientName:     req.RecipientName,
		SenderCurrency:    req.FromCurrency,
		RecipientCurrency: req.ToCurrency,
		AmountSent:        amount,
		AmountReceived:    converted,
		ConversionRate:    rate,
		Status:            ledger.StatusPending,
		Timestamp:         time.Now().UTC(),
	}

	outcome, err := e.entries.ApplyTransfer(ctx, entry)
	if err != nil {
		return Result{}, err
	}

	e.notifyBalance(ctx, sender.OwnerID, sender.WalletNumber, outcome.SenderBalance)
	e.notifyBalance(ctx, recipient.OwnerID, recipient.WalletNumber, outcome.RecipientBalance)

	return Result{
		TransferID:     outcome.Entry.TransferID,
		FromWallet:     sender.WalletNumber,
		ToWallet:       recipient.WalletNumber,
		AmountSent:     amount,
		AmountReceived: converted,
		FromCurrency:   req.FromCurrency,
		ToCurrency:     req.ToCurrency,
		ConversionRate: rate,
		Timestamp:      outcome.Entry.Timestamp,
	}, nil
}

func (e *Engine) notifyBalance(ctx context.Context, userID, walletNumber string, balance decimal.Decimal) {
	if e.notifier == nil {
		return
	}
	_ = e.notifier.Send(ctx, notification.Message{
		Kind:         notification.KindBalanceUpdate,
		UserID:       userID,
		WalletNumber: walletNumber,
		Balance:      balance,
	})
}
