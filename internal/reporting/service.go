package reporting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanduq-pay/sanduq_pay/internal/ledger"
	"github.com/sanduq-pay/sanduq_pay/internal/rates"
	"github.com/sanduq-pay/sanduq_pay/internal/wallet"
)

// Service aggregates ledger and wallet state into time-windowed summaries,
// normalized to one settlement currency. Conversion happens per line item at
// today's rate; sums are rounded to 2 decimals once at the end so rounding
// error does not compound.
type Service struct {
	wallets    wallet.Store
	entries    ledger.Store
	rates      rates.Provider
	settlement string
}

// NewService builds a reporting service normalizing into the given currency.
func NewService(wallets wallet.Store, entries ledger.Store, provider rates.Provider, settlementCurrency string) *Service {
	if settlementCurrency == "" {
		settlementCurrency = "USD"
	}
	return &Service{wallets: wallets, entries: entries, rates: provider, settlement: settlementCurrency}
}

// Overview summarizes a user's position: total balance across wallets plus
// the current calendar month's incoming and outgoing volume.
type Overview struct {
	TotalBalance    decimal.Decimal
	MonthlyIncoming decimal.Decimal
	MonthlyOutgoing decimal.Decimal
	Currency        string
}

// DayOverview is one daily bucket of the trailing-week report.
type DayOverview struct {
	Date     string
	Incoming decimal.Decimal
	Expense  decimal.Decimal
}

// Overview computes the financial overview for the user. Month boundaries are
// calendar-month boundaries in UTC.
func (s *Service) Overview(ctx context.Context, userID string) (Overview, error) {
	wallets, err := s.wallets.ListForOwner(ctx, userID)
	if err != nil {
		return Overview{}, err
	}

	total := decimal.Zero
	numbers := make([]string, 0, len(wallets))
	mine := make(map[string]bool, len(wallets))
	for _, w := range wallets {
		converted, err := s.convert(ctx, w.Balance, w.Currency)
		if err != nil {
			return Overview{}, err
		}
		total = total.Add(converted)
		numbers = append(numbers, w.WalletNumber)
		mine[w.WalletNumber] = true
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Nanosecond)

	entries, err := s.entries.ListBetween(ctx, numbers, monthStart, monthEnd)
	if err != nil {
		return Overview{}, err
	}

	incoming, outgoing := decimal.Zero, decimal.Zero
	for _, e := range entries {
		if mine[e.RecipientWallet] {
			converted, err := s.convert(ctx, e.AmountReceived, e.RecipientCurrency)
			if err != nil {
				return Overview{}, err
			}
			incoming = incoming.Add(converted)
		}
		if mine[e.SenderWallet] {
			converted, err := s.convert(ctx, e.AmountSent, e.SenderCurrency)
			if err != nil {
				return Overview{}, err
			}
			outgoing = outgoing.Add(converted)
		}
	}

	return Overview{
		TotalBalance:    total.RoundBank(2),
		MonthlyIncoming: incoming.RoundBank(2),
		MonthlyOutgoing: outgoing.RoundBank(2),
		Currency:        s.settlement,
	}, nil
}

// Last7Days builds one bucket per calendar day (UTC) for the trailing seven
// days including today. Entries where the user is both sender and recipient
// are excluded from both directions. Days without activity appear with zero
// totals.
func (s *Service) Last7Days(ctx context.Context, userID string) ([]DayOverview, error) {
	wallets, err := s.wallets.ListForOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	numbers := make([]string, 0, len(wallets))
	mine := make(map[string]bool, len(wallets))
	for _, w := range wallets {
		numbers = append(numbers, w.WalletNumber)
		mine[w.WalletNumber] = true
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	windowStart := today.AddDate(0, 0, -6)
	windowEnd := today.AddDate(0, 0, 1).Add(-time.Nanosecond)

	entries, err := s.entries.ListBetween(ctx, numbers, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	// Per-day, per-currency accumulation; conversion happens once per bucket.
	type bucket struct {
		incoming map[string]decimal.Decimal
		expense  map[string]decimal.Decimal
	}
	buckets := make(map[string]*bucket, 7)
	dayKey := func(t time.Time) string { return t.UTC().Format("2006-01-02") }

	for i := 0; i < 7; i++ {
		buckets[dayKey(windowStart.AddDate(0, 0, i))] = &bucket{
			incoming: make(map[string]decimal.Decimal),
			expense:  make(map[string]decimal.Decimal),
		}
	}

	for _, e := range entries {
		sent, received := mine[e.SenderWallet], mine[e.RecipientWallet]
		if sent && received {
			continue
		}
		b, ok := buckets[dayKey(e.Timestamp)]
		if !ok {
			continue
		}
		if received {
			b.incoming[e.RecipientCurrency] = b.incoming[e.RecipientCurrency].Add(e.AmountReceived)
		}
		if sent {
			b.expense[e.SenderCurrency] = b.expense[e.SenderCurrency].Add(e.AmountSent)
		}
	}

	overview := make([]DayOverview, 0, 7)
	for i := 0; i < 7; i++ {
		day := windowStart.AddDate(0, 0, i)
		b := buckets[dayKey(day)]

		incoming, err := s.convertTotals(ctx, b.incoming)
		if err != nil {
			return nil, err
		}
		expense, err := s.convertTotals(ctx, b.expense)
		if err != nil {
			return nil, err
		}

		overview = append(overview, DayOverview{
			Date:     dayKey(day),
			Incoming: incoming,
			Expense:  expense,
		})
	}
	return overview, nil
}

func (s *Service) convert(ctx context.Context, amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	if currency == s.settlement || amount.IsZero() {
		return amount, nil
	}
	rate, err := s.rates.Rate(ctx, currency, s.settlement)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

func (s *Service) convertTotals(ctx context.Context, totals map[string]decimal.Decimal) (decimal.Decimal, error) {
	sum := decimal.Zero
	for currency, amount := range totals {
		converted, err := s.convert(ctx, amount, currency)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(converted)
	}
	return sum.RoundBank(2), nil
}
