package rates

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Static is a fixed rate table for tests. Keys are "FROM:TO" pairs; a pair of
// identical currencies resolves to 1 without an entry.
type Static map[string]decimal.Decimal

// Rate looks up the pair in the table.
func (s Static) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := s[fmt.Sprintf("%s:%s", from, to)]
	if !ok {
		return decimal.Zero, ErrRateUnavailable
	}
	return rate, nil
}
