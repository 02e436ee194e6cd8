package rates

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrRateUnavailable indicates the upstream has no rate for the currency pair.
var ErrRateUnavailable = errors.New("conversion rate unavailable")

// Provider resolves the conversion rate between two currency codes. The rate
// is the multiplier turning an amount in from-currency into to-currency.
type Provider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}
