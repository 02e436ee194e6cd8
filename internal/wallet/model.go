package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a named, currency-tagged balance owned by a user. The wallet
// number is the user-facing identifier and is unique across all wallets.
type Wallet struct {
	ID           string
	WalletNumber string
	OwnerID      string
	DisplayName  string
	Currency     string
	Balance      decimal.Decimal
	CreatedAt    time.Time
}
