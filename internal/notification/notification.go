package notification

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

const (
	// KindBalanceUpdate signals a wallet balance change after a transfer.
	KindBalanceUpdate = "balance_update"
)

// Message describes a notification payload.
type Message struct {
	Kind         string
	UserID       string
	WalletNumber string
	Balance      decimal.Decimal
}

// Notifier delivers notifications to downstream systems. Push delivery lives
// behind this seam; the engine never depends on a concrete transport.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"user_id", message.UserID,
		"wallet", message.WalletNumber,
		"balance", message.Balance.String())
	return nil
}
