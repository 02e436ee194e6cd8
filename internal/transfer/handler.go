package transfer

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/sanduq-pay/sanduq_pay/internal/ledger"
	"github.com/sanduq-pay/sanduq_pay/internal/rates"
	"github.com/sanduq-pay/sanduq_pay/internal/wallet"
)

// Handler exposes the transfer endpoint.
type Handler struct {
	engine *Engine
}

// NewHandler constructs a transfer handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

type transferRequest struct {
	FromWallet    string          `json:"fromWallet"`
	ToWallet      string          `json:"toWallet"`
	Amount        decimal.Decimal `json:"amount"`
	FromCurrency  string          `json:"fromCurrency"`
	ToCurrency    string          `json:"toCurrency"`
	RecipientName string          `json:"recipientName"`
}

// Create processes a wallet-to-wallet transfer for the authenticated user.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	res, err := h.engine.Transfer(c.UserContext(), Request{
		RequesterID:   uid,
		FromWallet:    req.FromWallet,
		ToWallet:      req.ToWallet,
		Amount:        req.Amount,
		FromCurrency:  req.FromCurrency,
		ToCurrency:    req.ToCurrency,
		RecipientName: req.RecipientName,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, "amount must be positive")
		case errors.Is(err, wallet.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "one or both wallets do not exist")
		case errors.Is(err, ErrCurrencyMismatch):
			return fiber.NewError(http.StatusBadRequest, "wallet currency mismatch")
		case errors.Is(err, ErrRecipientMismatch):
			return fiber.NewError(http.StatusBadRequest, "recipient name and wallet number do not match")
		case errors.Is(err, wallet.ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, "insufficient balance")
		case errors.Is(err, ledger.ErrDuplicateTransfer):
			return fiber.NewError(http.StatusConflict, "duplicate transfer")
		case errors.Is(err, rates.ErrRateUnavailable):
			return fiber.NewError(http.StatusBadGateway, "conversion rate unavailable")
		default:
			return fiber.NewError(http.StatusServiceUnavailable, "transfer could not be completed, try again later")
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Transfer successful",
		"details": fiber.Map{
			"transactionId":   res.TransferID,
			"fromWallet":      res.FromWallet,
			"toWallet":        res.ToWallet,
			"amount":          res.AmountSent,
			"convertedAmount": res.AmountReceived,
			"fromCurrency":    res.FromCurrency,
			"toCurrency":      res.ToCurrency,
			"conversionRate":  res.ConversionRate,
			"timestamp":       res.Timestamp,
		},
	})
}
