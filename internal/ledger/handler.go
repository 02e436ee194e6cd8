package ledger

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/sanduq-pay/sanduq_pay/internal/wallet"
)

// Handler exposes the ledger query endpoint.
type Handler struct {
	wallets wallet.Store
	store   Store
}

// NewHandler constructs a ledger handler.
func NewHandler(wallets wallet.Store, store Store) *Handler {
	return &Handler{wallets: wallets, store: store}
}

type entryResponse struct {
	TransferID        string          `json:"transactionId"`
	SenderWallet      string          `json:"senderWallet"`
	RecipientWallet   string          `json:"recipientWallet"`
	RecipientName     string          `json:"recipientName"`
	SenderCurrency    string          `json:"senderCurrency"`
	RecipientCurrency string          `json:"recipientCurrency"`
	AmountSent        decimal.Decimal `json:"amountSent"`
	AmountReceived    decimal.Decimal `json:"amountReceived"`
	ConversionRate    decimal.Decimal `json:"conversionRate"`
	Status            Status          `json:"status"`
	Timestamp         time.Time       `json:"timestamp"`
}

// List returns the authenticated user's ledger entries with optional filters
// and pagination.
func (h *Handler) List(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)

	wallets, err := h.wallets.ListForOwner(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, "transactions are unavailable, try again later")
	}
	numbers := make([]string, 0, len(wallets))
	for _, w := range wallets {
		numbers = append(numbers, w.WalletNumber)
	}

	f, err := parseFilter(c)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	page := Page{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 10),
	}
	if page.Page < 1 || page.Limit < 1 {
		return fiber.NewError(http.StatusBadRequest, "page and limit must be positive")
	}

	entries, total, err := h.store.QueryForUser(c.UserContext(), numbers, f, page)
	if err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, "transactions are unavailable, try again later")
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			TransferID:        e.TransferID,
			SenderWallet:      e.SenderWallet,
			RecipientWallet:   e.RecipientWallet,
			RecipientName:     e.RecipientName,
			SenderCurrency:    e.SenderCurrency,
			RecipientCurrency: e.RecipientCurrency,
			AmountSent:        e.AmountSent,
			AmountReceived:    e.AmountReceived,
			ConversionRate:    e.ConversionRate,
			Status:            e.Status,
			Timestamp:         e.Timestamp,
		})
	}

	return c.JSON(fiber.Map{
		"transactions": out,
		"total":        total,
		"page":         page.Page,
		"limit":        page.Limit,
	})
}

func parseFilter(c *fiber.Ctx) (Filter, error) {
	f := Filter{
		SenderWallet:    c.Query("senderWallet"),
		RecipientWallet: c.Query("recipientWallet"),
	}

	if v := c.Query("status"); v != "" {
		status := Status(v)
		if !status.Valid() {
			return Filter{}, fiber.NewError(http.StatusBadRequest, "unknown status")
		}
		f.Status = status
	}
	if v := c.Query("startDate"); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			return Filter{}, err
		}
		f.Start = &t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			return Filter{}, err
		}
		f.End = &t
	}
	if v := c.Query("minAmount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Filter{}, fiber.NewError(http.StatusBadRequest, "invalid minAmount")
		}
		f.MinAmount = &d
	}
	if v := c.Query("maxAmount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Filter{}, fiber.NewError(http.StatusBadRequest, "invalid maxAmount")
		}
		f.MaxAmount = &d
	}
	return f, nil
}

// parseDate accepts RFC3339 timestamps or bare dates. A bare end date covers
// the whole day so the bound stays inclusive.
func parseDate(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fiber.NewError(http.StatusBadRequest, "invalid date, use YYYY-MM-DD or RFC3339")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t.UTC(), nil
}
