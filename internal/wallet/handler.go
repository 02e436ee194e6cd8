package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handler exposes wallet endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a wallet handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	WalletNumber   string          `json:"walletNumber"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
}

type walletResponse struct {
	WalletNumber string          `json:"walletNumber"`
	Name         string          `json:"name"`
	Currency     string          `json:"currency"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    string          `json:"createdAt"`
}

func toResponse(w Wallet) walletResponse {
	return walletResponse{
		WalletNumber: w.WalletNumber,
		Name:         w.DisplayName,
		Currency:     w.Currency,
		Balance:      w.Balance,
		CreatedAt:    w.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Create provisions a wallet for the authenticated user.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	w, err := h.service.Create(c.UserContext(), CreateInput{
		OwnerID:        uid,
		WalletNumber:   req.WalletNumber,
		InitialBalance: req.InitialBalance,
		DisplayName:    req.Name,
		Currency:       req.Currency,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return fiber.NewError(http.StatusConflict, "wallet number already exists")
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(toResponse(w))
}

// List returns all wallets owned by the authenticated user.
func (h *Handler) List(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)

	wallets, total, err := h.service.ListForOwner(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]walletResponse, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, toResponse(w))
	}
	return c.JSON(fiber.Map{"wallets": out, "totalWallets": total})
}
