package reporting

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sanduq-pay/sanduq_pay/internal/rates"
)

// Handler exposes the reporting endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a reporting handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Overview returns the user's financial overview in the settlement currency.
func (h *Handler) Overview(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)

	overview, err := h.service.Overview(c.UserContext(), uid)
	if err != nil {
		if errors.Is(err, rates.ErrRateUnavailable) {
			return fiber.NewError(http.StatusBadGateway, "conversion rate unavailable")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"totalBalanceInUSD":    overview.TotalBalance,
		"monthlyIncomingInUSD": overview.MonthlyIncoming,
		"monthlyOutgoingInUSD": overview.MonthlyOutgoing,
		"currency":             overview.Currency,
	})
}

// Last7Days returns the trailing-week incoming/expense buckets.
func (h *Handler) Last7Days(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)

	days, err := h.service.Last7Days(c.UserContext(), uid)
	if err != nil {
		if errors.Is(err, rates.ErrRateUnavailable) {
			return fiber.NewError(http.StatusBadGateway, "conversion rate unavailable")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]fiber.Map, 0, len(days))
	for _, d := range days {
		out = append(out, fiber.Map{
			"date":     d.Date,
			"incoming": d.Incoming,
			"expense":  d.Expense,
		})
	}
	return c.JSON(out)
}
