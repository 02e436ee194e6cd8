package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sanduq-pay/sanduq_pay/internal/identity"
)

// Handler exposes registration and session endpoints.
type Handler struct {
	identity *identity.Service
	auth     *Service
}

// NewHandler constructs an auth handler.
func NewHandler(identitySvc *identity.Service, authSvc *Service) *Handler {
	return &Handler{identity: identitySvc, auth: authSvc}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new user account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.identity.Register(c.UserContext(), identity.Credentials{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return fiber.NewError(http.StatusConflict, "email already exists")
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// Login validates credentials and issues an access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.identity.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	token, err := h.auth.Issue(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(token)
}

// Logout revokes the presented access token.
func (h *Handler) Logout(c *fiber.Ctx) error {
	authz := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
	}
	tokenStr := strings.TrimSpace(authz[len("Bearer "):])

	if err := h.auth.Revoke(c.UserContext(), tokenStr); err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid token")
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}
