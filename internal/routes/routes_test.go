package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sanduq-pay/sanduq_pay/internal/config"
	"github.com/sanduq-pay/sanduq_pay/internal/logging"
)

func testApp(t *testing.T) *fiber.App {
	t.Helper()

	rateSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := strings.TrimPrefix(r.URL.Path, "/")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"base":%q,"rates":{"USD":0.27,"SAR":3.70,"EUR":0.25}}`, base)
	}))
	t.Cleanup(rateSrv.Close)

	cfg := config.Config{
		AppName:            "SanduqPay",
		AppEnv:             "development",
		Port:               "8080",
		JWTSecret:          "test-secret",
		AccessTokenTTL:     15 * time.Minute,
		RateAPIURL:         rateSrv.URL,
		RateCacheTTL:       time.Hour,
		SettlementCurrency: "USD",
		DefaultCurrency:    "SAR",
	}

	app := fiber.New()
	if err := Setup(app, Deps{Cfg: cfg, Logger: logging.Discard()}); err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	var payload map[string]any
	_ = json.Unmarshal(raw, &payload)
	return resp.StatusCode, payload
}

func registerAndLogin(t *testing.T, app *fiber.App, name, email string) string {
	t.Helper()
	creds := fmt.Sprintf(`{"name":%q,"email":%q,"password":"supersecret"}`, name, email)
	if status, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/register", "", creds); status != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, status)
	}

	login := fmt.Sprintf(`{"email":%q,"password":"supersecret"}`, email)
	status, payload := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/login", "", login)
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d", email, status)
	}
	token, _ := payload["access_token"].(string)
	if token == "" {
		t.Fatalf("login %s: no access token in %v", email, payload)
	}
	return token
}

func TestEndToEndTransferFlow(t *testing.T) {
	app := testApp(t)

	omar := registerAndLogin(t, app, "Omar", "omar@example.com")
	fatimah := registerAndLogin(t, app, "Fatimah", "fatimah@example.com")

	status, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/wallets", omar,
		`{"walletNumber":"W-100","initialBalance":100,"currency":"SAR"}`)
	if status != http.StatusCreated {
		t.Fatalf("create sender wallet: status %d", status)
	}
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/wallets", fatimah,
		`{"walletNumber":"W-200","currency":"USD"}`)
	if status != http.StatusCreated {
		t.Fatalf("create recipient wallet: status %d", status)
	}

	status, payload := doJSON(t, app, fiber.MethodPost, "/api/v1/transfers", omar,
		`{"fromWallet":"W-100","toWallet":"W-200","amount":50,"fromCurrency":"SAR","toCurrency":"USD","recipientName":"Fatimah"}`)
	if status != http.StatusCreated {
		t.Fatalf("transfer: status %d, body %v", status, payload)
	}
	details, _ := payload["details"].(map[string]any)
	if details["convertedAmount"] != "13.5" && details["convertedAmount"] != "13.50" {
		t.Fatalf("converted amount = %v, want 13.50", details["convertedAmount"])
	}

	status, payload = doJSON(t, app, fiber.MethodGet, "/api/v1/wallets", omar, "")
	if status != http.StatusOK {
		t.Fatalf("list wallets: status %d", status)
	}
	wallets, _ := payload["wallets"].([]any)
	if len(wallets) != 1 {
		t.Fatalf("wallet count = %d, want 1", len(wallets))
	}
	first, _ := wallets[0].(map[string]any)
	if first["balance"] != "50" && first["balance"] != "50.00" {
		t.Fatalf("sender balance = %v, want 50", first["balance"])
	}

	status, payload = doJSON(t, app, fiber.MethodGet, "/api/v1/transactions", omar, "")
	if status != http.StatusOK {
		t.Fatalf("list transactions: status %d", status)
	}
	if total, _ := payload["total"].(float64); total != 1 {
		t.Fatalf("transaction total = %v, want 1", payload["total"])
	}

	status, payload = doJSON(t, app, fiber.MethodGet, "/api/v1/reports/overview", omar, "")
	if status != http.StatusOK {
		t.Fatalf("overview: status %d", status)
	}
	if payload["currency"] != "USD" {
		t.Fatalf("overview currency = %v, want USD", payload["currency"])
	}
}

func TestTransferRequiresAuth(t *testing.T) {
	app := testApp(t)

	status, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/transfers", "",
		`{"fromWallet":"W-100","toWallet":"W-200","amount":50}`)
	if status != http.StatusUnauthorized {
		t.Fatalf("unauthenticated transfer: status %d, want 401", status)
	}
}

func TestTransferRejectsWrongRecipientName(t *testing.T) {
	app := testApp(t)

	omar := registerAndLogin(t, app, "Omar", "omar@example.com")
	fatimah := registerAndLogin(t, app, "Fatimah", "fatimah@example.com")

	doJSON(t, app, fiber.MethodPost, "/api/v1/wallets", omar,
		`{"walletNumber":"W-100","initialBalance":100,"currency":"SAR"}`)
	doJSON(t, app, fiber.MethodPost, "/api/v1/wallets", fatimah,
		`{"walletNumber":"W-200","currency":"USD"}`)

	status, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/transfers", omar,
		`{"fromWallet":"W-100","toWallet":"W-200","amount":10,"fromCurrency":"SAR","toCurrency":"USD","recipientName":"Imposter"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("mismatched recipient: status %d, want 400", status)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	app := testApp(t)

	omar := registerAndLogin(t, app, "Omar", "omar@example.com")

	status, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/logout", omar, "")
	if status != http.StatusOK {
		t.Fatalf("logout: status %d", status)
	}
	// Without Redis the revocation set is unavailable, so the token stays
	// usable; the call itself must still succeed.
}
