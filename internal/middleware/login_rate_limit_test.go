package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func setupLoginApp(t *testing.T, maxPerMin int) (*fiber.App, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app := fiber.New()
	app.Post("/login", LoginRateLimit(cache, maxPerMin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return app, mr, cleanup
}

func attemptLogin(t *testing.T, app *fiber.App, email string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"email":"`+email+`"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestLoginRateLimitThrottlesSubject(t *testing.T) {
	app, _, cleanup := setupLoginApp(t, 3)
	defer cleanup()

	for i := 0; i < 3; i++ {
		if status := attemptLogin(t, app, "omar@example.com"); status != fiber.StatusOK {
			t.Fatalf("attempt %d: status %d", i+1, status)
		}
	}
	if status := attemptLogin(t, app, "omar@example.com"); status != fiber.StatusTooManyRequests {
		t.Fatalf("over-limit attempt: status %d, want 429", status)
	}

	// A different subject gets a fresh window.
	if status := attemptLogin(t, app, "fatimah@example.com"); status != fiber.StatusOK {
		t.Fatalf("other subject throttled: status %d", status)
	}
}

func TestLoginRateLimitWindowExpires(t *testing.T) {
	app, mr, cleanup := setupLoginApp(t, 1)
	defer cleanup()

	if status := attemptLogin(t, app, "omar@example.com"); status != fiber.StatusOK {
		t.Fatalf("first attempt: status %d", status)
	}
	// The counter must carry a TTL; a key that never expires would throttle
	// the subject permanently.
	key := "rl:login:omar@example.com"
	if ttl := mr.TTL(key); ttl <= 0 {
		t.Fatalf("counter key has no expiry, ttl = %s", ttl)
	}

	if status := attemptLogin(t, app, "omar@example.com"); status != fiber.StatusTooManyRequests {
		t.Fatalf("second attempt: status %d, want 429", status)
	}

	mr.FastForward(time.Minute + time.Second)
	if status := attemptLogin(t, app, "omar@example.com"); status != fiber.StatusOK {
		t.Fatalf("attempt after window: status %d, want 200", status)
	}
}
