package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/sanduq-pay/sanduq_pay/internal/logging"
)

type countingProvider struct {
	table Static
	calls int
}

func (p *countingProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	p.calls++
	return p.table.Rate(ctx, from, to)
}

func setupCache(t *testing.T, upstream Provider, ttl time.Duration) (*Cache, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(upstream, client, ttl, logging.Discard())
	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return cache, mr, cleanup
}

func TestCacheMemoizesRate(t *testing.T) {
	upstream := &countingProvider{table: Static{"SAR:USD": decimal.RequireFromString("0.27")}}
	cache, _, cleanup := setupCache(t, upstream, time.Hour)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rate, err := cache.Rate(ctx, "SAR", "USD")
		if err != nil {
			t.Fatalf("rate: %v", err)
		}
		if !rate.Equal(decimal.RequireFromString("0.27")) {
			t.Fatalf("rate = %s, want 0.27", rate)
		}
	}
	if upstream.calls != 1 {
		t.Fatalf("upstream called %d times, want 1", upstream.calls)
	}
}

func TestCacheExpires(t *testing.T) {
	upstream := &countingProvider{table: Static{"SAR:USD": decimal.RequireFromString("0.27")}}
	cache, mr, cleanup := setupCache(t, upstream, time.Hour)
	defer cleanup()
	ctx := context.Background()

	if _, err := cache.Rate(ctx, "SAR", "USD"); err != nil {
		t.Fatalf("first rate: %v", err)
	}
	mr.FastForward(time.Hour + time.Second)
	if _, err := cache.Rate(ctx, "SAR", "USD"); err != nil {
		t.Fatalf("second rate: %v", err)
	}
	if upstream.calls != 2 {
		t.Fatalf("upstream called %d times after expiry, want 2", upstream.calls)
	}
}

func TestCachePairsAreIndependent(t *testing.T) {
	upstream := &countingProvider{table: Static{
		"SAR:USD": decimal.RequireFromString("0.27"),
		"USD:SAR": decimal.RequireFromString("3.75"),
	}}
	cache, _, cleanup := setupCache(t, upstream, time.Hour)
	defer cleanup()
	ctx := context.Background()

	fwd, err := cache.Rate(ctx, "SAR", "USD")
	if err != nil {
		t.Fatalf("forward rate: %v", err)
	}
	back, err := cache.Rate(ctx, "USD", "SAR")
	if err != nil {
		t.Fatalf("reverse rate: %v", err)
	}
	if fwd.Equal(back) {
		t.Fatalf("pairs collided: %s vs %s", fwd, back)
	}
	if upstream.calls != 2 {
		t.Fatalf("upstream called %d times, want 2", upstream.calls)
	}
}

func TestCachePropagatesUpstreamError(t *testing.T) {
	upstream := &countingProvider{table: Static{}}
	cache, _, cleanup := setupCache(t, upstream, time.Hour)
	defer cleanup()

	if _, err := cache.Rate(context.Background(), "SAR", "XXX"); !errors.Is(err, ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable, got %v", err)
	}
}

func TestCacheFailsOpenWhenRedisDown(t *testing.T) {
	upstream := &countingProvider{table: Static{"SAR:USD": decimal.RequireFromString("0.27")}}
	cache, mr, cleanup := setupCache(t, upstream, time.Hour)
	defer cleanup()
	mr.Close()

	rate, err := cache.Rate(context.Background(), "SAR", "USD")
	if err != nil {
		t.Fatalf("rate with cache down: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("0.27")) {
		t.Fatalf("rate = %s, want 0.27", rate)
	}
}
