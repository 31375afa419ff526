package service_test

import (
	"context"
	"testing"
	"time"

	"codeduel/internal/common/cache"
	"codeduel/internal/judge/service"
	appErr "codeduel/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRateLimiter(t *testing.T, window time.Duration) (*service.RateLimitService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("new cache failed: %v", err)
	}
	return service.NewRateLimitService(c, window, time.Second), mr
}

func TestRateLimitServiceFixedWindow(t *testing.T) {
	t.Parallel()
	limiter, mr := newRateLimiter(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := limiter.Allow(ctx, "judge:rate:ip:1.2.3.4:judge", 3, 0); err != nil {
			t.Fatalf("hit %d: unexpected error %v", i, err)
		}
	}
	err := limiter.Allow(ctx, "judge:rate:ip:1.2.3.4:judge", 3, 0)
	if !appErr.Is(err, appErr.TooManyRequests) {
		t.Fatalf("expected too many requests, got %v", err)
	}
	if err := limiter.Allow(ctx, "judge:rate:ip:5.6.7.8:judge", 3, 0); err != nil {
		t.Fatalf("expected other key to be independent, got %v", err)
	}

	mr.FastForward(61 * time.Second)
	if err := limiter.Allow(ctx, "judge:rate:ip:1.2.3.4:judge", 3, 0); err != nil {
		t.Fatalf("expected window reset, got %v", err)
	}
}

func TestRateLimitServiceRestoresMissingExpiry(t *testing.T) {
	t.Parallel()
	limiter, mr := newRateLimiter(t, time.Minute)
	if err := mr.Set("judge:rate:route:judge", "5"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := limiter.Allow(context.Background(), "judge:rate:route:judge", 10, 0); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if ttl := mr.TTL("judge:rate:route:judge"); ttl <= 0 {
		t.Fatalf("expected expiry to be restored, got %s", ttl)
	}
}

func TestRateLimitServiceUnavailable(t *testing.T) {
	t.Parallel()
	limiter := service.NewRateLimitService(nil, time.Minute, 0)
	if err := limiter.Allow(context.Background(), "k", 1, 0); !appErr.Is(err, appErr.ServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
	limiter, mr := newRateLimiter(t, time.Minute)
	mr.Close()
	if err := limiter.Allow(context.Background(), "k", 1, 0); !appErr.Is(err, appErr.CacheError) {
		t.Fatalf("expected cache error, got %v", err)
	}
}
