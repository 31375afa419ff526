package service

import (
	"context"
	"time"

	"codeduel/internal/common/cache"
	appErr "codeduel/pkg/errors"
)

const (
	defaultRateLimitTimeout = 200 * time.Millisecond
	fallbackRateLimitWindow = time.Minute
)

// RateLimitService admits judge requests against fixed-window counters kept
// in Redis. The first hit in a window creates the counter with its expiry.
type RateLimitService struct {
	counters cache.CounterOps
	window   time.Duration
	timeout  time.Duration
}

func NewRateLimitService(counters cache.CounterOps, window, timeout time.Duration) *RateLimitService {
	if window <= 0 {
		window = fallbackRateLimitWindow
	}
	if timeout <= 0 {
		timeout = defaultRateLimitTimeout
	}
	return &RateLimitService{counters: counters, window: window, timeout: timeout}
}

// Allow records a hit on key. It returns TooManyRequests once the window
// holds more than max hits; max <= 0 admits everything.
func (s *RateLimitService) Allow(ctx context.Context, key string, max int, window time.Duration) error {
	if s == nil || s.counters == nil {
		return appErr.New(appErr.ServiceUnavailable).WithMessage("rate limit cache is unavailable")
	}
	if max <= 0 {
		return nil
	}
	if window <= 0 {
		window = s.window
	}
	hits, err := s.hit(ctx, key, window)
	if err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "rate limit check failed")
	}
	if hits > int64(max) {
		return appErr.Newf(appErr.TooManyRequests, "more than %d requests within %s", max, window).
			WithDetail("key", key)
	}
	return nil
}

func (s *RateLimitService) hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.counters.SetNX(ctx, key, 1, window)
	if err != nil || created {
		return 1, err
	}
	hits, err := s.counters.Incr(ctx, key)
	if err != nil {
		return 0, err
	}
	// A counter without expiry would reject the caller forever.
	if ttl, err := s.counters.TTL(ctx, key); err == nil && ttl <= 0 {
		_ = s.counters.Expire(ctx, key, window)
	}
	return hits, nil
}
