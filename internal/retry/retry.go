// Package retry runs fallible upstream calls with backoff on rate limiting.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrRateLimited marks an error as an upstream throttling signal. Only errors
// matching it are retried.
var ErrRateLimited = errors.New("rate limited")

// RateLimitError carries the provider's backoff hint for a throttled call.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	msg := ErrRateLimited.Error()
	if e.RetryAfter > 0 {
		msg = fmt.Sprintf("%s (retry after %s)", msg, e.RetryAfter)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// Is makes every RateLimitError match ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// DefaultMaxDelay caps a single wait when Config.MaxDelay is unset.
const DefaultMaxDelay = 30 * time.Second

// Config configures retry behavior.
type Config struct {
	MaxAttempts int           // Maximum number of attempts (including initial)
	BaseDelay   time.Duration // Delay before the first retry, doubled on each further retry
	MaxDelay    time.Duration // Upper bound on any single wait, hint included
}

// DefaultConfig returns 3 attempts with 2s, 4s backoff.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    DefaultMaxDelay,
	}
}

func (c Config) clamp(d time.Duration) time.Duration {
	limit := c.MaxDelay
	if limit <= 0 {
		limit = DefaultMaxDelay
	}
	if d > limit {
		return limit
	}
	return d
}

// Do runs op until it succeeds, fails with a non rate-limit error, or
// MaxAttempts rate-limited failures have been seen. The wait between attempts
// is the provider hint when present, else BaseDelay * 2^attempt, never more
// than MaxDelay.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var result T
	var err error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err = op(ctx)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return result, err
		}

		// Don't delay after the last attempt
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := cfg.clamp(Delay(err, attempt, cfg.BaseDelay))
		log.Printf("Rate limit hit, waiting %s before retry (attempt %d/%d)", delay, attempt+1, cfg.MaxAttempts)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, fmt.Errorf("gave up after %d attempts: %w", cfg.MaxAttempts, err)
}

// Delay returns how long to wait after a rate-limited attempt.
func Delay(err error, attempt int, baseDelay time.Duration) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	return baseDelay * (1 << attempt)
}

// ParseRetryAfter parses a Retry-After header value given either as
// delta-seconds or as an HTTP date. Returns 0 if the value is unusable.
func ParseRetryAfter(header string, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(header); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
