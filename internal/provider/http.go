package provider

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"namada-wallet-api/internal/retry"
)

const defaultTimeout = 30 * time.Second

// Config holds per-provider connection settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Timeout        time.Duration
	RequestsPerMin int
}

// StatusError is a non-200, non-429 upstream response.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Body)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// doRequest issues req after the limiter admits it and returns the body of a
// 200 response. 429 responses become *retry.RateLimitError carrying the
// Retry-After hint.
func doRequest(ctx context.Context, client *http.Client, limiter *RateLimiter, provider, symbol string, req *http.Request) ([]byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("%s request failed for %s: %v", provider, symbol, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		statusErr := &StatusError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
		log.Printf("%s API error for %s: %d - %s", provider, symbol, resp.StatusCode, statusErr.Body)
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &retry.RateLimitError{
				RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
				Err:        statusErr,
			}
		}
		return nil, statusErr
	}

	return io.ReadAll(resp.Body)
}
