package provider

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"namada-wallet-api/internal/domain"
	"namada-wallet-api/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func newTestCMC(t *testing.T, apiKey string, fn roundTripFunc) *CoinMarketCapProvider {
	t.Helper()
	p := NewCoinMarketCapProvider(trace.NewNoopTracerProvider().Tracer("test"), Config{APIKey: apiKey, BaseURL: "http://example/"})
	p.client = &http.Client{Transport: fn}
	p.limiter = NewRateLimiter(10, time.Millisecond)
	return p
}

func TestCoinMarketCapProviderFetchPrice(t *testing.T) {
	t.Parallel()

	p := newTestCMC(t, "cmc-key", func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/cryptocurrency/quotes/latest", req.URL.Path)
		assert.Equal(t, "NAM", req.URL.Query().Get("symbol"))
		assert.Equal(t, "USD", req.URL.Query().Get("convert"))
		assert.Equal(t, "cmc-key", req.Header.Get("X-CMC_PRO_API_KEY"))
		return jsonResponse(http.StatusOK, `{"data":{"NAM":{"symbol":"NAM","platform":{"name":"Namada","slug":"Namada"},"quote":{"USD":{"price":1.23}}}}}`), nil
	})

	price, err := p.FetchPrice(context.Background(), domain.Token{Symbol: "nam", CoingeckoID: "namada"})
	require.NoError(t, err)
	assert.Equal(t, 1.23, price)
	assert.Equal(t, "coinmarketcap", p.Name())
}

func TestCoinMarketCapProviderArrayShape(t *testing.T) {
	t.Parallel()

	p := newTestCMC(t, "cmc-key", func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":{"USDC":[{"symbol":"USDC","platform":{"slug":"usd-coin"},"quote":{"USD":{"price":0.999}}},{"symbol":"USDC","quote":{"USD":{"price":5}}}]}}`), nil
	})

	price, err := p.FetchPrice(context.Background(), domain.Token{Symbol: "USDC", CoingeckoID: "usd-coin"})
	require.NoError(t, err)
	assert.Equal(t, 0.999, price)
}

func TestCoinMarketCapProviderSkipsValidationWithoutCoingeckoID(t *testing.T) {
	t.Parallel()

	p := newTestCMC(t, "cmc-key", func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":{"FOO":{"symbol":"FOO","platform":null,"quote":{"USD":{"price":2.5}}}}}`), nil
	})

	price, err := p.FetchPrice(context.Background(), domain.Token{Symbol: "FOO"})
	require.NoError(t, err)
	assert.Equal(t, 2.5, price)
}

func TestCoinMarketCapProviderUnavailable(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"platform mismatch": `{"data":{"NAM":{"platform":{"slug":"other-chain"},"quote":{"USD":{"price":9}}}}}`,
		"no platform":       `{"data":{"NAM":{"platform":null,"quote":{"USD":{"price":9}}}}}`,
		"no listing":        `{"data":{}}`,
		"empty array":       `{"data":{"NAM":[]}}`,
		"no usd quote":      `{"data":{"NAM":{"platform":{"slug":"namada"},"quote":{}}}}`,
		"zero price":        `{"data":{"NAM":{"platform":{"slug":"namada"},"quote":{"USD":{"price":0}}}}}`,
	}
	for name, body := range cases {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := newTestCMC(t, "cmc-key", func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, body), nil
			})
			_, err := p.FetchPrice(context.Background(), namToken)
			assert.ErrorIs(t, err, domain.ErrQuoteUnavailable)
		})
	}
}

func TestCoinMarketCapProviderDisabledWithoutKey(t *testing.T) {
	t.Parallel()

	p := newTestCMC(t, "", func(req *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected without api key")
		return nil, nil
	})

	_, err := p.FetchPrice(context.Background(), namToken)
	assert.ErrorIs(t, err, domain.ErrQuoteUnavailable)
}

func TestCoinMarketCapProviderRateLimited(t *testing.T) {
	t.Parallel()

	p := newTestCMC(t, "cmc-key", func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusTooManyRequests, `{"status":{"error_code":1008}}`), nil
	})

	_, err := p.FetchPrice(context.Background(), namToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrRateLimited)

	var rlErr *retry.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Zero(t, rlErr.RetryAfter)
}

func TestCoinMarketCapProviderMalformedBody(t *testing.T) {
	t.Parallel()

	p := newTestCMC(t, "cmc-key", func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `not json`), nil
	})

	_, err := p.FetchPrice(context.Background(), namToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrQuoteUnavailable)
}
