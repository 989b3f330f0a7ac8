package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"namada-wallet-api/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	coingeckoName    = "coingecko"
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"
)

// CoinGeckoProvider quotes tokens by their CoinGecko ID using the simple/price API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates the secondary provider. Without an API key it
// reports every token as unavailable.
func NewCoinGeckoProvider(tracer trace.Tracer, cfg Config) *CoinGeckoProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = coingeckoBaseURL
	}
	return &CoinGeckoProvider{
		client:  newHTTPClient(cfg.Timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		tracer:  tracer,
		limiter: NewPerMinuteLimiter(cfg.RequestsPerMin),
	}
}

func (p *CoinGeckoProvider) Name() string { return coingeckoName }

// FetchPrice returns the USD price of token.
func (p *CoinGeckoProvider) FetchPrice(ctx context.Context, token domain.Token) (float64, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-price")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", token.Symbol),
		attribute.String("coingecko_id", token.CoingeckoID),
	)

	if p.apiKey == "" {
		return 0, fmt.Errorf("coingecko api key not set: %w", domain.ErrQuoteUnavailable)
	}
	if token.CoingeckoID == "" {
		return 0, fmt.Errorf("no CoinGecko ID found for %s: %w", token.Symbol, domain.ErrNoIdentifier)
	}

	params := url.Values{}
	params.Set("ids", token.CoingeckoID)
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "false")
	params.Set("include_last_updated_at", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/simple/price?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("x-cg-demo-api-key", p.apiKey)

	body, err := doRequest(ctx, p.client, p.limiter, coingeckoName, token.Symbol, req)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("fetch coingecko price for %s: %w", token.Symbol, err)
	}

	// Response shape: {"namada": {"usd": 0.0421}}
	var raw map[string]struct {
		USD *float64 `json:"usd"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("parse coingecko price for %s: %w", token.Symbol, err)
	}

	entry, ok := raw[token.CoingeckoID]
	if !ok {
		log.Printf("No price data found in coingecko response for %s: %s", token.Symbol, string(body))
		return 0, fmt.Errorf("coingecko %s: %w", token.Symbol, domain.ErrPriceNotFound)
	}
	if entry.USD == nil || *entry.USD <= 0 {
		return 0, fmt.Errorf("invalid coingecko price data for %s: %w", token.Symbol, domain.ErrPriceNotFound)
	}

	return *entry.USD, nil
}
