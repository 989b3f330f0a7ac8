package provider

import (
	"bytes"
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
	coinmarketcapName    = "coinmarketcap"
	coinmarketcapBaseURL = "https://pro-api.coinmarketcap.com/v1"
)

// CoinMarketCapProvider quotes tokens by symbol using the quotes/latest API and
// cross-checks the listing's platform slug against the token's CoinGecko ID,
// so a different token sharing the ticker is never priced.
type CoinMarketCapProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
}

func NewCoinMarketCapProvider(tracer trace.Tracer, cfg Config) *CoinMarketCapProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = coinmarketcapBaseURL
	}
	return &CoinMarketCapProvider{
		client:  newHTTPClient(cfg.Timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		tracer:  tracer,
		limiter: NewPerMinuteLimiter(cfg.RequestsPerMin),
	}
}

func (p *CoinMarketCapProvider) Name() string { return coinmarketcapName }

type cmcListing struct {
	Symbol   string `json:"symbol"`
	Slug     string `json:"slug"`
	Platform *struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"platform"`
	Quote map[string]struct {
		Price *float64 `json:"price"`
	} `json:"quote"`
}

// FetchPrice returns the USD price of token, or domain.ErrQuoteUnavailable when
// the provider is disabled, the symbol is unlisted or validation fails.
func (p *CoinMarketCapProvider) FetchPrice(ctx context.Context, token domain.Token) (float64, error) {
	ctx, span := p.tracer.Start(ctx, "coinmarketcap.fetch-price")
	defer span.End()

	symbol := strings.ToUpper(token.Symbol)
	span.SetAttributes(attribute.String("symbol", symbol))

	if p.apiKey == "" {
		return 0, fmt.Errorf("coinmarketcap api key not set: %w", domain.ErrQuoteUnavailable)
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("convert", "USD")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/cryptocurrency/quotes/latest?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-CMC_PRO_API_KEY", p.apiKey)

	body, err := doRequest(ctx, p.client, p.limiter, coinmarketcapName, symbol, req)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("fetch coinmarketcap quote for %s: %w", symbol, err)
	}

	var payload struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("parse coinmarketcap quote for %s: %w", symbol, err)
	}

	listing, err := decodeListing(payload.Data[symbol])
	if err != nil {
		return 0, fmt.Errorf("parse coinmarketcap quote for %s: %w", symbol, err)
	}
	if listing == nil {
		return 0, fmt.Errorf("coinmarketcap has no listing for %s: %w", symbol, domain.ErrQuoteUnavailable)
	}

	if token.CoingeckoID != "" {
		platformSlug := ""
		if listing.Platform != nil {
			platformSlug = listing.Platform.Slug
		}
		if !strings.EqualFold(platformSlug, token.CoingeckoID) {
			log.Printf("CMC platform slug (%q) doesn't match CoinGecko ID (%s) for %s", platformSlug, token.CoingeckoID, symbol)
			return 0, fmt.Errorf("coinmarketcap listing mismatch for %s: %w", symbol, domain.ErrQuoteUnavailable)
		}
	}

	usd, ok := listing.Quote["USD"]
	if !ok || usd.Price == nil || *usd.Price <= 0 {
		return 0, fmt.Errorf("coinmarketcap has no USD quote for %s: %w", symbol, domain.ErrQuoteUnavailable)
	}
	return *usd.Price, nil
}

// decodeListing accepts both the v1 shape (object per symbol) and the v2
// shape (array per symbol, first entry wins). Returns nil when absent.
func decodeListing(raw json.RawMessage) (*cmcListing, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '[' {
		var listings []cmcListing
		if err := json.Unmarshal(raw, &listings); err != nil {
			return nil, err
		}
		if len(listings) == 0 {
			return nil, nil
		}
		return &listings[0], nil
	}

	var listing cmcListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}
