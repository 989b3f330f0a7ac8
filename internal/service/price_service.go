package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"namada-wallet-api/internal/domain"
	"namada-wallet-api/internal/retry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -package=service_test -destination=mock_price_source_test.go -source=price_service.go PriceSource

const defaultPriceCacheTTL = 300 * time.Second

// PriceSource is a single upstream price provider.
type PriceSource interface {
	Name() string
	FetchPrice(ctx context.Context, token domain.Token) (float64, error)
}

// TokenDirectory resolves tokens from the asset list.
type TokenDirectory interface {
	FindByAddress(address string) (domain.Token, bool)
	FindBySymbol(symbol string) (domain.Token, bool)
}

// PriceStore is the cache backing resolved prices.
type PriceStore interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// PriceService resolves token prices through the cache, then each source in
// priority order. Every outcome is cached, including 0 for "no price".
type PriceService struct {
	tracer    trace.Tracer
	directory TokenDirectory
	store     PriceStore
	sources   []PriceSource
	retry     retry.Config
	ttl       time.Duration
}

func NewPriceService(
	tracer trace.Tracer,
	directory TokenDirectory,
	store PriceStore,
	retryCfg retry.Config,
	ttl time.Duration,
	sources ...PriceSource,
) *PriceService {
	if ttl <= 0 {
		ttl = defaultPriceCacheTTL
	}
	return &PriceService{
		tracer:    tracer,
		directory: directory,
		store:     store,
		sources:   sources,
		retry:     retryCfg,
		ttl:       ttl,
	}
}

// GetPrice returns the USD price for a token address. It never fails: unknown
// tokens and tokens no source can price resolve to 0.
func (s *PriceService) GetPrice(ctx context.Context, address string) float64 {
	ctx, span := s.tracer.Start(ctx, "price-service.get-price")
	defer span.End()
	span.SetAttributes(attribute.String("address", address))

	key := domain.PriceCacheKey(address)

	if price, ok := s.cachedPrice(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return price
	}

	token, ok := s.directory.FindByAddress(address)
	if !ok {
		log.Printf("%v: %s", domain.ErrUnknownToken, address)
		s.cachePrice(ctx, key, 0)
		return 0
	}
	span.SetAttributes(attribute.String("symbol", token.Symbol))

	for _, source := range s.sources {
		if ctx.Err() != nil {
			// Cancelled lookups say nothing about the token; leave the cache alone.
			log.Printf("Price lookup for %s cancelled: %v", token.Symbol, ctx.Err())
			return 0
		}
		quote := s.fetchQuote(ctx, source, token)
		switch quote.Status {
		case domain.QuoteFound:
			log.Printf("Price for %s from %s: $%v", token.Symbol, quote.Source, quote.PriceUSD)
			s.cachePrice(ctx, key, quote.PriceUSD)
			return quote.PriceUSD
		case domain.QuoteNotAvailable:
			log.Printf("%s has no price for %s: %v", quote.Source, token.Symbol, quote.Err)
		default:
			log.Printf("%s failed for %s: %v", quote.Source, token.Symbol, quote.Err)
		}
	}

	if ctx.Err() != nil {
		log.Printf("Price lookup for %s cancelled: %v", token.Symbol, ctx.Err())
		return 0
	}

	log.Printf("No price available for %s (%s), caching 0", token.Symbol, address)
	s.cachePrice(ctx, key, 0)
	return 0
}

// GetPriceBySymbol resolves symbol through the directory and returns the token
// with its price.
func (s *PriceService) GetPriceBySymbol(ctx context.Context, symbol string) (domain.Token, float64, error) {
	token, ok := s.directory.FindBySymbol(symbol)
	if !ok || token.Address == "" {
		return domain.Token{}, 0, fmt.Errorf("%w: %s", domain.ErrUnknownToken, symbol)
	}
	return token, s.GetPrice(ctx, token.Address), nil
}

func (s *PriceService) fetchQuote(ctx context.Context, source PriceSource, token domain.Token) domain.Quote {
	price, err := retry.Do(ctx, s.retry, func(ctx context.Context) (float64, error) {
		return source.FetchPrice(ctx, token)
	})
	return classifyQuote(source.Name(), price, err)
}

func classifyQuote(source string, price float64, err error) domain.Quote {
	q := domain.Quote{Source: source, Err: err}
	switch {
	case err == nil && price > 0:
		q.Status = domain.QuoteFound
		q.PriceUSD = price
	case err == nil:
		q.Status = domain.QuoteNotAvailable
		q.Err = domain.ErrPriceNotFound
	case errors.Is(err, domain.ErrQuoteUnavailable),
		errors.Is(err, domain.ErrNoIdentifier),
		errors.Is(err, domain.ErrPriceNotFound):
		q.Status = domain.QuoteNotAvailable
	default:
		q.Status = domain.QuoteFailed
	}
	return q
}

func (s *PriceService) cachedPrice(ctx context.Context, key string) (float64, bool) {
	var raw json.RawMessage
	found, err := s.store.Get(ctx, key, &raw)
	if err != nil {
		log.Printf("redis cache read error for %s: %v", key, err)
		return 0, false
	}
	if !found {
		return 0, false
	}
	price, err := domain.DecodePrice(raw)
	if err != nil {
		log.Printf("ignoring cached value for %s: %v", key, err)
		return 0, false
	}
	return price, true
}

func (s *PriceService) cachePrice(ctx context.Context, key string, price float64) {
	data, err := domain.EncodePrice(price)
	if err != nil {
		log.Printf("not caching %s: %v", key, err)
		return
	}
	if err := s.store.Set(ctx, key, json.RawMessage(data), s.ttl); err != nil {
		log.Printf("redis cache write error for %s: %v", key, err)
	}
}
