package job

import (
	"context"
	"fmt"
	"log"
	"time"

	"namada-wallet-api/internal/domain"

	"github.com/go-co-op/gocron"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultRefreshCron  = "*/5 * * * *"
	DefaultRefreshDelay = 2 * time.Second
)

type PriceResolver interface {
	GetPrice(ctx context.Context, address string) float64
}

type TokenLister interface {
	All() []domain.Token
}

// PriceRefresher periodically re-resolves the price of every token that has a
// CoinGecko ID, one token at a time with a fixed gap between upstream calls.
type PriceRefresher struct {
	tracer   trace.Tracer
	resolver PriceResolver
	tokens   TokenLister
	cronExpr string
	delay    time.Duration
}

func NewPriceRefresher(tracer trace.Tracer, resolver PriceResolver, tokens TokenLister, cronExpr string, delay time.Duration) *PriceRefresher {
	if cronExpr == "" {
		cronExpr = DefaultRefreshCron
	}
	if delay < 0 {
		delay = DefaultRefreshDelay
	}
	return &PriceRefresher{
		tracer:   tracer,
		resolver: resolver,
		tokens:   tokens,
		cronExpr: cronExpr,
		delay:    delay,
	}
}

// Start runs a sweep immediately and then on every cron tick. Sweeps never
// overlap. Blocks until ctx is cancelled.
func (r *PriceRefresher) Start(ctx context.Context) error {
	scheduler := gocron.NewScheduler(time.UTC)

	_, err := scheduler.Cron(r.cronExpr).SingletonMode().StartImmediately().Do(func() {
		r.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule price refresh %q: %w", r.cronExpr, err)
	}

	scheduler.StartAsync()
	log.Printf("Price refresher started (schedule %q, delay %v)", r.cronExpr, r.delay)

	<-ctx.Done()
	scheduler.Stop()
	log.Println("Price refresher stopped")
	return nil
}

// Sweep refreshes every eligible token in directory order and returns how many
// were processed. A failure on one token never stops the rest.
func (r *PriceRefresher) Sweep(ctx context.Context) (processed int) {
	ctx, span := r.tracer.Start(ctx, "price-refresher.sweep")
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Error in price refresh sweep: %v", rec)
		}
		span.SetAttributes(attribute.Int("tokens.processed", processed))
	}()

	eligible := eligibleTokens(r.tokens.All())
	log.Printf("Refreshing prices for %d tokens", len(eligible))

	for i, token := range eligible {
		if ctx.Err() != nil {
			log.Printf("Price refresh cancelled after %d tokens", processed)
			return processed
		}

		r.refreshToken(ctx, token)
		processed++

		if i < len(eligible)-1 && !sleepCtx(ctx, r.delay) {
			log.Printf("Price refresh cancelled after %d tokens", processed)
			return processed
		}
	}

	log.Printf("Refreshed prices for %d tokens", processed)
	return processed
}

func (r *PriceRefresher) refreshToken(ctx context.Context, token domain.Token) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Error updating price for %s: %v", token.Symbol, rec)
		}
	}()

	price := r.resolver.GetPrice(ctx, token.Address)
	log.Printf("Updated price for %s: $%v", token.Symbol, price)
}

func eligibleTokens(tokens []domain.Token) []domain.Token {
	out := make([]domain.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.HasCoingeckoID() && t.Address != "" {
			out = append(out, t)
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
