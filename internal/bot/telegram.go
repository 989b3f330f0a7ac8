package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"namada-wallet-api/internal/domain"

	tele "gopkg.in/telebot.v3"
)

const priceLookupTimeout = 30 * time.Second

type PriceLookup interface {
	GetPriceBySymbol(ctx context.Context, symbol string) (domain.Token, float64, error)
}

type SymbolLister interface {
	Symbols() []string
}

type commands struct {
	prices  PriceLookup
	symbols SymbolLister
}

// StartTelegramBot starts long polling in the background and returns the bot
// so the caller can stop it. A nil bot and nil error mean the bot is disabled.
func StartTelegramBot(token string, prices PriceLookup, symbols SymbolLister) (*tele.Bot, error) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil, nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	cmds := &commands{prices: prices, symbols: symbols}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), priceLookupTimeout)
		defer cancel()
		return c.Send(cmds.price(ctx, c.Args()))
	})

	b.Handle("/assets", func(c tele.Context) error {
		return c.Send(cmds.assets())
	})

	log.Println("Telegram bot started")
	go b.Start()
	return b, nil
}

func (c *commands) price(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return fmt.Sprintf("Usage: /price NAM\nKnown: %s", strings.Join(c.symbols.Symbols(), ", "))
	}
	symbol := args[0]

	token, price, err := c.prices.GetPriceBySymbol(ctx, symbol)
	if errors.Is(err, domain.ErrUnknownToken) {
		return fmt.Sprintf("Unknown symbol: %s\nKnown: %s", symbol, strings.Join(c.symbols.Symbols(), ", "))
	}
	if err != nil {
		return fmt.Sprintf("Error fetching price for %s: %v", symbol, err)
	}
	if price == 0 {
		return fmt.Sprintf("%s\nNo price available", token.Symbol)
	}
	return fmt.Sprintf("%s\nPrice: $%s\nAddress: %s", token.Symbol, formatUSD(price), token.Address)
}

func (c *commands) assets() string {
	symbols := c.symbols.Symbols()
	if len(symbols) == 0 {
		return "No assets loaded"
	}
	return fmt.Sprintf("%d assets: %s", len(symbols), strings.Join(symbols, ", "))
}

// formatUSD keeps sub-cent prices readable.
func formatUSD(price float64) string {
	if price < 0.01 {
		return fmt.Sprintf("%.6f", price)
	}
	return fmt.Sprintf("%.4f", price)
}
