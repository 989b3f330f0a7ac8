package handler

import (
	"context"

	"namada-wallet-api/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type PriceResolver interface {
	GetPrice(ctx context.Context, address string) float64
	GetPriceBySymbol(ctx context.Context, symbol string) (domain.Token, float64, error)
}

type TokenDirectory interface {
	All() []domain.Token
	Symbols() []string
	FindBySymbol(symbol string) (domain.Token, bool)
	FindByAddress(address string) (domain.Token, bool)
}

type Handler struct {
	tracer    trace.Tracer
	prices    PriceResolver
	directory TokenDirectory
	apiKey    string
}

func New(tracer trace.Tracer, prices PriceResolver, directory TokenDirectory, apiKey string) *Handler {
	return &Handler{
		tracer:    tracer,
		prices:    prices,
		directory: directory,
		apiKey:    apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(h.apiKey))
	api.GET("/prices/:address", h.GetPrice)
	api.GET("/assets", h.ListAssets)
	api.GET("/assets/symbols", h.ListSymbols)
	api.GET("/assets/symbol/:symbol", h.GetAssetBySymbol)
	api.GET("/assets/symbol/:symbol/price", h.GetPriceBySymbol)
	api.GET("/assets/address/:address", h.GetAssetByAddress)
}
