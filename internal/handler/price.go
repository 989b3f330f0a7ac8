package handler

import (
	"errors"
	"net/http"
	"strings"

	"namada-wallet-api/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetPrice godoc
// @Summary      Get USD price for a token address
// @Description  Returns the cached or freshly resolved USD price. Unknown tokens and tokens without a quote report 0.
// @Tags         prices
// @Produce      json
// @Param        address  path  string  true  "Namada token address (e.g., tnam1...)"
// @Success      200  {object}  domain.TokenPrice
// @Failure      400  {object}  map[string]string
// @Router       /api/prices/{address} [get]
func (h *Handler) GetPrice(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-price")
	defer span.End()

	address := strings.TrimSpace(c.Param("address"))
	span.SetAttributes(attribute.String("address", address))

	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}

	resp := domain.TokenPrice{
		Address: address,
		Price:   h.prices.GetPrice(ctx, address),
	}
	if token, ok := h.directory.FindByAddress(address); ok {
		resp.Symbol = token.Symbol
	}

	c.JSON(http.StatusOK, resp)
}

// GetPriceBySymbol godoc
// @Summary      Get USD price for a token symbol
// @Description  Resolves the symbol through the asset list, then returns the token price
// @Tags         prices
// @Produce      json
// @Param        symbol  path  string  true  "Token symbol (e.g., NAM)"
// @Success      200  {object}  domain.TokenPrice
// @Failure      404  {object}  map[string]string
// @Router       /api/assets/symbol/{symbol}/price [get]
func (h *Handler) GetPriceBySymbol(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-price-by-symbol")
	defer span.End()

	symbol := c.Param("symbol")
	span.SetAttributes(attribute.String("symbol", symbol))

	token, price, err := h.prices.GetPriceBySymbol(ctx, symbol)
	if errors.Is(err, domain.ErrUnknownToken) {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found: " + symbol})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, domain.TokenPrice{
		Address: token.Address,
		Symbol:  token.Symbol,
		Price:   price,
	})
}
