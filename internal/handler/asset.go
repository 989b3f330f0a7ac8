package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ListAssets godoc
// @Summary      List known tokens
// @Description  Returns every token in the Namada asset list, in asset list order
// @Tags         assets
// @Produce      json
// @Success      200  {array}  domain.Token
// @Router       /api/assets [get]
func (h *Handler) ListAssets(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.list-assets")
	defer span.End()

	c.JSON(http.StatusOK, h.directory.All())
}

// ListSymbols godoc
// @Summary      List token symbols
// @Tags         assets
// @Produce      json
// @Success      200  {array}  string
// @Router       /api/assets/symbols [get]
func (h *Handler) ListSymbols(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.list-symbols")
	defer span.End()

	c.JSON(http.StatusOK, h.directory.Symbols())
}

// GetAssetBySymbol godoc
// @Summary      Get token by symbol
// @Description  Exact match first, then case-insensitive
// @Tags         assets
// @Produce      json
// @Param        symbol  path  string  true  "Token symbol (e.g., NAM)"
// @Success      200  {object}  domain.Token
// @Failure      404  {object}  map[string]string
// @Router       /api/assets/symbol/{symbol} [get]
func (h *Handler) GetAssetBySymbol(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-asset-by-symbol")
	defer span.End()

	symbol := c.Param("symbol")
	span.SetAttributes(attribute.String("symbol", symbol))

	token, ok := h.directory.FindBySymbol(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found: " + symbol})
		return
	}
	c.JSON(http.StatusOK, token)
}

// GetAssetByAddress godoc
// @Summary      Get token by address
// @Tags         assets
// @Produce      json
// @Param        address  path  string  true  "Namada token address (e.g., tnam1...)"
// @Success      200  {object}  domain.Token
// @Failure      404  {object}  map[string]string
// @Router       /api/assets/address/{address} [get]
func (h *Handler) GetAssetByAddress(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-asset-by-address")
	defer span.End()

	address := c.Param("address")
	span.SetAttributes(attribute.String("address", address))

	token, ok := h.directory.FindByAddress(address)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found: " + address})
		return
	}
	c.JSON(http.StatusOK, token)
}
