package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

const priceKeyPrefix = "price:"

// PriceCacheKey returns the cache key holding the USD price of a token address.
func PriceCacheKey(address string) string {
	return priceKeyPrefix + address
}

// EncodePrice serializes a cached price. The stored form is a bare JSON number;
// 0 is the "no price available" sentinel.
func EncodePrice(price float64) ([]byte, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return nil, fmt.Errorf("invalid price %v", price)
	}
	return json.Marshal(price)
}

// DecodePrice parses a cached price written by EncodePrice.
func DecodePrice(data []byte) (float64, error) {
	var price float64
	if err := json.Unmarshal(data, &price); err != nil {
		return 0, fmt.Errorf("decode cached price: %w", err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, fmt.Errorf("invalid cached price %v", price)
	}
	return price, nil
}

// QuoteStatus tags the outcome of asking one provider for a price.
type QuoteStatus int

const (
	QuoteFound QuoteStatus = iota
	QuoteNotAvailable
	QuoteFailed
)

func (s QuoteStatus) String() string {
	switch s {
	case QuoteFound:
		return "found"
	case QuoteNotAvailable:
		return "not_available"
	case QuoteFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Quote is the classified result of a single provider lookup.
type Quote struct {
	Source   string
	Status   QuoteStatus
	PriceUSD float64
	Err      error
}

// TokenPrice is the price of a token as returned to API callers.
type TokenPrice struct {
	Address string  `json:"address"`
	Symbol  string  `json:"symbol"`
	Price   float64 `json:"price"`
}
