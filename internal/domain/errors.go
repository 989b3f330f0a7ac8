package domain

import "errors"

var (
	// ErrUnknownToken is returned when an address or symbol is not in the token directory.
	ErrUnknownToken = errors.New("unknown token")

	// ErrQuoteUnavailable means a provider has no reliable price for the token:
	// it is disabled, the token is unlisted, or cross-validation failed.
	ErrQuoteUnavailable = errors.New("quote not available")

	// ErrNoIdentifier is returned by providers that need a CoinGecko ID the token lacks.
	ErrNoIdentifier = errors.New("token has no coingecko id")

	// ErrPriceNotFound is returned when an upstream response carries no usable price.
	ErrPriceNotFound = errors.New("price not found")
)
