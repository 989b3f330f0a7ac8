package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"namada-wallet-api/internal/domain"
)

func TestListAssets(t *testing.T) {
	r := newTestRouter(&stubPrices{}, "")

	w := serve(r, "/api/assets", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var tokens []domain.Token
	if err := json.Unmarshal(w.Body.Bytes(), &tokens); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(tokens) != 2 || tokens[0].Symbol != "NAM" || tokens[1].Symbol != "USDC" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestListSymbols(t *testing.T) {
	r := newTestRouter(&stubPrices{}, "")

	w := serve(r, "/api/assets/symbols", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var symbols []string
	if err := json.Unmarshal(w.Body.Bytes(), &symbols); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "NAM" || symbols[1] != "USDC" {
		t.Fatalf("unexpected symbols: %v", symbols)
	}
}

func TestGetAssetBySymbol(t *testing.T) {
	r := newTestRouter(&stubPrices{}, "")

	w := serve(r, "/api/assets/symbol/nam", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var token domain.Token
	if err := json.Unmarshal(w.Body.Bytes(), &token); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if token.Address != "tnam1abc" || token.CoingeckoID != "namada" {
		t.Fatalf("unexpected token: %+v", token)
	}

	if w := serve(r, "/api/assets/symbol/DOGE", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetAssetByAddress(t *testing.T) {
	r := newTestRouter(&stubPrices{}, "")

	w := serve(r, "/api/assets/address/tnam1usdc", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var token domain.Token
	if err := json.Unmarshal(w.Body.Bytes(), &token); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if token.Symbol != "USDC" {
		t.Fatalf("unexpected token: %+v", token)
	}

	if w := serve(r, "/api/assets/address/tnam1nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
