// Package asset holds the read-only token directory loaded from the
// chain-registry asset list.
package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"namada-wallet-api/internal/domain"
)

// Directory indexes tokens by address, symbol and CoingeckoID. It is
// immutable after construction and safe for concurrent use.
type Directory struct {
	tokens      []domain.Token
	byAddress   map[string]int
	bySymbol    map[string]int
	byFoldedSym map[string]int
	byCoingecko map[string]int
}

// NewDirectory builds a directory preserving the given order. On duplicate
// keys the first token wins.
func NewDirectory(tokens []domain.Token) *Directory {
	d := &Directory{
		tokens:      append([]domain.Token(nil), tokens...),
		byAddress:   make(map[string]int, len(tokens)),
		bySymbol:    make(map[string]int, len(tokens)),
		byFoldedSym: make(map[string]int, len(tokens)),
		byCoingecko: make(map[string]int, len(tokens)),
	}
	for i, t := range d.tokens {
		if t.Address != "" {
			if _, dup := d.byAddress[t.Address]; !dup {
				d.byAddress[t.Address] = i
			}
		}
		if t.Symbol != "" {
			if _, dup := d.bySymbol[t.Symbol]; !dup {
				d.bySymbol[t.Symbol] = i
			}
			folded := strings.ToLower(t.Symbol)
			if _, dup := d.byFoldedSym[folded]; !dup {
				d.byFoldedSym[folded] = i
			}
		}
		if t.CoingeckoID != "" {
			if _, dup := d.byCoingecko[t.CoingeckoID]; !dup {
				d.byCoingecko[t.CoingeckoID] = i
			}
		}
	}
	return d
}

// Load reads a chain-registry assetlist.json file.
func Load(path string) (*Directory, error) {
	log.Printf("Loading assets from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("asset list file not found at: %s", path)
		}
		return nil, fmt.Errorf("read asset list: %w", err)
	}

	var raw struct {
		ChainName string          `json:"chain_name"`
		Assets    json.RawMessage `json:"assets"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse asset list: %w", err)
	}
	if len(raw.Assets) == 0 || raw.Assets[0] != '[' {
		return nil, errors.New("invalid asset list format: assets array not found")
	}

	var tokens []domain.Token
	if err := json.Unmarshal(raw.Assets, &tokens); err != nil {
		return nil, fmt.Errorf("parse assets: %w", err)
	}

	d := NewDirectory(tokens)
	log.Printf("Successfully loaded %d assets for chain %q (%d with CoinGecko IDs)",
		len(tokens), raw.ChainName, len(d.byCoingecko))
	return d, nil
}

// All returns every token in file order.
func (d *Directory) All() []domain.Token {
	if d == nil {
		return nil
	}
	return append([]domain.Token(nil), d.tokens...)
}

func (d *Directory) FindByAddress(address string) (domain.Token, bool) {
	if d == nil {
		return domain.Token{}, false
	}
	return d.lookup(d.byAddress, address)
}

// FindBySymbol matches exactly first, then case-insensitively.
func (d *Directory) FindBySymbol(symbol string) (domain.Token, bool) {
	if d == nil {
		return domain.Token{}, false
	}
	if t, ok := d.lookup(d.bySymbol, symbol); ok {
		return t, true
	}
	return d.lookup(d.byFoldedSym, strings.ToLower(symbol))
}

func (d *Directory) FindByCoingeckoID(id string) (domain.Token, bool) {
	if d == nil {
		return domain.Token{}, false
	}
	return d.lookup(d.byCoingecko, id)
}

func (d *Directory) Symbols() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.tokens))
	for _, t := range d.tokens {
		out = append(out, t.Symbol)
	}
	return out
}

func (d *Directory) Addresses() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.byAddress))
	for _, t := range d.tokens {
		if t.Address != "" {
			out = append(out, t.Address)
		}
	}
	return out
}

func (d *Directory) CoingeckoIDs() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.byCoingecko))
	for _, t := range d.tokens {
		if t.CoingeckoID != "" {
			out = append(out, t.CoingeckoID)
		}
	}
	return out
}

func (d *Directory) lookup(index map[string]int, key string) (domain.Token, bool) {
	if key == "" {
		return domain.Token{}, false
	}
	i, ok := index[key]
	if !ok {
		return domain.Token{}, false
	}
	return d.tokens[i], true
}
