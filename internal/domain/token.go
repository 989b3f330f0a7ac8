package domain

import (
	"bytes"
	"encoding/json"
)

// DenomUnit is one denomination of a chain-registry asset.
type DenomUnit struct {
	Denom    string   `json:"denom"`
	Exponent int      `json:"exponent"`
	Aliases  []string `json:"aliases,omitempty"`
}

// ImageURIs holds the optional logo locations of an asset.
type ImageURIs struct {
	PNG   string `json:"png,omitempty"`
	SVG   string `json:"svg,omitempty"`
	Theme any    `json:"theme,omitempty"`
}

// ImageList decodes "images" given either as a single object or as the
// chain-registry array form.
type ImageList []ImageURIs

func (l *ImageList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var one ImageURIs
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = ImageList{one}
		return nil
	}
	var many []ImageURIs
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// Token is a chain-registry asset record. CoingeckoID is the identifier the
// secondary quote provider uses; tokens without one are skipped by the
// scheduled refresh.
type Token struct {
	Description string      `json:"description"`
	DenomUnits  []DenomUnit `json:"denom_units"`
	Base        string      `json:"base"`
	Name        string      `json:"name"`
	Display     string      `json:"display"`
	Symbol      string      `json:"symbol"`
	Address     string      `json:"address,omitempty"`
	CoingeckoID string      `json:"coingecko_id,omitempty"`
	LogoURIs    *ImageURIs  `json:"logo_URIs,omitempty"`
	Images      ImageList   `json:"images,omitempty"`
}

// HasCoingeckoID reports whether the token can be quoted by CoinGecko.
func (t Token) HasCoingeckoID() bool {
	return t.CoingeckoID != ""
}
