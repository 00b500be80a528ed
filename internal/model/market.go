package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Asset identifies a token held by a wallet.
type Asset struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Address  string `json:"address,omitempty" yaml:"address"`
	Decimals int32  `json:"decimals" yaml:"decimals"`
}

// Same reports whether two assets refer to the same token. Addresses win when
// both sides carry one; otherwise symbols are compared case-insensitively.
func (a Asset) Same(b Asset) bool {
	if a.Address != "" && b.Address != "" {
		return strings.EqualFold(a.Address, b.Address)
	}
	return strings.EqualFold(a.Symbol, b.Symbol)
}

func (a Asset) String() string { return a.Symbol }

// PriceQuote is a reference price as returned by a price oracle.
type PriceQuote struct {
	Answer   decimal.Decimal `json:"answer"`
	Decimals int32           `json:"decimals"`
}

// RiskReading holds the indicator values for a risk asset, all on the 1e8
// fraction scale (1e8 == 100%).
type RiskReading struct {
	Volatility decimal.Decimal `json:"volatility"`
	Drawdown   decimal.Decimal `json:"drawdown"`
	Reserved   decimal.Decimal `json:"reserved"` // accepted, unused
}
