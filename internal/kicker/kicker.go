// Package kicker sizes the periodic stable -> risk buy: a base amount plus an
// extra buy driven by volatility and drawdown.
package kicker

import (
	"fmt"

	"PowerWallet/internal/fixedpoint"

	"github.com/shopspring/decimal"
)

// Params configures the sizer. Amounts are in stable base units.
type Params struct {
	Base           decimal.Decimal
	Coefficient    decimal.Decimal // 1e6 scale
	CapMultiple    int64
	StableDecimals int32
}

// Sizing is the outcome of Size.
type Sizing struct {
	UncappedUSD decimal.Decimal // USD 1e8
	Kicker      decimal.Decimal // stable units, capped
	Total       decimal.Decimal // Base + Kicker
}

// kickerScale is 1e6 (coefficient) * 1e8 (volatility) * 1e8 (drawdown).
var kickerScale = fixedpoint.Pow10(fixedpoint.CoefficientDecimals + 2*fixedpoint.PriceDecimals)

// Size computes k * volatility * drawdown * nav, converts it to stable units and
// caps it at CapMultiple * Base.
func Size(p Params, volatility, drawdown, navUSD decimal.Decimal) (Sizing, error) {
	for name, v := range map[string]decimal.Decimal{"volatility": volatility, "drawdown": drawdown, "nav": navUSD} {
		if err := fixedpoint.Uint(name, v); err != nil {
			return Sizing{}, err
		}
	}
	factor := p.Coefficient.Mul(volatility).Mul(drawdown)
	usd, err := fixedpoint.MulDiv(navUSD, factor, kickerScale)
	if err != nil {
		return Sizing{}, fmt.Errorf("kicker usd: %w", err)
	}
	extra, err := fixedpoint.FromUSD(usd, p.StableDecimals)
	if err != nil {
		return Sizing{}, fmt.Errorf("kicker units: %w", err)
	}
	capAmount := p.Base.Mul(decimal.NewFromInt(p.CapMultiple))
	extra = fixedpoint.Min(extra, capAmount)
	return Sizing{UncappedUSD: usd, Kicker: extra, Total: p.Base.Add(extra)}, nil
}

// ApplyBuffer limits a buy so the stable balance left afterwards is at least
// bufferMultiple * base. It returns 0 when no headroom remains.
func ApplyBuffer(amount, stableBalance decimal.Decimal, bufferMultiple int64, base decimal.Decimal) decimal.Decimal {
	reserve := base.Mul(decimal.NewFromInt(bufferMultiple))
	available := fixedpoint.Max(decimal.Zero, stableBalance.Sub(reserve))
	return fixedpoint.Min(amount, available)
}
