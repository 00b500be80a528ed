// Package nav values a two-asset wallet in USD on the 1e8 scale.
package nav

import (
	"fmt"

	"PowerWallet/internal/fixedpoint"

	"github.com/shopspring/decimal"
)

// Valuation is the USD breakdown of a wallet.
type Valuation struct {
	StableUSD decimal.Decimal
	RiskUSD   decimal.Decimal
	NavUSD    decimal.Decimal
}

// Value computes the USD 1e8 valuation. The stable token is treated as a 1:1
// USD peg; riskPrice is on the 1e8 price scale.
func Value(stable, risk, riskPrice decimal.Decimal, stableDecimals, riskDecimals int32) (Valuation, error) {
	for name, v := range map[string]decimal.Decimal{"stable balance": stable, "risk balance": risk, "risk price": riskPrice} {
		if err := fixedpoint.Uint(name, v); err != nil {
			return Valuation{}, err
		}
	}
	stableUSD, err := fixedpoint.ToUSD(stable, stableDecimals)
	if err != nil {
		return Valuation{}, fmt.Errorf("stable usd: %w", err)
	}
	riskUSD, err := RiskUSD(risk, riskPrice, riskDecimals)
	if err != nil {
		return Valuation{}, err
	}
	return Valuation{StableUSD: stableUSD, RiskUSD: riskUSD, NavUSD: stableUSD.Add(riskUSD)}, nil
}

// RiskUSD converts a risk-asset amount to USD 1e8.
func RiskUSD(amount, price decimal.Decimal, riskDecimals int32) (decimal.Decimal, error) {
	v, err := fixedpoint.MulDiv(amount, price, fixedpoint.Pow10(riskDecimals))
	if err != nil {
		return decimal.Zero, fmt.Errorf("risk usd: %w", err)
	}
	return v, nil
}

// WeightBps returns the risk share of NAV in basis points, 0 for an empty
// wallet.
func WeightBps(v Valuation) int64 {
	if v.NavUSD.Sign() <= 0 {
		return 0
	}
	w, err := fixedpoint.MulDiv(v.RiskUSD, decimal.NewFromInt(fixedpoint.BpsDenominator), v.NavUSD)
	if err != nil {
		return 0
	}
	return fixedpoint.ClampBps(w.IntPart())
}
