// Package band implements threshold rebalancing: when the risk weight leaves
// [target-delta, target+delta] it proposes a capped trade back to the nearest
// band edge.
package band

import (
	"fmt"

	"PowerWallet/internal/fixedpoint"
	"PowerWallet/internal/model"
	"PowerWallet/internal/nav"

	"github.com/shopspring/decimal"
)

// Params configures the rebalancer.
type Params struct {
	TargetBps int64
	DeltaBps  int64
	CapBps    int64
}

// Position is the wallet snapshot the rebalancer works on.
type Position struct {
	Stable        model.Asset
	Risk          model.Asset
	StableBalance decimal.Decimal
	RiskBalance   decimal.Decimal
	Price         decimal.Decimal // USD 1e8
	Valuation     nav.Valuation
	WeightBps     int64
}

// Edges returns the lower and upper band edges clamped to [0, 10000].
func Edges(targetBps, deltaBps int64) (lower, upper int64) {
	return fixedpoint.ClampBps(targetBps - deltaBps), fixedpoint.ClampBps(targetBps + deltaBps)
}

// Outside reports whether weight lies outside the band.
func Outside(p Params, weightBps int64) bool {
	lower, upper := Edges(p.TargetBps, p.DeltaBps)
	return weightBps < lower || weightBps > upper
}

// Compute returns the band trade for pos. ok is false when the weight is
// inside the band. The returned amount may be zero when caps leave nothing
// to trade.
func Compute(p Params, pos Position) (trade model.Trade, ok bool, err error) {
	lower, upper := Edges(p.TargetBps, p.DeltaBps)
	switch {
	case pos.WeightBps > upper:
		amount, err := sellAmount(p, pos, upper)
		if err != nil {
			return model.Trade{}, false, err
		}
		return model.Trade{Kind: model.TradeBandSell, SellAsset: pos.Risk, BuyAsset: pos.Stable, SellAmount: amount}, true, nil
	case pos.WeightBps < lower:
		amount, err := buyAmount(p, pos, lower)
		if err != nil {
			return model.Trade{}, false, err
		}
		return model.Trade{Kind: model.TradeBandBuy, SellAsset: pos.Stable, BuyAsset: pos.Risk, SellAmount: amount}, true, nil
	default:
		return model.Trade{}, false, nil
	}
}

// sellAmount brings the weight down to upper, in risk units, capped at
// CapBps of the risk balance.
func sellAmount(p Params, pos Position, upper int64) (decimal.Decimal, error) {
	if pos.Price.Sign() <= 0 {
		return decimal.Zero, nil
	}
	target, err := fixedpoint.MulBps(pos.Valuation.NavUSD, upper)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sell target: %w", err)
	}
	excess := fixedpoint.Max(decimal.Zero, pos.Valuation.RiskUSD.Sub(target))
	raw, err := fixedpoint.MulDiv(excess, fixedpoint.Pow10(pos.Risk.Decimals), pos.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sell amount: %w", err)
	}
	capAmount, err := fixedpoint.MulBps(pos.RiskBalance, p.CapBps)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sell cap: %w", err)
	}
	return fixedpoint.Min(fixedpoint.Min(raw, capAmount), pos.RiskBalance), nil
}

// buyAmount brings the weight up to lower, in stable units, capped at CapBps
// of NAV and at the stable balance.
func buyAmount(p Params, pos Position, lower int64) (decimal.Decimal, error) {
	target, err := fixedpoint.MulBps(pos.Valuation.NavUSD, lower)
	if err != nil {
		return decimal.Zero, fmt.Errorf("buy target: %w", err)
	}
	shortfall := fixedpoint.Max(decimal.Zero, target.Sub(pos.Valuation.RiskUSD))
	capUSD, err := fixedpoint.MulBps(pos.Valuation.NavUSD, p.CapBps)
	if err != nil {
		return decimal.Zero, fmt.Errorf("buy cap: %w", err)
	}
	amount, err := fixedpoint.FromUSD(fixedpoint.Min(shortfall, capUSD), pos.Stable.Decimals)
	if err != nil {
		return decimal.Zero, fmt.Errorf("buy amount: %w", err)
	}
	return fixedpoint.Min(amount, pos.StableBalance), nil
}
