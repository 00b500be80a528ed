package strategy

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"PowerWallet/internal/fixedpoint"
	"PowerWallet/internal/model"

	"github.com/shopspring/decimal"
)

// ErrUnknownVariant is returned by Lookup.
var ErrUnknownVariant = errors.New("unknown strategy variant")

// Variant names a strategy flavour. Variants share the engine and differ only
// in metadata and default parameters.
type Variant struct {
	ID          string
	Name        string
	Description string
	defaults    defaults
}

type defaults struct {
	baseDca           int64 // whole stable tokens
	frequency         time.Duration
	targetWeightBps   int64
	bandDeltaBps      int64
	rebalanceCapBps   int64
	bufferMultiple    int64
	kickerCoefficient int64 // 1e6 scale
	kickerCapMultiple int64
	threshold         bool
	minTradeUSD       int64 // whole dollars
}

const week = 7 * 24 * time.Hour

var variants = map[string]Variant{
	"smart-btc-dca": {
		ID:          "smart-btc-dca",
		Name:        "Smart DCA",
		Description: "Weekly DCA with a volatility/drawdown kicker and threshold rebalancing around 50% BTC",
		defaults: defaults{
			baseDca: 100, frequency: week,
			targetWeightBps: 5000, bandDeltaBps: 3000, rebalanceCapBps: 2000,
			bufferMultiple: 9, kickerCoefficient: 50_000, kickerCapMultiple: 3,
			threshold: true, minTradeUSD: 1,
		},
	},
	"smart-btc-dca-v2": {
		ID:          "smart-btc-dca-v2",
		Name:        "Smart BTC DCA V2",
		Description: "Weekly DCA with kicker, 70% +/- 20% BTC band and a 5% NAV rebalance cap",
		defaults: defaults{
			baseDca: 100, frequency: week,
			targetWeightBps: 7000, bandDeltaBps: 2000, rebalanceCapBps: 500,
			bufferMultiple: 9, kickerCoefficient: 50_000, kickerCapMultiple: 3,
			threshold: true,
		},
	},
}

// Lookup returns the variant registered under id.
func Lookup(id string) (Variant, error) {
	v, ok := variants[id]
	if !ok {
		return Variant{}, fmt.Errorf("%q: %w", id, ErrUnknownVariant)
	}
	return v, nil
}

// Variants lists all registered variants ordered by id.
func Variants() []Variant {
	out := make([]Variant, 0, len(variants))
	for _, v := range variants {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DefaultConfig builds the variant's default configuration for a token pair.
func (v Variant) DefaultConfig(stable, risk model.Asset) Config {
	d := v.defaults
	return Config{
		StableAsset:          stable,
		RiskAsset:            risk,
		BaseDcaAmount:        decimal.NewFromInt(d.baseDca).Mul(fixedpoint.Pow10(stable.Decimals)),
		Frequency:            d.frequency,
		TargetWeightBps:      d.targetWeightBps,
		BandDeltaBps:         d.bandDeltaBps,
		RebalanceCapBps:      d.rebalanceCapBps,
		BufferMultiple:       d.bufferMultiple,
		KickerCoefficient:    decimal.NewFromInt(d.kickerCoefficient),
		KickerCapMultiple:    d.kickerCapMultiple,
		ThresholdRebalancing: d.threshold,
		MinTradeUSD:          decimal.NewFromInt(d.minTradeUSD).Mul(fixedpoint.Pow10(fixedpoint.USDDecimals)),
	}
}
