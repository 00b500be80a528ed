// Package oracle supplies reference prices and risk indicators and assembles
// the snapshot an evaluation runs on.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"PowerWallet/internal/fixedpoint"
	"PowerWallet/internal/model"

	"github.com/shopspring/decimal"
)

var ErrNoData = errors.New("oracle has no data for asset")

// PriceOracle returns the USD reference price of an asset.
type PriceOracle interface {
	Price(ctx context.Context, asset model.Asset) (model.PriceQuote, error)
	Name() string
}

// IndicatorOracle returns volatility and drawdown readings for an asset.
type IndicatorOracle interface {
	ReadRisk(ctx context.Context, asset model.Asset) (model.RiskReading, error)
	Name() string
}

// Collector combines both oracles for one stable/risk pair.
type Collector struct {
	Prices     PriceOracle
	Indicators IndicatorOracle
	Stable     model.Asset
	Risk       model.Asset
}

// NewCollector creates a new Collector.
func NewCollector(prices PriceOracle, indicators IndicatorOracle, stable, risk model.Asset) *Collector {
	return &Collector{Prices: prices, Indicators: indicators, Stable: stable, Risk: risk}
}

// Snapshot fetches the risk price and reading and pairs them with the given
// balances. The price is normalised to the 1e8 scale.
func (c *Collector) Snapshot(ctx context.Context, stableBalance, riskBalance decimal.Decimal) (model.EvaluationInput, error) {
	quote, err := c.Prices.Price(ctx, c.Risk)
	if err != nil {
		return model.EvaluationInput{}, fmt.Errorf("%s price %s: %w", c.Prices.Name(), c.Risk, err)
	}
	price, err := NormalizePrice(quote)
	if err != nil {
		return model.EvaluationInput{}, fmt.Errorf("%s price %s: %w", c.Prices.Name(), c.Risk, err)
	}
	reading, err := c.Indicators.ReadRisk(ctx, c.Risk)
	if err != nil {
		return model.EvaluationInput{}, fmt.Errorf("%s risk %s: %w", c.Indicators.Name(), c.Risk, err)
	}
	return model.EvaluationInput{
		StableAsset:   c.Stable,
		StableBalance: stableBalance,
		Risk:          []model.RiskPosition{{Asset: c.Risk, Balance: riskBalance, Price: price}},
		Reading:       reading,
	}, nil
}

// NormalizePrice rescales a quote to fixedpoint.PriceDecimals.
func NormalizePrice(q model.PriceQuote) (decimal.Decimal, error) {
	if err := fixedpoint.Uint("price", q.Answer); err != nil {
		return decimal.Zero, err
	}
	if q.Decimals < 0 || q.Decimals > fixedpoint.MaxDecimals {
		return decimal.Zero, fmt.Errorf("price decimals %d out of range", q.Decimals)
	}
	return fixedpoint.Rescale(q.Answer, q.Decimals, fixedpoint.PriceDecimals)
}
