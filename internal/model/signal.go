package model

import "github.com/shopspring/decimal"

// TradeKind indicates which branch of the decision produced a trade.
type TradeKind string

const (
	TradeBandSell TradeKind = "BAND_SELL"
	TradeBandBuy  TradeKind = "BAND_BUY"
	TradeDCA      TradeKind = "DCA"
)

// Branch records how an evaluation ended.
type Branch string

const (
	BranchBand          Branch = "BAND"
	BranchDCA           Branch = "DCA"
	BranchCadence       Branch = "CADENCE_WAIT"
	BranchStarved       Branch = "STARVED"
	BranchAssetMismatch Branch = "ASSET_MISMATCH"
)

// RiskPosition is one risk-asset holding with its reference price on the
// USD 1e8 scale.
type RiskPosition struct {
	Asset   Asset           `json:"asset"`
	Balance decimal.Decimal `json:"balance"`
	Price   decimal.Decimal `json:"price"`
}

// EvaluationInput is the balance and indicator snapshot supplied to a single
// evaluation.
type EvaluationInput struct {
	StableAsset   Asset           `json:"stable_asset"`
	StableBalance decimal.Decimal `json:"stable_balance"`
	Risk          []RiskPosition  `json:"risk"`
	Reading       RiskReading     `json:"reading"`
}

// Trade is a proposed swap. SellAmount is in base units of SellAsset.
type Trade struct {
	Kind       TradeKind       `json:"kind"`
	SellAsset  Asset           `json:"sell_asset"`
	BuyAsset   Asset           `json:"buy_asset"`
	SellAmount decimal.Decimal `json:"sell_amount"`
}

// Decision is the result of one evaluation: zero or one trade plus the
// figures that led to it.
type Decision struct {
	NeedsRebalance bool
	Trades         []Trade
	Branch         Branch

	NavUSD       decimal.Decimal // USD 1e8
	WeightBps    int64
	LowerBps     int64
	UpperBps     int64
	BaseAmount   decimal.Decimal // stable units, DCA branch only
	KickerAmount decimal.Decimal // stable units after the kicker cap
}

// Trade returns the first proposed trade, if any.
func (d *Decision) Trade() (Trade, bool) {
	if d == nil || len(d.Trades) == 0 {
		return Trade{}, false
	}
	return d.Trades[0], true
}
