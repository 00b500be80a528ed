package strategy

import (
	"fmt"
	"sync"
	"time"

	"PowerWallet/internal/band"
	"PowerWallet/internal/cadence"
	"PowerWallet/internal/fixedpoint"
	"PowerWallet/internal/kicker"
	"PowerWallet/internal/model"
	"PowerWallet/internal/nav"

	"github.com/shopspring/decimal"
)

// Engine owns one strategy's configuration and cadence state.
type Engine struct {
	mu      sync.Mutex
	variant Variant
	cfg     Config
	state   cadence.State
}

// NewEngine validates cfg and creates an engine. state restores a persisted
// cadence epoch; pass the zero value for a fresh strategy.
func NewEngine(variant Variant, cfg Config, state cadence.State) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("strategy %s: %w", variant.ID, err)
	}
	return &Engine{variant: variant, cfg: cfg, state: state}, nil
}

// Variant returns the engine's variant metadata.
func (e *Engine) Variant() Variant { return e.variant }

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// State returns a copy of the cadence state.
func (e *Engine) State() cadence.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Evaluate decides whether the wallet described by in should trade at now.
// It never mutates the engine.
func (e *Engine) Evaluate(in model.EvaluationInput, now time.Time) (*model.Decision, error) {
	e.mu.Lock()
	cfg, state := e.cfg, e.state
	e.mu.Unlock()
	return Evaluate(cfg, state, in, now)
}

// NotifyExecuted must be called after a proposed trade settled. It restarts
// the cadence interval.
func (e *Engine) NotifyExecuted(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.NotifyExecuted(now)
}

// Evaluate is the decision function behind Engine.Evaluate.
//
// Band correction runs first and bypasses the cadence gate; otherwise a
// cadence-gated base buy plus kicker is proposed, limited by the stable
// buffer.
func Evaluate(cfg Config, state cadence.State, in model.EvaluationInput, now time.Time) (*model.Decision, error) {
	lower, upper := cfg.Bands()
	d := &model.Decision{
		NavUSD:       decimal.Zero,
		LowerBps:     lower,
		UpperBps:     upper,
		BaseAmount:   decimal.Zero,
		KickerAmount: decimal.Zero,
	}

	if !in.StableAsset.Same(cfg.StableAsset) {
		d.Branch = model.BranchAssetMismatch
		return d, nil
	}
	pos, ok := primaryPosition(in.Risk, cfg.RiskAsset)
	if !ok {
		d.Branch = model.BranchAssetMismatch
		return d, nil
	}

	val, err := nav.Value(in.StableBalance, pos.Balance, pos.Price, cfg.StableAsset.Decimals, cfg.RiskAsset.Decimals)
	if err != nil {
		return nil, fmt.Errorf("valuation: %w", err)
	}
	weight := nav.WeightBps(val)
	d.NavUSD = val.NavUSD
	d.WeightBps = weight

	bp := band.Params{TargetBps: cfg.TargetWeightBps, DeltaBps: cfg.BandDeltaBps, CapBps: cfg.RebalanceCapBps}
	if cfg.ThresholdRebalancing && val.NavUSD.Sign() > 0 && band.Outside(bp, weight) {
		trade, _, err := band.Compute(bp, band.Position{
			Stable:        cfg.StableAsset,
			Risk:          cfg.RiskAsset,
			StableBalance: in.StableBalance,
			RiskBalance:   pos.Balance,
			Price:         pos.Price,
			Valuation:     val,
			WeightBps:     weight,
		})
		if err != nil {
			return nil, fmt.Errorf("band: %w", err)
		}
		usd, err := TradeUSD(cfg, trade, pos.Price)
		if err != nil {
			return nil, err
		}
		d.Branch = model.BranchBand
		d.Trades = []model.Trade{trade}
		d.NeedsRebalance = trade.SellAmount.Sign() > 0 && usd.Cmp(cfg.MinTradeUSD) >= 0
		return d, nil
	}

	if !cadence.IsDue(state, cfg.Frequency, now) {
		d.Branch = model.BranchCadence
		return d, nil
	}

	for name, v := range map[string]decimal.Decimal{"volatility": in.Reading.Volatility, "drawdown": in.Reading.Drawdown} {
		if err := fixedpoint.Uint(name, v); err != nil {
			return nil, fmt.Errorf("reading: %w", err)
		}
	}
	sizing, err := kicker.Size(kicker.Params{
		Base:           cfg.BaseDcaAmount,
		Coefficient:    cfg.KickerCoefficient,
		CapMultiple:    cfg.KickerCapMultiple,
		StableDecimals: cfg.StableAsset.Decimals,
	}, in.Reading.Volatility, in.Reading.Drawdown, val.NavUSD)
	if err != nil {
		return nil, fmt.Errorf("kicker: %w", err)
	}
	d.BaseAmount = cfg.BaseDcaAmount
	d.KickerAmount = sizing.Kicker

	amount := kicker.ApplyBuffer(sizing.Total, in.StableBalance, cfg.BufferMultiple, cfg.BaseDcaAmount)
	trade := model.Trade{Kind: model.TradeDCA, SellAsset: cfg.StableAsset, BuyAsset: cfg.RiskAsset, SellAmount: amount}
	usd, err := TradeUSD(cfg, trade, pos.Price)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 || usd.Cmp(cfg.MinTradeUSD) < 0 {
		d.Branch = model.BranchStarved
		return d, nil
	}

	d.Branch = model.BranchDCA
	d.NeedsRebalance = true
	d.Trades = []model.Trade{trade}
	return d, nil
}

// primaryPosition finds the configured risk asset among the supplied
// positions. Other risk assets are ignored.
func primaryPosition(positions []model.RiskPosition, risk model.Asset) (model.RiskPosition, bool) {
	for _, p := range positions {
		if p.Asset.Same(risk) {
			return p, true
		}
	}
	return model.RiskPosition{}, false
}

// TradeUSD values the sold side of a trade on the USD 1e8 scale.
func TradeUSD(cfg Config, t model.Trade, price decimal.Decimal) (decimal.Decimal, error) {
	if t.SellAsset.Same(cfg.RiskAsset) {
		return nav.RiskUSD(t.SellAmount, price, cfg.RiskAsset.Decimals)
	}
	return fixedpoint.ToUSD(t.SellAmount, cfg.StableAsset.Decimals)
}

// update applies fn to a copy of the config and swaps it in only when the
// result validates.
func (e *Engine) update(fn func(*Config)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.cfg
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	e.cfg = next
	return nil
}

// SetFrequency changes the cadence interval.
func (e *Engine) SetFrequency(d time.Duration) error {
	return e.update(func(c *Config) { c.Frequency = d })
}

// SetBaseDcaAmount changes the base buy in stable base units.
func (e *Engine) SetBaseDcaAmount(amount decimal.Decimal) error {
	return e.update(func(c *Config) { c.BaseDcaAmount = amount })
}

// SetBufferMultiple changes the stable reserve multiple.
func (e *Engine) SetBufferMultiple(multiple int64) error {
	return e.update(func(c *Config) { c.BufferMultiple = multiple })
}

// SetKicker changes the kicker coefficient (1e6 scale) and cap multiple.
func (e *Engine) SetKicker(coefficient decimal.Decimal, capMultiple int64) error {
	return e.update(func(c *Config) {
		c.KickerCoefficient = coefficient
		c.KickerCapMultiple = capMultiple
	})
}

// SetBands changes target weight, band half-width and rebalance cap together.
func (e *Engine) SetBands(targetBps, deltaBps, capBps int64) error {
	return e.update(func(c *Config) {
		c.TargetWeightBps = targetBps
		c.BandDeltaBps = deltaBps
		c.RebalanceCapBps = capBps
	})
}

// SetThresholdRebalancing toggles the band branch.
func (e *Engine) SetThresholdRebalancing(enabled bool) error {
	return e.update(func(c *Config) { c.ThresholdRebalancing = enabled })
}

// SetMinTradeUSD changes the smallest trade worth proposing (USD 1e8).
func (e *Engine) SetMinTradeUSD(usd decimal.Decimal) error {
	return e.update(func(c *Config) { c.MinTradeUSD = usd })
}
