package strategy

import (
	"errors"
	"fmt"
	"time"

	"PowerWallet/internal/band"
	"PowerWallet/internal/fixedpoint"
	"PowerWallet/internal/model"

	"github.com/shopspring/decimal"
)

// Configuration errors
var (
	ErrInvalidBps          = errors.New("basis points must be within [0, 10000]")
	ErrBandOutOfRange      = errors.New("band edges must stay within [0, 10000]")
	ErrZeroFrequency       = errors.New("frequency must be positive")
	ErrNegativeMultiple    = errors.New("multiple must be non-negative")
	ErrInvalidAmount       = errors.New("amount must be a non-negative integer")
	ErrNegativeCoefficient = errors.New("kicker coefficient must be a non-negative integer on the 1e6 scale")
	ErrInvalidAsset        = errors.New("invalid asset")
)

// Config is the full parameter set of one strategy instance. Amounts are raw
// base units: BaseDcaAmount in stable units, MinTradeUSD on the USD 1e8 scale,
// KickerCoefficient on the 1e6 scale.
type Config struct {
	StableAsset model.Asset `json:"stable_asset"`
	RiskAsset   model.Asset `json:"risk_asset"`

	BaseDcaAmount decimal.Decimal `json:"base_dca_amount"`
	Frequency     time.Duration   `json:"frequency"`

	TargetWeightBps int64 `json:"target_weight_bps"`
	BandDeltaBps    int64 `json:"band_delta_bps"`
	RebalanceCapBps int64 `json:"rebalance_cap_bps"`

	BufferMultiple    int64           `json:"buffer_multiple"`
	KickerCoefficient decimal.Decimal `json:"kicker_coefficient"`
	KickerCapMultiple int64           `json:"kicker_cap_multiple"`

	ThresholdRebalancing bool            `json:"threshold_rebalancing"`
	MinTradeUSD          decimal.Decimal `json:"min_trade_usd"`
}

// Validate checks every parameter group.
func (c Config) Validate() error {
	return errors.Join(
		validateAssets(c.StableAsset, c.RiskAsset),
		validateFrequency(c.Frequency),
		validateAmount("base_dca_amount", c.BaseDcaAmount),
		validateMultiple("buffer_multiple", c.BufferMultiple),
		validateKicker(c.KickerCoefficient, c.KickerCapMultiple),
		validateBands(c.TargetWeightBps, c.BandDeltaBps, c.RebalanceCapBps),
		validateAmount("min_trade_usd", c.MinTradeUSD),
	)
}

// Bands returns the clamped band edges.
func (c Config) Bands() (lower, upper int64) {
	return band.Edges(c.TargetWeightBps, c.BandDeltaBps)
}

func validateAssets(stable, risk model.Asset) error {
	for _, a := range []model.Asset{stable, risk} {
		if a.Symbol == "" && a.Address == "" {
			return fmt.Errorf("%w: missing symbol/address", ErrInvalidAsset)
		}
		if a.Decimals < 0 || a.Decimals > fixedpoint.MaxDecimals {
			return fmt.Errorf("%w: %s decimals %d", ErrInvalidAsset, a.Symbol, a.Decimals)
		}
	}
	if stable.Same(risk) {
		return fmt.Errorf("%w: stable and risk asset are the same (%s)", ErrInvalidAsset, stable.Symbol)
	}
	return nil
}

func validateFrequency(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("frequency %s: %w", d, ErrZeroFrequency)
	}
	return nil
}

func validateAmount(name string, v decimal.Decimal) error {
	if err := fixedpoint.Uint(name, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	return nil
}

func validateMultiple(name string, v int64) error {
	if v < 0 {
		return fmt.Errorf("%s=%d: %w", name, v, ErrNegativeMultiple)
	}
	return nil
}

func validateKicker(coefficient decimal.Decimal, capMultiple int64) error {
	if err := fixedpoint.Uint("kicker_coefficient", coefficient); err != nil {
		return fmt.Errorf("%w: %w", ErrNegativeCoefficient, err)
	}
	return validateMultiple("kicker_cap_multiple", capMultiple)
}

func validateBps(name string, v int64) error {
	if v < 0 || v > fixedpoint.BpsDenominator {
		return fmt.Errorf("%s=%d: %w", name, v, ErrInvalidBps)
	}
	return nil
}

func validateBands(target, delta, capBps int64) error {
	if err := errors.Join(
		validateBps("target_weight_bps", target),
		validateBps("band_delta_bps", delta),
		validateBps("rebalance_cap_bps", capBps),
	); err != nil {
		return err
	}
	if target-delta < 0 || target+delta > fixedpoint.BpsDenominator {
		return fmt.Errorf("target %d +/- %d: %w", target, delta, ErrBandOutOfRange)
	}
	return nil
}
