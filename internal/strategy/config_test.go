package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateDefaults(t *testing.T) {
	for _, v := range Variants() {
		t.Run(v.ID, func(t *testing.T) {
			assert.NoError(t, v.DefaultConfig(usdc, cbtc).Validate())
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := v2Config(t)
	cfg.Frequency = -time.Second
	cfg.BufferMultiple = -2
	cfg.TargetWeightBps = 12_000

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrZeroFrequency)
	assert.ErrorIs(t, err, ErrNegativeMultiple)
	assert.ErrorIs(t, err, ErrInvalidBps)
}

func TestConfig_ValidateAssets(t *testing.T) {
	cfg := v2Config(t)
	cfg.RiskAsset = cfg.StableAsset
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidAsset)

	cfg = v2Config(t)
	cfg.StableAsset.Symbol, cfg.StableAsset.Address = "", ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidAsset)

	cfg = v2Config(t)
	cfg.RiskAsset.Decimals = 99
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidAsset)
}

func TestConfig_BandEdges(t *testing.T) {
	cfg := v2Config(t)
	lower, upper := cfg.Bands()
	assert.Equal(t, int64(5_000), lower)
	assert.Equal(t, int64(9_000), upper)

	cfg.TargetWeightBps, cfg.BandDeltaBps = 10_000, 0
	require.NoError(t, cfg.Validate())
	cfg.TargetWeightBps, cfg.BandDeltaBps = 0, 0
	require.NoError(t, cfg.Validate())
	cfg.TargetWeightBps, cfg.BandDeltaBps = 500, 600
	assert.ErrorIs(t, cfg.Validate(), ErrBandOutOfRange)
}

func TestConfig_RejectsFractionalAmounts(t *testing.T) {
	cfg := v2Config(t)
	cfg.MinTradeUSD = decimal.RequireFromString("0.5")
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidAmount)
}
