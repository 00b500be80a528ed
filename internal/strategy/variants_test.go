package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	v, err := Lookup("smart-btc-dca")
	require.NoError(t, err)
	assert.Equal(t, "Smart DCA", v.Name)

	_, err = Lookup("martingale")
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestVariants_Sorted(t *testing.T) {
	vs := Variants()
	require.Len(t, vs, 2)
	assert.Equal(t, "smart-btc-dca", vs[0].ID)
	assert.Equal(t, "smart-btc-dca-v2", vs[1].ID)
}

func TestDefaultConfig_ScalesToTokenDecimals(t *testing.T) {
	v, err := Lookup("smart-btc-dca")
	require.NoError(t, err)
	cfg := v.DefaultConfig(usdc, cbtc)

	assert.True(t, decimal.NewFromInt(100_000_000).Equal(cfg.BaseDcaAmount))
	assert.True(t, decimal.NewFromInt(100_000_000).Equal(cfg.MinTradeUSD))
	assert.True(t, decimal.NewFromInt(50_000).Equal(cfg.KickerCoefficient))
	assert.Equal(t, week, cfg.Frequency)
	assert.Equal(t, int64(5_000), cfg.TargetWeightBps)
	assert.Equal(t, int64(3_000), cfg.BandDeltaBps)
	assert.Equal(t, int64(2_000), cfg.RebalanceCapBps)
	assert.True(t, cfg.ThresholdRebalancing)

	v2, err := Lookup("smart-btc-dca-v2")
	require.NoError(t, err)
	cfg = v2.DefaultConfig(usdc, cbtc)
	assert.Equal(t, int64(7_000), cfg.TargetWeightBps)
	assert.Equal(t, int64(500), cfg.RebalanceCapBps)
	assert.True(t, cfg.MinTradeUSD.IsZero())
}
