package kicker

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usdc(v int64) decimal.Decimal { return decimal.NewFromInt(v * 1_000_000) }
func usd(v int64) decimal.Decimal  { return decimal.NewFromInt(v * 100_000_000) }
func frac(s string) decimal.Decimal {
	return decimal.RequireFromString(s).Shift(8)
}

var params = Params{
	Base:           usdc(100),
	Coefficient:    decimal.NewFromInt(50_000), // 0.05
	CapMultiple:    3,
	StableDecimals: 6,
}

func TestSize_Formula(t *testing.T) {
	s, err := Size(params, frac("0.2"), frac("0.3"), usd(10_000))
	require.NoError(t, err)
	assert.Equal(t, usd(30).String(), s.UncappedUSD.String())
	assert.Equal(t, usdc(30).String(), s.Kicker.String())
	assert.Equal(t, usdc(130).String(), s.Total.String())
}

func TestSize_CappedAtMultipleOfBase(t *testing.T) {
	s, err := Size(params, frac("100"), frac("1"), usd(10_000))
	require.NoError(t, err)
	assert.Equal(t, usdc(300).String(), s.Kicker.String())
	assert.Equal(t, usdc(400).String(), s.Total.String())
	assert.True(t, s.UncappedUSD.GreaterThan(usd(300)))
}

func TestSize_ZeroReadingsGiveBaseOnly(t *testing.T) {
	s, err := Size(params, decimal.Zero, frac("0.5"), usd(10_000))
	require.NoError(t, err)
	assert.True(t, s.Kicker.IsZero())
	assert.Equal(t, usdc(100).String(), s.Total.String())
}

func TestSize_ZeroCapDisablesKicker(t *testing.T) {
	p := params
	p.CapMultiple = 0
	s, err := Size(p, frac("1"), frac("1"), usd(10_000))
	require.NoError(t, err)
	assert.True(t, s.Kicker.IsZero())
	assert.Equal(t, usdc(100).String(), s.Total.String())
}

func TestSize_RejectsNegativeReading(t *testing.T) {
	_, err := Size(params, frac("-0.1"), frac("0.3"), usd(10_000))
	assert.Error(t, err)
}

func TestApplyBuffer(t *testing.T) {
	tests := []struct {
		name    string
		amount  decimal.Decimal
		balance decimal.Decimal
		want    decimal.Decimal
	}{
		{"plenty of headroom", usdc(130), usdc(10_000), usdc(130)},
		{"truncated to headroom", usdc(130), usdc(1_000), usdc(100)},
		{"balance equals reserve", usdc(130), usdc(900), decimal.Zero},
		{"balance below reserve", usdc(130), usdc(50), decimal.Zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyBuffer(tt.amount, tt.balance, 9, usdc(100))
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}
