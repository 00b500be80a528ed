// Package fixedpoint holds the integer arithmetic shared by the valuation and
// sizing code. Every value is a non-negative integer in token base units,
// carried in a decimal.Decimal so products never wrap.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// BpsDenominator is 100% expressed in basis points.
	BpsDenominator = 10000
	// USDDecimals is the canonical USD scale (1e8) used for NAV and caps.
	USDDecimals = 8
	// PriceDecimals is the reference feed precision.
	PriceDecimals = 8
	// CoefficientDecimals is the precision of the kicker coefficient.
	CoefficientDecimals = 6
	// DefaultStableDecimals matches a USDC-like stable token.
	DefaultStableDecimals = 6
	// DefaultRiskDecimals matches a cbBTC-like risk token.
	DefaultRiskDecimals = 8
	// MaxDecimals bounds token precision accepted anywhere in the engine.
	MaxDecimals = 36
)

var (
	ErrOverflow   = errors.New("fixed-point overflow")
	ErrNegative   = errors.New("negative value")
	ErrFractional = errors.New("value is not an integer")
	ErrDivByZero  = errors.New("division by zero")
	ErrPrecision  = errors.New("value has more decimals than the token supports")
)

var (
	bpsDenominator = decimal.NewFromInt(BpsDenominator)
	maxWord        = decimal.NewFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)), 0)
)

// Pow10 returns 10^n as an integer decimal.
func Pow10(n int32) decimal.Decimal {
	return decimal.New(1, n)
}

// Uint checks that v is a non-negative integer that fits the word size.
func Uint(name string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%s: %w", name, ErrNegative)
	}
	if !v.IsInteger() {
		return fmt.Errorf("%s: %w", name, ErrFractional)
	}
	if v.Cmp(maxWord) > 0 {
		return fmt.Errorf("%s: %w", name, ErrOverflow)
	}
	return nil
}

func bounded(v decimal.Decimal) (decimal.Decimal, error) {
	if v.Cmp(maxWord) > 0 {
		return decimal.Zero, ErrOverflow
	}
	return v, nil
}

// MulDiv computes a*b/d with a single truncation toward zero.
func MulDiv(a, b, d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsZero() {
		return decimal.Zero, ErrDivByZero
	}
	p, err := bounded(a.Mul(b))
	if err != nil {
		return decimal.Zero, err
	}
	q, _ := p.QuoRem(d, 0)
	return q, nil
}

// MulBps computes v*bps/10000, truncating toward zero.
func MulBps(v decimal.Decimal, bps int64) (decimal.Decimal, error) {
	return MulDiv(v, decimal.NewFromInt(bps), bpsDenominator)
}

// Rescale converts an integer amount between decimal precisions, truncating
// when precision is lost.
func Rescale(v decimal.Decimal, from, to int32) (decimal.Decimal, error) {
	if from == to {
		return v, nil
	}
	return bounded(v.Shift(to - from).Truncate(0))
}

// ToUSD converts an amount of a 1:1 USD-pegged token to the USD 1e8 scale.
func ToUSD(v decimal.Decimal, decimals int32) (decimal.Decimal, error) {
	return Rescale(v, decimals, USDDecimals)
}

// FromUSD converts a USD 1e8 value into units of a 1:1 USD-pegged token.
func FromUSD(usd decimal.Decimal, decimals int32) (decimal.Decimal, error) {
	return Rescale(usd, USDDecimals, decimals)
}

// ParseUnits turns a human amount such as "100.5" into base units.
func ParseUnits(s string, decimals int32) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q: %w", s, err)
	}
	raw := d.Shift(decimals)
	if !raw.IsInteger() {
		return decimal.Zero, fmt.Errorf("parse %q with %d decimals: %w", s, decimals, ErrPrecision)
	}
	if err := Uint(s, raw); err != nil {
		return decimal.Zero, err
	}
	return raw.Truncate(0), nil
}

// FormatUnits renders base units as a human amount.
func FormatUnits(v decimal.Decimal, decimals int32) string {
	return v.Shift(-decimals).String()
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// ClampBps limits a basis-point value to [0, 10000].
func ClampBps(v int64) int64 {
	switch {
	case v < 0:
		return 0
	case v > BpsDenominator:
		return BpsDenominator
	default:
		return v
	}
}
