package wallet

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"PowerWallet/internal/model"
	"PowerWallet/internal/strategy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	usdc = model.Asset{Symbol: "USDC", Decimals: 6}
	cbtc = model.Asset{Symbol: "cbBTC", Decimals: 8}

	// $50,000 on the 1e8 price scale
	btcPrice = decimal.NewFromInt(5_000_000_000_000)
)

func units(n int64, decimals int32) decimal.Decimal {
	return decimal.NewFromInt(n).Shift(decimals)
}

func newManager(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallet.json")
	m, err := NewManager(path, "main", usdc, cbtc, units(1_000, 6), decimal.Zero)
	require.NoError(t, err)
	return m, path
}

func TestNewManager_InitialisesAndReloads(t *testing.T) {
	m, path := newManager(t)
	st := m.GetState()
	assert.Equal(t, "main", st.ID)
	assert.True(t, units(1_000, 6).Equal(st.StableBalance))
	assert.True(t, units(1_000, 6).Equal(st.TotalDeposited))

	require.NoError(t, m.Deposit(units(50, 6), time.Now()))

	reloaded, err := NewManager(path, "main", usdc, cbtc, units(1, 6), units(1, 8))
	require.NoError(t, err)
	stableBal, riskBal := reloaded.Balances()
	assert.True(t, units(1_050, 6).Equal(stableBal), "got %s", stableBal)
	assert.True(t, riskBal.IsZero())

	_, err = NewManager(path, "other", usdc, cbtc, decimal.Zero, decimal.Zero)
	assert.Error(t, err)
}

func TestApply_BuyAndSell(t *testing.T) {
	m, _ := newManager(t)

	bought, err := m.Apply(model.Trade{Kind: model.TradeDCA, SellAsset: usdc, BuyAsset: cbtc, SellAmount: units(500, 6)}, btcPrice)
	require.NoError(t, err)
	// $500 / $50,000 = 0.01 BTC
	assert.True(t, units(1, 6).Equal(bought), "got %s", bought)

	stableBal, riskBal := m.Balances()
	assert.True(t, units(500, 6).Equal(stableBal))
	assert.True(t, units(1, 6).Equal(riskBal))

	bought, err = m.Apply(model.Trade{Kind: model.TradeBandSell, SellAsset: cbtc, BuyAsset: usdc, SellAmount: decimal.NewFromInt(500_000)}, btcPrice)
	require.NoError(t, err)
	assert.True(t, units(250, 6).Equal(bought), "got %s", bought)
	assert.Equal(t, 2, m.GetState().TradeCount)
}

func TestApply_Rejects(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Apply(model.Trade{SellAsset: usdc, BuyAsset: cbtc, SellAmount: units(2_000, 6)}, btcPrice)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = m.Apply(model.Trade{SellAsset: cbtc, BuyAsset: usdc, SellAmount: units(1, 8)}, btcPrice)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	weth := model.Asset{Symbol: "WETH", Decimals: 18}
	_, err = m.Apply(model.Trade{SellAsset: usdc, BuyAsset: weth, SellAmount: units(1, 6)}, btcPrice)
	assert.ErrorIs(t, err, ErrUnknownAsset)

	_, err = m.Apply(model.Trade{SellAsset: usdc, BuyAsset: cbtc, SellAmount: decimal.Zero}, btcPrice)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Equal(t, 0, m.GetState().TradeCount)
}

func TestDepositWithdraw(t *testing.T) {
	m, _ := newManager(t)
	now := time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.Deposit(units(100, 6), now))
	assert.True(t, now.Equal(m.GetState().LastDepositAt))
	assert.True(t, units(1_100, 6).Equal(m.GetState().TotalDeposited))

	assert.ErrorIs(t, m.Withdraw(units(5_000, 6)), ErrInsufficientFunds)
	require.NoError(t, m.Withdraw(units(600, 6)))
	stableBal, _ := m.Balances()
	assert.True(t, units(500, 6).Equal(stableBal))

	assert.ErrorIs(t, m.Deposit(decimal.NewFromInt(-1), now), ErrInvalidAmount)
}

func TestMarkExecuted_Persists(t *testing.T) {
	m, path := newManager(t)
	assert.True(t, m.CadenceState().LastActionAt.IsZero())

	now := time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC)
	m.MarkExecuted(now)

	reloaded, err := NewManager(path, "main", usdc, cbtc, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, now.Equal(reloaded.CadenceState().LastActionAt))
}

// blockSaves turns the state file path into a non-empty directory so the
// rename in SaveState fails.
func blockSaves(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocked"), 0755))
}

func TestDepositWithdraw_RollBackWhenSaveFails(t *testing.T) {
	m, path := newManager(t)
	before := m.GetState()
	blockSaves(t, path)

	assert.Error(t, m.Deposit(units(100, 6), time.Now()))
	assert.Error(t, m.Withdraw(units(100, 6)))

	after := m.GetState()
	assert.True(t, before.StableBalance.Equal(after.StableBalance), "got %s", after.StableBalance)
	assert.True(t, before.TotalDeposited.Equal(after.TotalDeposited))
	assert.True(t, after.LastDepositAt.IsZero())
}

func TestSaveStrategy_Reload(t *testing.T) {
	m, path := newManager(t)
	v, err := strategy.Lookup("smart-btc-dca-v2")
	require.NoError(t, err)
	defaults := v.DefaultConfig(usdc, cbtc)

	cfg, err := m.StrategyConfig(defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, cfg)

	changed := defaults
	changed.TargetWeightBps, changed.BandDeltaBps, changed.RebalanceCapBps = 6_000, 1_000, 1_000
	changed.Frequency = 24 * time.Hour
	changed.KickerCoefficient = decimal.NewFromInt(100_000)
	require.NoError(t, m.SaveStrategy(changed))

	reloaded, err := NewManager(path, "main", usdc, cbtc, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	cfg, err = reloaded.StrategyConfig(defaults)
	require.NoError(t, err)
	assert.Equal(t, int64(6_000), cfg.TargetWeightBps)
	assert.Equal(t, 24*time.Hour, cfg.Frequency)
	assert.True(t, decimal.NewFromInt(100_000).Equal(cfg.KickerCoefficient))
	assert.True(t, defaults.BaseDcaAmount.Equal(cfg.BaseDcaAmount))
}

func TestStrategyConfig_IgnoresOtherPair(t *testing.T) {
	m, _ := newManager(t)
	v, err := strategy.Lookup("smart-btc-dca-v2")
	require.NoError(t, err)

	weth := model.Asset{Symbol: "WETH", Decimals: 18}
	saved := v.DefaultConfig(usdc, weth)
	saved.TargetWeightBps = 6_000
	require.NoError(t, m.SaveStrategy(saved))

	defaults := v.DefaultConfig(usdc, cbtc)
	cfg, err := m.StrategyConfig(defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, cfg)
}

func TestSaveStrategy_KeepsPreviousWhenSaveFails(t *testing.T) {
	m, path := newManager(t)
	v, err := strategy.Lookup("smart-btc-dca")
	require.NoError(t, err)
	blockSaves(t, path)

	assert.Error(t, m.SaveStrategy(v.DefaultConfig(usdc, cbtc)))
	assert.Empty(t, m.GetState().Strategy)
}
