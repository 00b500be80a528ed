// Package wallet is a custodial paper wallet: it holds the stable and risk
// balances the engine evaluates and settles proposed trades at the reference
// price.
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"PowerWallet/internal/cadence"
	"PowerWallet/internal/fixedpoint"
	"PowerWallet/internal/model"
	"PowerWallet/internal/nav"
	"PowerWallet/internal/strategy"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownAsset      = errors.New("asset not held by wallet")
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
)

// Manager handles balance operations with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *model.WalletState
	filePath string
	stable   model.Asset
	risk     model.Asset
}

// NewManager creates a Manager, loading or initializing state from disk.
// Initial balances only apply to a fresh state file.
func NewManager(filePath, id string, stable, risk model.Asset, initialStable, initialRisk decimal.Decimal) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}

	if state.ID == "" {
		for name, v := range map[string]decimal.Decimal{"initial stable": initialStable, "initial risk": initialRisk} {
			if err := fixedpoint.Uint(name, v); err != nil {
				return nil, err
			}
		}
		state.ID = id
		state.StableBalance = initialStable
		state.RiskBalance = initialRisk
		state.TotalDeposited = initialStable
	} else if state.ID != id {
		return nil, fmt.Errorf("state file %s belongs to wallet %q, not %q", filePath, state.ID, id)
	}

	m := &Manager{state: state, filePath: filePath, stable: stable, risk: risk}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// GetState returns a copy of the current wallet state.
func (m *Manager) GetState() model.WalletState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state
}

// Balances returns the stable and risk balances in base units.
func (m *Manager) Balances() (stable, risk decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.StableBalance, m.state.RiskBalance
}

// CadenceState returns the persisted last-action epoch.
func (m *Manager) CadenceState() cadence.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cadence.State{LastActionAt: m.state.LastActionAt}
}

// Deposit credits stable units.
func (m *Manager) Deposit(amount decimal.Decimal, now time.Time) error {
	if err := positive(amount); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := *m.state
	m.state.StableBalance = m.state.StableBalance.Add(amount)
	m.state.TotalDeposited = m.state.TotalDeposited.Add(amount)
	m.state.LastDepositAt = now
	return m.commit(prev)
}

// Withdraw debits stable units.
func (m *Manager) Withdraw(amount decimal.Decimal) error {
	if err := positive(amount); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount.GreaterThan(m.state.StableBalance) {
		return fmt.Errorf("withdraw %s from %s: %w", amount, m.state.StableBalance, ErrInsufficientFunds)
	}
	prev := *m.state
	m.state.StableBalance = m.state.StableBalance.Sub(amount)
	return m.commit(prev)
}

// Apply settles trade at priceUSD (1e8 scale) and returns the amount bought
// in base units of trade.BuyAsset.
func (m *Manager) Apply(trade model.Trade, priceUSD decimal.Decimal) (decimal.Decimal, error) {
	if err := positive(trade.SellAmount); err != nil {
		return decimal.Zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var bought decimal.Decimal
	switch {
	case trade.SellAsset.Same(m.stable) && trade.BuyAsset.Same(m.risk):
		if trade.SellAmount.GreaterThan(m.state.StableBalance) {
			return decimal.Zero, fmt.Errorf("sell %s %s: %w", trade.SellAmount, m.stable, ErrInsufficientFunds)
		}
		if priceUSD.Sign() <= 0 {
			return decimal.Zero, fmt.Errorf("buy %s at price %s: %w", m.risk, priceUSD, fixedpoint.ErrDivByZero)
		}
		usd, err := fixedpoint.ToUSD(trade.SellAmount, m.stable.Decimals)
		if err != nil {
			return decimal.Zero, err
		}
		bought, err = fixedpoint.MulDiv(usd, fixedpoint.Pow10(m.risk.Decimals), priceUSD)
		if err != nil {
			return decimal.Zero, err
		}
		m.state.StableBalance = m.state.StableBalance.Sub(trade.SellAmount)
		m.state.RiskBalance = m.state.RiskBalance.Add(bought)
	case trade.SellAsset.Same(m.risk) && trade.BuyAsset.Same(m.stable):
		if trade.SellAmount.GreaterThan(m.state.RiskBalance) {
			return decimal.Zero, fmt.Errorf("sell %s %s: %w", trade.SellAmount, m.risk, ErrInsufficientFunds)
		}
		usd, err := nav.RiskUSD(trade.SellAmount, priceUSD, m.risk.Decimals)
		if err != nil {
			return decimal.Zero, err
		}
		bought, err = fixedpoint.FromUSD(usd, m.stable.Decimals)
		if err != nil {
			return decimal.Zero, err
		}
		m.state.RiskBalance = m.state.RiskBalance.Sub(trade.SellAmount)
		m.state.StableBalance = m.state.StableBalance.Add(bought)
	default:
		return decimal.Zero, fmt.Errorf("%s -> %s: %w", trade.SellAsset, trade.BuyAsset, ErrUnknownAsset)
	}
	m.state.TradeCount++

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save wallet %s state after trade: %v", m.state.ID, err)
	}
	return bought, nil
}

// MarkExecuted persists the last-action epoch.
func (m *Manager) MarkExecuted(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.LastActionAt = now
	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save wallet %s state after execution: %v", m.state.ID, err)
	}
}

// SaveStrategy persists cfg as the wallet's accepted strategy configuration.
func (m *Manager) SaveStrategy(cfg strategy.Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := *m.state
	m.state.Strategy = data
	return m.commit(prev)
}

// StrategyConfig returns the persisted strategy configuration, or fallback
// when none was saved. A saved config for a different token pair, or one
// that no longer validates, is discarded in favour of fallback.
func (m *Manager) StrategyConfig(fallback strategy.Config) (strategy.Config, error) {
	m.mu.Lock()
	raw, id := m.state.Strategy, m.state.ID
	m.mu.Unlock()
	if len(raw) == 0 {
		return fallback, nil
	}

	var cfg strategy.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return fallback, fmt.Errorf("decode saved strategy of wallet %s: %w", id, err)
	}
	if !cfg.StableAsset.Same(fallback.StableAsset) || !cfg.RiskAsset.Same(fallback.RiskAsset) {
		log.Printf("[WARN] wallet %s: saved strategy trades %s/%s, using configured %s/%s",
			id, cfg.StableAsset, cfg.RiskAsset, fallback.StableAsset, fallback.RiskAsset)
		return fallback, nil
	}
	if err := cfg.Validate(); err != nil {
		return fallback, fmt.Errorf("saved strategy of wallet %s: %w", id, err)
	}
	return cfg, nil
}

func positive(v decimal.Decimal) error {
	if err := fixedpoint.Uint("amount", v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	if v.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}

// commit saves the state, restoring prev when the write fails.
func (m *Manager) commit(prev model.WalletState) error {
	if err := m.save(); err != nil {
		*m.state = prev
		return fmt.Errorf("save wallet %s: %w", prev.ID, err)
	}
	return nil
}
