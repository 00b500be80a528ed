package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"PowerWallet/internal/fixedpoint"
	"PowerWallet/internal/model"
	"PowerWallet/internal/strategy"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Oracle struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"oracle"`
	Schedule struct {
		EvaluateCron string `yaml:"evaluate_cron"`
		DepositCron  string `yaml:"deposit_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
	Proxy   string         `yaml:"proxy"`
	Wallets []WalletConfig `yaml:"wallets"`
}

// WalletConfig describes one paper wallet and its strategy. Amounts are human
// readable ("100.5") and converted with the asset's decimals.
type WalletConfig struct {
	ID            string      `yaml:"id"`
	Strategy      string      `yaml:"strategy"`
	StateFile     string      `yaml:"state_file"`
	Stable        model.Asset `yaml:"stable"`
	Risk          model.Asset `yaml:"risk"`
	InitialStable string      `yaml:"initial_stable"`
	InitialRisk   string      `yaml:"initial_risk"`
	DepositAmount string      `yaml:"deposit_amount"`
	Overrides     Overrides   `yaml:"overrides"`
}

// Overrides replaces individual variant defaults. Unset fields keep the
// default.
type Overrides struct {
	BaseDcaAmount        string `yaml:"base_dca_amount"`
	Frequency            string `yaml:"frequency"`
	TargetWeightBps      *int64 `yaml:"target_weight_bps"`
	BandDeltaBps         *int64 `yaml:"band_delta_bps"`
	RebalanceCapBps      *int64 `yaml:"rebalance_cap_bps"`
	BufferMultiple       *int64 `yaml:"buffer_multiple"`
	KickerCoefficient    string `yaml:"kicker_coefficient"`
	KickerCapMultiple    *int64 `yaml:"kicker_cap_multiple"`
	ThresholdRebalancing *bool  `yaml:"threshold_rebalancing"`
	MinTradeUSD          string `yaml:"min_trade_usd"`
}

// LoadDotEnv loads a .env file into the environment if one exists.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("ORACLE_BASE_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
	if v := os.Getenv("ORACLE_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_EVALUATE"); v != "" {
		cfg.Schedule.EvaluateCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_LISTEN"); v != "" {
		cfg.Metrics.Listen = v
	}

	// Defaults
	if cfg.Schedule.EvaluateCron == "" {
		cfg.Schedule.EvaluateCron = "0 0 9 * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/powerwallet.db"
	}
	if len(cfg.Wallets) == 0 {
		cfg.Wallets = []WalletConfig{{ID: "main"}}
	}
	for i := range cfg.Wallets {
		w := &cfg.Wallets[i]
		if w.Strategy == "" {
			w.Strategy = "smart-btc-dca-v2"
		}
		if w.StateFile == "" {
			w.StateFile = fmt.Sprintf("data/wallet_%s.json", w.ID)
		}
		if w.Stable.Symbol == "" && w.Stable.Address == "" {
			w.Stable = model.Asset{Symbol: "USDC", Decimals: fixedpoint.DefaultStableDecimals}
		}
		if w.Risk.Symbol == "" && w.Risk.Address == "" {
			w.Risk = model.Asset{Symbol: "cbBTC", Decimals: fixedpoint.DefaultRiskDecimals}
		}
		if w.InitialStable == "" {
			w.InitialStable = "0"
		}
		if w.InitialRisk == "" {
			w.InitialRisk = "0"
		}
	}

	return cfg, nil
}

// Validate checks that all required fields are set and every wallet builds a
// valid strategy.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.Oracle.BaseURL == "" {
		return fmt.Errorf("oracle.base_url is required")
	}
	seen := make(map[string]bool)
	for i, w := range c.Wallets {
		if w.ID == "" {
			return fmt.Errorf("wallets[%d].id is required", i)
		}
		if seen[w.ID] {
			return fmt.Errorf("wallets[%d].id %q is duplicated", i, w.ID)
		}
		seen[w.ID] = true
		if _, _, err := w.StrategyConfig(); err != nil {
			return fmt.Errorf("wallet %s: %w", w.ID, err)
		}
		if _, _, err := w.InitialBalances(); err != nil {
			return fmt.Errorf("wallet %s: %w", w.ID, err)
		}
		if _, err := w.Deposit(); err != nil {
			return fmt.Errorf("wallet %s: %w", w.ID, err)
		}
	}
	return nil
}

// StrategyConfig resolves the wallet's variant and applies its overrides.
func (w WalletConfig) StrategyConfig() (strategy.Variant, strategy.Config, error) {
	v, err := strategy.Lookup(w.Strategy)
	if err != nil {
		return strategy.Variant{}, strategy.Config{}, err
	}
	cfg := v.DefaultConfig(w.Stable, w.Risk)
	o := w.Overrides

	if o.BaseDcaAmount != "" {
		if cfg.BaseDcaAmount, err = fixedpoint.ParseUnits(o.BaseDcaAmount, w.Stable.Decimals); err != nil {
			return v, cfg, fmt.Errorf("base_dca_amount: %w", err)
		}
	}
	if o.Frequency != "" {
		if cfg.Frequency, err = time.ParseDuration(o.Frequency); err != nil {
			return v, cfg, fmt.Errorf("frequency: %w", err)
		}
	}
	if o.KickerCoefficient != "" {
		if cfg.KickerCoefficient, err = fixedpoint.ParseUnits(o.KickerCoefficient, fixedpoint.CoefficientDecimals); err != nil {
			return v, cfg, fmt.Errorf("kicker_coefficient: %w", err)
		}
	}
	if o.MinTradeUSD != "" {
		if cfg.MinTradeUSD, err = fixedpoint.ParseUnits(o.MinTradeUSD, fixedpoint.USDDecimals); err != nil {
			return v, cfg, fmt.Errorf("min_trade_usd: %w", err)
		}
	}
	setInt(&cfg.TargetWeightBps, o.TargetWeightBps)
	setInt(&cfg.BandDeltaBps, o.BandDeltaBps)
	setInt(&cfg.RebalanceCapBps, o.RebalanceCapBps)
	setInt(&cfg.BufferMultiple, o.BufferMultiple)
	setInt(&cfg.KickerCapMultiple, o.KickerCapMultiple)
	if o.ThresholdRebalancing != nil {
		cfg.ThresholdRebalancing = *o.ThresholdRebalancing
	}

	return v, cfg, cfg.Validate()
}

// InitialBalances parses the starting balances in base units.
func (w WalletConfig) InitialBalances() (stable, risk decimal.Decimal, err error) {
	if stable, err = fixedpoint.ParseUnits(w.InitialStable, w.Stable.Decimals); err != nil {
		return stable, risk, fmt.Errorf("initial_stable: %w", err)
	}
	if risk, err = fixedpoint.ParseUnits(w.InitialRisk, w.Risk.Decimals); err != nil {
		return stable, risk, fmt.Errorf("initial_risk: %w", err)
	}
	return stable, risk, nil
}

// Deposit parses the periodic deposit amount; zero when unset.
func (w WalletConfig) Deposit() (decimal.Decimal, error) {
	if w.DepositAmount == "" {
		return decimal.Zero, nil
	}
	d, err := fixedpoint.ParseUnits(w.DepositAmount, w.Stable.Decimals)
	if err != nil {
		return d, fmt.Errorf("deposit_amount: %w", err)
	}
	return d, nil
}

func setInt(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}
