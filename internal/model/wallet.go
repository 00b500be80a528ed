package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// WalletState tracks the custodial balances of one wallet, the epoch of its
// last executed action and the last accepted strategy configuration.
type WalletState struct {
	ID             string          `json:"id"`
	StableBalance  decimal.Decimal `json:"stable_balance"`
	RiskBalance    decimal.Decimal `json:"risk_balance"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	TradeCount     int             `json:"trade_count"`
	LastActionAt   time.Time       `json:"last_action_at"`
	LastDepositAt  time.Time       `json:"last_deposit_at"`
	Strategy       json.RawMessage `json:"strategy,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
