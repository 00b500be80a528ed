package recorder

import (
	"time"

	"PowerWallet/internal/model"

	"github.com/shopspring/decimal"
)

// Evaluation holds everything one engine evaluation saw and decided.
type Evaluation struct {
	ID            string // uuid, shared with the matching Execution
	WalletID      string
	StrategyID    string
	At            time.Time
	Input         model.EvaluationInput
	Decision      *model.Decision
	StableBalance decimal.Decimal
	RiskBalance   decimal.Decimal
}

// Execution records a settled trade.
type Execution struct {
	DecisionID string
	WalletID   string
	At         time.Time
	Trade      model.Trade
	Bought     decimal.Decimal
	Price      decimal.Decimal // USD 1e8
}

// ConfigChange records an attempted parameter update.
type ConfigChange struct {
	WalletID string
	At       time.Time
	Field    string
	OldValue string
	NewValue string
	Accepted bool
	Reason   string // validation error when rejected
}

// Deposit records a stable-token top up.
type Deposit struct {
	WalletID     string
	At           time.Time
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordEvaluation(evt *Evaluation) error
	RecordExecution(evt *Execution) error
	RecordConfigChange(evt *ConfigChange) error
	RecordDeposit(evt *Deposit) error
	Close() error
}
