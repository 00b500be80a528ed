package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database. Base-unit
// amounts are stored as TEXT to keep full precision.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			wallet_id       TEXT NOT NULL,
			strategy_id     TEXT,
			branch          TEXT,
			needs_rebalance INTEGER,
			trade_kind      TEXT,
			sell_amount     TEXT,
			nav_usd         TEXT,
			weight_bps      INTEGER,
			lower_bps       INTEGER,
			upper_bps       INTEGER,
			base_amount     TEXT,
			kicker_amount   TEXT,
			price           TEXT,
			volatility      TEXT,
			drawdown        TEXT,
			stable_balance  TEXT,
			risk_balance    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_ts ON evaluations(wallet_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS executions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			decision_id TEXT,
			wallet_id   TEXT NOT NULL,
			trade_kind  TEXT,
			sell_asset  TEXT,
			buy_asset   TEXT,
			sell_amount TEXT,
			bought      TEXT,
			price       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_ts ON executions(wallet_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS config_changes (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			wallet_id TEXT NOT NULL,
			field     TEXT,
			old_value TEXT,
			new_value TEXT,
			accepted  INTEGER,
			reason    TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS deposits (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			wallet_id     TEXT NOT NULL,
			amount        TEXT,
			balance_after TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_ts ON deposits(wallet_id, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().Unix()
	}
	return t.Unix()
}

func (r *SQLiteRecorder) RecordEvaluation(evt *Evaluation) error {
	if evt.Decision == nil {
		return fmt.Errorf("record evaluation for %s: nil decision", evt.WalletID)
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	d := evt.Decision
	var kind, amount string
	if tr, ok := d.Trade(); ok {
		kind, amount = string(tr.Kind), tr.SellAmount.String()
	}
	price := decimal.Zero
	if len(evt.Input.Risk) > 0 {
		price = evt.Input.Risk[0].Price
	}

	_, err := r.db.Exec(`INSERT INTO evaluations
		(id, timestamp, wallet_id, strategy_id, branch, needs_rebalance, trade_kind, sell_amount,
		 nav_usd, weight_bps, lower_bps, upper_bps, base_amount, kicker_amount,
		 price, volatility, drawdown, stable_balance, risk_balance)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		evt.ID, unix(evt.At), evt.WalletID, evt.StrategyID, string(d.Branch), d.NeedsRebalance, kind, amount,
		d.NavUSD.String(), d.WeightBps, d.LowerBps, d.UpperBps, d.BaseAmount.String(), d.KickerAmount.String(),
		price.String(), evt.Input.Reading.Volatility.String(), evt.Input.Reading.Drawdown.String(),
		evt.StableBalance.String(), evt.RiskBalance.String(),
	)
	return err
}

func (r *SQLiteRecorder) RecordExecution(evt *Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO executions
		(timestamp, decision_id, wallet_id, trade_kind, sell_asset, buy_asset, sell_amount, bought, price)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		unix(evt.At), evt.DecisionID, evt.WalletID, string(evt.Trade.Kind),
		evt.Trade.SellAsset.Symbol, evt.Trade.BuyAsset.Symbol,
		evt.Trade.SellAmount.String(), evt.Bought.String(), evt.Price.String(),
	)
	return err
}

func (r *SQLiteRecorder) RecordConfigChange(evt *ConfigChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO config_changes
		(timestamp, wallet_id, field, old_value, new_value, accepted, reason)
		VALUES (?,?,?,?,?,?,?)`,
		unix(evt.At), evt.WalletID, evt.Field, evt.OldValue, evt.NewValue, evt.Accepted, evt.Reason,
	)
	return err
}

func (r *SQLiteRecorder) RecordDeposit(evt *Deposit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO deposits
		(timestamp, wallet_id, amount, balance_after)
		VALUES (?,?,?,?)`,
		unix(evt.At), evt.WalletID, evt.Amount.String(), evt.BalanceAfter.String(),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
