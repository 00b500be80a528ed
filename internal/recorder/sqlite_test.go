package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"PowerWallet/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSQLiteRecorder_EvaluationAndExecution(t *testing.T) {
	r := openTestRecorder(t)
	usdc := model.Asset{Symbol: "USDC", Decimals: 6}
	cbtc := model.Asset{Symbol: "cbBTC", Decimals: 8}
	trade := model.Trade{Kind: model.TradeDCA, SellAsset: usdc, BuyAsset: cbtc, SellAmount: decimal.NewFromInt(130_000_000)}
	at := time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC)

	evt := &Evaluation{
		WalletID:   "main",
		StrategyID: "smart-btc-dca-v2",
		At:         at,
		Input: model.EvaluationInput{
			StableAsset: usdc,
			Risk:        []model.RiskPosition{{Asset: cbtc, Price: decimal.NewFromInt(6_500_000_000_000)}},
		},
		Decision: &model.Decision{
			NeedsRebalance: true,
			Branch:         model.BranchDCA,
			Trades:         []model.Trade{trade},
			NavUSD:         decimal.RequireFromString("1000000000000000000000000000000"),
			WeightBps:      7000,
		},
	}
	require.NoError(t, r.RecordEvaluation(evt))
	_, err := uuid.Parse(evt.ID)
	require.NoError(t, err)

	require.NoError(t, r.RecordExecution(&Execution{
		DecisionID: evt.ID,
		WalletID:   "main",
		At:         at,
		Trade:      trade,
		Bought:     decimal.NewFromInt(2_000),
		Price:      decimal.NewFromInt(6_500_000_000_000),
	}))

	var branch, nav, kind string
	var ts int64
	require.NoError(t, r.db.QueryRow(
		`SELECT branch, nav_usd, trade_kind, timestamp FROM evaluations WHERE id = ?`, evt.ID,
	).Scan(&branch, &nav, &kind, &ts))
	assert.Equal(t, "DCA", branch)
	assert.Equal(t, "1000000000000000000000000000000", nav)
	assert.Equal(t, "DCA", kind)
	assert.Equal(t, at.Unix(), ts)

	var bought string
	require.NoError(t, r.db.QueryRow(
		`SELECT bought FROM executions WHERE decision_id = ?`, evt.ID,
	).Scan(&bought))
	assert.Equal(t, "2000", bought)
}

func TestSQLiteRecorder_RejectsNilDecision(t *testing.T) {
	r := openTestRecorder(t)
	assert.Error(t, r.RecordEvaluation(&Evaluation{WalletID: "main"}))
}

func TestSQLiteRecorder_ConfigAndDeposits(t *testing.T) {
	r := openTestRecorder(t)

	require.NoError(t, r.RecordConfigChange(&ConfigChange{
		WalletID: "main", Field: "threshold", OldValue: "true", NewValue: "false", Accepted: true,
	}))
	require.NoError(t, r.RecordConfigChange(&ConfigChange{
		WalletID: "main", Field: "bands", NewValue: "9000/2000/500", Reason: "band edges must stay within [0, 10000]",
	}))
	require.NoError(t, r.RecordDeposit(&Deposit{
		WalletID: "main", Amount: decimal.NewFromInt(100_000_000), BalanceAfter: decimal.NewFromInt(1_100_000_000),
	}))

	var accepted int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM config_changes WHERE accepted = 1`).Scan(&accepted))
	assert.Equal(t, 1, accepted)

	var deposits int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM deposits WHERE wallet_id = 'main'`).Scan(&deposits))
	assert.Equal(t, 1, deposits)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordEvaluation(&Evaluation{}))
	assert.NoError(t, r.RecordDeposit(&Deposit{}))
	assert.NoError(t, r.Close())
}
