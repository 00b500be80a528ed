package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"PowerWallet/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDecision(t *testing.T) {
	m := NewMetrics("")
	d := &model.Decision{
		NeedsRebalance: true,
		Branch:         model.BranchBand,
		Trades:         []model.Trade{{Kind: model.TradeBandSell}},
		NavUSD:         decimal.NewFromInt(1_000_000_000_000),
		WeightBps:      9500,
	}
	m.ObserveDecision("main", d, 1_700_000_000)
	m.ObserveDecision("main", &model.Decision{Branch: model.BranchCadence, NavUSD: decimal.Zero}, 1_700_000_060)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("main", "BAND")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("main", "CADENCE_WAIT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TradesProposed.WithLabelValues("main", "BAND_SELL")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.NavUSD.WithLabelValues("main")))
	assert.Equal(t, 1_700_000_060.0, testutil.ToFloat64(m.LastEvaluationAt.WithLabelValues("main")))
}

func TestObserveExecution(t *testing.T) {
	m := NewMetrics("test")
	m.ObserveExecution("main", model.TradeDCA, decimal.NewFromInt(13_000_000_000))
	assert.Equal(t, 130.0, testutil.ToFloat64(m.ExecutedUSD.WithLabelValues("main", "DCA")))
}

func TestHandler(t *testing.T) {
	m := NewMetrics("")
	m.OracleErrors.WithLabelValues("http").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `powerwallet_oracle_errors_total{source="http"} 1`)
}

func TestNewMetrics_Independent(t *testing.T) {
	a, b := NewMetrics(""), NewMetrics("")
	a.Deposits.WithLabelValues("main").Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Deposits.WithLabelValues("main")))
}
