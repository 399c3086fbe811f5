package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PyramidSentinel/internal/model"
	"PyramidSentinel/internal/pyramid"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "sub", "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_RecordQuote(t *testing.T) {
	r := newTestRecorder(t)
	q := &model.Quote{Symbol: "sh600000", Name: "浦发银行", Price: 9.2, PrevClose: 9.05, QuotedAt: time.Now()}
	require.NoError(t, r.RecordQuote(q))
	require.NoError(t, r.RecordQuote(&model.Quote{Symbol: "sh600000", Price: 9.3}))

	var count int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM quotes WHERE symbol = ?`, "sh600000").Scan(&count))
	assert.Equal(t, 2, count)

	var name string
	var price float64
	require.NoError(t, r.db.QueryRow(`SELECT name, price FROM quotes ORDER BY id LIMIT 1`).Scan(&name, &price))
	assert.Equal(t, "浦发银行", name)
	assert.Equal(t, 9.2, price)
}

func TestSQLiteRecorder_RecordPlan(t *testing.T) {
	r := newTestRecorder(t)
	plan, err := pyramid.Compute(model.StrategyInput{CurrentPrice: 100, StopLoss: 80, Capital: 100000, TargetPrice: 130})
	require.NoError(t, err)

	id, err := r.RecordPlan("sh600000", plan)
	require.NoError(t, err)
	assert.Positive(t, id)

	var bands int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM plan_bands WHERE plan_id = ?`, id).Scan(&bands))
	assert.Equal(t, pyramid.Bands, bands)

	var shares int64
	require.NoError(t, r.db.QueryRow(`SELECT cumulative_shares FROM plan_bands WHERE plan_id = ? AND band_index = 20`, id).Scan(&shares))
	assert.Equal(t, plan.FinalBand().CumulativeShares, shares)

	var ratio *float64
	require.NoError(t, r.db.QueryRow(`SELECT risk_reward_ratio FROM plans WHERE id = ?`, id).Scan(&ratio))
	require.NotNil(t, ratio)
	assert.InDelta(t, plan.Risk.RiskRewardRatio, *ratio, 1e-9)
}

func TestSQLiteRecorder_UnboundedRatioStoredAsNull(t *testing.T) {
	r := newTestRecorder(t)
	plan, err := pyramid.Compute(model.StrategyInput{CurrentPrice: 10, StopLoss: 8, Capital: 0})
	require.NoError(t, err)
	require.True(t, plan.Risk.Unbounded())

	id, err := r.RecordPlan("sz000001", plan)
	require.NoError(t, err)

	var ratio *float64
	require.NoError(t, r.db.QueryRow(`SELECT risk_reward_ratio FROM plans WHERE id = ?`, id).Scan(&ratio))
	assert.Nil(t, ratio)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	assert.NoError(t, rec.RecordQuote(&model.Quote{}))
	id, err := rec.RecordPlan("x", &model.Plan{})
	assert.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, rec.Close())
}
