package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskSummary_JSONUnbounded(t *testing.T) {
	r := RiskSummary{MaxDrawdownPct: 20, RiskRewardRatio: math.Inf(1)}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"risk_reward_ratio":null`)
	assert.Contains(t, string(data), `"risk_reward_unbounded":true`)

	var back RiskSummary
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Unbounded())
	assert.Equal(t, 20.0, back.MaxDrawdownPct)
}

func TestRiskSummary_JSONFinite(t *testing.T) {
	r := RiskSummary{MaxInvestment: 99722, RiskRewardRatio: 2.5, BreakevenPrice: 84.4}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"risk_reward_ratio":2.5`)
	assert.Contains(t, string(data), `"risk_reward_unbounded":false`)
}

func TestStrategyInput_ResolvedTarget(t *testing.T) {
	assert.InDelta(t, 12.0, StrategyInput{CurrentPrice: 10}.ResolvedTarget(), 1e-9)
	assert.Equal(t, 9.0, StrategyInput{CurrentPrice: 10, TargetPrice: 9}.ResolvedTarget())
}

func TestChangePercent(t *testing.T) {
	assert.InDelta(t, 10.0, ChangePercent(11, 10), 1e-9)
	assert.Zero(t, ChangePercent(11, 0))
}
