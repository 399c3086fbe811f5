package model

import (
	"encoding/json"
	"math"
)

// DefaultTargetMultiplier is applied to the current price when no target is given.
const DefaultTargetMultiplier = 1.2

// StrategyInput holds the four scalars one computation is driven by.
// A zero TargetPrice means "unset".
type StrategyInput struct {
	CurrentPrice float64 `json:"current_price"`
	StopLoss     float64 `json:"stop_loss"`
	Capital      float64 `json:"capital"`
	TargetPrice  float64 `json:"target_price,omitempty"`
}

// ResolvedTarget returns the target price, defaulting to 120% of the current price.
func (in StrategyInput) ResolvedTarget() float64 {
	if in.TargetPrice == 0 {
		return in.CurrentPrice * DefaultTargetMultiplier
	}
	return in.TargetPrice
}

// AllocationBand is one price level of the pyramid, ordered from the
// current price downwards.
type AllocationBand struct {
	Index                int     `json:"index"`
	Price                float64 `json:"price"`
	Weight               float64 `json:"weight"`
	AllocationRatio      float64 `json:"allocation_ratio"`
	Shares               int64   `json:"shares"`
	Investment           float64 `json:"investment"`
	CumulativeInvestment float64 `json:"cumulative_investment"`
	CumulativeShares     int64   `json:"cumulative_shares"`
	AverageCost          float64 `json:"average_cost"`
	BreakevenPrice       float64 `json:"breakeven_price"`
	PotentialReturnPct   float64 `json:"potential_return_pct"`
}

// RiskSummary is derived from the deepest band.
type RiskSummary struct {
	MaxInvestment   float64
	MaxDrawdownPct  float64
	RiskRewardRatio float64 // +Inf when there is no potential loss
	BreakevenPrice  float64
	MaxReturnPct    float64
}

// Unbounded reports whether the risk/reward ratio is infinite.
func (r RiskSummary) Unbounded() bool {
	return math.IsInf(r.RiskRewardRatio, 1)
}

type riskSummaryJSON struct {
	MaxInvestment       float64  `json:"max_investment"`
	MaxDrawdownPct      float64  `json:"max_drawdown_pct"`
	RiskRewardRatio     *float64 `json:"risk_reward_ratio"`
	RiskRewardUnbounded bool     `json:"risk_reward_unbounded"`
	BreakevenPrice      float64  `json:"breakeven_price"`
	MaxReturnPct        float64  `json:"max_return_pct"`
}

// MarshalJSON writes an infinite ratio as null with risk_reward_unbounded set.
func (r RiskSummary) MarshalJSON() ([]byte, error) {
	out := riskSummaryJSON{
		MaxInvestment:  r.MaxInvestment,
		MaxDrawdownPct: r.MaxDrawdownPct,
		BreakevenPrice: r.BreakevenPrice,
		MaxReturnPct:   r.MaxReturnPct,
	}
	if r.Unbounded() {
		out.RiskRewardUnbounded = true
	} else {
		ratio := r.RiskRewardRatio
		out.RiskRewardRatio = &ratio
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *RiskSummary) UnmarshalJSON(data []byte) error {
	var in riskSummaryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.MaxInvestment = in.MaxInvestment
	r.MaxDrawdownPct = in.MaxDrawdownPct
	r.BreakevenPrice = in.BreakevenPrice
	r.MaxReturnPct = in.MaxReturnPct
	switch {
	case in.RiskRewardUnbounded:
		r.RiskRewardRatio = math.Inf(1)
	case in.RiskRewardRatio != nil:
		r.RiskRewardRatio = *in.RiskRewardRatio
	default:
		r.RiskRewardRatio = 0
	}
	return nil
}

// Plan is the full output of one engine computation.
type Plan struct {
	Input      StrategyInput    `json:"input"`
	Bands      []AllocationBand `json:"bands"`
	Risk       RiskSummary      `json:"risk"`
	WarningMsg string           `json:"warning,omitempty"`
}

// FinalBand returns the deepest band, or nil for an empty plan.
func (p *Plan) FinalBand() *AllocationBand {
	if p == nil || len(p.Bands) == 0 {
		return nil
	}
	return &p.Bands[len(p.Bands)-1]
}
