// Package pyramid computes staged buy-in schedules between a current price
// and a stop-loss.
package pyramid

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"PyramidSentinel/internal/model"
)

// Bands is the number of pyramid steps.
const Bands = 20

// MaxShares bounds the share count of a single plan. Above 2^53 a float64
// can no longer count whole shares exactly.
const MaxShares = 1 << 53

// TargetWarning is attached to plans whose target does not exceed the current price.
const TargetWarning = "target price is not above the current price; returns will be non-positive"

// Weight returns the quadratic weight of band i (1-based).
func Weight(i int) float64 {
	return float64(i * i)
}

// RoundShares converts an amount of capital at price into whole shares,
// rounding half to even. Callers keep capital/price within MaxShares.
func RoundShares(capital, price float64) int64 {
	shares := math.RoundToEven(capital / price)
	if !(shares > 0) {
		return 0
	}
	return int64(shares)
}

// bandPrice is the price of band idx (1-based); band Bands sits on the stop.
func bandPrice(in model.StrategyInput, idx int) float64 {
	step := (in.CurrentPrice - in.StopLoss) / Bands
	return in.CurrentPrice - step*float64(idx)
}

func validate(in model.StrategyInput) error {
	if math.IsNaN(in.CurrentPrice) || math.IsInf(in.CurrentPrice, 0) {
		return &ValidationError{Code: ErrInvalidPriceRange, Field: "current_price", Value: in.CurrentPrice, Msg: "current price must be finite"}
	}
	if math.IsNaN(in.StopLoss) || in.StopLoss <= 0 {
		return &ValidationError{Code: ErrInvalidPriceRange, Field: "stop_loss", Value: in.StopLoss, Msg: "stop loss must be positive"}
	}
	if in.CurrentPrice <= in.StopLoss {
		return &ValidationError{Code: ErrInvalidPriceRange, Field: "current_price", Value: in.CurrentPrice, Msg: "current price must be above stop loss"}
	}
	if math.IsNaN(in.Capital) || math.IsInf(in.Capital, 0) || in.Capital < 0 {
		return &ValidationError{Code: ErrInvalidCapital, Field: "capital", Value: in.Capital, Msg: "capital must be a non-negative amount"}
	}
	deepest := bandPrice(in, Bands)
	if deepest <= 0 {
		return &ValidationError{Code: ErrInvalidPriceRange, Field: "stop_loss", Value: in.StopLoss, Msg: "stop loss is too close to zero"}
	}
	// Every band buys at or above the deepest price, so capital/deepest
	// bounds both the per-band and the cumulative share count.
	if in.Capital/deepest > MaxShares {
		return &ValidationError{Code: ErrInvalidCapital, Field: "capital", Value: in.Capital, Msg: "capital buys more shares than can be counted"}
	}
	if math.IsNaN(in.TargetPrice) || math.IsInf(in.TargetPrice, 0) {
		return &ValidationError{Code: ErrInvalidPriceRange, Field: "target_price", Value: in.TargetPrice, Msg: "target price must be finite"}
	}
	return nil
}

// Compute distributes capital across Bands price levels between the current
// price and the stop-loss and derives the running cost basis and risk summary.
// It returns a *ValidationError for inputs it rejects.
func Compute(in model.StrategyInput) (*model.Plan, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	in.TargetPrice = in.ResolvedTarget()

	weights := make([]float64, Bands)
	for i := range weights {
		weights[i] = Weight(i + 1)
	}
	totalWeight := floats.Sum(weights)

	bands := make([]model.AllocationBand, Bands)
	var cumInvestment float64
	var cumShares int64
	for i := range bands {
		idx := i + 1
		price := bandPrice(in, idx)
		ratio := weights[i] / totalWeight
		shares := RoundShares(ratio*in.Capital, price)
		investment := float64(shares) * price

		cumInvestment += investment
		cumShares += shares

		var avgCost float64
		if cumShares > 0 {
			avgCost = cumInvestment / float64(cumShares)
		}
		var potentialReturn float64
		if cumInvestment > 0 {
			potentialReturn = (in.TargetPrice - avgCost) * float64(cumShares) / cumInvestment * 100
		}

		bands[i] = model.AllocationBand{
			Index:                idx,
			Price:                price,
			Weight:               weights[i],
			AllocationRatio:      ratio,
			Shares:               shares,
			Investment:           investment,
			CumulativeInvestment: cumInvestment,
			CumulativeShares:     cumShares,
			AverageCost:          avgCost,
			BreakevenPrice:       avgCost,
			PotentialReturnPct:   potentialReturn,
		}
	}

	plan := &model.Plan{
		Input: in,
		Bands: bands,
		Risk:  summarize(in, &bands[Bands-1]),
	}
	if in.TargetPrice <= in.CurrentPrice {
		plan.WarningMsg = TargetWarning
	}
	return plan, nil
}

// summarize derives the risk summary from the deepest band. The potential
// loss applies the full current-to-stop drawdown to all deployed capital.
func summarize(in model.StrategyInput, last *model.AllocationBand) model.RiskSummary {
	maxInvestment := last.CumulativeInvestment
	drawdownPct := (in.CurrentPrice - in.StopLoss) / in.CurrentPrice * 100

	potentialLoss := maxInvestment * drawdownPct / 100
	potentialGain := (in.TargetPrice - last.AverageCost) * float64(last.CumulativeShares)

	ratio := math.Inf(1)
	if potentialLoss > 0 {
		ratio = potentialGain / potentialLoss
	}

	var maxReturn float64
	if last.AverageCost != 0 {
		maxReturn = (in.TargetPrice - last.AverageCost) / last.AverageCost * 100
	}

	return model.RiskSummary{
		MaxInvestment:   maxInvestment,
		MaxDrawdownPct:  drawdownPct,
		RiskRewardRatio: ratio,
		BreakevenPrice:  last.AverageCost,
		MaxReturnPct:    maxReturn,
	}
}
