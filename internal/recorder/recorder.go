package recorder

import "PyramidSentinel/internal/model"

// Recorder persists quote and plan history for later analysis.
type Recorder interface {
	RecordQuote(q *model.Quote) error
	// RecordPlan stores a plan with all of its bands and returns the plan id.
	RecordPlan(symbol string, plan *model.Plan) (int64, error)
	Close() error
}
