package recorder

import "PyramidSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordQuote(_ *model.Quote) error                 { return nil }
func (n *NoopRecorder) RecordPlan(_ string, _ *model.Plan) (int64, error) { return 0, nil }
func (n *NoopRecorder) Close() error                                      { return nil }
