package collector

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"PyramidSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Calls is safe for concurrent use; set Price and Err before sharing it.
type MockFetcher struct {
	Price     float64
	PrevClose float64
	Err       error
	Calls     atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchQuote(_ context.Context, symbol string) (*model.Quote, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	return &model.Quote{
		Symbol:    symbol,
		Price:     m.Price,
		PrevClose: m.PrevClose,
		High:      m.Price,
		Low:       m.Price,
		ChangePct: model.ChangePercent(m.Price, m.PrevClose),
		FetchedAt: time.Now(),
	}, nil
}

// Collector fetches quotes for one symbol and sanity-checks them.
type Collector struct {
	Fetcher Fetcher
	Symbol  string
	Timeout time.Duration
	log     zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, log zerolog.Logger) *Collector {
	return &Collector{
		Fetcher: fetcher,
		Symbol:  symbol,
		Timeout: 15 * time.Second,
		log:     log.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Collect fetches the current quote.
func (c *Collector) Collect(ctx context.Context) (*model.Quote, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	q, err := c.Fetcher.FetchQuote(ctx, c.Symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch quote %s: %w", c.Symbol, err)
	}
	if q.Price <= 0 || math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
		// Sina reports 0 for suspended stocks before the open.
		return nil, fmt.Errorf("quote %s: no trading price (%v)", c.Symbol, q.Price)
	}

	c.log.Debug().
		Str("symbol", q.Symbol).
		Float64("price", q.Price).
		Float64("change_pct", q.ChangePct).
		Msg("quote collected")
	return q, nil
}
