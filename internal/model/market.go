package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Quote is a point-in-time market quote for one symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Price     float64   `json:"price"`
	PrevClose float64   `json:"prev_close"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Volume    float64   `json:"volume"`
	Turnover  float64   `json:"turnover"`
	ChangePct float64   `json:"change_pct"`
	QuotedAt  time.Time `json:"quoted_at,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// ChangePercent returns the percentage move from prevClose to price, or 0
// when prevClose is unknown.
func ChangePercent(price, prevClose float64) float64 {
	if prevClose == 0 {
		return 0
	}
	return (price - prevClose) / prevClose * 100
}

// PlanSnapshot is the result of one periodic refresh.
type PlanSnapshot struct {
	Quote      *Quote    `json:"quote"`
	Plan       *Plan     `json:"plan"`
	ComputedAt time.Time `json:"computed_at"`
}
