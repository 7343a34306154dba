package model

import (
	"math"
	"time"
)

// InstrumentKind tells the collector which provider family serves a symbol.
type InstrumentKind string

const (
	KindIndex  InstrumentKind = "index"
	KindFX     InstrumentKind = "fx"
	KindEquity InstrumentKind = "equity"
)

// Instrument is one watchlist entry.
type Instrument struct {
	Symbol    string         `json:"symbol" yaml:"symbol" validate:"required"`
	Name      string         `json:"name" yaml:"name"`
	Kind      InstrumentKind `json:"kind" yaml:"kind" validate:"oneof=index fx equity"`
	Sector    string         `json:"sector,omitempty" yaml:"sector"`
	Precision int32          `json:"precision" yaml:"precision" validate:"gte=0,lte=8"`
	Providers []string       `json:"providers" yaml:"providers" validate:"min=1,dive,oneof=brapi awesomeapi yahoo simulated"`
	// BasePrice seeds simulated quotes when every provider fails.
	BasePrice float64 `json:"-" yaml:"base_price" validate:"gte=0"`
}

// Quote is a point-in-time price snapshot. ChangePercent is in percentage
// units (2.5 means +2.5%); NaN marks a missing change.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	DayHigh       float64 `json:"day_high"`
	DayLow        float64 `json:"day_low"`
	Volume        float64 `json:"volume"`
	// AverageVolume is an optional volume baseline. Zero means none.
	AverageVolume float64 `json:"average_volume,omitempty"`
}

// HasChange reports whether the quote carries a finite percent change.
func (q *Quote) HasChange() bool {
	return q != nil && !math.IsNaN(q.ChangePercent) && !math.IsInf(q.ChangePercent, 0)
}

// QuoteSnapshot wraps a quote with retrieval metadata owned by the collector.
type QuoteSnapshot struct {
	Instrument Instrument `json:"instrument"`
	Quote      Quote      `json:"quote"`
	Source     string     `json:"source"`
	Simulated  bool       `json:"simulated"`
	FetchedAt  time.Time  `json:"fetched_at"`
}
