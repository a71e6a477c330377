// Package signals derives buy/sell/hold signals from NAV series using a
// closed set of technical-indicator strategies.
package signals

import (
	"math"
	"time"
)

// Signal is a trade classification.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// Point is one observation of a NAV series.
type Point struct {
	Date  time.Time
	Close float64
}

// Series is an ascending-by-date NAV series.
type Series []Point

// Closes returns the close values in series order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}

// Result is the outcome of one strategy evaluation.
type Result struct {
	Signal      Signal                 `json:"signal"`
	Reason      string                 `json:"reason"`
	LatestDate  time.Time              `json:"latest_date"`
	LatestClose float64                `json:"latest_close"`
	Metrics     map[string]interface{} `json:"metrics"`
}

// Kind identifies a strategy. The set is closed; there is no dynamic
// registration.
type Kind string

const (
	KindRSI         Kind = "rsi"
	KindMACross     Kind = "ma-cross"
	KindMACD        Kind = "macd"
	KindBollinger   Kind = "bollinger"
	KindDualConfirm Kind = "dual-confirm"
)

// Strategy evaluates a NAV series into a signal. holding reports whether the
// caller currently owns the fund; strategies with asymmetric entry/exit rules
// gate on it.
type Strategy interface {
	Kind() Kind
	Evaluate(series Series, holding bool) Result
}

// Registry returns the lookup table of all strategies, built fresh each call
// (strategies are stateless).
func Registry() map[Kind]Strategy {
	return map[Kind]Strategy{
		KindRSI:         RSIStrategy{},
		KindMACross:     MACrossStrategy{},
		KindMACD:        MACDStrategy{},
		KindBollinger:   BollingerStrategy{},
		KindDualConfirm: DualConfirmStrategy{},
	}
}

// Lookup resolves a strategy by its kind name.
func Lookup(name string) (Strategy, bool) {
	s, ok := Registry()[Kind(name)]
	return s, ok
}

// insufficient builds the Hold result every strategy returns when the series
// is too short or the indicator came out NaN.
func insufficient(series Series, metrics map[string]interface{}) Result {
	res := Result{
		Signal:  SignalHold,
		Reason:  "Indicator unavailable: insufficient or invalid trailing data, holding off.",
		Metrics: metrics,
	}
	if len(series) > 0 {
		last := series[len(series)-1]
		res.LatestDate = last.Date
		res.LatestClose = last.Close
	}
	return res
}

func isNaN(f float64) bool {
	return f != f
}

func round(v float64, places int) float64 {
	factor := math.Pow10(places)
	return math.Round(v*factor) / factor
}
