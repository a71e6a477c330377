package signals

import (
	"fmt"

	"github.com/markcheno/go-talib"
)

const (
	rsiPeriod = 14
	rsiUpper  = 70.0
	rsiLower  = 30.0
)

// RSIStrategy classifies on the Wilder relative-strength oscillator: buy in
// the oversold band, sell in the overbought band.
type RSIStrategy struct{}

func (RSIStrategy) Kind() Kind { return KindRSI }

func (RSIStrategy) Evaluate(series Series, holding bool) Result {
	metrics := map[string]interface{}{
		"rsi_period":     rsiPeriod,
		"rsi_upper_band": rsiUpper,
		"rsi_lower_band": rsiLower,
	}
	if len(series) < rsiPeriod+1 {
		return insufficient(series, metrics)
	}

	rsi := talib.Rsi(series.Closes(), rsiPeriod)
	latestRSI := rsi[len(rsi)-1]
	if isNaN(latestRSI) {
		return insufficient(series, metrics)
	}
	metrics["rsi_value"] = round(latestRSI, 2)

	last := series[len(series)-1]
	res := Result{LatestDate: last.Date, LatestClose: last.Close, Metrics: metrics}
	switch {
	case latestRSI <= rsiLower:
		res.Signal = SignalBuy
		res.Reason = fmt.Sprintf("RSI (%.2f) entered the oversold band (<= %.0f), potential buying opportunity.", latestRSI, rsiLower)
	case latestRSI >= rsiUpper:
		res.Signal = SignalSell
		res.Reason = fmt.Sprintf("RSI (%.2f) entered the overbought band (>= %.0f), potential selling opportunity.", latestRSI, rsiUpper)
	default:
		res.Signal = SignalHold
		res.Reason = fmt.Sprintf("RSI (%.2f) is in the neutral zone between %.0f and %.0f.", latestRSI, rsiLower, rsiUpper)
	}
	return res
}
