package signals

import (
	"fmt"

	"github.com/markcheno/go-talib"
)

const (
	trendMAPeriod    = 120
	dualRSIPeriod    = 14
	dualRSILowerBand = 30.0
)

// DualConfirmStrategy only buys RSI pullbacks while the long trend is up, and
// exits the moment price breaks below the trend average.
type DualConfirmStrategy struct{}

func (DualConfirmStrategy) Kind() Kind { return KindDualConfirm }

func (DualConfirmStrategy) Evaluate(series Series, holding bool) Result {
	metrics := map[string]interface{}{
		"trend_ma_period": trendMAPeriod,
		"rsi_period":      dualRSIPeriod,
		"rsi_lower_band":  dualRSILowerBand,
	}
	if len(series) < trendMAPeriod+1 {
		return insufficient(series, metrics)
	}

	closes := series.Closes()
	trend := talib.Sma(closes, trendMAPeriod)
	rsi := talib.Rsi(closes, dualRSIPeriod)
	n := len(closes)
	trendMA, latestRSI := trend[n-1], rsi[n-1]
	if isNaN(trendMA) || isNaN(latestRSI) {
		return insufficient(series, metrics)
	}
	metrics["trend_ma_value"] = round(trendMA, 4)
	metrics["rsi_value"] = round(latestRSI, 2)

	last := series[len(series)-1]
	inUptrend := last.Close > trendMA

	res := Result{Signal: SignalHold, LatestDate: last.Date, LatestClose: last.Close, Metrics: metrics}
	if !holding {
		switch {
		case !inUptrend:
			res.Reason = fmt.Sprintf("Price (%.4f) is below the long trend MA (%.4f); bear regime, no buying.", last.Close, trendMA)
		case latestRSI <= dualRSILowerBand:
			res.Signal = SignalBuy
			res.Reason = fmt.Sprintf("Uptrend confirmed and RSI (%.2f) is in the pullback zone (<= %.0f), strong buying opportunity.", latestRSI, dualRSILowerBand)
		default:
			res.Reason = fmt.Sprintf("Uptrend confirmed but RSI (%.2f) has not pulled back yet, waiting for a better entry.", latestRSI)
		}
		return res
	}
	if !inUptrend {
		res.Signal = SignalSell
		res.Reason = fmt.Sprintf("Price (%.4f) broke below the long trend MA (%.4f); trend reversal, exit now.", last.Close, trendMA)
	} else {
		res.Reason = "Price remains above the long trend MA; uptrend intact, keep holding."
	}
	return res
}
