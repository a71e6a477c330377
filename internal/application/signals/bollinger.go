package signals

import (
	"fmt"

	"github.com/markcheno/go-talib"
)

const (
	bbandPeriod    = 50
	bbandDevFactor = 2.0
)

// BollingerStrategy buys when price touches the lower band and, while
// holding, sells once price reverts to the middle band. While below the
// middle band a held position still reports a buy-side signal, mirroring a
// mean-reversion accumulation posture.
type BollingerStrategy struct{}

func (BollingerStrategy) Kind() Kind { return KindBollinger }

func (BollingerStrategy) Evaluate(series Series, holding bool) Result {
	metrics := map[string]interface{}{
		"bband_period":     bbandPeriod,
		"bband_dev_factor": bbandDevFactor,
	}
	if len(series) < bbandPeriod+1 {
		return insufficient(series, metrics)
	}

	closes := series.Closes()
	upper, mid, lower := talib.BBands(closes, bbandPeriod, bbandDevFactor, bbandDevFactor, talib.SMA)
	n := len(closes)
	curUpper, curMid, curLower := upper[n-1], mid[n-1], lower[n-1]
	if isNaN(curLower) || isNaN(curMid) {
		return insufficient(series, metrics)
	}
	metrics["bband_upper"] = round(curUpper, 4)
	metrics["bband_mid"] = round(curMid, 4)
	metrics["bband_lower"] = round(curLower, 4)

	last := series[len(series)-1]
	res := Result{LatestDate: last.Date, LatestClose: last.Close, Metrics: metrics}
	if !holding {
		if last.Close <= curLower {
			res.Signal = SignalBuy
			res.Reason = fmt.Sprintf("Price (%.4f) touched or broke the lower band (%.4f), potential buying opportunity.", last.Close, curLower)
		} else {
			res.Signal = SignalHold
			res.Reason = fmt.Sprintf("Price (%.4f) is above the lower band (%.4f), no entry yet.", last.Close, curLower)
		}
		return res
	}
	if last.Close >= curMid {
		res.Signal = SignalSell
		res.Reason = fmt.Sprintf("Price (%.4f) reverted to the middle band (%.4f), potential selling opportunity.", last.Close, curMid)
	} else {
		res.Signal = SignalBuy
		res.Reason = fmt.Sprintf("Price (%.4f) has not reverted to the middle band (%.4f), keep the position.", last.Close, curMid)
	}
	return res
}
