package signals

import (
	"fmt"

	"github.com/markcheno/go-talib"
)

const (
	fastMAPeriod = 20
	slowMAPeriod = 60
)

// MACrossStrategy signals on golden/death crosses of a fast and a slow simple
// moving average. The entry rule applies when not holding, the exit rule when
// holding.
type MACrossStrategy struct{}

func (MACrossStrategy) Kind() Kind { return KindMACross }

func (MACrossStrategy) Evaluate(series Series, holding bool) Result {
	metrics := map[string]interface{}{
		"fast_ma_period": fastMAPeriod,
		"slow_ma_period": slowMAPeriod,
	}
	if len(series) < slowMAPeriod+2 {
		return insufficient(series, metrics)
	}

	closes := series.Closes()
	fast := talib.Sma(closes, fastMAPeriod)
	slow := talib.Sma(closes, slowMAPeriod)
	n := len(closes)
	curFast, curSlow := fast[n-1], slow[n-1]
	prevFast, prevSlow := fast[n-2], slow[n-2]
	if isNaN(curFast) || isNaN(curSlow) || isNaN(prevFast) || isNaN(prevSlow) {
		return insufficient(series, metrics)
	}
	metrics["fast_ma_value"] = round(curFast, 4)
	metrics["slow_ma_value"] = round(curSlow, 4)

	goldenCross := prevFast < prevSlow && curFast > curSlow
	deathCross := prevFast > prevSlow && curFast < curSlow

	last := series[len(series)-1]
	res := Result{Signal: SignalHold, LatestDate: last.Date, LatestClose: last.Close, Metrics: metrics}
	if !holding {
		if goldenCross {
			res.Signal = SignalBuy
			res.Reason = fmt.Sprintf("Golden cross: fast MA (%.4f) crossed above slow MA (%.4f), potential buying opportunity.", curFast, curSlow)
		} else {
			res.Reason = fmt.Sprintf("No golden cross yet: fast MA (%.4f) vs slow MA (%.4f).", curFast, curSlow)
		}
		return res
	}
	if deathCross {
		res.Signal = SignalSell
		res.Reason = fmt.Sprintf("Death cross: fast MA (%.4f) crossed below slow MA (%.4f), potential selling opportunity.", curFast, curSlow)
	} else {
		res.Reason = fmt.Sprintf("No death cross: fast MA (%.4f) still above slow MA (%.4f), keep holding.", curFast, curSlow)
	}
	return res
}
