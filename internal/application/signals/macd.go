package signals

import (
	"fmt"

	"github.com/markcheno/go-talib"
)

const (
	macdShortPeriod  = 12
	macdLongPeriod   = 26
	macdSignalPeriod = 9
)

// MACDStrategy signals on DIF/DEA golden and death crosses.
type MACDStrategy struct{}

func (MACDStrategy) Kind() Kind { return KindMACD }

func (MACDStrategy) Evaluate(series Series, holding bool) Result {
	metrics := map[string]interface{}{
		"macd_short_period":  macdShortPeriod,
		"macd_long_period":   macdLongPeriod,
		"macd_signal_period": macdSignalPeriod,
	}
	if len(series) < macdLongPeriod+2 {
		return insufficient(series, metrics)
	}

	closes := series.Closes()
	dif, dea, hist := talib.Macd(closes, macdShortPeriod, macdLongPeriod, macdSignalPeriod)
	n := len(closes)
	curDif, curDea := dif[n-1], dea[n-1]
	prevDif, prevDea := dif[n-2], dea[n-2]
	if isNaN(curDif) || isNaN(curDea) || isNaN(prevDif) || isNaN(prevDea) {
		return insufficient(series, metrics)
	}
	metrics["dif_value"] = round(curDif, 4)
	metrics["dea_value"] = round(curDea, 4)
	metrics["macd_hist_value"] = round(hist[n-1], 4)

	goldenCross := prevDif < prevDea && curDif >= curDea
	deathCross := prevDif > prevDea && curDif <= curDea

	last := series[len(series)-1]
	res := Result{Signal: SignalHold, LatestDate: last.Date, LatestClose: last.Close, Metrics: metrics}
	if !holding {
		if goldenCross {
			res.Signal = SignalBuy
			res.Reason = fmt.Sprintf("MACD golden cross: DIF (%.4f) crossed above DEA (%.4f), potential buying opportunity.", curDif, curDea)
		} else {
			res.Reason = fmt.Sprintf("No golden cross: DIF (%.4f), DEA (%.4f).", curDif, curDea)
		}
		return res
	}
	if deathCross {
		res.Signal = SignalSell
		res.Reason = fmt.Sprintf("MACD death cross: DIF (%.4f) crossed below DEA (%.4f), potential selling opportunity.", curDif, curDea)
	} else {
		res.Reason = fmt.Sprintf("No death cross, keep holding: DIF (%.4f), DEA (%.4f).", curDif, curDea)
	}
	return res
}
