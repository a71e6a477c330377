package eastmoney

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estimate is the parsed realtime payload for a fund. SettledNav is the most
// recent official NAV carried alongside the live estimate. Live is nil when
// the estimate section of the payload was absent or unparseable; the settled
// fields are still usable in that case.
type Estimate struct {
	Code        string
	Name        string
	SettledNav  decimal.Decimal
	SettledDate time.Time
	Live        *LiveQuote
}

// LiveQuote is the intraday estimate section. Either every field parsed, or
// the whole quote is absent; there is no partially-populated state.
type LiveQuote struct {
	Nav       decimal.Decimal
	ChangePct decimal.Decimal
	Time      time.Time
}

// HistoryRecord is one raw historical NAV row as returned upstream. All
// fields are unvalidated strings; the synchronizer owns parsing. An empty
// ChangePct is how the source marks suspended/illiquid trading days.
type HistoryRecord struct {
	Date      string `json:"FSRQ"`
	Nav       string `json:"DWJZ"`
	ChangePct string `json:"JZZZL"`
}
