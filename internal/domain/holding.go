package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is one tracked fund position. The fund code is the primary key and
// immutable once created.
//
// SettledNav and HoldingAmount always reflect the latest official NAV: they
// are written by the history synchronizer (calibration) and the lifecycle
// operations, never by the estimate updater. The Estimate* block is the
// intraday, unofficial view layered on top and may be stale or absent.
type Holding struct {
	Code          string          `gorm:"column:code;primaryKey" json:"code"`
	Name          string          `gorm:"column:name;not null" json:"name"`
	Shares        decimal.Decimal `gorm:"column:shares;type:decimal(18,6);not null" json:"shares"`
	SettledNav    decimal.Decimal `gorm:"column:settled_nav;type:decimal(10,4);not null" json:"settled_nav"`
	HoldingAmount decimal.Decimal `gorm:"column:holding_amount;type:decimal(14,2);not null" json:"holding_amount"`

	EstimateNav        decimal.NullDecimal `gorm:"column:estimate_nav;type:decimal(10,4)" json:"estimate_nav"`
	EstimateAmount     decimal.NullDecimal `gorm:"column:estimate_amount;type:decimal(14,2)" json:"estimate_amount"`
	PercentageChange   decimal.NullDecimal `gorm:"column:percentage_change;type:decimal(8,4)" json:"percentage_change"`
	EstimateUpdateTime *time.Time          `gorm:"column:estimate_update_time" json:"estimate_update_time"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Holding) TableName() string {
	return "my_holdings"
}

// NavHistory is one official NAV point for a fund. The composite primary key
// enforces at-most-one NAV per fund per calendar day. Rows are inserted in
// batches by the synchronizer and never mutated afterwards.
type NavHistory struct {
	Code    string          `gorm:"column:code;primaryKey" json:"code"`
	NavDate time.Time       `gorm:"column:nav_date;primaryKey" json:"nav_date"`
	Nav     decimal.Decimal `gorm:"column:nav;type:decimal(10,4);not null" json:"nav"`
}

func (NavHistory) TableName() string {
	return "fund_nav_history"
}
