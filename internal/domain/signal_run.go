package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SignalRun is an audit record of one strategy evaluation.
type SignalRun struct {
	RunID      uuid.UUID       `gorm:"column:run_id;type:uuid;primaryKey" json:"run_id"`
	Code       string          `gorm:"column:code;index;not null" json:"code"`
	Kind       string          `gorm:"column:kind;not null" json:"kind"`
	Signal     string          `gorm:"column:signal;not null" json:"signal"`
	Reason     string          `gorm:"column:reason" json:"reason"`
	LatestDate time.Time       `gorm:"column:latest_date" json:"latest_date"`
	LatestNav  decimal.Decimal `gorm:"column:latest_nav;type:decimal(10,4)" json:"latest_nav"`
	Metrics    datatypes.JSON  `gorm:"column:metrics" json:"metrics"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func (SignalRun) TableName() string {
	return "signal_runs"
}

// BeforeCreate: never insert zero UUID for primary key; generate random when not set.
func (r *SignalRun) BeforeCreate(tx *gorm.DB) error {
	if r.RunID == uuid.Nil {
		r.RunID = uuid.New()
	}
	return nil
}
