package signals

import (
	"context"
	"encoding/json"
	"errors"

	"fundtrack-backend/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrUnknownKind is returned for a strategy name outside the closed set.
var ErrUnknownKind = errors.New("unknown signal kind")

// Service evaluates strategies against stored NAV history and records each
// run for audit.
type Service struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

// Evaluate runs the named strategy over the fund's stored NAV series.
// holdingFlag overrides the position check; when nil, the fund is considered
// held if a holding row exists. The result is persisted as a SignalRun.
func (s *Service) Evaluate(ctx context.Context, kindName, code string, holdingFlag *bool) (*Result, error) {
	strategy, ok := Lookup(kindName)
	if !ok {
		return nil, ErrUnknownKind
	}

	var rows []domain.NavHistory
	if err := s.DB.WithContext(ctx).
		Where("code = ?", code).
		Order("nav_date asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	series := make(Series, len(rows))
	for i, row := range rows {
		series[i] = Point{Date: row.NavDate, Close: row.Nav.InexactFloat64()}
	}

	holding := false
	if holdingFlag != nil {
		holding = *holdingFlag
	} else {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&domain.Holding{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return nil, err
		}
		holding = count > 0
	}

	result := strategy.Evaluate(series, holding)

	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		metricsJSON = []byte("{}")
	}
	run := domain.SignalRun{
		Code:       code,
		Kind:       string(strategy.Kind()),
		Signal:     string(result.Signal),
		Reason:     result.Reason,
		LatestDate: result.LatestDate,
		LatestNav:  decimal.NewFromFloat(result.LatestClose),
		Metrics:    datatypes.JSON(metricsJSON),
	}
	if err := s.DB.WithContext(ctx).Create(&run).Error; err != nil {
		// The evaluation itself succeeded; losing the audit row is not fatal.
		s.Log.Error().Str("code", code).Err(err).Msg("Could not persist signal run")
	}

	return &result, nil
}

// Runs returns the most recent evaluations for a fund, newest first.
func (s *Service) Runs(ctx context.Context, code string, limit int) ([]domain.SignalRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var runs []domain.SignalRun
	if err := s.DB.WithContext(ctx).
		Where("code = ?", code).
		Order("created_at desc").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
