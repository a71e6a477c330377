// Package holdings implements the holding lifecycle: creation, amount
// updates, deletion, and snapshot export/import.
package holdings

import (
	"context"
	"errors"
	"time"

	"fundtrack-backend/internal/domain"
	"fundtrack-backend/internal/eastmoney"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Gateway is the slice of the market data client this service needs.
type Gateway interface {
	FetchRealtimeEstimate(ctx context.Context, code string) (*eastmoney.Estimate, error)
}

// Service encapsulates holding lifecycle operations.
type Service struct {
	DB      *gorm.DB
	Gateway Gateway
	Log     zerolog.Logger
}

// CreateInput is the payload for Create. Name is optional; it is only used
// when the upstream cannot resolve the fund name.
type CreateInput struct {
	Code   string
	Name   string
	Amount decimal.Decimal
}

// Create registers a new holding. The fund name and current settled NAV are
// resolved from the realtime endpoint; shares are derived from the initial
// amount. The live estimate block is populated opportunistically when the
// payload carries one.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Holding, error) {
	var existing domain.Holding
	err := s.DB.WithContext(ctx).Where("code = ?", in.Code).First(&existing).Error
	if err == nil {
		return nil, domain.ErrHoldingExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	est, estErr := s.Gateway.FetchRealtimeEstimate(ctx, in.Code)
	if estErr != nil {
		s.Log.Warn().Str("code", in.Code).Err(estErr).Msg("Could not resolve fund details upstream")
	}

	name := in.Name
	settledNav := decimal.NewFromInt(1)
	if estErr == nil {
		name = est.Name
		settledNav = est.SettledNav
	}
	if name == "" {
		return nil, domain.ErrNameResolutionFailed
	}
	if !settledNav.IsPositive() {
		return nil, domain.ErrInvalidNav
	}

	shares := in.Amount.Div(settledNav)

	holding := domain.Holding{
		Code:          in.Code,
		Name:          name,
		Shares:        shares,
		SettledNav:    settledNav,
		HoldingAmount: in.Amount,
	}
	if estErr == nil && est.Live != nil {
		applyLiveQuote(&holding, est.Live)
	}

	if err := s.DB.WithContext(ctx).Create(&holding).Error; err != nil {
		return nil, err
	}
	s.Log.Info().Str("code", holding.Code).Str("shares", holding.Shares.String()).Msg("Holding created")
	return &holding, nil
}

// applyLiveQuote fills the estimate block from a parsed live quote, valuing
// it with the holding's shares as of now.
func applyLiveQuote(h *domain.Holding, live *eastmoney.LiveQuote) {
	h.EstimateNav = decimal.NewNullDecimal(live.Nav)
	h.PercentageChange = decimal.NewNullDecimal(live.ChangePct)
	h.EstimateAmount = decimal.NewNullDecimal(h.Shares.Mul(live.Nav))
	t := live.Time
	h.EstimateUpdateTime = &t
}

// UpdateAmount sets a new cost-basis amount and recomputes shares from the
// latest settled NAV. The live estimate refresh afterwards is best effort:
// its failure never rolls back the amount change.
func (s *Service) UpdateAmount(ctx context.Context, code string, newAmount decimal.Decimal) (*domain.Holding, error) {
	var holding domain.Holding
	if err := s.DB.WithContext(ctx).Where("code = ?", code).First(&holding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrHoldingNotFound
		}
		return nil, err
	}
	if !holding.SettledNav.IsPositive() {
		return nil, domain.ErrInvalidNav
	}

	holding.Shares = newAmount.Div(holding.SettledNav)
	holding.HoldingAmount = newAmount

	est, err := s.Gateway.FetchRealtimeEstimate(ctx, code)
	if err != nil {
		s.Log.Warn().Str("code", code).Err(err).Msg("Estimate refresh during amount update failed")
	} else if est.Live != nil {
		applyLiveQuote(&holding, est.Live)
	}

	if err := s.DB.WithContext(ctx).Save(&holding).Error; err != nil {
		return nil, err
	}
	return &holding, nil
}

// Delete removes a holding and all of its NAV history as a single unit.
func (s *Service) Delete(ctx context.Context, code string) error {
	var holding domain.Holding
	if err := s.DB.WithContext(ctx).Where("code = ?", code).First(&holding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrHoldingNotFound
		}
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", code).Delete(&domain.NavHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("code = ?", code).Delete(&domain.SignalRun{}).Error; err != nil {
			return err
		}
		return tx.Delete(&holding).Error
	})
}

// Get returns a single holding by code.
func (s *Service) Get(ctx context.Context, code string) (*domain.Holding, error) {
	var holding domain.Holding
	if err := s.DB.WithContext(ctx).Where("code = ?", code).First(&holding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrHoldingNotFound
		}
		return nil, err
	}
	return &holding, nil
}

// List returns all holdings ordered by code.
func (s *Service) List(ctx context.Context) ([]domain.Holding, error) {
	var holdings []domain.Holding
	if err := s.DB.WithContext(ctx).Order("code").Find(&holdings).Error; err != nil {
		return nil, err
	}
	return holdings, nil
}

// ExportRecord is the minimal, re-derivable snapshot of one holding. Settled
// and estimate figures are excluded on purpose: import re-resolves them.
type ExportRecord struct {
	Code   string   `json:"code"`
	Shares *float64 `json:"shares"`
}

// Export returns the snapshot of all holdings.
func (s *Service) Export(ctx context.Context) ([]ExportRecord, error) {
	holdings, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]ExportRecord, 0, len(holdings))
	for _, h := range holdings {
		shares := h.Shares.InexactFloat64()
		records = append(records, ExportRecord{Code: h.Code, Shares: &shares})
	}
	return records, nil
}

// Import loads a snapshot. With overwrite set, every existing holding, NAV
// history row, and signal run is wiped first, inside the same transaction as
// the inserts.
// Without overwrite, already-present codes are skipped, which makes a retry
// idempotent. Estimate fields are left empty; the next scheduled estimate
// sweep fills them.
func (s *Service) Import(ctx context.Context, records []ExportRecord, overwrite bool) (imported, skipped int, err error) {
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if overwrite {
			s.Log.Info().Msg("Overwrite import: clearing existing holdings and history")
			if err := tx.Where("1 = 1").Delete(&domain.NavHistory{}).Error; err != nil {
				return err
			}
			if err := tx.Where("1 = 1").Delete(&domain.SignalRun{}).Error; err != nil {
				return err
			}
			if err := tx.Where("1 = 1").Delete(&domain.Holding{}).Error; err != nil {
				return err
			}
		}

		for _, rec := range records {
			if rec.Code == "" || rec.Shares == nil || *rec.Shares < 0 {
				s.Log.Warn().Str("code", rec.Code).Msg("Skipping invalid import record")
				skipped++
				continue
			}

			if !overwrite {
				var count int64
				if err := tx.Model(&domain.Holding{}).Where("code = ?", rec.Code).Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					s.Log.Info().Str("code", rec.Code).Msg("Holding already exists, skipping import")
					skipped++
					continue
				}
			}

			est, estErr := s.Gateway.FetchRealtimeEstimate(ctx, rec.Code)
			if estErr != nil {
				s.Log.Warn().Str("code", rec.Code).Err(estErr).Msg("Skipping import, fund details unavailable")
				skipped++
				continue
			}
			if !est.SettledNav.IsPositive() {
				s.Log.Warn().Str("code", rec.Code).Msg("Skipping import, settled NAV not positive")
				skipped++
				continue
			}

			shares := decimal.NewFromFloat(*rec.Shares)
			holding := domain.Holding{
				Code:          rec.Code,
				Name:          est.Name,
				Shares:        shares,
				SettledNav:    est.SettledNav,
				HoldingAmount: shares.Mul(est.SettledNav),
			}
			if err := tx.Create(&holding).Error; err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return imported, skipped, nil
}

// HistoryPoint is one NAV observation with optional moving averages. A nil
// MA value means the trailing window had not filled yet at that date.
type HistoryPoint struct {
	Date time.Time        `json:"date"`
	Nav  float64          `json:"nav"`
	MA   map[int]*float64 `json:"ma,omitempty"`
}

// History returns the ascending NAV series for a fund, optionally bounded by
// date and annotated with simple moving averages for the given windows.
func (s *Service) History(ctx context.Context, code string, start, end *time.Time, maWindows []int) ([]HistoryPoint, error) {
	query := s.DB.WithContext(ctx).Where("code = ?", code)
	if start != nil {
		query = query.Where("nav_date >= ?", *start)
	}
	if end != nil {
		query = query.Where("nav_date <= ?", *end)
	}

	var rows []domain.NavHistory
	if err := query.Order("nav_date asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	points := make([]HistoryPoint, len(rows))
	closes := make([]float64, len(rows))
	for i, row := range rows {
		closes[i] = row.Nav.InexactFloat64()
		points[i] = HistoryPoint{Date: row.NavDate, Nav: closes[i]}
	}

	for _, window := range maWindows {
		if window <= 0 || window > len(rows) {
			continue
		}
		ma := talib.Sma(closes, window)
		for i := range points {
			if points[i].MA == nil {
				points[i].MA = map[int]*float64{}
			}
			if i >= window-1 {
				v := ma[i]
				points[i].MA[window] = &v
			} else {
				points[i].MA[window] = nil
			}
		}
	}
	return points, nil
}
