// Package sync implements the two background sweeps: the incremental NAV
// history synchronizer and the intraday estimate updater.
package sync

import (
	"context"
	"errors"
	"time"

	"fundtrack-backend/internal/domain"
	"fundtrack-backend/internal/eastmoney"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Gateway is the slice of the market data client the sweeps need.
type Gateway interface {
	FetchRealtimeEstimate(ctx context.Context, code string) (*eastmoney.Estimate, error)
	FetchHistory(ctx context.Context, code, startDate, endDate string) []eastmoney.HistoryRecord
}

// Service runs the history and estimate sweeps over every holding. One fund's
// failure is logged and skipped; it never aborts the sweep or touches other
// funds' already-committed state.
type Service struct {
	DB      *gorm.DB
	Gateway Gateway
	Log     zerolog.Logger

	// Pause between funds, on top of the client's own rate limiting.
	Pause time.Duration
}

const dateLayout = "2006-01-02"

// SyncAllHistory brings every holding's NAV history up to date and then
// recalibrates its cost-basis fields from the newest stored NAV. Returns an
// error only when the holdings list itself cannot be read; the context is
// polled between funds so shutdown lets the current fund finish.
func (s *Service) SyncAllHistory(ctx context.Context) error {
	var holdings []domain.Holding
	if err := s.DB.WithContext(ctx).Order("code").Find(&holdings).Error; err != nil {
		return err
	}
	s.Log.Info().Int("holdings", len(holdings)).Msg("History sync sweep started")

	for i, holding := range holdings {
		if ctx.Err() != nil {
			s.Log.Warn().Msg("History sync sweep stopped early")
			return nil
		}
		if i > 0 && s.Pause > 0 {
			time.Sleep(s.Pause)
		}
		if err := s.syncHolding(ctx, holding); err != nil {
			s.Log.Error().Str("code", holding.Code).Err(err).Msg("History sync failed for fund, continuing")
		}
	}

	s.Log.Info().Msg("History sync sweep finished")
	return nil
}

func (s *Service) syncHolding(ctx context.Context, holding domain.Holding) error {
	watermark, hasWatermark, err := s.watermark(ctx, holding.Code)
	if err != nil {
		return err
	}

	fetchFrom := ""
	if hasWatermark {
		fetchFrom = watermark.AddDate(0, 0, 1).Format(dateLayout)
	}

	fetched := s.Gateway.FetchHistory(ctx, holding.Code, fetchFrom, "")
	fresh := s.validate(holding.Code, fetched, watermark, hasWatermark)

	if len(fresh) > 0 {
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Create(&fresh).Error
		})
		if err != nil {
			// This fund's batch rolls back; recalibration from stale rows
			// would still be correct but the insert failure is worth surfacing.
			return err
		}
		s.Log.Info().Str("code", holding.Code).Int("inserted", len(fresh)).Msg("NAV history extended")
	}

	// Recalibrate even when nothing was inserted: this is also what repairs
	// holding_amount after a manual share change between syncs.
	return s.recalibrate(ctx, holding)
}

// watermark returns the latest stored NAV date for a fund.
func (s *Service) watermark(ctx context.Context, code string) (time.Time, bool, error) {
	var latest domain.NavHistory
	err := s.DB.WithContext(ctx).
		Where("code = ?", code).
		Order("nav_date desc").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return latest.NavDate, true, nil
}

// validate parses and filters fetched records. Upstream may ignore the
// start-date hint, so anything at or before the watermark is dropped here. A
// record whose daily-change percent does not parse marks a suspended trading
// day and is discarded whole, even when its NAV parses fine.
func (s *Service) validate(code string, fetched []eastmoney.HistoryRecord, watermark time.Time, hasWatermark bool) []domain.NavHistory {
	var fresh []domain.NavHistory
	seen := map[string]bool{}
	for _, rec := range fetched {
		date, err := time.ParseInLocation(dateLayout, rec.Date, time.UTC)
		if err != nil {
			s.Log.Warn().Str("code", code).Str("date", rec.Date).Msg("Discarding record with bad date")
			continue
		}
		if hasWatermark && !date.After(watermark) {
			continue
		}
		if seen[rec.Date] {
			continue
		}
		nav, err := decimal.NewFromString(rec.Nav)
		if err != nil {
			s.Log.Warn().Str("code", code).Str("date", rec.Date).Str("nav", rec.Nav).Msg("Discarding record with bad NAV")
			continue
		}
		if _, err := decimal.NewFromString(rec.ChangePct); err != nil {
			// No daily change means no trading that day.
			s.Log.Debug().Str("code", code).Str("date", rec.Date).Msg("Discarding record without daily change")
			continue
		}
		seen[rec.Date] = true
		fresh = append(fresh, domain.NavHistory{Code: code, NavDate: date, Nav: nav})
	}
	return fresh
}

// recalibrate re-reads the newest stored NAV and rewrites the holding's
// settled figures from it. A fund with no history at all is left untouched.
func (s *Service) recalibrate(ctx context.Context, holding domain.Holding) error {
	var latest domain.NavHistory
	err := s.DB.WithContext(ctx).
		Where("code = ?", holding.Code).
		Order("nav_date desc").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.DB.WithContext(ctx).
		Model(&domain.Holding{}).
		Where("code = ?", holding.Code).
		Updates(map[string]interface{}{
			"settled_nav":    latest.Nav,
			"holding_amount": holding.Shares.Mul(latest.Nav),
		}).Error
}

// UpdateAllEstimates refreshes the intraday estimate block of every holding.
// A missing or partially-parseable payload leaves the previous estimate in
// place; stale-but-present beats erroring. Settled figures are never touched.
func (s *Service) UpdateAllEstimates(ctx context.Context) error {
	var holdings []domain.Holding
	if err := s.DB.WithContext(ctx).Order("code").Find(&holdings).Error; err != nil {
		return err
	}
	s.Log.Info().Int("holdings", len(holdings)).Msg("Estimate sweep started")

	updated := 0
	for i, holding := range holdings {
		if ctx.Err() != nil {
			s.Log.Warn().Msg("Estimate sweep stopped early")
			return nil
		}
		if i > 0 && s.Pause > 0 {
			time.Sleep(s.Pause)
		}

		est, err := s.Gateway.FetchRealtimeEstimate(ctx, holding.Code)
		if err != nil {
			s.Log.Warn().Str("code", holding.Code).Err(err).Msg("Estimate unavailable, skipping fund")
			continue
		}
		if est.Live == nil {
			s.Log.Warn().Str("code", holding.Code).Msg("Estimate payload has no live section, skipping fund")
			continue
		}

		err = s.DB.WithContext(ctx).
			Model(&domain.Holding{}).
			Where("code = ?", holding.Code).
			Updates(map[string]interface{}{
				"estimate_nav":         decimal.NewNullDecimal(est.Live.Nav),
				"percentage_change":    decimal.NewNullDecimal(est.Live.ChangePct),
				"estimate_amount":      decimal.NewNullDecimal(holding.Shares.Mul(est.Live.Nav)),
				"estimate_update_time": est.Live.Time,
			}).Error
		if err != nil {
			s.Log.Error().Str("code", holding.Code).Err(err).Msg("Estimate update failed for fund, continuing")
			continue
		}
		updated++
	}

	s.Log.Info().Int("updated", updated).Msg("Estimate sweep finished")
	return nil
}
