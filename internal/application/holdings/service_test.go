package holdings

import (
	"context"
	"testing"
	"time"

	"fundtrack-backend/internal/domain"
	"fundtrack-backend/internal/eastmoney"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGateway struct {
	estimates map[string]*eastmoney.Estimate
	calls     int
}

func (f *fakeGateway) FetchRealtimeEstimate(ctx context.Context, code string) (*eastmoney.Estimate, error) {
	f.calls++
	est, ok := f.estimates[code]
	if !ok {
		return nil, domain.ErrUpstreamUnavailable
	}
	return est, nil
}

func setupHoldingsTest(t *testing.T) (*Service, *gorm.DB, *fakeGateway) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Holding{}, &domain.NavHistory{}, &domain.SignalRun{}))
	gw := &fakeGateway{estimates: map[string]*eastmoney.Estimate{}}
	svc := &Service{DB: db, Gateway: gw, Log: zerolog.Nop()}
	return svc, db, gw
}

func estimate(name, settled string) *eastmoney.Estimate {
	return &eastmoney.Estimate{
		Name:       name,
		SettledNav: decimal.RequireFromString(settled),
	}
}

func TestCreate_DerivesSharesFromSettledNav(t *testing.T) {
	svc, _, gw := setupHoldingsTest(t)
	gw.estimates["161725"] = estimate("招商中证白酒指数", "2.5")

	h, err := svc.Create(context.Background(), CreateInput{
		Code:   "161725",
		Amount: decimal.NewFromInt(5000),
	})
	require.NoError(t, err)

	assert.Equal(t, "招商中证白酒指数", h.Name)
	assert.True(t, h.Shares.Equal(decimal.NewFromInt(2000)), "got %s", h.Shares)
	assert.True(t, h.SettledNav.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, h.HoldingAmount.Equal(decimal.NewFromInt(5000)))
	assert.False(t, h.EstimateNav.Valid)
}

func TestCreate_PopulatesEstimateWhenLiveQuotePresent(t *testing.T) {
	svc, _, gw := setupHoldingsTest(t)
	at := time.Date(2024, 3, 6, 14, 30, 0, 0, time.UTC)
	est := estimate("Test Fund", "2.0")
	est.Live = &eastmoney.LiveQuote{
		Nav:       decimal.RequireFromString("2.1"),
		ChangePct: decimal.RequireFromString("5.00"),
		Time:      at,
	}
	gw.estimates["005827"] = est

	h, err := svc.Create(context.Background(), CreateInput{
		Code:   "005827",
		Amount: decimal.NewFromInt(4000),
	})
	require.NoError(t, err)

	assert.True(t, h.Shares.Equal(decimal.NewFromInt(2000)))
	require.True(t, h.EstimateNav.Valid)
	assert.True(t, h.EstimateNav.Decimal.Equal(decimal.RequireFromString("2.1")))
	require.True(t, h.EstimateAmount.Valid)
	assert.True(t, h.EstimateAmount.Decimal.Equal(decimal.NewFromInt(4200)), "got %s", h.EstimateAmount.Decimal)
	require.NotNil(t, h.EstimateUpdateTime)
	assert.True(t, h.EstimateUpdateTime.Equal(at))
}

func TestCreate_DuplicateCode(t *testing.T) {
	svc, _, gw := setupHoldingsTest(t)
	gw.estimates["161725"] = estimate("Test Fund", "1.0")

	_, err := svc.Create(context.Background(), CreateInput{Code: "161725", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{Code: "161725", Amount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, domain.ErrHoldingExists)
}

func TestCreate_UpstreamDownFallsBackToProvidedName(t *testing.T) {
	svc, _, _ := setupHoldingsTest(t)

	h, err := svc.Create(context.Background(), CreateInput{
		Code:   "999999",
		Name:   "Offline Fund",
		Amount: decimal.NewFromInt(300),
	})
	require.NoError(t, err)

	assert.Equal(t, "Offline Fund", h.Name)
	assert.True(t, h.SettledNav.Equal(decimal.NewFromInt(1)), "falls back to NAV 1.0")
	assert.True(t, h.Shares.Equal(decimal.NewFromInt(300)))
}

func TestCreate_UpstreamDownWithoutNameFails(t *testing.T) {
	svc, db, _ := setupHoldingsTest(t)

	_, err := svc.Create(context.Background(), CreateInput{Code: "999999", Amount: decimal.NewFromInt(300)})
	assert.ErrorIs(t, err, domain.ErrNameResolutionFailed)

	var count int64
	require.NoError(t, db.Model(&domain.Holding{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCreate_NonPositiveSettledNav(t *testing.T) {
	svc, _, gw := setupHoldingsTest(t)
	gw.estimates["161725"] = estimate("Broken Fund", "0")

	_, err := svc.Create(context.Background(), CreateInput{Code: "161725", Amount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, domain.ErrInvalidNav)
}

func TestUpdateAmount_RecomputesShares(t *testing.T) {
	svc, _, gw := setupHoldingsTest(t)
	gw.estimates["161725"] = estimate("Test Fund", "2.5")
	_, err := svc.Create(context.Background(), CreateInput{Code: "161725", Amount: decimal.NewFromInt(5000)})
	require.NoError(t, err)

	h, err := svc.UpdateAmount(context.Background(), "161725", decimal.NewFromInt(6000))
	require.NoError(t, err)

	assert.True(t, h.Shares.Equal(decimal.NewFromInt(2400)), "got %s", h.Shares)
	assert.True(t, h.HoldingAmount.Equal(decimal.NewFromInt(6000)))
	assert.True(t, h.SettledNav.Equal(decimal.RequireFromString("2.5")))
}

func TestUpdateAmount_SurvivesEstimateRefreshFailure(t *testing.T) {
	svc, _, gw := setupHoldingsTest(t)
	gw.estimates["161725"] = estimate("Test Fund", "2.0")
	_, err := svc.Create(context.Background(), CreateInput{Code: "161725", Amount: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	delete(gw.estimates, "161725")

	h, err := svc.UpdateAmount(context.Background(), "161725", decimal.NewFromInt(2000))
	require.NoError(t, err)
	assert.True(t, h.Shares.Equal(decimal.NewFromInt(1000)))
}

func TestUpdateAmount_NotFound(t *testing.T) {
	svc, _, _ := setupHoldingsTest(t)
	_, err := svc.UpdateAmount(context.Background(), "404404", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, domain.ErrHoldingNotFound)
}

func TestDelete_CascadesHistoryAndSignalRuns(t *testing.T) {
	svc, db, gw := setupHoldingsTest(t)
	gw.estimates["161725"] = estimate("Test Fund", "1.0")
	_, err := svc.Create(context.Background(), CreateInput{Code: "161725", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.NavHistory{
		Code: "161725", NavDate: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), Nav: decimal.NewFromInt(1),
	}).Error)
	require.NoError(t, db.Create(&domain.SignalRun{
		Code: "161725", Kind: "rsi", Signal: "hold", Reason: "test",
	}).Error)

	require.NoError(t, svc.Delete(context.Background(), "161725"))

	var holdings, history, runs int64
	require.NoError(t, db.Model(&domain.Holding{}).Count(&holdings).Error)
	require.NoError(t, db.Model(&domain.NavHistory{}).Count(&history).Error)
	require.NoError(t, db.Model(&domain.SignalRun{}).Count(&runs).Error)
	assert.EqualValues(t, 0, holdings)
	assert.EqualValues(t, 0, history)
	assert.EqualValues(t, 0, runs)
}

func TestDelete_NotFound(t *testing.T) {
	svc, _, _ := setupHoldingsTest(t)
	assert.ErrorIs(t, svc.Delete(context.Background(), "404404"), domain.ErrHoldingNotFound)
}

func TestExportImport_RoundTripIsIdempotent(t *testing.T) {
	svc, _, gw := setupHoldingsTest(t)
	gw.estimates["161725"] = estimate("Test Fund", "2.5")
	_, err := svc.Create(context.Background(), CreateInput{Code: "161725", Amount: decimal.NewFromInt(5000)})
	require.NoError(t, err)

	records, err := svc.Export(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "161725", records[0].Code)
	require.NotNil(t, records[0].Shares)
	assert.InDelta(t, 2000, *records[0].Shares, 1e-9)

	// First import into the same database: the code exists, so it skips.
	imported, skipped, err := svc.Import(context.Background(), records, false)
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
	assert.Equal(t, 1, skipped)

	// After deleting, the same snapshot restores the holding.
	require.NoError(t, svc.Delete(context.Background(), "161725"))
	imported, skipped, err = svc.Import(context.Background(), records, false)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 0, skipped)

	h, err := svc.Get(context.Background(), "161725")
	require.NoError(t, err)
	assert.True(t, h.HoldingAmount.Equal(h.Shares.Mul(h.SettledNav)))
	assert.False(t, h.EstimateNav.Valid, "import leaves estimate fields for the next sweep")
}

func TestImport_OverwriteWipesExistingState(t *testing.T) {
	svc, db, gw := setupHoldingsTest(t)
	gw.estimates["161725"] = estimate("Old Fund", "1.0")
	gw.estimates["005827"] = estimate("New Fund", "2.0")
	_, err := svc.Create(context.Background(), CreateInput{Code: "161725", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.NavHistory{
		Code: "161725", NavDate: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), Nav: decimal.NewFromInt(1),
	}).Error)
	require.NoError(t, db.Create(&domain.SignalRun{
		Code: "161725", Kind: "rsi", Signal: "hold", Reason: "test",
	}).Error)

	shares := 50.0
	imported, skipped, err := svc.Import(context.Background(), []ExportRecord{{Code: "005827", Shares: &shares}}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 0, skipped)

	holdings, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "005827", holdings[0].Code)

	var history, runs int64
	require.NoError(t, db.Model(&domain.NavHistory{}).Count(&history).Error)
	require.NoError(t, db.Model(&domain.SignalRun{}).Count(&runs).Error)
	assert.EqualValues(t, 0, history)
	assert.EqualValues(t, 0, runs, "overwrite leaves no audit rows for wiped codes")
}

func TestImport_SkipsInvalidAndUnresolvableRecords(t *testing.T) {
	svc, _, gw := setupHoldingsTest(t)
	gw.estimates["161725"] = estimate("Test Fund", "1.0")
	gw.estimates["005827"] = estimate("Other Fund", "1.0")
	shares := 10.0
	negative := -5.0

	imported, skipped, err := svc.Import(context.Background(), []ExportRecord{
		{Code: "161725", Shares: &shares},
		{Code: "", Shares: &shares},
		{Code: "no-shares", Shares: nil},
		{Code: "005827", Shares: &negative},
		{Code: "999999", Shares: &shares}, // upstream unavailable
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 4, skipped)

	_, err = svc.Get(context.Background(), "005827")
	assert.ErrorIs(t, err, domain.ErrHoldingNotFound, "negative shares never become a holding")
}

func TestHistory_AnnotatesMovingAverages(t *testing.T) {
	svc, db, _ := setupHoldingsTest(t)
	navs := []string{"1.0", "2.0", "3.0", "4.0", "5.0"}
	for i, nav := range navs {
		require.NoError(t, db.Create(&domain.NavHistory{
			Code:    "161725",
			NavDate: time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC),
			Nav:     decimal.RequireFromString(nav),
		}).Error)
	}

	points, err := svc.History(context.Background(), "161725", nil, nil, []int{3})
	require.NoError(t, err)
	require.Len(t, points, 5)

	assert.Nil(t, points[0].MA[3])
	assert.Nil(t, points[1].MA[3])
	require.NotNil(t, points[2].MA[3])
	assert.InDelta(t, 2.0, *points[2].MA[3], 1e-9)
	require.NotNil(t, points[4].MA[3])
	assert.InDelta(t, 4.0, *points[4].MA[3], 1e-9)
}

func TestHistory_DateBounds(t *testing.T) {
	svc, db, _ := setupHoldingsTest(t)
	for i := 1; i <= 5; i++ {
		require.NoError(t, db.Create(&domain.NavHistory{
			Code:    "161725",
			NavDate: time.Date(2024, 3, i, 0, 0, 0, 0, time.UTC),
			Nav:     decimal.NewFromInt(int64(i)),
		}).Error)
	}

	start := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	points, err := svc.History(context.Background(), "161725", &start, &end, nil)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 2.0, points[0].Nav)
	assert.Equal(t, 4.0, points[2].Nav)
}
