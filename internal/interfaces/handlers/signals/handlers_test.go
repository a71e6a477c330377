package signals

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	signalsvc "fundtrack-backend/internal/application/signals"
	"fundtrack-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSignalsTest(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Holding{}, &domain.NavHistory{}, &domain.SignalRun{}))

	h := &Handlers{Service: &signalsvc.Service{DB: db, Log: zerolog.Nop()}}
	app := fiber.New()
	app.Get("/signals/runs/:code", h.Runs)
	app.Get("/signals/:kind/:code", h.Evaluate)
	return app, db
}

func seedHistory(t *testing.T, db *gorm.DB, code string, days int) {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		require.NoError(t, db.Create(&domain.NavHistory{
			Code:    code,
			NavDate: start.AddDate(0, 0, i),
			Nav:     decimal.NewFromInt(1),
		}).Error)
	}
}

func TestEvaluate_UnknownKind(t *testing.T) {
	app, _ := setupSignalsTest(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/signals/momentum/161725", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestEvaluate_ReturnsSignal(t *testing.T) {
	app, db := setupSignalsTest(t)
	seedHistory(t, db, "161725", 60)

	resp, err := app.Test(httptest.NewRequest("GET", "/signals/bollinger/161725?holding=false", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "success", result["status"])
	data, _ := result["data"].(map[string]interface{})
	assert.Equal(t, "buy", data["signal"])
	assert.NotEmpty(t, data["reason"])
	metrics, _ := data["metrics"].(map[string]interface{})
	assert.EqualValues(t, 50, metrics["bband_period"])
}

func TestEvaluate_HoldingQueryOverride(t *testing.T) {
	app, db := setupSignalsTest(t)
	seedHistory(t, db, "161725", 60)

	resp, err := app.Test(httptest.NewRequest("GET", "/signals/bollinger/161725?holding=true", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	data, _ := result["data"].(map[string]interface{})
	assert.Equal(t, "sell", data["signal"])
}

func TestRuns_ReturnsAuditTrail(t *testing.T) {
	app, db := setupSignalsTest(t)
	seedHistory(t, db, "161725", 60)

	_, err := app.Test(httptest.NewRequest("GET", "/signals/rsi/161725", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("GET", "/signals/bollinger/161725", nil))
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/signals/runs/161725", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	runs, _ := result["data"].([]interface{})
	require.Len(t, runs, 2)
	first, _ := runs[0].(map[string]interface{})
	assert.Contains(t, []interface{}{"rsi", "bollinger"}, first["kind"])
}
