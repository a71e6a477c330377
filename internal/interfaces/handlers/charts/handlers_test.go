package charts

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	holdingsvc "fundtrack-backend/internal/application/holdings"
	"fundtrack-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupChartsTest(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.NavHistory{}))

	h := &Handlers{Holdings: &holdingsvc.Service{DB: db, Log: zerolog.Nop()}}
	app := fiber.New()
	app.Get("/charts/:code/nav.png", h.NavChart)
	return app, db
}

func TestNavChart_RendersPNG(t *testing.T) {
	app, db := setupChartsTest(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		require.NoError(t, db.Create(&domain.NavHistory{
			Code:    "161725",
			NavDate: start.AddDate(0, 0, i),
			Nav:     decimal.NewFromFloat(1.0 + float64(i)*0.01),
		}).Error)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/charts/161725/nav.png?ma=5", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Greater(t, len(body), 4)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, body[:4])
}

func TestNavChart_NoHistory(t *testing.T) {
	app, _ := setupChartsTest(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/charts/161725/nav.png", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestNavChart_BadMAQuery(t *testing.T) {
	app, _ := setupChartsTest(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/charts/161725/nav.png?ma=abc", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
