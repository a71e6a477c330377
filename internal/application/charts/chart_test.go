package charts

import (
	"testing"
	"time"

	"fundtrack-backend/internal/application/holdings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func navPoints(n int) []holdings.HistoryPoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]holdings.HistoryPoint, n)
	for i := range points {
		points[i] = holdings.HistoryPoint{
			Date: start.AddDate(0, 0, i),
			Nav:  1.0 + float64(i)*0.01,
		}
	}
	return points
}

func TestRenderNav_ProducesPNG(t *testing.T) {
	png, err := RenderNav("161725 NAV", navPoints(30))
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestRenderNav_IncludesMovingAverageSeries(t *testing.T) {
	points := navPoints(30)
	for i := range points {
		if i >= 4 {
			v := points[i].Nav
			points[i].MA = map[int]*float64{5: &v}
		} else {
			points[i].MA = map[int]*float64{5: nil}
		}
	}

	png, err := RenderNav("161725 NAV", points)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestRenderNav_TooFewPoints(t *testing.T) {
	_, err := RenderNav("161725 NAV", navPoints(1))
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestMAWindows_CollectsAndSorts(t *testing.T) {
	v := 1.0
	points := []holdings.HistoryPoint{
		{MA: map[int]*float64{20: &v}},
		{MA: map[int]*float64{5: &v, 60: &v}},
	}
	assert.Equal(t, []int{5, 20, 60}, maWindows(points))
}
