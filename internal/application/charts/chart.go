// Package charts renders NAV history as PNG line charts.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	"fundtrack-backend/internal/application/holdings"

	"github.com/wcharczuk/go-chart/v2"
)

// ErrNotEnoughData is returned when the series is too short to draw.
var ErrNotEnoughData = errors.New("not enough data points to render a chart")

// RenderNav draws the NAV line plus one series per moving-average window
// present in the points. Returns PNG bytes.
func RenderNav(title string, points []holdings.HistoryPoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, ErrNotEnoughData
	}

	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Date
		ys[i] = p.Nav
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    "NAV",
			XValues: xs,
			YValues: ys,
		},
	}

	for _, window := range maWindows(points) {
		var maXs []time.Time
		var maYs []float64
		for _, p := range points {
			if v := p.MA[window]; v != nil {
				maXs = append(maXs, p.Date)
				maYs = append(maYs, *v)
			}
		}
		if len(maXs) < 2 {
			continue
		}
		series = append(series, chart.TimeSeries{
			Name:    fmt.Sprintf("MA%d", window),
			XValues: maXs,
			YValues: maYs,
		})
	}

	graph := chart.Chart{
		Title: title,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// maWindows collects the set of MA windows present on any point, ordered.
func maWindows(points []holdings.HistoryPoint) []int {
	set := map[int]bool{}
	for _, p := range points {
		for w := range p.MA {
			set[w] = true
		}
	}
	windows := make([]int, 0, len(set))
	for w := range set {
		windows = append(windows, w)
	}
	sort.Ints(windows)
	return windows
}
