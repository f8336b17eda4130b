package finance

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/vicanso/go-charts/v2"
)

const chartCacheTTL = 10 * time.Minute

type chartCacheEntry struct {
	createdAt time.Time
	image     []byte
}

var (
	chartCache   = map[string]chartCacheEntry{}
	chartCacheMu sync.Mutex
)

func cacheGet(key string) ([]byte, bool) {
	chartCacheMu.Lock()
	defer chartCacheMu.Unlock()
	entry, ok := chartCache[key]
	if !ok {
		return nil, false
	}
	if time.Since(entry.createdAt) > chartCacheTTL {
		delete(chartCache, key)
		return nil, false
	}
	img := make([]byte, len(entry.image))
	copy(img, entry.image)
	return img, true
}

// cacheSet stores img and drops every expired entry, so unique keys do not
// pile up in a long-running process.
func cacheSet(key string, img []byte) {
	chartCacheMu.Lock()
	defer chartCacheMu.Unlock()
	now := time.Now()
	for k, e := range chartCache {
		if now.Sub(e.createdAt) > chartCacheTTL {
			delete(chartCache, k)
		}
	}
	chartCache[key] = chartCacheEntry{createdAt: now, image: img}
}

// ProjectionSeries is one named balance curve.
type ProjectionSeries struct {
	Name   string
	Points []SchedulePoint
}

// MakeProjectionChart draws every series on a shared month axis.
func MakeProjectionChart(title string, series []ProjectionSeries) ([]byte, error) {
	if len(series) == 0 {
		return nil, errors.New("no series provided")
	}

	longest := 0
	for i := range series {
		if len(series[i].Points) > len(series[longest].Points) {
			longest = i
		}
	}
	axis := series[longest].Points
	if len(axis) < 2 {
		return nil, errors.New("not enough data points")
	}

	xLabels := make([]string, len(axis))
	for i, p := range axis {
		xLabels[i] = monthLabel(p.Month)
	}

	names := make([]string, 0, len(series))
	values := make([][]float64, 0, len(series))
	yMin, yMax := math.Inf(1), math.Inf(-1)
	var key strings.Builder
	key.WriteString("proj|" + title)
	for _, s := range series {
		names = append(names, s.Name)
		row := make([]float64, len(axis))
		for i := range axis {
			// shorter curves hold their last balance
			j := i
			if j >= len(s.Points) {
				j = len(s.Points) - 1
			}
			v := 0.0
			if j >= 0 {
				v = s.Points[j].Value
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("invalid value in %s at month %s", s.Name, xLabels[i])
			}
			row[i] = v
			yMin = math.Min(yMin, v)
			yMax = math.Max(yMax, v)
			fmt.Fprintf(&key, "|%.2f", v)
		}
		values = append(values, row)
		key.WriteString("|" + s.Name)
	}

	if img, ok := cacheGet(key.String()); ok {
		return img, nil
	}

	pad := (yMax - yMin) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(yMax)*0.05, 1)
	}
	floor := yMin
	yMin -= pad
	if yMin < 0 && floor >= 0 {
		yMin = 0
	}
	yMax += pad

	split := len(xLabels) / 3
	if split < 3 {
		split = 3
	}
	if split > 12 {
		split = 12
	}

	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: split,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(900),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	cacheSet(key.String(), buf)
	return buf, nil
}

// MakeAllocationChart renders a pie of dollar targets per ticker.
func MakeAllocationChart(title string, assets []PricedAsset) ([]byte, error) {
	if len(assets) == 0 {
		return nil, errors.New("no assets provided")
	}

	values := make([]float64, 0, len(assets))
	labels := make([]string, 0, len(assets))
	for _, a := range assets {
		v := a.DollarTarget
		if v <= 0 {
			v = a.Weight
		}
		if v <= 0 {
			continue
		}
		values = append(values, v)
		labels = append(labels, fmt.Sprintf("%s (%.1f%%)", a.Ticker, a.Weight*100))
	}
	if len(values) == 0 {
		return nil, errors.New("nothing to draw")
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(title),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: labels,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render pie chart: %w", err)
	}
	return p.Bytes()
}

func monthLabel(m float64) string {
	if m == math.Trunc(m) {
		return fmt.Sprintf("M%d", int(m))
	}
	return fmt.Sprintf("M%.1f", m)
}
