package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vicanso/go-charts/v2"

	"visaHedgeBot/internal/storage"
)

// MakeVisaMixChart renders the share of submissions per visa type.
func MakeVisaMixChart(mix map[string]int, days int) ([]byte, error) {
	if len(mix) == 0 {
		return nil, fmt.Errorf("no requests in the last %d days", days)
	}

	visas := sortedKeys(mix)
	total := 0
	for _, v := range visas {
		total += mix[v]
	}

	var values []float64
	var labels []string
	for _, v := range visas {
		values = append(values, float64(mix[v]))
		labels = append(labels, fmt.Sprintf("%s (%.1f%%)", v, float64(mix[v])/float64(total)*100))
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Hedge Requests by Visa (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: labels,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// MakeRequestsChart renders submissions per day.
func MakeRequestsChart(counts []storage.DayCount, days int) ([]byte, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("no requests in the last %d days", days)
	}

	var xAxisData []string
	var data []float64
	for _, c := range counts {
		xAxisData = append(xAxisData, c.Day.Format("01/02"))
		data = append(data, float64(c.Count))
	}
	// a single point cannot be drawn as a line
	if len(data) == 1 {
		xAxisData = append([]string{""}, xAxisData...)
		data = append([]float64{0}, data...)
	}

	p, err := charts.LineRender(
		[][]float64{data},
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data: xAxisData,
		}),
		charts.TitleTextOptionFunc(fmt.Sprintf("Hedge Requests per Day (%d days)", days)),
		charts.YAxisOptionFunc(charts.YAxisOption{}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// FormatStatsText summarizes the visa mix as plain text.
func FormatStatsText(mix map[string]int, days int) string {
	if len(mix) == 0 {
		return fmt.Sprintf("No hedge requests in the last %d days.", days)
	}

	type visaCount struct {
		visa  string
		count int
	}
	var rows []visaCount
	total := 0
	for v, n := range mix {
		rows = append(rows, visaCount{v, n})
		total += n
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].visa < rows[j].visa
	})

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Hedge requests (%d days)\n\n", days)
	fmt.Fprintf(&b, "Total: %d\n\n", total)
	for _, r := range rows {
		fmt.Fprintf(&b, "  • %s: %d (%.1f%%)\n", r.visa, r.count, float64(r.count)/float64(total)*100)
	}
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
