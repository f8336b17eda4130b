package finance

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
)

// FormatUSD renders an amount like "$1,234.56".
func FormatUSD(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return money.NewFromFloat(v, money.USD).Display()
}

// FormatPercent renders a fraction as a percentage with two decimals.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}
