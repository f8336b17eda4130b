package analytics

import (
	"strings"
	"testing"
)

func TestFormatStatsText(t *testing.T) {
	out := FormatStatsText(map[string]int{"F-1": 1, "H-1B": 3}, 30)
	if !strings.Contains(out, "Total: 4") {
		t.Errorf("expected total line, got:\n%s", out)
	}
	h1b := strings.Index(out, "H-1B: 3 (75.0%)")
	f1 := strings.Index(out, "F-1: 1 (25.0%)")
	if h1b < 0 || f1 < 0 || h1b > f1 {
		t.Errorf("expected H-1B listed before F-1 with shares, got:\n%s", out)
	}
}

func TestFormatStatsTextEmpty(t *testing.T) {
	if out := FormatStatsText(nil, 7); !strings.Contains(out, "No hedge requests") {
		t.Errorf("unexpected empty summary %q", out)
	}
}

func TestChartsRejectEmptyInput(t *testing.T) {
	if _, err := MakeVisaMixChart(nil, 7); err == nil {
		t.Error("expected error for empty mix")
	}
	if _, err := MakeRequestsChart(nil, 7); err == nil {
		t.Error("expected error for empty counts")
	}
}
