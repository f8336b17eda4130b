package finance

import (
	"testing"
	"time"
)

func TestCacheSetSweepsExpiredEntries(t *testing.T) {
	chartCacheMu.Lock()
	chartCache = map[string]chartCacheEntry{
		"old":   {createdAt: time.Now().Add(-2 * chartCacheTTL), image: []byte("a")},
		"fresh": {createdAt: time.Now(), image: []byte("b")},
	}
	chartCacheMu.Unlock()

	cacheSet("new", []byte("c"))

	chartCacheMu.Lock()
	defer chartCacheMu.Unlock()
	if _, ok := chartCache["old"]; ok {
		t.Error("expected expired entry to be swept")
	}
	if len(chartCache) != 2 {
		t.Errorf("expected 2 entries, got %d", len(chartCache))
	}
}

func TestMakeProjectionChartCachesImage(t *testing.T) {
	series := []ProjectionSeries{{Name: "Plan A", Points: ProjectSchedule(1000, 100, 0.06, 6)}}
	first, err := MakeProjectionChart("cache test", series)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := MakeProjectionChart("cache test", series)
	if err != nil {
		t.Fatalf("render again: %v", err)
	}
	if string(first) != string(second) {
		t.Error("expected the cached image on the second call")
	}
}
