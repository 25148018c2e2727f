package stats

import (
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/spirestats/internal/model"
)

func TestAggregateCanonicalOrderAndOmission(t *testing.T) {
	runs := []model.RunMetrics{
		{Character: "WATCHER", FloorReached: 10},
		{Character: "IRONCLAD", FloorReached: 50, Victory: true, Score: 1000, DeckSize: 30, RelicCount: 20},
		{Character: "IRONCLAD", FloorReached: 20, Score: 301, DeckSize: 21, RelicCount: 7},
		{Character: "ironclad", FloorReached: 99},
	}
	rows := Aggregate(runs)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Character != "IRONCLAD" || rows[1].Character != "WATCHER" {
		t.Fatalf("unexpected order: %s, %s", rows[0].Character, rows[1].Character)
	}
	ic := rows[0]
	if ic.DisplayName != "Ironclad" || ic.TotalRuns != 2 || ic.Wins != 1 {
		t.Fatalf("unexpected ironclad row: %+v", ic)
	}
	if math.Abs(ic.WinRate-0.5) > 1e-9 {
		t.Fatalf("expected win rate 0.5, got %f", ic.WinRate)
	}
	if math.Abs(ic.AvgScore-650.5) > 1e-9 || math.Abs(ic.AvgFloor-35) > 1e-9 {
		t.Fatalf("unexpected averages: %+v", ic)
	}
	if ic.MaxFloor != 50 {
		t.Fatalf("expected max floor 50, got %d", ic.MaxFloor)
	}
	if math.Abs(ic.AvgDeckSize-25.5) > 1e-9 || math.Abs(ic.AvgRelics-13.5) > 1e-9 {
		t.Fatalf("unexpected deck/relic averages: %+v", ic)
	}
}

func TestAggregateWinRate(t *testing.T) {
	runs := []model.RunMetrics{
		{Character: "DEFECT", Victory: true},
		{Character: "DEFECT"},
		{Character: "DEFECT"},
	}
	rows := Aggregate(runs)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if math.Abs(rows[0].WinRate-1.0/3.0) > 1e-9 {
		t.Fatalf("expected win rate 1/3, got %f", rows[0].WinRate)
	}
}

func TestAggregateEmpty(t *testing.T) {
	rows := Aggregate(nil)
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty slice, got %v", rows)
	}
}

func TestAggregateNegativeFloors(t *testing.T) {
	rows := Aggregate([]model.RunMetrics{
		{Character: "THE_SILENT", FloorReached: -3},
		{Character: "THE_SILENT", FloorReached: -1},
	})
	if rows[0].MaxFloor != -1 {
		t.Fatalf("expected max floor -1, got %d", rows[0].MaxFloor)
	}
}

func TestMeanEmptyGroup(t *testing.T) {
	if got := mean(5, 0); got != 0 {
		t.Fatalf("expected 0 for empty group, got %f", got)
	}
}

func TestBuildExport(t *testing.T) {
	now := time.Unix(1700000000, 0)
	runs := []model.RunMetrics{{Character: "IRONCLAD", Victory: true}}
	export := buildExport(runs, now)
	if export.ExportTimestamp != 1700000000 {
		t.Fatalf("unexpected timestamp %d", export.ExportTimestamp)
	}
	if len(export.Runs) != 1 || len(export.CharacterStats) != 1 {
		t.Fatalf("unexpected export: %+v", export)
	}

	empty := BuildExport(nil)
	if empty.Runs == nil || empty.CharacterStats == nil {
		t.Fatalf("expected empty, non-nil lists")
	}
	if empty.ExportTimestamp <= 0 {
		t.Fatalf("expected current timestamp")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
	if got := Sparkline([]float64{5, 5, 5}); got != "+++" {
		t.Fatalf("expected flat sparkline, got %q", got)
	}
	got := Sparkline([]float64{0, 55})
	if got != " @" {
		t.Fatalf("expected min/max glyphs, got %q", got)
	}
}

func TestFloorSeriesAndTail(t *testing.T) {
	runs := []model.RunMetrics{
		{Character: "IRONCLAD", FloorReached: 3},
		{Character: "WATCHER", FloorReached: 9},
		{Character: "IRONCLAD", FloorReached: 51},
	}
	series := FloorSeries(runs, "IRONCLAD")
	if len(series) != 2 || series[1] != 51 {
		t.Fatalf("unexpected series: %v", series)
	}
	if tail := Tail(series, 1); len(tail) != 1 || tail[0] != 51 {
		t.Fatalf("unexpected tail: %v", tail)
	}
}
