package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/spirestats/internal/model"
)

func TestRenderStatsTable(t *testing.T) {
	runs := []model.RunMetrics{
		{Character: "IRONCLAD", FloorReached: 10},
		{Character: "IRONCLAD", FloorReached: 51, Victory: true},
	}
	var buf bytes.Buffer
	if err := RenderStatsTable(&buf, Aggregate(runs), runs, 100); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Character", "Ironclad", "50.00%", "51"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes for non-terminal writer")
	}
}

func TestRenderStatsTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderStatsTable(&buf, nil, nil, 0); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No runs found." {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRenderRunsTable(t *testing.T) {
	killer := "Gremlin Nob"
	runs := []model.RunMetrics{
		{PlayID: "abc", Character: "DEFECT", FloorReached: 6, KilledBy: &killer, AttackCount: 5, SkillCount: 4, PowerCount: 1},
		{PlayID: "def", Character: "DEFECT", FloorReached: 56, Victory: true},
	}
	var buf bytes.Buffer
	if err := RenderRunsTable(&buf, runs); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"abc", "Gremlin Nob", "Victory", "5/4/1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
}

func TestRenderHistory(t *testing.T) {
	rows := []model.SnapshotStats{
		{SnapshotID: 1, RecordedAt: 1700000000, Stats: model.CharacterStats{DisplayName: "Watcher", TotalRuns: 4, Wins: 1, WinRate: 0.25}},
	}
	var buf bytes.Buffer
	if err := RenderHistory(&buf, rows); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "25.00%") {
		t.Fatalf("expected win rate in output: %s", buf.String())
	}
}
