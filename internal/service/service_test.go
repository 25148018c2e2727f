package service

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/verte-zerg/spirestats/internal/model"
	"github.com/verte-zerg/spirestats/internal/runpath"
)

func writeRun(t *testing.T, root, character, name, body string) {
	t.Helper()
	dir := filepath.Join(root, character)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func newFixture(t *testing.T) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	writeRun(t, root, "IRONCLAD", "run1.run", `{"victory": true, "floor_reached": 50, "ascension_level": 5, "master_deck": ["Strike", "Strike+", "Defend", "Anger"]}`)
	writeRun(t, root, "IRONCLAD", "run2.run", `{"floor_reached": 12, "ascension_level": 1, "killed_by": "Lagavulin"}`)
	writeRun(t, root, "WATCHER", "run3.run", `{"victory": true, "floor_reached": 51, "ascension_level": 10}`)
	r := runpath.New([]string{root}, nil)
	return New(r, nil), root
}

func TestListRunsFilters(t *testing.T) {
	svc, _ := newFixture(t)
	if got := svc.ListRuns(model.RunFilter{}); len(got) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(got))
	}
	if got := svc.ListRuns(model.RunFilter{Character: "ironclad"}); len(got) != 2 {
		t.Fatalf("expected 2 ironclad runs, got %d", len(got))
	}
	if got := svc.ListRuns(model.RunFilter{VictoriesOnly: true}); len(got) != 2 {
		t.Fatalf("expected 2 victories, got %d", len(got))
	}
	minAsc := 5
	got := svc.ListRuns(model.RunFilter{MinAscension: &minAsc})
	if len(got) != 2 {
		t.Fatalf("expected 2 runs at ascension >= 5, got %d", len(got))
	}
	got = svc.ListRuns(model.RunFilter{Character: "IRONCLAD", VictoriesOnly: true, MinAscension: &minAsc})
	if len(got) != 1 || got[0].PlayID != "run1" {
		t.Fatalf("unexpected combined filter result: %+v", got)
	}
}

func TestCharacterRuns(t *testing.T) {
	svc, _ := newFixture(t)
	runs, err := svc.CharacterRuns("watcher")
	if err != nil {
		t.Fatalf("character runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}

	runs, err = svc.CharacterRuns("DEFECT")
	if err != nil {
		t.Fatalf("expected empty result for known character, got %v", err)
	}
	if runs == nil || len(runs) != 0 {
		t.Fatalf("expected empty list, got %v", runs)
	}

	_, err = svc.CharacterRuns("Necromancer")
	var nf *NotFoundError
	if !errors.As(err, &nf) || !errors.Is(err, ErrUnknownCharacter) {
		t.Fatalf("expected unknown character error, got %v", err)
	}
	if !strings.Contains(nf.Details(), "THE_SILENT") {
		t.Fatalf("expected valid ids in details, got %q", nf.Details())
	}
}

func TestCharacterStatsCaseInsensitive(t *testing.T) {
	svc, _ := newFixture(t)
	lower, err := svc.CharacterStats("ironclad")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	upper, err := svc.CharacterStats("IRONCLAD")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !reflect.DeepEqual(lower, upper) {
		t.Fatalf("expected identical results: %+v vs %+v", lower, upper)
	}
	if lower.TotalRuns != 2 || lower.Wins != 1 {
		t.Fatalf("unexpected stats: %+v", lower)
	}
}

func TestCharacterStatsNotFound(t *testing.T) {
	svc, _ := newFixture(t)
	if _, err := svc.CharacterStats("DEFECT"); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns, got %v", err)
	}
	if _, err := svc.CharacterStats("nobody"); !errors.Is(err, ErrUnknownCharacter) {
		t.Fatalf("expected ErrUnknownCharacter, got %v", err)
	}
}

func TestNoDataAvailable(t *testing.T) {
	r := runpath.New([]string{filepath.Join(t.TempDir(), "missing")}, nil)
	svc := New(r, nil)
	if got := svc.ListRuns(model.RunFilter{}); got == nil || len(got) != 0 {
		t.Fatalf("expected empty runs, got %v", got)
	}
	if got := svc.Stats(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty stats, got %v", got)
	}
	export := svc.Export()
	if len(export.Runs) != 0 || len(export.CharacterStats) != 0 || export.ExportTimestamp == 0 {
		t.Fatalf("unexpected export: %+v", export)
	}
}

func TestExport(t *testing.T) {
	svc, _ := newFixture(t)
	export := svc.Export()
	if len(export.Runs) != 3 || len(export.CharacterStats) != 2 {
		t.Fatalf("unexpected export: %d runs, %d stats", len(export.Runs), len(export.CharacterStats))
	}
}

func TestCharacters(t *testing.T) {
	svc, _ := newFixture(t)
	chars := svc.Characters()
	if len(chars) != 4 {
		t.Fatalf("expected 4 characters, got %d", len(chars))
	}
	if chars[1].ID != "THE_SILENT" || chars[1].Name != "Silent" {
		t.Fatalf("unexpected second character: %+v", chars[1])
	}
}

func TestSetAndClearPath(t *testing.T) {
	svc, auto := newFixture(t)
	custom := t.TempDir()
	writeRun(t, custom, "DEFECT", "d.run", `{}`)

	info, err := svc.SetPath(custom)
	if err != nil {
		t.Fatalf("set path: %v", err)
	}
	if !info.IsCustom || info.CurrentPath == nil || *info.CurrentPath != custom || !info.PathExists {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.AutoDetectedPath == nil || *info.AutoDetectedPath != auto {
		t.Fatalf("expected auto path reported, got %+v", info.AutoDetectedPath)
	}
	if runs := svc.ListRuns(model.RunFilter{}); len(runs) != 1 || runs[0].Character != "DEFECT" {
		t.Fatalf("expected runs from custom path, got %+v", runs)
	}

	_, err = svc.SetPath(filepath.Join(custom, "missing"))
	if !errors.Is(err, runpath.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
	if info := svc.PathInfo(); info.CurrentPath == nil || *info.CurrentPath != custom {
		t.Fatalf("expected previous custom path kept, got %+v", info)
	}

	info = svc.ClearPath()
	if info.IsCustom || info.CurrentPath == nil || *info.CurrentPath != auto {
		t.Fatalf("unexpected info after clear: %+v", info)
	}
}

func TestFindStats(t *testing.T) {
	rows := []model.CharacterStats{{Character: "IRONCLAD", TotalRuns: 3}}
	st, err := FindStats(rows, " ironclad ")
	if err != nil || st.TotalRuns != 3 {
		t.Fatalf("expected ironclad row, got %+v, %v", st, err)
	}
	if _, err := FindStats(rows, "WATCHER"); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns, got %v", err)
	}
	if _, err := FindStats(rows, "hexaghost"); !errors.Is(err, ErrUnknownCharacter) {
		t.Fatalf("expected ErrUnknownCharacter, got %v", err)
	}
}
