package statsui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/spirestats/internal/model"
)

type fakeSource struct {
	runs  []model.RunMetrics
	loads int
}

func (f *fakeSource) LoadRuns() []model.RunMetrics {
	f.loads++
	return f.runs
}

func sampleRuns() []model.RunMetrics {
	killer := "Jaw Worm"
	return []model.RunMetrics{
		{PlayID: "100", Character: "IRONCLAD", FloorReached: 7, KilledBy: &killer, MasterDeck: []string{"Strike_R", "Bash"}, DeckSize: 2},
		{PlayID: "200", Character: "IRONCLAD", FloorReached: 51, Victory: true, MasterDeck: []string{"Defend_R+1"}, DeckSize: 1},
		{PlayID: "150", Character: "WATCHER", FloorReached: 20},
	}
}

func press(m *Model, key string) {
	var msg tea.KeyMsg
	switch key {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		msg = tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m.Update(msg)
}

func TestSelectCharacterAndRun(t *testing.T) {
	src := &fakeSource{runs: sampleRuns()}
	m := NewModel(src)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	if len(m.rows) != 2 || m.rows[0].Character != "IRONCLAD" {
		t.Fatalf("unexpected overview rows: %+v", m.rows)
	}
	press(m, "enter")
	if m.activeTab != tabRuns || m.selected != "IRONCLAD" {
		t.Fatalf("expected runs tab for IRONCLAD, got tab %d selected %q", m.activeTab, m.selected)
	}
	if len(m.visible) != 2 || m.visible[0].PlayID != "200" {
		t.Fatalf("expected newest run first, got %+v", m.visible)
	}

	press(m, "enter")
	if m.activeTab != tabDetail || m.detail == nil || m.detail.PlayID != "200" {
		t.Fatalf("expected detail of run 200, got tab %d detail %+v", m.activeTab, m.detail)
	}
	view := m.View()
	if !strings.Contains(view, "Victory") || !strings.Contains(view, "Defend_R+1") {
		t.Fatalf("expected detail view to show the run, got:\n%s", view)
	}
}

func TestTabCyclingAndReload(t *testing.T) {
	src := &fakeSource{runs: sampleRuns()}
	m := NewModel(src)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	press(m, "shift+tab")
	if m.activeTab != tabDetail {
		t.Fatalf("expected wrap to detail tab, got %d", m.activeTab)
	}
	press(m, "tab")
	if m.activeTab != tabOverview {
		t.Fatalf("expected overview tab, got %d", m.activeTab)
	}

	src.runs = src.runs[:1]
	press(m, "r")
	if src.loads != 2 {
		t.Fatalf("expected 2 loads, got %d", src.loads)
	}
	if len(m.rows) != 1 || m.rows[0].TotalRuns != 1 {
		t.Fatalf("unexpected rows after reload: %+v", m.rows)
	}
}

func TestEmptySource(t *testing.T) {
	m := NewModel(&fakeSource{})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	if !strings.Contains(m.View(), "No runs found.") {
		t.Fatalf("expected empty message, got:\n%s", m.View())
	}
	press(m, "enter")
	if m.activeTab != tabOverview {
		t.Fatalf("enter with no rows should stay on overview, got %d", m.activeTab)
	}
}

func TestQuit(t *testing.T) {
	m := NewModel(&fakeSource{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
