// Package statsui provides the Bubble Tea run browser.
package statsui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/spirestats/internal/cards"
	"github.com/verte-zerg/spirestats/internal/model"
	"github.com/verte-zerg/spirestats/internal/stats"
)

const (
	tabOverview = iota
	tabRuns
	tabDetail
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	victoryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	defeatStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
)

// Source supplies runs to the browser.
type Source interface {
	LoadRuns() []model.RunMetrics
}

// Model implements the Bubble Tea run browser.
type Model struct {
	src Source

	runs     []model.RunMetrics
	rows     []model.CharacterStats
	selected string
	visible  []model.RunMetrics
	detail   *model.RunMetrics

	tabs         []string
	activeTab    int
	overview     table.Model
	runsTable    table.Model
	overviewPane viewport.Model
	detailPane   viewport.Model

	width  int
	height int
}

// NewModel constructs the browser and loads runs from src.
func NewModel(src Source) *Model {
	m := &Model{
		src:          src,
		tabs:         []string{"Overview", "Runs", "Run detail"},
		overview:     newTable(overviewColumns()),
		runsTable:    newTable(runColumns()),
		overviewPane: viewport.New(0, 0),
		detailPane:   viewport.New(0, 0),
	}
	m.overview.Focus()
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "shift+tab":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "r":
			m.reload()
			return m, nil
		case "enter":
			m.selectCurrent()
			return m, nil
		}
		var cmd tea.Cmd
		switch m.activeTab {
		case tabOverview:
			m.overview, cmd = m.overview.Update(msg)
		case tabRuns:
			m.runsTable, cmd = m.runsTable.Update(msg)
		case tabDetail:
			m.detailPane, cmd = m.detailPane.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(headerStyle.Render("Nav: tab/shift+tab  Select: enter  Reload: r  Quit: q"), m.width, 1)
	return strings.Join([]string{header, body, footer}, "\n")
}

// reload rescans the runs and keeps the current selection when it still exists.
func (m *Model) reload() {
	m.runs = m.src.LoadRuns()
	m.rows = stats.Aggregate(m.runs)
	m.overview.SetRows(overviewRows(m.rows))
	m.refreshRuns()
	if m.detail != nil {
		m.detail = findRun(m.visible, m.detail.PlayID)
	}
	m.detailPane.SetContent(renderDetail(m.detail))
	m.overviewPane.SetContent(renderSummaryCards(m.rows))
}

func (m *Model) refreshRuns() {
	m.visible = runsFor(m.runs, m.selected)
	m.runsTable.SetRows(runRows(m.visible))
	m.runsTable.SetCursor(0)
}

func (m *Model) selectCurrent() {
	switch m.activeTab {
	case tabOverview:
		idx := m.overview.Cursor()
		if idx < 0 || idx >= len(m.rows) {
			return
		}
		m.selected = m.rows[idx].Character
		m.refreshRuns()
		m.setTab(tabRuns)
	case tabRuns:
		idx := m.runsTable.Cursor()
		if idx < 0 || idx >= len(m.visible) {
			return
		}
		run := m.visible[idx]
		m.detail = &run
		m.detailPane.SetContent(renderDetail(m.detail))
		m.detailPane.GotoTop()
		m.setTab(tabDetail)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.setTab(next)
}

func (m *Model) setTab(tab int) {
	m.activeTab = tab
	m.overview.Blur()
	m.runsTable.Blur()
	switch tab {
	case tabOverview:
		m.overview.Focus()
	case tabRuns:
		m.runsTable.Focus()
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	headerHeight = tabsHeight + 1
	bodyHeight = m.height - headerHeight - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight := m.layoutHeights()
	cardsHeight := lipgloss.Height(renderSummaryCards(m.rows))
	m.overviewPane.Width = m.width
	m.overviewPane.Height = cardsHeight
	m.overview.SetWidth(m.width)
	m.overview.SetHeight(maxInt(1, bodyHeight-cardsHeight-1))
	m.runsTable.SetWidth(m.width)
	m.runsTable.SetHeight(maxInt(1, bodyHeight-1))
	m.detailPane.Width = m.width
	m.detailPane.Height = bodyHeight
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	selected := "all characters"
	if m.selected != "" {
		selected = m.selected
	}
	summary := fmt.Sprintf("Runs: %d  Showing: %s", len(m.runs), selected)
	return tabs + "\n" + headerStyle.Render(summary)
}

func (m *Model) renderBody() string {
	switch m.activeTab {
	case tabOverview:
		if len(m.rows) == 0 {
			return "No runs found."
		}
		return m.overviewPane.View() + "\n" + tableMutedStyle.Render(m.overview.View())
	case tabRuns:
		if len(m.visible) == 0 {
			return "No runs found."
		}
		return tableMutedStyle.Render(m.runsTable.View())
	default:
		return m.detailPane.View()
	}
}

func newTable(columns []table.Column) table.Model {
	t := table.New(table.WithColumns(columns), table.WithHeight(1))
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func overviewColumns() []table.Column {
	return []table.Column{
		{Title: "Character", Width: 12},
		{Title: "Runs", Width: 5},
		{Title: "Wins", Width: 5},
		{Title: "Win %", Width: 6},
		{Title: "Avg Score", Width: 9},
		{Title: "Avg Floor", Width: 9},
		{Title: "Max Floor", Width: 9},
		{Title: "Avg Deck", Width: 8},
		{Title: "Avg Relics", Width: 10},
	}
}

func overviewRows(rows []model.CharacterStats) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{
			r.DisplayName,
			fmt.Sprintf("%d", r.TotalRuns),
			fmt.Sprintf("%d", r.Wins),
			fmt.Sprintf("%.1f", r.WinRate*100),
			fmt.Sprintf("%.1f", r.AvgScore),
			fmt.Sprintf("%.1f", r.AvgFloor),
			fmt.Sprintf("%d", r.MaxFloor),
			fmt.Sprintf("%.1f", r.AvgDeckSize),
			fmt.Sprintf("%.1f", r.AvgRelics),
		})
	}
	return out
}

func runColumns() []table.Column {
	return []table.Column{
		{Title: "Run", Width: 14},
		{Title: "Character", Width: 11},
		{Title: "Result", Width: 7},
		{Title: "Asc", Width: 4},
		{Title: "Floor", Width: 6},
		{Title: "Score", Width: 6},
		{Title: "Deck", Width: 5},
		{Title: "Killed by", Width: 20},
	}
}

func runRows(runs []model.RunMetrics) []table.Row {
	out := make([]table.Row, 0, len(runs))
	for _, r := range runs {
		result := "Defeat"
		if r.Victory {
			result = "Victory"
		}
		killedBy := ""
		if r.KilledBy != nil {
			killedBy = *r.KilledBy
		}
		out = append(out, table.Row{
			r.PlayID,
			r.Character,
			result,
			fmt.Sprintf("%d", r.AscensionLevel),
			fmt.Sprintf("%d", r.FloorReached),
			fmt.Sprintf("%d", r.Score),
			fmt.Sprintf("%d", r.DeckSize),
			killedBy,
		})
	}
	return out
}

// runsFor returns the runs of one character, or all runs for an empty name,
// with the newest identifiers first.
func runsFor(runs []model.RunMetrics, character string) []model.RunMetrics {
	out := make([]model.RunMetrics, 0, len(runs))
	for _, r := range runs {
		if character == "" || r.Character == character {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlayID > out[j].PlayID
	})
	return out
}

func findRun(runs []model.RunMetrics, playID string) *model.RunMetrics {
	for i := range runs {
		if runs[i].PlayID == playID {
			run := runs[i]
			return &run
		}
	}
	return nil
}

func renderSummaryCards(rows []model.CharacterStats) string {
	total, wins, best := 0, 0, 0
	for _, r := range rows {
		total += r.TotalRuns
		wins += r.Wins
		if r.MaxFloor > best {
			best = r.MaxFloor
		}
	}
	winRate := 0.0
	if total > 0 {
		winRate = float64(wins) / float64(total) * 100
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard("Runs", fmt.Sprintf("%d", total)),
		metricCard("Wins", fmt.Sprintf("%d", wins)),
		metricCard("Win rate", fmt.Sprintf("%.1f%%", winRate)),
		metricCard("Best floor", fmt.Sprintf("%d", best)),
	)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderDetail(run *model.RunMetrics) string {
	if run == nil {
		return "Select a run on the Runs tab."
	}
	var b strings.Builder
	result := defeatStyle.Render("Defeat")
	if run.Victory {
		result = victoryStyle.Render("Victory")
	}
	fmt.Fprintf(&b, "%s  %s  %s  Ascension %d\n\n", cardValueStyle.Render(run.PlayID), run.Character, result, run.AscensionLevel)
	fmt.Fprintf(&b, "Floor %d  Score %d  Max HP %d  Damage taken %d\n", run.FloorReached, run.Score, run.MaxHPAtEnd, run.TotalDamageTaken)
	fmt.Fprintf(&b, "Elites %d  Bosses %d  Rests %d  Smiths %d  Shops %d  Purchases %d  Potions %d\n",
		run.ElitesKilled, run.BossesKilled, run.CampfiresRested, run.CampfiresUpgraded, run.ShopsVisited, run.CardsPurchased, run.PotionsUsed)
	if run.KilledBy != nil {
		fmt.Fprintf(&b, "Killed by %s\n", *run.KilledBy)
	}
	fmt.Fprintf(&b, "\n%s (%d)  attacks %d  skills %d  powers %d  upgraded %d  removed %d\n",
		cardTitleStyle.Render("Deck"), run.DeckSize, run.AttackCount, run.SkillCount, run.PowerCount, run.UpgradedCards, run.CardsRemoved)
	for _, card := range run.MasterDeck {
		category := cards.Classify(card)
		fmt.Fprintf(&b, "  %-28s %s\n", card, category)
	}
	fmt.Fprintf(&b, "\n%s (%d)\n", cardTitleStyle.Render("Relics"), run.RelicCount)
	for _, relic := range run.Relics {
		fmt.Fprintf(&b, "  %s\n", relic)
	}
	return strings.TrimRight(b.String(), "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
