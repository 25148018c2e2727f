package stats

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"golang.org/x/term"

	"github.com/verte-zerg/spirestats/internal/model"
)

const (
	terminalWidthBackup = 80
	minSparkWidth       = 8
	killedByWidth       = 24
	colorGreen          = "\x1b[32m"
	colorRed            = "\x1b[31m"
	colorReset          = "\x1b[0m"
)

// RenderStatsTable prints one row per character with a floor sparkline.
// width bounds the sparkline column; zero uses the terminal width.
func RenderStatsTable(w io.Writer, rows []model.CharacterStats, runs []model.RunMetrics, width int) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	if width <= 0 {
		width = terminalWidth(w)
	}
	sparkWidth := max(width-90, minSparkWidth)
	t := newTable(
		left("Character"), right("Runs"), right("Wins"), right("Win %"),
		right("Avg Score"), right("Avg Floor"), right("Max Floor"),
		right("Avg Deck"), right("Avg Relics"), left("Floors"),
	)
	for _, st := range rows {
		t.add(
			st.DisplayName,
			strconv.Itoa(st.TotalRuns),
			strconv.Itoa(st.Wins),
			percent(st.WinRate),
			oneDecimal(st.AvgScore),
			oneDecimal(st.AvgFloor),
			strconv.Itoa(st.MaxFloor),
			oneDecimal(st.AvgDeckSize),
			oneDecimal(st.AvgRelics),
			Sparkline(Tail(FloorSeries(runs, st.Character), sparkWidth)),
		)
	}
	var decorate func(int, string) string
	if shouldUseColor(w) {
		decorate = func(i int, line string) string { return colorize(line, rows[i].WinRate) }
	}
	return t.write(w, decorate)
}

// RenderRunsTable prints one row per run.
func RenderRunsTable(w io.Writer, runs []model.RunMetrics) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	t := newTable(
		left("Run"), left("Character"), left("Result"),
		right("Floor"), right("Score"), right("Asc"), right("Deck"),
		left("A/S/P"), right("Relics"), left("Killed By").truncateAt(killedByWidth),
	)
	for _, r := range runs {
		result := "Defeat"
		if r.Victory {
			result = "Victory"
		}
		killedBy := "-"
		if r.KilledBy != nil {
			killedBy = *r.KilledBy
		}
		t.add(
			r.PlayID,
			r.Character,
			result,
			strconv.Itoa(r.FloorReached),
			strconv.Itoa(r.Score),
			strconv.Itoa(r.AscensionLevel),
			strconv.Itoa(r.DeckSize),
			fmt.Sprintf("%d/%d/%d", r.AttackCount, r.SkillCount, r.PowerCount),
			strconv.Itoa(r.RelicCount),
			killedBy,
		)
	}
	return t.write(w, nil)
}

// RenderHistory prints recorded snapshot rows.
func RenderHistory(w io.Writer, rows []model.SnapshotStats) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No snapshots recorded.")
		return err
	}
	t := newTable(
		left("Recorded"), left("Character"), right("Runs"), right("Wins"),
		right("Win %"), right("Avg Floor"), right("Max Floor"),
	)
	for _, r := range rows {
		t.add(
			time.Unix(r.RecordedAt, 0).Local().Format("2006-01-02 15:04"),
			r.Stats.DisplayName,
			strconv.Itoa(r.Stats.TotalRuns),
			strconv.Itoa(r.Stats.Wins),
			percent(r.Stats.WinRate),
			oneDecimal(r.Stats.AvgFloor),
			strconv.Itoa(r.Stats.MaxFloor),
		)
	}
	return t.write(w, nil)
}

func percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

func oneDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func colorize(line string, winRate float64) string {
	if winRate >= 0.5 {
		return colorGreen + line + colorReset
	}
	if winRate == 0 {
		return colorRed + line + colorReset
	}
	return line
}

func terminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok {
		return terminalWidthBackup
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
