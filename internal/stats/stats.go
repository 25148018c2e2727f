// Package stats contains run aggregation and reporting.
package stats

import (
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/spirestats/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Aggregate computes per-character stats. Characters without runs are
// omitted and rows follow canonical character order.
func Aggregate(runs []model.RunMetrics) []model.CharacterStats {
	groups := map[string][]model.RunMetrics{}
	for _, r := range runs {
		groups[r.Character] = append(groups[r.Character], r)
	}
	out := []model.CharacterStats{}
	for _, c := range model.Characters() {
		group, ok := groups[c.DirName()]
		if !ok {
			continue
		}
		out = append(out, summarize(c, group))
	}
	return out
}

func summarize(c model.Character, runs []model.RunMetrics) model.CharacterStats {
	st := model.CharacterStats{
		Character:   c.DirName(),
		DisplayName: c.DisplayName(),
		TotalRuns:   len(runs),
	}
	var scores, floors, decks, relics int
	for i, r := range runs {
		if r.Victory {
			st.Wins++
		}
		scores += r.Score
		floors += r.FloorReached
		decks += r.DeckSize
		relics += r.RelicCount
		if i == 0 || r.FloorReached > st.MaxFloor {
			st.MaxFloor = r.FloorReached
		}
	}
	st.WinRate = mean(st.Wins, st.TotalRuns)
	st.AvgScore = mean(scores, st.TotalRuns)
	st.AvgFloor = mean(floors, st.TotalRuns)
	st.AvgDeckSize = mean(decks, st.TotalRuns)
	st.AvgRelics = mean(relics, st.TotalRuns)
	return st
}

func mean(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// BuildExport bundles runs and their aggregate with the current time.
func BuildExport(runs []model.RunMetrics) model.ExportData {
	return buildExport(runs, time.Now())
}

func buildExport(runs []model.RunMetrics, now time.Time) model.ExportData {
	if runs == nil {
		runs = []model.RunMetrics{}
	}
	return model.ExportData{
		Runs:            runs,
		CharacterStats:  Aggregate(runs),
		ExportTimestamp: now.Unix(),
	}
}

// FloorSeries returns floor_reached for each run of a character, in order.
func FloorSeries(runs []model.RunMetrics, character string) []float64 {
	var out []float64
	for _, r := range runs {
		if r.Character == character {
			out = append(out, float64(r.FloorReached))
		}
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Tail returns at most the last n values.
func Tail(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
