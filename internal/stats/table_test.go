package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestTableAlignsColumns(t *testing.T) {
	tbl := newTable(left("Character"), right("Runs"), right("Win %"))
	tbl.add("Ironclad", "12", "50.00%")
	tbl.add("Silent", "3", "0.00%")

	lines := tbl.lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Character  Runs   Win %" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Ironclad     12  50.00%" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Silent        3   0.00%" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestTableTruncatesColumn(t *testing.T) {
	tbl := newTable(left("Run"), left("Killed By").truncateAt(8))
	tbl.add("1", "Heart of the Spire")
	tbl.add("2", "Lagavulin")
	tbl.add("3")

	if got := tbl.rows[0][1]; runewidth.StringWidth(got) > 8 || !strings.HasSuffix(got, "…") {
		t.Fatalf("expected truncated cell within 8 columns, got %q", got)
	}
	if got := tbl.rows[2][1]; got != "" {
		t.Fatalf("expected missing cell to be empty, got %q", got)
	}
	if got := newTable(left("Killed By")).cols[0].fit("Lagavulin"); got != "Lagavulin" {
		t.Fatalf("expected unchanged value, got %q", got)
	}
}

func TestTableWriteDecoratesDataRows(t *testing.T) {
	tbl := newTable(left("Name"))
	tbl.add("a")
	tbl.add("b")

	var buf bytes.Buffer
	err := tbl.write(&buf, func(row int, line string) string {
		return strings.Repeat("*", row+1) + line
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "Name\n*a\n**b\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}
