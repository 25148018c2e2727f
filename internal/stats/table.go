package stats

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const columnGap = "  "

// column describes one table column. A positive max truncates wider cells.
type column struct {
	title string
	right bool
	max   int
}

// textTable collects rows and writes them aligned to the widest cell.
type textTable struct {
	cols []column
	rows [][]string
}

func newTable(cols ...column) *textTable {
	return &textTable{cols: cols}
}

func left(title string) column  { return column{title: title} }
func right(title string) column { return column{title: title, right: true} }

func (c column) truncateAt(n int) column {
	c.max = n
	return c
}

// add appends a row. Missing cells render empty and extra cells are dropped.
func (t *textTable) add(cells ...string) {
	row := make([]string, len(t.cols))
	for i := range row {
		if i < len(cells) {
			row[i] = t.cols[i].fit(cells[i])
		}
	}
	t.rows = append(t.rows, row)
}

func (c column) fit(cell string) string {
	if c.max <= 0 || runewidth.StringWidth(cell) <= c.max {
		return cell
	}
	return runewidth.Truncate(cell, c.max, "…")
}

// lines renders the header and every row with trailing spaces trimmed.
func (t *textTable) lines() []string {
	if len(t.cols) == 0 {
		return nil
	}
	widths := make([]int, len(t.cols))
	for i, c := range t.cols {
		widths[i] = runewidth.StringWidth(c.title)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	header := make([]string, len(t.cols))
	for i, c := range t.cols {
		header[i] = c.title
	}
	out := make([]string, 0, len(t.rows)+1)
	for _, row := range append([][]string{header}, t.rows...) {
		cells := make([]string, len(row))
		for i, cell := range row {
			if t.cols[i].right {
				cells[i] = runewidth.FillLeft(cell, widths[i])
			} else {
				cells[i] = runewidth.FillRight(cell, widths[i])
			}
		}
		out = append(out, strings.TrimRight(strings.Join(cells, columnGap), " "))
	}
	return out
}

// write prints each line, passing data rows through decorate when set.
func (t *textTable) write(w io.Writer, decorate func(row int, line string) string) error {
	for i, line := range t.lines() {
		if decorate != nil && i > 0 {
			line = decorate(i-1, line)
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}
