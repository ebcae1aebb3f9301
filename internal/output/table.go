package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

// table formats columnar output using tabwriter.
type table struct {
	w        *tabwriter.Writer
	headers  []string
	maxWidth map[int]int
	started  bool
}

func newTable(w io.Writer, headers ...string) *table {
	return &table{
		w:        tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		headers:  headers,
		maxWidth: make(map[int]int),
	}
}

// setMaxWidth truncates values in col longer than width with "...".
func (t *table) setMaxWidth(col, width int) *table {
	t.maxWidth[col] = width
	return t
}

// addRow appends a row; missing cells are left empty and extras dropped.
func (t *table) addRow(values ...string) {
	if !t.started {
		t.started = true
		t.writeCells(t.headers)
		dashes := make([]string, len(t.headers))
		for i, h := range t.headers {
			dashes[i] = strings.Repeat("-", len(h))
		}
		t.writeCells(dashes)
	}

	cells := make([]string, len(t.headers))
	for i := range cells {
		if i < len(values) {
			cells[i] = t.truncate(i, values[i])
		}
	}
	t.writeCells(cells)
}

func (t *table) writeCells(cells []string) {
	//nolint:errcheck // tabwriter buffers in memory until flush
	fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

// flush must be called after the last addRow.
func (t *table) flush() error {
	return t.w.Flush()
}

// truncate counts runes so multi-byte titles are never split mid-character.
func (t *table) truncate(col int, s string) string {
	limit, ok := t.maxWidth[col]
	if !ok || limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}
