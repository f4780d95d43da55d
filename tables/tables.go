package tables

import (
	"sort"

	"github.com/tsawler/papermill/text"
)

// Table is a detected grid of cell text. Rows run top to bottom,
// cells left to right. Every row has the same number of cells; cells
// with no text under their column are empty strings.
type Table struct {
	Rows [][]string
	// Y is the baseline of the table's first row, for ordering tables
	// on a page.
	Y float64
}

// ColumnCount returns the table's width in cells.
func (t Table) ColumnCount() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// columnTolerance is how far apart two X positions can be while still
// counting as the same column, in points.
const columnTolerance = 4.0

// minRows and minCols are the smallest grid worth reporting as a
// table. Anything below this is ordinary multi-column text.
const (
	minRows = 2
	minCols = 2
)

// Detect finds tables among a page's text fragments by whitespace
// alignment: consecutive lines whose fragments start at the same
// X positions form rows of a grid.
func Detect(fragments []text.Fragment) []Table {
	lines := text.GroupLines(fragments)

	var tables []Table
	var run []text.Line
	for _, line := range lines {
		if len(line.Fragments) >= minCols {
			run = append(run, line)
			continue
		}
		if t, ok := tableFromRun(run); ok {
			tables = append(tables, t)
		}
		run = nil
	}
	if t, ok := tableFromRun(run); ok {
		tables = append(tables, t)
	}
	return tables
}

// tableFromRun turns a run of multi-fragment lines into a Table when
// their fragments align into shared columns.
func tableFromRun(run []text.Line) (Table, bool) {
	if len(run) < minRows {
		return Table{}, false
	}

	cols := clusterColumns(run)
	if len(cols) < minCols {
		return Table{}, false
	}

	// Every line must place each of its fragments in some column, and
	// no column may receive two fragments from the same line.
	rows := make([][]string, 0, len(run))
	for _, line := range run {
		row := make([]string, len(cols))
		for _, frag := range line.Fragments {
			ci := columnIndex(cols, frag.X)
			if ci < 0 || row[ci] != "" {
				return Table{}, false
			}
			row[ci] = frag.Text
		}
		rows = append(rows, row)
	}

	return Table{Rows: rows, Y: run[0].Y}, true
}

// clusterColumns collects the distinct fragment start positions across
// the run, merging positions within tolerance, and returns them left
// to right.
func clusterColumns(run []text.Line) []float64 {
	var xs []float64
	for _, line := range run {
		for _, frag := range line.Fragments {
			xs = append(xs, frag.X)
		}
	}
	sort.Float64s(xs)

	var cols []float64
	for _, x := range xs {
		if len(cols) == 0 || x-cols[len(cols)-1] > columnTolerance {
			cols = append(cols, x)
		}
	}
	return cols
}

func columnIndex(cols []float64, x float64) int {
	for i, c := range cols {
		if x >= c-columnTolerance && x <= c+columnTolerance {
			return i
		}
	}
	return -1
}
