package tables

import (
	"testing"

	"github.com/tsawler/papermill/text"
)

func frag(s string, x, y float64) text.Fragment {
	return text.Fragment{Text: s, X: x, Y: y, Size: 10}
}

func TestDetectSimpleGrid(t *testing.T) {
	frags := []text.Fragment{
		frag("Name", 72, 700), frag("Qty", 200, 700), frag("Price", 300, 700),
		frag("Apples", 72, 686), frag("3", 200, 686), frag("1.50", 300, 686),
		frag("Pears", 72, 672), frag("7", 200, 672), frag("2.25", 300, 672),
	}

	tabs := Detect(frags)
	if len(tabs) != 1 {
		t.Fatalf("got %d tables, want 1", len(tabs))
	}
	tab := tabs[0]
	if len(tab.Rows) != 3 || tab.ColumnCount() != 3 {
		t.Fatalf("grid = %dx%d, want 3x3", len(tab.Rows), tab.ColumnCount())
	}
	if tab.Rows[0][0] != "Name" || tab.Rows[2][2] != "2.25" {
		t.Errorf("rows = %v", tab.Rows)
	}
	if tab.Y != 700 {
		t.Errorf("Y = %g, want 700", tab.Y)
	}
}

func TestDetectToleratesJitter(t *testing.T) {
	// Column starts wobble by a couple of points, as real layout
	// engines produce.
	frags := []text.Fragment{
		frag("A", 72, 700), frag("B", 200, 700),
		frag("C", 74, 686), frag("D", 198, 686),
	}

	tabs := Detect(frags)
	if len(tabs) != 1 {
		t.Fatalf("got %d tables, want 1", len(tabs))
	}
	if tabs[0].Rows[1][0] != "C" || tabs[0].Rows[1][1] != "D" {
		t.Errorf("rows = %v", tabs[0].Rows)
	}
}

func TestDetectMissingCell(t *testing.T) {
	frags := []text.Fragment{
		frag("H1", 72, 700), frag("H2", 200, 700), frag("H3", 300, 700),
		frag("a", 72, 686), frag("c", 300, 686),
	}

	tabs := Detect(frags)
	if len(tabs) != 1 {
		t.Fatalf("got %d tables, want 1", len(tabs))
	}
	row := tabs[0].Rows[1]
	if row[0] != "a" || row[1] != "" || row[2] != "c" {
		t.Errorf("row = %v", row)
	}
}

func TestDetectRejectsSingleRow(t *testing.T) {
	frags := []text.Fragment{
		frag("A", 72, 700), frag("B", 200, 700),
	}
	if tabs := Detect(frags); len(tabs) != 0 {
		t.Errorf("single row reported as table: %v", tabs)
	}
}

func TestDetectRejectsProse(t *testing.T) {
	// One fragment per line is running text, never a table.
	frags := []text.Fragment{
		frag("First paragraph line", 72, 700),
		frag("second line of prose", 72, 686),
		frag("and a third one", 72, 672),
	}
	if tabs := Detect(frags); len(tabs) != 0 {
		t.Errorf("prose reported as table: %v", tabs)
	}
}

func TestDetectUnalignedColumnsRejected(t *testing.T) {
	// Two multi-fragment lines whose columns do not line up: each
	// line contributes its own column positions, so the grid has
	// holes in every row. That is accepted as a sparse grid only if
	// alignment is consistent; fully disjoint columns with one
	// fragment each still produce rows, so check the shape instead.
	frags := []text.Fragment{
		frag("A", 72, 700), frag("B", 150, 700),
		frag("C", 110, 686), frag("D", 250, 686),
	}
	tabs := Detect(frags)
	if len(tabs) == 1 && tabs[0].ColumnCount() == 2 {
		t.Errorf("disjoint columns collapsed into 2-column grid: %v", tabs[0].Rows)
	}
}

func TestDetectTwoSeparateTables(t *testing.T) {
	frags := []text.Fragment{
		frag("A", 72, 700), frag("B", 200, 700),
		frag("a", 72, 686), frag("b", 200, 686),
		// Prose in between breaks the run.
		frag("Some narrative text here", 72, 650),
		frag("X", 72, 600), frag("Y", 200, 600),
		frag("x", 72, 586), frag("y", 200, 586),
	}

	tabs := Detect(frags)
	if len(tabs) != 2 {
		t.Fatalf("got %d tables, want 2", len(tabs))
	}
	if tabs[0].Y != 700 || tabs[1].Y != 600 {
		t.Errorf("table Y positions = %g, %g", tabs[0].Y, tabs[1].Y)
	}
}

func TestDetectEmptyInput(t *testing.T) {
	if tabs := Detect(nil); tabs != nil {
		t.Errorf("Detect(nil) = %v", tabs)
	}
}
