package report

import "sort"

// Style is the formatting marker attached to a cell. The writer decides what
// each marker looks like.
type Style int

const (
	StyleNone Style = iota
	// StyleBold is used for the statistics block.
	StyleBold
	// StyleBody is the uniform small centered font applied to everything else.
	StyleBody
)

func (s Style) String() string {
	switch s {
	case StyleBold:
		return "bold"
	case StyleBody:
		return "body"
	}
	return "none"
}

// Coord is a 1-based (row, column) cell address.
type Coord struct {
	Row int
	Col int
}

// Cell is a value plus its style marker.
type Cell struct {
	Value any
	Style Style
}

// Entry is a Cell together with its address.
type Entry struct {
	Coord
	Cell
}

// Grid is a sparse sheet of cells. The builder fills it; afterwards it is
// only read.
type Grid struct {
	cells  map[Coord]Cell
	maxRow int
	maxCol int
}

func newGrid() *Grid {
	return &Grid{cells: make(map[Coord]Cell)}
}

// set writes a value. A nil value clears the cell.
func (g *Grid) set(row, col int, v any, style Style) {
	c := Coord{Row: row, Col: col}
	if v == nil {
		delete(g.cells, c)
		return
	}
	g.cells[c] = Cell{Value: v, Style: style}
	if row > g.maxRow {
		g.maxRow = row
	}
	if col > g.maxCol {
		g.maxCol = col
	}
}

// Cell returns the cell at (row, col).
func (g *Grid) Cell(row, col int) (Cell, bool) {
	c, ok := g.cells[Coord{Row: row, Col: col}]
	return c, ok
}

// Value returns the value at (row, col), or nil.
func (g *Grid) Value(row, col int) any {
	return g.cells[Coord{Row: row, Col: col}].Value
}

// Len returns the number of populated cells.
func (g *Grid) Len() int { return len(g.cells) }

// Bounds returns the highest row and column ever written.
func (g *Grid) Bounds() (rows, cols int) { return g.maxRow, g.maxCol }

// Cells returns every populated cell in row-major order.
func (g *Grid) Cells() []Entry {
	out := make([]Entry, 0, len(g.cells))
	for c, cell := range g.cells {
		out = append(out, Entry{Coord: c, Cell: cell})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// Row returns the values of one row from column 1 to the grid width.
func (g *Grid) Row(row int) []any {
	vals := make([]any, g.maxCol)
	for col := 1; col <= g.maxCol; col++ {
		vals[col-1] = g.Value(row, col)
	}
	return vals
}
