package report

import "fmt"

// Fixed rows above the data band.
const (
	TitleRow  = 1
	HeaderRow = 2
)

// Layout holds the block geometry of the report sheet.
//
// Records fill a block top to bottom, FirstDataRow through LastDataRow, and
// the next block starts ColumnsPerRecord columns to the right.
type Layout struct {
	FirstDataRow     int
	LastDataRow      int
	ColumnsPerRecord int
}

// DefaultLayout returns the 63-row, 4-column block geometry.
func DefaultLayout() Layout {
	return Layout{
		FirstDataRow:     3,
		LastDataRow:      65,
		ColumnsPerRecord: 4,
	}
}

// RowsPerBlock is the number of records a block holds.
func (l Layout) RowsPerBlock() int {
	return l.LastDataRow - l.FirstDataRow + 1
}

// Validate checks the geometry invariants.
func (l Layout) Validate() error {
	if l.FirstDataRow <= HeaderRow {
		return fmt.Errorf("first data row %d must be below header row %d", l.FirstDataRow, HeaderRow)
	}
	if l.RowsPerBlock() < 1 {
		return fmt.Errorf("last data row %d must not precede first data row %d", l.LastDataRow, l.FirstDataRow)
	}
	if l.ColumnsPerRecord < recordWidth {
		return fmt.Errorf("columns per record %d is narrower than a record (%d)", l.ColumnsPerRecord, recordWidth)
	}
	return nil
}

// Placement is where one record lands. It is computed from the record's
// 1-based sequence position alone, so placements can be produced
// independently and folded into the grid in order.
type Placement struct {
	Seq   int
	Block int
	Row   int
	Col   int

	// FirstInBlock marks the record that opens its block; the block's header
	// copy is written together with it.
	FirstInBlock bool
}

// Place returns the placement of the record at sequence position seq (1-based).
func (l Layout) Place(seq int) Placement {
	rpb := l.RowsPerBlock()
	offset := (seq - 1) % rpb
	block := (seq - 1) / rpb
	return Placement{
		Seq:          seq,
		Block:        block,
		Row:          offset + l.FirstDataRow,
		Col:          1 + block*l.ColumnsPerRecord,
		FirstInBlock: offset == 0,
	}
}

// Plan returns the placements for n records.
func (l Layout) Plan(n int) []Placement {
	plan := make([]Placement, n)
	for i := range plan {
		plan[i] = l.Place(i + 1)
	}
	return plan
}

// Blocks returns how many blocks n records occupy.
func (l Layout) Blocks(n int) int {
	if n <= 0 {
		return 0
	}
	return (n-1)/l.RowsPerBlock() + 1
}

// StatsAnchor returns the top-left cell of the statistics block for n > 0
// records: one row below the last record, in the last block's first column.
func (l Layout) StatsAnchor(n int) (row, col int) {
	last := l.Place(n)
	return last.Row + 1, last.Col
}
