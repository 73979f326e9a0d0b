package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, 63, l.RowsPerBlock())
	assert.NoError(t, l.Validate())
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		ok     bool
	}{
		{"default", DefaultLayout(), true},
		{"single row blocks", Layout{FirstDataRow: 3, LastDataRow: 3, ColumnsPerRecord: 4}, true},
		{"inverted rows", Layout{FirstDataRow: 10, LastDataRow: 9, ColumnsPerRecord: 4}, false},
		{"overlaps header", Layout{FirstDataRow: 2, LastDataRow: 65, ColumnsPerRecord: 4}, false},
		{"too narrow", Layout{FirstDataRow: 3, LastDataRow: 65, ColumnsPerRecord: 3}, false},
		{"wider gap", Layout{FirstDataRow: 3, LastDataRow: 65, ColumnsPerRecord: 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLayoutPlace(t *testing.T) {
	l := DefaultLayout()
	tests := []struct {
		seq  int
		want Placement
	}{
		{1, Placement{Seq: 1, Block: 0, Row: 3, Col: 1, FirstInBlock: true}},
		{2, Placement{Seq: 2, Block: 0, Row: 4, Col: 1}},
		{63, Placement{Seq: 63, Block: 0, Row: 65, Col: 1}},
		{64, Placement{Seq: 64, Block: 1, Row: 3, Col: 5, FirstInBlock: true}},
		{126, Placement{Seq: 126, Block: 1, Row: 65, Col: 5}},
		{127, Placement{Seq: 127, Block: 2, Row: 3, Col: 9, FirstInBlock: true}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.Place(tt.seq), "seq %d", tt.seq)
	}
}

func TestLayoutPlanOpensEachBlockOnce(t *testing.T) {
	l := DefaultLayout()
	opened := map[int]int{}
	for _, p := range l.Plan(200) {
		assert.Equal(t, (p.Seq-1)/63, p.Block)
		assert.Equal(t, (p.Seq-1)%63+3, p.Row)
		if p.FirstInBlock {
			opened[p.Block]++
		}
	}
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1, 3: 1}, opened)
}

func TestLayoutBlocksAndStatsAnchor(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, 0, l.Blocks(0))
	assert.Equal(t, 1, l.Blocks(1))
	assert.Equal(t, 1, l.Blocks(63))
	assert.Equal(t, 2, l.Blocks(64))
	assert.Equal(t, 3, l.Blocks(130))

	row, col := l.StatsAnchor(1)
	assert.Equal(t, 4, row)
	assert.Equal(t, 1, col)

	row, col = l.StatsAnchor(130)
	assert.Equal(t, 7, row)
	assert.Equal(t, 9, col)
}

func TestGridCellsAreRowMajor(t *testing.T) {
	g := newGrid()
	g.set(2, 3, "c", StyleNone)
	g.set(1, 2, "b", StyleNone)
	g.set(2, 1, "a", StyleNone)
	g.set(1, 1, "x", StyleNone)
	g.set(1, 1, nil, StyleNone)

	var got []any
	for _, e := range g.Cells() {
		got = append(got, e.Value)
	}
	assert.Equal(t, []any{"b", "a", "c"}, got)
	assert.Equal(t, 3, g.Len())

	rows, cols := g.Bounds()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, "bold", StyleBold.String())
	assert.Equal(t, "body", StyleBody.String())
	assert.Equal(t, "none", StyleNone.String())
}
