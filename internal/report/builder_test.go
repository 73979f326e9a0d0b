package report

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/fx-window-report/internal/timeparse"
	"github.com/ginjaninja78/fx-window-report/internal/types"
)

var (
	windowStart = timeparse.Clock(9, 0, 0)
	windowEnd   = timeparse.Clock(13, 30, 0)
	fixedNow    = time.Date(2026, 10, 14, 15, 4, 5, 0, time.UTC)
)

func testHeader() types.RawRow {
	return types.NewRawRow("Hora", "Precio", "Monto", "Moneda")
}

func testBuilder() *Builder {
	b := NewBuilder()
	b.Now = func() time.Time { return fixedNow }
	return b
}

// minuteRows returns a header plus n rows at 09:00, 09:01, ... with price
// 900+i and amount 10*i.
func minuteRows(n int) []types.RawRow {
	rows := []types.RawRow{testHeader()}
	for i := 0; i < n; i++ {
		t := timeparse.Clock(9, 0, 0) + timeparse.TimeOfDay(time.Duration(i)*time.Minute)
		rows = append(rows, types.NewRawRow(t.String(), 900.0+float64(i), float64(10*i), "USD"))
	}
	return rows
}

func TestBuildInsufficientData(t *testing.T) {
	b := testBuilder()

	rep, err := b.Build(nil, windowStart, windowEnd)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Nil(t, rep)

	rep, err = b.Build([]types.RawRow{testHeader()}, windowStart, windowEnd)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Nil(t, rep)
}

func TestBuildInvalidWindow(t *testing.T) {
	_, err := testBuilder().Build(minuteRows(1), windowEnd, windowStart)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestBuildInvalidLayout(t *testing.T) {
	b := testBuilder()
	b.Layout.LastDataRow = 1
	_, err := b.Build(minuteRows(1), windowStart, windowEnd)
	assert.Error(t, err)
}

func TestBuildNoRecordsInWindow(t *testing.T) {
	rows := []types.RawRow{
		testHeader(),
		types.NewRawRow("08:59", 1.0, 1.0, "USD"),
		types.NewRawRow("14:00", 2.0, 2.0, "USD"),
		types.NewRawRow("gibberish", 3.0, 3.0, "USD"),
	}
	rep, err := testBuilder().Build(rows, windowStart, windowEnd)
	require.NoError(t, err)

	assert.Empty(t, rep.Observations)
	assert.Nil(t, rep.Stats)
	assert.Equal(t, 0, rep.Blocks)
	assert.Equal(t, 5, rep.Grid.Len(), "title plus four header labels")

	assert.Equal(t, "Reporte Tipo de Cambio: 14.10.2026", rep.Title())
	assert.Equal(t, []any{"Hora", "Precio", "Monto", "Moneda"}, rep.Grid.Row(HeaderRow))

	for _, e := range rep.Grid.Cells() {
		assert.Equal(t, StyleBody, e.Style, "cell %v", e.Coord)
	}
}

func TestBuildSingleRecordStatsPlacement(t *testing.T) {
	rows := []types.RawRow{
		testHeader(),
		types.NewRawRow("10:00", 18.12345, 250.9, "USD"),
	}
	rep, err := testBuilder().Build(rows, windowStart, windowEnd)
	require.NoError(t, err)
	require.NotNil(t, rep.Stats)

	st := rep.Stats
	assert.Equal(t, 4, st.Row)
	assert.Equal(t, 1, st.Col)
	assert.Equal(t, 3, st.AmountCol)

	assert.Equal(t, LabelMin, rep.Grid.Value(4, 1))
	assert.Equal(t, 18.1235, rep.Grid.Value(4, 2))
	assert.Equal(t, LabelMax, rep.Grid.Value(5, 1))
	assert.Equal(t, 18.1235, rep.Grid.Value(5, 2))
	assert.Equal(t, LabelMean, rep.Grid.Value(6, 1))
	assert.Equal(t, 18.1235, rep.Grid.Value(6, 2))
	assert.Equal(t, int64(250), rep.Grid.Value(4, 3))
	assert.Equal(t, LabelVolatility, rep.Grid.Value(5, 3))
	assert.Equal(t, 0.0, rep.Grid.Value(6, 3))

	// The record itself sits on the first data row.
	assert.Equal(t, []any{"10:00", 18.12345, 250.9, "USD"}, rep.Grid.Row(3))
}

func TestBuildStatisticsValues(t *testing.T) {
	rows := []types.RawRow{
		testHeader(),
		types.NewRawRow("09:10", 1.0, 100.7, nil),
		types.NewRawRow("09:20", "2", 200.6, nil),
		types.NewRawRow("09:30", 3.0, nil, nil),
		types.NewRawRow("09:40", 4.0, "n/a", nil),
	}
	rep, err := testBuilder().Build(rows, windowStart, windowEnd)
	require.NoError(t, err)
	require.NotNil(t, rep.Stats)

	st := rep.Stats
	assert.Equal(t, 1.0, st.Min)
	assert.Equal(t, 4.0, st.Max)
	assert.Equal(t, 2.5, st.Mean)
	assert.InDelta(t, math.Sqrt(1.25)*1000, st.StdDev, 0.0001)
	assert.Equal(t, int64(301), st.Sum)
	assert.Equal(t, 4, st.PriceCount)
	assert.Equal(t, 2, st.AmountCount)

	require.Len(t, rep.Issues, 1)
	assert.Equal(t, IssueNonNumeric, rep.Issues[0].Kind)
	assert.Equal(t, 5, rep.Issues[0].SourceIndex)
	assert.Equal(t, "amount", rep.Issues[0].Column)
}

func TestBuildNonNumericPriceIsFlagged(t *testing.T) {
	rows := []types.RawRow{
		testHeader(),
		types.NewRawRow("09:10", 10.0, 1.0, nil),
		types.NewRawRow("09:20", "abc", 1.0, nil),
		types.NewRawRow("09:30", nil, 1.0, nil),
		types.NewRawRow("09:40", 20.0, 1.0, nil),
	}
	rep, err := testBuilder().Build(rows, windowStart, windowEnd)
	require.NoError(t, err)
	require.NotNil(t, rep.Stats)

	assert.Equal(t, 15.0, rep.Stats.Mean)
	assert.Equal(t, 2, rep.Stats.PriceCount)

	var flagged []int
	for _, is := range rep.Issues {
		if is.Kind == IssueNonNumeric && is.Column == "price" {
			flagged = append(flagged, is.SourceIndex)
		}
	}
	assert.Equal(t, []int{3, 4}, flagged)
}

func TestBuildNoNumericPriceOmitsStats(t *testing.T) {
	rows := []types.RawRow{
		testHeader(),
		types.NewRawRow("09:10", "x", 1.0, nil),
		types.NewRawRow("09:20", nil, 1.0, nil),
	}
	rep, err := testBuilder().Build(rows, windowStart, windowEnd)
	require.NoError(t, err)

	assert.Nil(t, rep.Stats)
	assert.Len(t, rep.Observations, 2)
	assert.Equal(t, IssueNoPrices, rep.Issues[len(rep.Issues)-1].Kind)
	for _, e := range rep.Grid.Cells() {
		assert.Equal(t, StyleBody, e.Style)
	}
}

func TestBuildStableSortKeepsSourceOrderForTies(t *testing.T) {
	rows := []types.RawRow{
		testHeader(),
		types.NewRawRow("10:00", 1.0, 0.0, "a"),
		types.NewRawRow("09:30", 2.0, 0.0, "b"),
		types.NewRawRow("10:00:00", 3.0, 0.0, "c"),
		types.NewRawRow("10:00 AM", 4.0, 0.0, "d"),
		types.NewRawRow("09:30", 5.0, 0.0, "e"),
	}
	rep, err := testBuilder().Build(rows, windowStart, windowEnd)
	require.NoError(t, err)

	var extras []any
	var indexes []int
	for _, o := range rep.Observations {
		extras = append(extras, o.Row[types.ColExtra])
		indexes = append(indexes, o.SourceIndex)
	}
	assert.Equal(t, []any{"b", "e", "a", "c", "d"}, extras)
	assert.Equal(t, []int{3, 6, 2, 4, 5}, indexes)
}

func TestBuildWindowIsInclusive(t *testing.T) {
	rows := []types.RawRow{
		testHeader(),
		types.NewRawRow("08:59:59", 1.0, 0.0, nil),
		types.NewRawRow("09:00", 2.0, 0.0, nil),
		types.NewRawRow("1:30 PM", 3.0, 0.0, nil),
		types.NewRawRow("13:30:01", 4.0, 0.0, nil),
	}
	rep, err := testBuilder().Build(rows, windowStart, windowEnd)
	require.NoError(t, err)

	require.Len(t, rep.Observations, 2)
	assert.Equal(t, windowStart, rep.Observations[0].Time)
	assert.Equal(t, windowEnd, rep.Observations[1].Time)
}

func TestBuildAcceptsTypedTimes(t *testing.T) {
	rows := []types.RawRow{
		testHeader(),
		types.NewRawRow(time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC), 1.0, 0.0, nil),
		types.NewRawRow(timeparse.Clock(10, 0, 0), 2.0, 0.0, nil),
	}
	rep, err := testBuilder().Build(rows, windowStart, windowEnd)
	require.NoError(t, err)
	require.Len(t, rep.Observations, 2)
	assert.Equal(t, 3, rep.Observations[0].SourceIndex)
}

func TestBuildPaginatesIntoBlocks(t *testing.T) {
	rep, err := testBuilder().Build(minuteRows(130), windowStart, windowEnd)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Blocks)

	// Record 1, 63, 64, 126, 127, 130.
	assert.Equal(t, "09:00:00", rep.Grid.Value(3, 1))
	assert.Equal(t, "10:02:00", rep.Grid.Value(65, 1))
	assert.Equal(t, "10:03:00", rep.Grid.Value(3, 5))
	assert.Equal(t, "11:05:00", rep.Grid.Value(65, 5))
	assert.Equal(t, "11:06:00", rep.Grid.Value(3, 9))
	assert.Equal(t, "11:09:00", rep.Grid.Value(6, 9))

	// Header copied into every used block and nowhere else.
	for block := 0; block < rep.Blocks; block++ {
		col := 1 + block*4
		for c := 0; c < 4; c++ {
			assert.Equal(t, rep.Header[c], rep.Grid.Value(HeaderRow, col+c), "block %d col %d", block, col+c)
		}
	}
	assert.Nil(t, rep.Grid.Value(HeaderRow, 13))

	// Statistics appear once, anchored to block 2.
	require.NotNil(t, rep.Stats)
	assert.Equal(t, 7, rep.Stats.Row)
	assert.Equal(t, 9, rep.Stats.Col)
	assert.Equal(t, 11, rep.Stats.AmountCol)
	assert.Equal(t, LabelMin, rep.Grid.Value(7, 9))
	assert.Equal(t, LabelVolatility, rep.Grid.Value(8, 11))

	count := 0
	for _, e := range rep.Grid.Cells() {
		if e.Value == LabelMin {
			count++
		}
	}
	assert.Equal(t, 1, count)

	_, cols := rep.Grid.Bounds()
	assert.Equal(t, 12, cols)
	assert.Empty(t, rep.Issues)
}

func TestBuildStylingKeepsStatsBold(t *testing.T) {
	rep, err := testBuilder().Build(minuteRows(5), windowStart, windowEnd)
	require.NoError(t, err)
	st := rep.Stats
	require.NotNil(t, st)

	for _, e := range rep.Grid.Cells() {
		inStats := e.Row >= st.Row && e.Row <= st.Row+2 && e.Col >= st.Col && e.Col <= st.AmountCol+1
		if inStats {
			assert.Equal(t, StyleBold, e.Style, "stats cell %v", e.Coord)
		} else {
			assert.Equal(t, StyleBody, e.Style, "cell %v", e.Coord)
		}
	}
}

func TestBuildEmptyTextCellsAreNotStyled(t *testing.T) {
	rows := []types.RawRow{
		testHeader(),
		types.NewRawRow("09:30", 1.0, 1.0, ""),
	}
	rep, err := testBuilder().Build(rows, windowStart, windowEnd)
	require.NoError(t, err)

	cell, ok := rep.Grid.Cell(3, 4)
	require.True(t, ok)
	assert.Equal(t, StyleNone, cell.Style)
}

func TestBuildFlagsStatsOverflow(t *testing.T) {
	tests := []struct {
		records  int
		overflow bool
	}{
		{60, false}, // stats rows 63-65
		{61, true},  // stats rows 64-66
		{63, true},  // stats rows 66-68
		{64, false}, // second block, stats rows 4-6
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d records", tt.records), func(t *testing.T) {
			rep, err := testBuilder().Build(minuteRows(tt.records), windowStart, windowEnd)
			require.NoError(t, err)

			found := false
			for _, is := range rep.Issues {
				if is.Kind == IssueStatsOverflow {
					found = true
				}
			}
			assert.Equal(t, tt.overflow, found)
			if tt.overflow {
				assert.Equal(t, LabelMean, rep.Grid.Value(rep.Stats.Row+2, rep.Stats.Col))
			}
		})
	}
}

func TestIssueString(t *testing.T) {
	is := Issue{Kind: IssueNonNumeric, SourceIndex: 7, Column: "price", Value: "x", Message: "bad"}
	assert.Equal(t, "[non_numeric] row 7 price=x: bad", is.String())
	assert.Equal(t, "[stats_overflow] late", Issue{Kind: IssueStatsOverflow, Message: "late"}.String())
}

func TestRoundUsesExactBinaryValue(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.00015, 0.0001}, // stored as 0.000149999...
		{0.03125, 0.0312}, // exact tie, to even
		{0.09375, 0.0938}, // exact tie, to even
		{950.5, 950.5},
		{1.23456789, 1.2346},
		{-2.71828, -2.7183},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, round(tt.in))
		})
	}
}
