// =============================================================================
// FX Window Report - Report Builder
// =============================================================================
//
// The builder turns "raw rows + time window" into a laid-out grid.
//
// BUILD STEPS:
//   1. Validate input (header + at least one data row, start <= end)
//   2. Split header from data rows (data rows are numbered from 2)
//   3. Parse each time cell and keep rows inside the inclusive window
//   4. Stable-sort the kept rows by time of day
//   5. Write the title and header
//   6. Fold record placements into the grid, copying the header once per block
//   7. Compute global statistics and place them under the last block
//   8. Apply the body style to everything outside the statistics block
//
// The builder holds no state between calls; one Builder can serve many
// reports, including concurrently.
//
// =============================================================================

package report

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ginjaninja78/fx-window-report/internal/timeparse"
	"github.com/ginjaninja78/fx-window-report/internal/types"
)

// recordWidth is the number of cells a record occupies.
const recordWidth = types.ColumnsPerRow

// firstSourceIndex is the source row number of the first data row.
const firstSourceIndex = 2

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInsufficientData means the input has no header or no data row.
	ErrInsufficientData = errors.New("insufficient data: need a header row and at least one data row")

	// ErrInvalidWindow means the window start is after its end.
	ErrInvalidWindow = errors.New("invalid time window")
)

// =============================================================================
// ISSUES
// =============================================================================

// IssueKind classifies a non-fatal data problem found during a build.
type IssueKind string

const (
	// IssueNonNumeric is a price or amount that could not be read as a number.
	IssueNonNumeric IssueKind = "non_numeric"

	// IssueNoPrices means no in-window record had a numeric price.
	IssueNoPrices IssueKind = "no_numeric_prices"

	// IssueStatsOverflow means the statistics rows run past the last data
	// row of the block band. The cells are still written there.
	IssueStatsOverflow IssueKind = "stats_overflow"
)

// Issue is a non-fatal problem attached to a report.
type Issue struct {
	Kind IssueKind

	// SourceIndex is the 1-based source row, 0 when not row specific.
	SourceIndex int

	// Column names the offending field ("price", "amount"), if any.
	Column string

	// Value is the offending cell value, if any.
	Value any

	Message string
}

func (i Issue) String() string {
	if i.SourceIndex > 0 {
		return fmt.Sprintf("[%s] row %d %s=%v: %s", i.Kind, i.SourceIndex, i.Column, i.Value, i.Message)
	}
	return fmt.Sprintf("[%s] %s", i.Kind, i.Message)
}

// =============================================================================
// OBSERVATIONS AND REPORT
// =============================================================================

// Observation is a source row whose time parsed and fell inside the window.
type Observation struct {
	Time        timeparse.TimeOfDay
	SourceIndex int
	Row         types.RawRow
}

// Report is the result of one build.
type Report struct {
	Grid         *Grid
	Header       types.RawRow
	Observations []Observation

	// Stats is nil when there are no in-window records or no numeric price.
	Stats *Stats

	// Blocks is the number of blocks that received at least one record.
	Blocks int

	Issues      []Issue
	GeneratedAt time.Time
}

// Title returns the text written at (1,1).
func (r *Report) Title() string {
	s, _ := r.Grid.Value(TitleRow, 1).(string)
	return s
}

// =============================================================================
// BUILDER
// =============================================================================

// Default title settings.
const (
	DefaultTitlePrefix = "Reporte Tipo de Cambio"
	DefaultDateLayout  = "02.01.2006"
)

// Builder lays out reports. The zero value is not usable; use NewBuilder.
type Builder struct {
	Layout      Layout
	TitlePrefix string
	DateLayout  string

	// Now supplies the report date. It is evaluated once per build.
	Now func() time.Time
}

// NewBuilder returns a builder with the default layout and title.
func NewBuilder() *Builder {
	return &Builder{
		Layout:      DefaultLayout(),
		TitlePrefix: DefaultTitlePrefix,
		DateLayout:  DefaultDateLayout,
		Now:         time.Now,
	}
}

// Select parses and filters the data rows (rows[1:]) and returns the kept
// observations sorted by time of day. Equal times keep source order.
func Select(rows []types.RawRow, start, end timeparse.TimeOfDay) []Observation {
	var kept []Observation
	for i := 1; i < len(rows); i++ {
		t, ok := timeparse.Parse(rows[i][types.ColTime])
		if !ok || !t.Within(start, end) {
			continue
		}
		kept = append(kept, Observation{
			Time:        t,
			SourceIndex: i - 1 + firstSourceIndex,
			Row:         rows[i],
		})
	}
	slices.SortStableFunc(kept, func(a, b Observation) int {
		return a.Time.Compare(b.Time)
	})
	return kept
}

// Build produces the report for rows (header first) and the inclusive
// window [start, end].
func (b *Builder) Build(rows []types.RawRow, start, end timeparse.TimeOfDay) (*Report, error) {
	if err := b.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: got %d row(s)", ErrInsufficientData, len(rows))
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow, start, end)
	}

	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}

	header := rows[0]
	obs := Select(rows, start, end)
	grid := newGrid()

	rep := &Report{
		Grid:         grid,
		Header:       header,
		Observations: obs,
		Blocks:       b.Layout.Blocks(len(obs)),
		GeneratedAt:  now,
	}

	grid.set(TitleRow, 1, fmt.Sprintf("%s: %s", b.TitlePrefix, now.Format(b.DateLayout)), StyleBold)
	writeHeader(grid, header, 1)

	for i, o := range obs {
		p := b.Layout.Place(i + 1)
		if p.FirstInBlock {
			writeHeader(grid, header, p.Col)
		}
		for c := 0; c < recordWidth; c++ {
			grid.set(p.Row, p.Col+c, o.Row[c], StyleNone)
		}
	}

	if len(obs) > 0 {
		st, issues, ok := computeStats(obs)
		rep.Issues = append(rep.Issues, issues...)
		if ok {
			st.Row, st.Col = b.Layout.StatsAnchor(len(obs))
			st.AmountCol = st.Col + 2
			writeStats(grid, st)
			rep.Stats = &st

			if st.Row+2 > b.Layout.LastDataRow {
				rep.Issues = append(rep.Issues, Issue{
					Kind: IssueStatsOverflow,
					Message: fmt.Sprintf("statistics occupy rows %d-%d, past last data row %d",
						st.Row, st.Row+2, b.Layout.LastDataRow),
				})
			}
		}
	}

	applyBodyStyle(grid, rep.Stats)
	return rep, nil
}

func writeHeader(g *Grid, header types.RawRow, col int) {
	for c := 0; c < recordWidth; c++ {
		g.set(HeaderRow, col+c, header[c], StyleNone)
	}
}

func writeStats(g *Grid, st Stats) {
	g.set(st.Row, st.Col, LabelMin, StyleBold)
	g.set(st.Row, st.Col+1, st.Min, StyleBold)
	g.set(st.Row+1, st.Col, LabelMax, StyleBold)
	g.set(st.Row+1, st.Col+1, st.Max, StyleBold)
	g.set(st.Row+2, st.Col, LabelMean, StyleBold)
	g.set(st.Row+2, st.Col+1, st.Mean, StyleBold)
	g.set(st.Row, st.AmountCol, st.Sum, StyleBold)
	g.set(st.Row+1, st.AmountCol, LabelVolatility, StyleBold)
	g.set(st.Row+2, st.AmountCol, st.StdDev, StyleBold)
}

// applyBodyStyle marks every non-empty cell StyleBody, except the rectangle
// [Row, Row+2] x [Col, AmountCol+1] when statistics exist.
func applyBodyStyle(g *Grid, st *Stats) {
	for c, cell := range g.cells {
		if cell.Value == "" {
			continue
		}
		if st != nil && c.Row >= st.Row && c.Row <= st.Row+2 &&
			c.Col >= st.Col && c.Col <= st.AmountCol+1 {
			continue
		}
		cell.Style = StyleBody
		g.cells[c] = cell
	}
}
