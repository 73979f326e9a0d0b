package report

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/fx-window-report/internal/types"
)

// Statistic labels as they appear on the sheet.
const (
	LabelMin        = "Mínimo"
	LabelMax        = "Máximo"
	LabelMean       = "Promedio"
	LabelVolatility = "Volatilidad"
)

// statsDecimals is the rounding precision of the price statistics.
const statsDecimals = 4

// volatilityScale multiplies the population standard deviation.
const volatilityScale = 1000

// Stats is the summary written under the last block.
type Stats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64 // population standard deviation of price, x1000
	Sum    int64   // amount total, truncated toward zero

	// PriceCount and AmountCount are the numbers of values that entered each
	// computation after non-numeric values were skipped.
	PriceCount  int
	AmountCount int

	// Row and Col address the "Mínimo" label; AmountCol is Col+2.
	Row       int
	Col       int
	AmountCol int
}

// computeStats summarizes price and amount over all observations. Values
// that cannot be read as numbers are skipped and returned as issues; a
// missing amount is skipped silently, matching a NaN-ignoring sum.
//
// ok is false when no price is numeric, in which case no statistics exist.
func computeStats(obs []Observation) (st Stats, issues []Issue, ok bool) {
	prices := make([]float64, 0, len(obs))
	var sum float64

	for _, o := range obs {
		price := o.Row[types.ColPrice]
		if v, good := types.ToFloat(price); good {
			prices = append(prices, v)
		} else {
			issues = append(issues, Issue{
				Kind:        IssueNonNumeric,
				SourceIndex: o.SourceIndex,
				Column:      "price",
				Value:       price,
				Message:     "price is not numeric; excluded from min/max/mean/volatility",
			})
		}

		amount := o.Row[types.ColAmount]
		if types.IsEmpty(amount) {
			continue
		}
		if v, good := types.ToFloat(amount); good {
			sum += v
			st.AmountCount++
		} else {
			issues = append(issues, Issue{
				Kind:        IssueNonNumeric,
				SourceIndex: o.SourceIndex,
				Column:      "amount",
				Value:       amount,
				Message:     "amount is not numeric; excluded from the sum",
			})
		}
	}

	if len(prices) == 0 {
		issues = append(issues, Issue{
			Kind:    IssueNoPrices,
			Message: fmt.Sprintf("none of the %d in-window records has a numeric price; statistics omitted", len(obs)),
		})
		return Stats{}, issues, false
	}

	lo, hi := prices[0], prices[0]
	var total float64
	for _, p := range prices {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
		total += p
	}
	mean := total / float64(len(prices))

	st.Min = round(lo)
	st.Max = round(hi)
	st.Mean = round(mean)
	st.StdDev = round(populationStdDev(prices, mean) * volatilityScale)
	st.Sum = int64(sum)
	st.PriceCount = len(prices)
	return st, issues, true
}

// populationStdDev uses denominator N.
func populationStdDev(xs []float64, mean float64) float64 {
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}

// exactExp keeps every binary digit of a float64 in NewFromFloatWithExponent.
const exactExp = -1074

// round rounds the exact binary value of v, ties to even. 0.00015 is stored
// just below the tie and becomes 0.0001.
func round(v float64) float64 {
	return decimal.NewFromFloatWithExponent(v, exactExp).RoundBank(statsDecimals).InexactFloat64()
}
