// =============================================================================
// FX Window Report - Time Parser
// =============================================================================
//
// Parse normalizes one heterogeneous time cell into a TimeOfDay.
//
// RESOLUTION ORDER:
//   1. Missing values (nil, blank text, NaN)       -> no value
//   2. TimeOfDay                                   -> as-is
//   3. time.Time                                   -> clock component
//   4. Text, matched against the fixed layouts below, first match wins
//   5. Best-effort date/time guess (dateparse)     -> clock component
//   6. Anything else                               -> no value
//
// The fixed layout list is ordered and covered by parser_test.go. Adding a
// layout means adding its cases to that table.
//
// =============================================================================

package timeparse

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrUnrecognized is returned by ParseStrict when no fixed layout matches.
var ErrUnrecognized = errors.New("unrecognized time of day")

// Layout pairs a Go reference layout with the human-readable pattern it
// stands for.
type Layout struct {
	Pattern string
	Go      string
}

// Layouts is the fixed, ordered list of recognized text formats.
//
// Go's single-letter hour and minute verbs accept one or two digits, which
// matches how spreadsheets print times ("9:05" and "09:05" both occur).
// Input is upper-cased before matching so "pm" and "PM" are equivalent.
var Layouts = []Layout{
	{Pattern: "HH:MM", Go: "15:4"},
	{Pattern: "HH:MM:SS", Go: "15:4:5"},
	{Pattern: "hh:MM AM/PM", Go: "3:4 PM"},
	{Pattern: "hh:MM:SS AM/PM", Go: "3:4:5 PM"},
	{Pattern: "hhAM/PM", Go: "3PM"},
	{Pattern: "hh AM/PM", Go: "3 PM"},
}

// Parse converts value to a time of day.
//
// It never fails loudly: anything it cannot interpret yields false.
func Parse(value any) (TimeOfDay, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case TimeOfDay:
		return v, true
	case *TimeOfDay:
		if v == nil {
			return 0, false
		}
		return *v, true
	case time.Time:
		return FromTime(v), true
	case *time.Time:
		if v == nil {
			return 0, false
		}
		return FromTime(*v), true
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
	}

	s := strings.TrimSpace(fmt.Sprint(value))
	if s == "" {
		return 0, false
	}
	if t, ok := matchFixed(s); ok {
		return t, true
	}
	return guess(s)
}

// ParseStrict accepts only the fixed layouts. It is used for configured
// window bounds, where a lenient guess would hide typos.
func ParseStrict(s string) (TimeOfDay, error) {
	if t, ok := matchFixed(strings.TrimSpace(s)); ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnrecognized, s)
}

// MustParse is like ParseStrict but panics on error. Intended for literals.
func MustParse(s string) TimeOfDay {
	t, err := ParseStrict(s)
	if err != nil {
		panic(err)
	}
	return t
}

func matchFixed(s string) (TimeOfDay, bool) {
	upper := strings.ToUpper(s)
	zeroHour := leadingHour(upper) == 0
	for _, l := range Layouts {
		// Go's "3" accepts hour 0; a 12-hour clock starts at 1.
		if zeroHour && l.twelveHour() {
			continue
		}
		if t, err := time.Parse(l.Go, upper); err == nil {
			return FromTime(t), true
		}
	}
	return 0, false
}

func (l Layout) twelveHour() bool { return strings.Contains(l.Go, "PM") }

// leadingHour returns the value of the leading digits of s, or -1 when s
// does not start with a digit.
func leadingHour(s string) int {
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		n = n*10 + int(s[digits]-'0')
		digits++
		if digits > 2 {
			return -1
		}
	}
	if digits == 0 {
		return -1
	}
	return n
}

// guess is the last-resort step. Ambiguous numeric dates are read month
// first and retried day first when the month is out of range, so
// "14/10/2026 13:45" parses. dateparse has panicked on malformed input in
// the past, so a panic is treated as "no value" as well.
func guess(s string) (t TimeOfDay, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			t, ok = 0, false
		}
	}()
	parsed, err := dateparse.ParseIn(s, time.UTC, dateparse.RetryAmbiguousDateWithSwap(true))
	if err != nil {
		return 0, false
	}
	return FromTime(parsed), true
}
