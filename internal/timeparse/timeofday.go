// =============================================================================
// FX Window Report - Time Of Day
// =============================================================================
//
// TimeOfDay is a clock reading with no date attached. Spreadsheet exports mix
// plain text, formatted times and full timestamps in the same column; every
// one of them is reduced to a TimeOfDay before filtering and sorting.
//
// =============================================================================

package timeparse

import (
	"fmt"
	"time"
)

// TimeOfDay is the elapsed time since midnight, in [0, 24h).
type TimeOfDay time.Duration

// Clock builds a TimeOfDay from hour, minute and second.
func Clock(hour, minute, second int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second)
}

// FromTime extracts the clock component of a timestamp, in its own location.
func FromTime(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return Clock(h, m, s) + TimeOfDay(t.Nanosecond())
}

// Hour returns the hour, 0-23.
func (t TimeOfDay) Hour() int { return int(time.Duration(t) / time.Hour) }

// Minute returns the minute within the hour.
func (t TimeOfDay) Minute() int { return int(time.Duration(t) % time.Hour / time.Minute) }

// Second returns the second within the minute.
func (t TimeOfDay) Second() int { return int(time.Duration(t) % time.Minute / time.Second) }

// Compare returns -1, 0 or +1 depending on whether t is before, equal to or
// after u.
func (t TimeOfDay) Compare(u TimeOfDay) int {
	switch {
	case t < u:
		return -1
	case t > u:
		return 1
	}
	return 0
}

// Before reports whether t is earlier in the day than u.
func (t TimeOfDay) Before(u TimeOfDay) bool { return t < u }

// After reports whether t is later in the day than u.
func (t TimeOfDay) After(u TimeOfDay) bool { return t > u }

// Within reports whether start <= t <= end.
func (t TimeOfDay) Within(start, end TimeOfDay) bool {
	return t >= start && t <= end
}

// String formats the value as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}
