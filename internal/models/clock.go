package models

import (
	"fmt"
	"strings"
)

// Day-of-week names used on the wire and in storage. Scheduling weeks start
// on Monday; the slot suggestion search only enumerates Monday through
// Friday.
const (
	DayMonday    = "MONDAY"
	DayTuesday   = "TUESDAY"
	DayWednesday = "WEDNESDAY"
	DayThursday  = "THURSDAY"
	DayFriday    = "FRIDAY"
	DaySaturday  = "SATURDAY"
	DaySunday    = "SUNDAY"
)

// WeekDays lists all valid day names in week order.
var WeekDays = []string{
	DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday, DaySaturday, DaySunday,
}

// TeachingDays is the Monday-Friday subset scanned by the suggestion search.
var TeachingDays = []string{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday}

var dayIndex = map[string]int{
	DayMonday:    1,
	DayTuesday:   2,
	DayWednesday: 3,
	DayThursday:  4,
	DayFriday:    5,
	DaySaturday:  6,
	DaySunday:    7,
}

// IsValidDay reports whether name is a recognised day-of-week.
func IsValidDay(name string) bool {
	_, ok := dayIndex[strings.ToUpper(strings.TrimSpace(name))]
	return ok
}

// NormalizeDay upper-cases and trims a day name.
func NormalizeDay(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// DayOrder returns the 1-based week position of a day name, 0 for unknown.
func DayOrder(name string) int {
	return dayIndex[NormalizeDay(name)]
}

// ParseClock converts an "HH:MM" wall-clock string into minutes since
// midnight. Times are minute resolution; 24:00 is not a valid endpoint.
func ParseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	var h, m int
	if _, err := fmt.Sscanf(raw, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("parse clock %q: out of range", raw)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Interval is a day-of-week bound, half-open [Start, End) minute range.
type Interval struct {
	Day   string
	Start int
	End   int
}

// Overlaps applies the half-open overlap test. Intervals on different days
// never overlap, and a zero-length interval overlaps nothing.
func (i Interval) Overlaps(other Interval) bool {
	if i.Start >= i.End || other.Start >= other.End {
		return false
	}
	if NormalizeDay(i.Day) != NormalizeDay(other.Day) {
		return false
	}
	return i.Start < other.End && other.Start < i.End
}
