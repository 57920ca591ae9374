package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		raw     string
		minutes int
		wantErr bool
	}{
		{"08:00", 480, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"09:30", 570, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"-1:30", 0, true},
		{"noon", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.raw)
		if tc.wantErr {
			assert.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.minutes, got, tc.raw)
	}
}

func TestFormatClockRoundTrip(t *testing.T) {
	for _, minutes := range []int{0, 480, 570, 1439} {
		parsed, err := ParseClock(FormatClock(minutes))
		require.NoError(t, err)
		assert.Equal(t, minutes, parsed)
	}
}

func TestIntervalOverlapsIsSymmetric(t *testing.T) {
	a := Interval{Day: DayMonday, Start: 540, End: 660}
	b := Interval{Day: DayMonday, Start: 600, End: 720}

	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))
}

func TestIntervalOverlapsDifferentDays(t *testing.T) {
	a := Interval{Day: DayMonday, Start: 540, End: 660}
	b := Interval{Day: DayTuesday, Start: 540, End: 660}

	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
}

func TestIntervalBackToBackDoesNotOverlap(t *testing.T) {
	a := Interval{Day: DayMonday, Start: 540, End: 600}
	b := Interval{Day: DayMonday, Start: 600, End: 660}

	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
}

func TestIntervalContainment(t *testing.T) {
	outer := Interval{Day: DayFriday, Start: 480, End: 720}
	inner := Interval{Day: DayFriday, Start: 540, End: 600}

	assert.True(t, outer.Overlaps(inner))
	assert.True(t, inner.Overlaps(outer))
}

func TestIntervalZeroLengthOverlapsNothing(t *testing.T) {
	empty := Interval{Day: DayMonday, Start: 600, End: 600}
	busy := Interval{Day: DayMonday, Start: 540, End: 660}

	assert.False(t, empty.Overlaps(busy))
	assert.False(t, busy.Overlaps(empty))

	// An inverted range is degenerate the same way.
	inverted := Interval{Day: DayMonday, Start: 660, End: 540}
	assert.False(t, inverted.Overlaps(busy))
	assert.False(t, busy.Overlaps(inverted))
}

func TestTimetableCanTransition(t *testing.T) {
	cases := []struct {
		from    TimetableStatus
		to      TimetableStatus
		allowed bool
	}{
		{TimetableStatusDraft, TimetableStatusPublished, true},
		{TimetableStatusDraft, TimetableStatusArchived, true},
		{TimetableStatusDraft, TimetableStatusDraft, false},
		{TimetableStatusPublished, TimetableStatusDraft, true},
		{TimetableStatusPublished, TimetableStatusArchived, true},
		{TimetableStatusPublished, TimetableStatusPublished, false},
		{TimetableStatusArchived, TimetableStatusDraft, false},
		{TimetableStatusArchived, TimetableStatusPublished, false},
		{TimetableStatusArchived, TimetableStatusArchived, false},
	}
	for _, tc := range cases {
		timetable := Timetable{Status: tc.from}
		assert.Equal(t, tc.allowed, timetable.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTimetableCanModifyOnlyDraft(t *testing.T) {
	assert.True(t, Timetable{Status: TimetableStatusDraft}.CanModify())
	assert.False(t, Timetable{Status: TimetableStatusPublished}.CanModify())
	assert.False(t, Timetable{Status: TimetableStatusArchived}.CanModify())
}

func TestRoomSuitableFor(t *testing.T) {
	lectureHall := Room{Type: RoomTypeLectureHall}
	lab := Room{Type: RoomTypeLaboratory}
	other := Room{Type: RoomTypeOther}

	assert.True(t, lectureHall.SuitableFor(SessionTypeLecture))
	assert.False(t, lectureHall.SuitableFor(SessionTypeLab))
	assert.True(t, lab.SuitableFor(SessionTypeLab))
	assert.False(t, lab.SuitableFor(SessionTypeLecture))
	assert.True(t, other.SuitableFor(SessionTypeLab))
	assert.True(t, lab.SuitableFor(SessionTypeWorkshop))
}
