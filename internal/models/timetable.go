package models

import "time"

// TimetableStatus represents lifecycle phases of a timetable.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "DRAFT"
	TimetableStatusPublished TimetableStatus = "PUBLISHED"
	TimetableStatusArchived  TimetableStatus = "ARCHIVED"
)

// Timetable is a named, versioned collection of entries owned by a
// department/semester/academic-year tuple.
type Timetable struct {
	ID           string          `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Department   string          `db:"department" json:"department"`
	Semester     string          `db:"semester" json:"semester"`
	AcademicYear string          `db:"academic_year" json:"academic_year"`
	Status       TimetableStatus `db:"status" json:"status"`
	Version      int             `db:"version" json:"version"`
	PublishedAt  *time.Time      `db:"published_at" json:"published_at,omitempty"`
	PublishedBy  *string         `db:"published_by" json:"published_by,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// CanModify is the single gate consulted before any entry create, update or
// delete. Entries are mutable only while the timetable is a draft.
func (t Timetable) CanModify() bool {
	return t.Status == TimetableStatusDraft
}

// CanTransition reports whether the lifecycle permits moving to the target
// status. Archived is terminal; archiving is legal from both other states.
func (t Timetable) CanTransition(target TimetableStatus) bool {
	switch target {
	case TimetableStatusPublished:
		return t.Status == TimetableStatusDraft
	case TimetableStatusDraft:
		return t.Status == TimetableStatusPublished
	case TimetableStatusArchived:
		return t.Status != TimetableStatusArchived
	default:
		return false
	}
}

// TimetableFilter captures filtering criteria for listing timetables.
type TimetableFilter struct {
	Department   string
	Semester     string
	AcademicYear string
	Status       *TimetableStatus
	Page         int
	PageSize     int
}

// Session entry duration bounds, in minutes.
const (
	MinEntryDurationMinutes = 30
	MaxEntryDurationMinutes = 240
)

// TimetableEntry is one weekly-recurring session binding a course, a room and
// a lecturer to a day and minute-resolution time range inside a timetable.
type TimetableEntry struct {
	ID          string      `db:"id" json:"id"`
	TimetableID string      `db:"timetable_id" json:"timetable_id"`
	CourseID    string      `db:"course_id" json:"course_id"`
	RoomID      string      `db:"room_id" json:"room_id"`
	LecturerID  string      `db:"lecturer_id" json:"lecturer_id"`
	DayOfWeek   string      `db:"day_of_week" json:"day_of_week"`
	StartMinute int         `db:"start_minute" json:"start_minute"`
	EndMinute   int         `db:"end_minute" json:"end_minute"`
	Type        SessionType `db:"type" json:"type"`
	Notes       string      `db:"notes" json:"notes"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// DurationMinutes returns the entry length.
func (e TimetableEntry) DurationMinutes() int {
	return e.EndMinute - e.StartMinute
}

// Interval exposes the entry's day-bound time range.
func (e TimetableEntry) Interval() Interval {
	return Interval{Day: e.DayOfWeek, Start: e.StartMinute, End: e.EndMinute}
}

// Overlaps reports whether two entries occupy intersecting time on the same
// day. Resource identity is not considered here.
func (e TimetableEntry) Overlaps(other TimetableEntry) bool {
	return e.Interval().Overlaps(other.Interval())
}

// StartTime and EndTime render the boundary "HH:MM" representation.
func (e TimetableEntry) StartTime() string { return FormatClock(e.StartMinute) }

func (e TimetableEntry) EndTime() string { return FormatClock(e.EndMinute) }

// ConflictReport groups colliding stored entries by resource dimension. All
// three lists empty means the candidate is admissible.
type ConflictReport struct {
	Lecturer []TimetableEntry `json:"lecturer"`
	Room     []TimetableEntry `json:"room"`
	Course   []TimetableEntry `json:"course"`
}

// Empty reports whether no dimension collided.
func (r ConflictReport) Empty() bool {
	return len(r.Lecturer) == 0 && len(r.Room) == 0 && len(r.Course) == 0
}

// Total returns the number of colliding entries across dimensions.
func (r ConflictReport) Total() int {
	return len(r.Lecturer) + len(r.Room) + len(r.Course)
}

// EntryConflictError is returned when an entry write collides with stored
// entries. Conflicts are data for the caller to render, carried on the error
// so the 409 response can include them.
type EntryConflictError struct {
	Message string         `json:"message"`
	Report  ConflictReport `json:"report"`
}

// Error implements the error interface.
func (e *EntryConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
