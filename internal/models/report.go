package models

// WorkloadReport aggregates a lecturer's weekly scheduled minutes.
type WorkloadReport struct {
	LecturerID       string  `json:"lecturer_id"`
	TimetableID      string  `json:"timetable_id,omitempty"`
	TotalMinutes     int     `json:"total_minutes"`
	TotalHours       float64 `json:"total_hours"`
	ThresholdMinutes int     `json:"threshold_minutes"`
	Overload         bool    `json:"overload"`
	EntryCount       int     `json:"entry_count"`
}

// ConflictPair describes two entries of one timetable colliding on a
// resource dimension.
type ConflictPair struct {
	Dimension string         `json:"dimension"`
	First     TimetableEntry `json:"first"`
	Second    TimetableEntry `json:"second"`
}

// CapacityIssue flags an entry whose room is too small for the expected
// enrolment, or whose enrolment is unknown when the caller asked to report
// unknown counts.
type CapacityIssue struct {
	EntryID          string `json:"entry_id"`
	CourseID         string `json:"course_id"`
	RoomID           string `json:"room_id"`
	RoomCapacity     int    `json:"room_capacity"`
	ExpectedStudents int    `json:"expected_students"`
	Unknown          bool   `json:"unknown,omitempty"`
}

// WorkloadWarning is emitted once per lecturer exceeding the threshold.
type WorkloadWarning struct {
	LecturerID   string  `json:"lecturer_id"`
	TotalMinutes int     `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"`
	Threshold    int     `json:"threshold_minutes"`
}

// TimetableReport is the full analysis of one timetable.
type TimetableReport struct {
	TimetableID       string            `json:"timetable_id"`
	TotalEntries      int               `json:"total_entries"`
	LecturerConflicts []ConflictPair    `json:"lecturer_conflicts"`
	RoomConflicts     []ConflictPair    `json:"room_conflicts"`
	CapacityIssues    []CapacityIssue   `json:"capacity_issues"`
	WorkloadWarnings  []WorkloadWarning `json:"workload_warnings"`
}

// PublishValidation is the pre-publish verdict derived from a report.
type PublishValidation struct {
	Valid  bool            `json:"valid"`
	Report TimetableReport `json:"report"`
}

// SuggestedRoom is the room slice carried inside a slot suggestion.
type SuggestedRoom struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Capacity int      `json:"capacity"`
	Type     RoomType `json:"type"`
}

// SlotSuggestion is one feasible (day, time range, room) proposal.
type SlotSuggestion struct {
	Day       string        `json:"day"`
	StartTime string        `json:"start_time"`
	EndTime   string        `json:"end_time"`
	Room      SuggestedRoom `json:"room"`
}
