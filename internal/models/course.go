package models

import "time"

// SessionType enumerates the kinds of weekly sessions a course holds.
type SessionType string

const (
	SessionTypeLecture  SessionType = "LECTURE"
	SessionTypeTutorial SessionType = "TUTORIAL"
	SessionTypeLab      SessionType = "LAB"
	SessionTypeSeminar  SessionType = "SEMINAR"
	SessionTypeWorkshop SessionType = "WORKSHOP"
)

// SessionTypes lists every valid session type.
var SessionTypes = []SessionType{
	SessionTypeLecture,
	SessionTypeTutorial,
	SessionTypeLab,
	SessionTypeSeminar,
	SessionTypeWorkshop,
}

// Course represents a taught course. Expected enrolment counts are not owned
// here; callers supply them per request when capacity checks are wanted.
type Course struct {
	ID                    string      `db:"id" json:"id"`
	Code                  string      `db:"code" json:"code"`
	Name                  string      `db:"name" json:"name"`
	WeeklyDurationMinutes int         `db:"weekly_duration_minutes" json:"weekly_duration_minutes"`
	SessionType           SessionType `db:"session_type" json:"session_type"`
	LecturerID            string      `db:"lecturer_id" json:"lecturer_id"`
	CreatedAt             time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time   `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures filtering criteria for listing courses.
type CourseFilter struct {
	LecturerID string
	Search     string
	Page       int
	PageSize   int
}

// Lecturer represents a teaching staff member.
type Lecturer struct {
	ID         string    `db:"id" json:"id"`
	FullName   string    `db:"full_name" json:"full_name"`
	Email      string    `db:"email" json:"email"`
	Department string    `db:"department" json:"department"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// LecturerFilter captures filtering criteria for listing lecturers.
type LecturerFilter struct {
	Department string
	Active     *bool
	Search     string
	Page       int
	PageSize   int
}
