package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/timetable-api/internal/models"
)

func newEntryRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func entryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "timetable_id", "course_id", "room_id", "lecturer_id",
		"day_of_week", "start_minute", "end_minute", "type", "notes",
		"created_at", "updated_at",
	})
}

func TestEntryRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WithArgs(sqlmock.AnyArg(), "tt-1", "course-1", "room-1", "lect-1",
			"MONDAY", 540, 630, models.SessionTypeLecture, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.TimetableEntry{
		TimetableID: "tt-1",
		CourseID:    "course-1",
		RoomID:      "room-1",
		LecturerID:  "lect-1",
		DayOfWeek:   "MONDAY",
		StartMinute: 540,
		EndMinute:   630,
		Type:        models.SessionTypeLecture,
	}

	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryListByTimetable(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	rows := entryRows().
		AddRow("entry-1", "tt-1", "course-1", "room-1", "lect-1", "MONDAY", 540, 630, "LECTURE", "", time.Now(), time.Now()).
		AddRow("entry-2", "tt-1", "course-2", "room-2", "lect-2", "TUESDAY", 480, 570, "LAB", "", time.Now(), time.Now())
	mock.ExpectQuery("SELECT .+ FROM timetable_entries WHERE timetable_id = \\$1").
		WithArgs("tt-1").
		WillReturnRows(rows)

	entries, err := repo.ListByTimetable(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "entry-1", entries[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryListByLecturerAndDay(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	rows := entryRows().
		AddRow("entry-1", "tt-1", "course-1", "room-1", "lect-1", "MONDAY", 540, 630, "LECTURE", "", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+entryColumns+" FROM timetable_entries WHERE lecturer_id = $1 AND day_of_week = $2 ORDER BY start_minute ASC")).
		WithArgs("lect-1", "MONDAY").
		WillReturnRows(rows)

	entries, err := repo.ListByLecturerAndDay(context.Background(), "lect-1", "MONDAY")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryListByCourseAndDayScopedToTimetable(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	rows := entryRows().
		AddRow("entry-1", "tt-1", "course-1", "room-1", "lect-1", "WEDNESDAY", 600, 720, "TUTORIAL", "", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+entryColumns+" FROM timetable_entries WHERE timetable_id = $1 AND course_id = $2 AND day_of_week = $3 ORDER BY start_minute ASC")).
		WithArgs("tt-1", "course-1", "WEDNESDAY").
		WillReturnRows(rows)

	entries, err := repo.ListByCourseAndDay(context.Background(), "tt-1", "course-1", "WEDNESDAY")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryCountByTimetable(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetable_entries WHERE timetable_id = $1")).
		WithArgs("tt-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountByTimetable(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE id = $1")).
		WithArgs("entry-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "entry-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
