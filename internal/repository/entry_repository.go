package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/timetable-api/internal/models"
)

const entryColumns = "id, timetable_id, course_id, room_id, lecturer_id, day_of_week, start_minute, end_minute, type, notes, created_at, updated_at"

// EntryRepository provides persistence for timetable entries.
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository creates a new entry repository.
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// FindByID loads an entry by id.
func (r *EntryRepository) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE id = $1", entryColumns)
	var entry models.TimetableEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByTimetable returns all entries of a timetable ordered by day and time.
func (r *EntryRepository) ListByTimetable(ctx context.Context, timetableID string) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_entries WHERE timetable_id = $1
ORDER BY CASE day_of_week
	WHEN 'MONDAY' THEN 1 WHEN 'TUESDAY' THEN 2 WHEN 'WEDNESDAY' THEN 3
	WHEN 'THURSDAY' THEN 4 WHEN 'FRIDAY' THEN 5 WHEN 'SATURDAY' THEN 6 ELSE 7
END ASC, start_minute ASC`, entryColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, timetableID); err != nil {
		return nil, fmt.Errorf("list entries by timetable: %w", err)
	}
	return entries, nil
}

// ListByLecturerAndDay returns a lecturer's entries on one day across all
// timetables. Lecturer bookings are globally exclusive.
func (r *EntryRepository) ListByLecturerAndDay(ctx context.Context, lecturerID, dayOfWeek string) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE lecturer_id = $1 AND day_of_week = $2 ORDER BY start_minute ASC", entryColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, lecturerID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list entries by lecturer and day: %w", err)
	}
	return entries, nil
}

// ListByRoomAndDay returns a room's entries on one day across all timetables.
func (r *EntryRepository) ListByRoomAndDay(ctx context.Context, roomID, dayOfWeek string) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE room_id = $1 AND day_of_week = $2 ORDER BY start_minute ASC", entryColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, roomID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list entries by room and day: %w", err)
	}
	return entries, nil
}

// ListByCourseAndDay returns a course's entries on one day scoped to a single
// timetable. Course exclusivity does not reach across timetables.
func (r *EntryRepository) ListByCourseAndDay(ctx context.Context, timetableID, courseID, dayOfWeek string) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE timetable_id = $1 AND course_id = $2 AND day_of_week = $3 ORDER BY start_minute ASC", entryColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, timetableID, courseID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list entries by course and day: %w", err)
	}
	return entries, nil
}

// ListByLecturer returns a lecturer's entries, optionally scoped to one
// timetable, for workload aggregation.
func (r *EntryRepository) ListByLecturer(ctx context.Context, lecturerID, timetableID string) ([]models.TimetableEntry, error) {
	var entries []models.TimetableEntry
	if timetableID != "" {
		query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE lecturer_id = $1 AND timetable_id = $2 ORDER BY start_minute ASC", entryColumns)
		if err := r.db.SelectContext(ctx, &entries, query, lecturerID, timetableID); err != nil {
			return nil, fmt.Errorf("list entries by lecturer: %w", err)
		}
		return entries, nil
	}
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE lecturer_id = $1 ORDER BY start_minute ASC", entryColumns)
	if err := r.db.SelectContext(ctx, &entries, query, lecturerID); err != nil {
		return nil, fmt.Errorf("list entries by lecturer: %w", err)
	}
	return entries, nil
}

// CountByTimetable returns the number of entries in a timetable.
func (r *EntryRepository) CountByTimetable(ctx context.Context, timetableID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM timetable_entries WHERE timetable_id = $1", timetableID); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// Create stores a new entry record.
func (r *EntryRepository) Create(ctx context.Context, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO timetable_entries (id, timetable_id, course_id, room_id, lecturer_id, day_of_week, start_minute, end_minute, type, notes, created_at, updated_at)
VALUES (:id, :timetable_id, :course_id, :room_id, :lecturer_id, :day_of_week, :start_minute, :end_minute, :type, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	return nil
}

// Update modifies an entry record.
func (r *EntryRepository) Update(ctx context.Context, entry *models.TimetableEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_entries SET course_id = :course_id, room_id = :room_id, lecturer_id = :lecturer_id, day_of_week = :day_of_week, start_minute = :start_minute, end_minute = :end_minute, type = :type, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

// Delete removes an entry by id.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// DeleteByTimetable removes all entries owned by a timetable.
func (r *EntryRepository) DeleteByTimetable(ctx context.Context, timetableID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE timetable_id = $1`, timetableID); err != nil {
		return fmt.Errorf("delete entries by timetable: %w", err)
	}
	return nil
}
