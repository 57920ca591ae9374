package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campushub/timetable-api/internal/models"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
)

type conflictEntryRepository interface {
	ListByLecturerAndDay(ctx context.Context, lecturerID, dayOfWeek string) ([]models.TimetableEntry, error)
	ListByRoomAndDay(ctx context.Context, roomID, dayOfWeek string) ([]models.TimetableEntry, error)
	ListByCourseAndDay(ctx context.Context, timetableID, courseID, dayOfWeek string) ([]models.TimetableEntry, error)
}

// ConflictService answers whether a candidate entry collides with stored
// entries. Lecturer and room exclusivity are global across timetables; course
// exclusivity is scoped to the candidate's own timetable so alternative
// drafts for the same semester can coexist.
type ConflictService struct {
	entries conflictEntryRepository
	logger  *zap.Logger
}

// NewConflictService instantiates ConflictService.
func NewConflictService(entries conflictEntryRepository, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{entries: entries, logger: logger}
}

// ValidateTiming checks a candidate's day, minute range and duration bounds.
func ValidateTiming(entry models.TimetableEntry) error {
	if !models.IsValidDay(entry.DayOfWeek) {
		return appErrors.Clone(appErrors.ErrMalformedInterval, fmt.Sprintf("unknown day of week %q", entry.DayOfWeek))
	}
	if entry.StartMinute < 0 || entry.EndMinute > 24*60 {
		return appErrors.Clone(appErrors.ErrMalformedInterval, "entry time must fall within a single day")
	}
	if entry.EndMinute <= entry.StartMinute {
		return appErrors.Clone(appErrors.ErrMalformedInterval, "entry must end after it starts")
	}
	duration := entry.DurationMinutes()
	if duration < models.MinEntryDurationMinutes || duration > models.MaxEntryDurationMinutes {
		return appErrors.Clone(appErrors.ErrMalformedInterval,
			fmt.Sprintf("entry duration must be between %d and %d minutes", models.MinEntryDurationMinutes, models.MaxEntryDurationMinutes))
	}
	return nil
}

// FindConflicts returns every stored entry colliding with the candidate,
// grouped by dimension. excludeEntryID removes one stored entry from
// consideration so an update is not compared against its own previous
// version. An empty report means the candidate is admissible; conflicts are
// never an error here.
func (s *ConflictService) FindConflicts(ctx context.Context, candidate models.TimetableEntry, excludeEntryID string) (models.ConflictReport, error) {
	var report models.ConflictReport

	if err := ValidateTiming(candidate); err != nil {
		return report, err
	}
	day := models.NormalizeDay(candidate.DayOfWeek)
	candidate.DayOfWeek = day

	byLecturer, err := s.entries.ListByLecturerAndDay(ctx, candidate.LecturerID, day)
	if err != nil {
		return report, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer entries")
	}
	report.Lecturer = collectOverlaps(candidate, byLecturer, excludeEntryID)

	byRoom, err := s.entries.ListByRoomAndDay(ctx, candidate.RoomID, day)
	if err != nil {
		return report, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room entries")
	}
	report.Room = collectOverlaps(candidate, byRoom, excludeEntryID)

	byCourse, err := s.entries.ListByCourseAndDay(ctx, candidate.TimetableID, candidate.CourseID, day)
	if err != nil {
		return report, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course entries")
	}
	report.Course = collectOverlaps(candidate, byCourse, excludeEntryID)

	if !report.Empty() {
		s.logger.Debug("candidate entry conflicts",
			zap.String("timetable_id", candidate.TimetableID),
			zap.Int("lecturer", len(report.Lecturer)),
			zap.Int("room", len(report.Room)),
			zap.Int("course", len(report.Course)))
	}
	return report, nil
}

func collectOverlaps(candidate models.TimetableEntry, stored []models.TimetableEntry, excludeEntryID string) []models.TimetableEntry {
	var hits []models.TimetableEntry
	for _, entry := range stored {
		if excludeEntryID != "" && entry.ID == excludeEntryID {
			continue
		}
		if candidate.Overlaps(entry) {
			hits = append(hits, entry)
		}
	}
	return hits
}
