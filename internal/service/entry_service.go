package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/timetable-api/internal/models"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
)

type entryRepository interface {
	FindByID(ctx context.Context, id string) (*models.TimetableEntry, error)
	ListByTimetable(ctx context.Context, timetableID string) ([]models.TimetableEntry, error)
	Create(ctx context.Context, entry *models.TimetableEntry) error
	Update(ctx context.Context, entry *models.TimetableEntry) error
	Delete(ctx context.Context, id string) error
}

type entryTimetableReader interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
}

type entryCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type entryRoomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type entryLecturerReader interface {
	FindByID(ctx context.Context, id string) (*models.Lecturer, error)
}

type entryConflictFinder interface {
	FindConflicts(ctx context.Context, candidate models.TimetableEntry, excludeEntryID string) (models.ConflictReport, error)
}

type reportInvalidator interface {
	InvalidateTimetable(ctx context.Context, timetableID string)
}

// CreateEntryRequest describes payload for adding an entry to a timetable.
// Times cross the boundary as "HH:MM" wall-clock strings and live as minutes
// since midnight everywhere inside.
type CreateEntryRequest struct {
	CourseID   string `json:"course_id" validate:"required"`
	RoomID     string `json:"room_id" validate:"required"`
	LecturerID string `json:"lecturer_id" validate:"required"`
	DayOfWeek  string `json:"day_of_week" validate:"required"`
	StartTime  string `json:"start_time" validate:"required"`
	EndTime    string `json:"end_time" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=LECTURE TUTORIAL LAB SEMINAR WORKSHOP"`
	Notes      string `json:"notes" validate:"max=500"`
}

// UpdateEntryRequest updates an existing entry.
type UpdateEntryRequest struct {
	CourseID   string `json:"course_id" validate:"required"`
	RoomID     string `json:"room_id" validate:"required"`
	LecturerID string `json:"lecturer_id" validate:"required"`
	DayOfWeek  string `json:"day_of_week" validate:"required"`
	StartTime  string `json:"start_time" validate:"required"`
	EndTime    string `json:"end_time" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=LECTURE TUTORIAL LAB SEMINAR WORKSHOP"`
	Notes      string `json:"notes" validate:"max=500"`
}

// EntryService coordinates conflict-checked entry writes. Writes to the same
// timetable are serialised through a keyed mutex so the check-then-insert
// window cannot admit two colliding entries.
type EntryService struct {
	entries    entryRepository
	timetables entryTimetableReader
	courses    entryCourseReader
	rooms      entryRoomReader
	lecturers  entryLecturerReader
	conflicts  entryConflictFinder
	reports    reportInvalidator
	audit      auditRecorder
	validator  *validator.Validate
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEntryService instantiates EntryService.
func NewEntryService(
	entries entryRepository,
	timetables entryTimetableReader,
	courses entryCourseReader,
	rooms entryRoomReader,
	lecturers entryLecturerReader,
	conflicts entryConflictFinder,
	reports reportInvalidator,
	audit auditRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
) *EntryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryService{
		entries:    entries,
		timetables: timetables,
		courses:    courses,
		rooms:      rooms,
		lecturers:  lecturers,
		conflicts:  conflicts,
		reports:    reports,
		audit:      audit,
		validator:  validate,
		logger:     logger,
		locks:      map[string]*sync.Mutex{},
	}
}

func (s *EntryService) timetableLock(timetableID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[timetableID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[timetableID] = lock
	}
	return lock
}

// ListByTimetable returns all entries of a timetable in day/time order.
func (s *EntryService) ListByTimetable(ctx context.Context, timetableID string) ([]models.TimetableEntry, error) {
	if _, err := s.loadTimetable(ctx, timetableID); err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByTimetable(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list entries")
	}
	return entries, nil
}

// Get loads an entry by id.
func (s *EntryService) Get(ctx context.Context, id string) (*models.TimetableEntry, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entry")
	}
	return entry, nil
}

// Create adds an entry to a draft timetable after conflict detection. A
// conflicting candidate is rejected with the full per-dimension report.
func (s *EntryService) Create(ctx context.Context, timetableID, actorID string, req CreateEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}

	timetable, err := s.loadTimetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	if !timetable.CanModify() {
		return nil, appErrors.Clone(appErrors.ErrTimetableImmutable,
			fmt.Sprintf("entries cannot be modified while the timetable is %s", timetable.Status))
	}

	entry, err := s.buildEntry(ctx, timetableID, req.CourseID, req.RoomID, req.LecturerID, req.DayOfWeek, req.StartTime, req.EndTime, req.Type, req.Notes)
	if err != nil {
		return nil, err
	}

	lock := s.timetableLock(timetableID)
	lock.Lock()
	defer lock.Unlock()

	report, err := s.conflicts.FindConflicts(ctx, *entry, "")
	if err != nil {
		return nil, err
	}
	if !report.Empty() {
		return nil, &models.EntryConflictError{
			Message: fmt.Sprintf("entry conflicts with %d existing booking(s)", report.Total()),
			Report:  report,
		}
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create entry")
	}

	s.invalidate(ctx, timetableID)
	s.recordAudit(ctx, actorID, timetableID, entry.ID)
	return entry, nil
}

// Update replaces an entry's booking after re-running conflict detection.
// The entry's previous version is excluded from the check so a no-op update
// never conflicts with itself.
func (s *EntryService) Update(ctx context.Context, entryID, actorID string, req UpdateEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}

	existing, err := s.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	timetable, err := s.loadTimetable(ctx, existing.TimetableID)
	if err != nil {
		return nil, err
	}
	if !timetable.CanModify() {
		return nil, appErrors.Clone(appErrors.ErrTimetableImmutable,
			fmt.Sprintf("entries cannot be modified while the timetable is %s", timetable.Status))
	}

	entry, err := s.buildEntry(ctx, existing.TimetableID, req.CourseID, req.RoomID, req.LecturerID, req.DayOfWeek, req.StartTime, req.EndTime, req.Type, req.Notes)
	if err != nil {
		return nil, err
	}
	entry.ID = entryID
	entry.CreatedAt = existing.CreatedAt

	lock := s.timetableLock(existing.TimetableID)
	lock.Lock()
	defer lock.Unlock()

	report, err := s.conflicts.FindConflicts(ctx, *entry, entryID)
	if err != nil {
		return nil, err
	}
	if !report.Empty() {
		return nil, &models.EntryConflictError{
			Message: fmt.Sprintf("entry conflicts with %d existing booking(s)", report.Total()),
			Report:  report,
		}
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update entry")
	}

	s.invalidate(ctx, existing.TimetableID)
	s.recordAudit(ctx, actorID, existing.TimetableID, entryID)
	return entry, nil
}

// Delete removes an entry from a draft timetable.
func (s *EntryService) Delete(ctx context.Context, entryID, actorID string) error {
	existing, err := s.Get(ctx, entryID)
	if err != nil {
		return err
	}
	timetable, err := s.loadTimetable(ctx, existing.TimetableID)
	if err != nil {
		return err
	}
	if !timetable.CanModify() {
		return appErrors.Clone(appErrors.ErrTimetableImmutable,
			fmt.Sprintf("entries cannot be modified while the timetable is %s", timetable.Status))
	}

	if err := s.entries.Delete(ctx, entryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete entry")
	}

	s.invalidate(ctx, existing.TimetableID)
	s.recordAudit(ctx, actorID, existing.TimetableID, entryID)
	return nil
}

// buildEntry resolves references and converts boundary clock strings into a
// validated internal entry. Missing references map to ReferenceNotFound.
func (s *EntryService) buildEntry(ctx context.Context, timetableID, courseID, roomID, lecturerID, dayOfWeek, startTime, endTime, sessionType, notes string) (*models.TimetableEntry, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		return nil, referenceError(err, "course", courseID)
	}
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, referenceError(err, "room", roomID)
	}
	lecturer, err := s.lecturers.FindByID(ctx, lecturerID)
	if err != nil {
		return nil, referenceError(err, "lecturer", lecturerID)
	}
	if !room.Schedulable() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room %s is not schedulable", room.Name))
	}
	if !lecturer.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lecturer %s is inactive", lecturer.FullName))
	}

	start, err := models.ParseClock(startTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrMalformedInterval, fmt.Sprintf("invalid start time %q", startTime))
	}
	end, err := models.ParseClock(endTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrMalformedInterval, fmt.Sprintf("invalid end time %q", endTime))
	}

	entry := &models.TimetableEntry{
		TimetableID: timetableID,
		CourseID:    courseID,
		RoomID:      roomID,
		LecturerID:  lecturerID,
		DayOfWeek:   models.NormalizeDay(dayOfWeek),
		StartMinute: start,
		EndMinute:   end,
		Type:        models.SessionType(sessionType),
		Notes:       notes,
	}
	if err := ValidateTiming(*entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *EntryService) loadTimetable(ctx context.Context, id string) (*models.Timetable, error) {
	timetable, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return timetable, nil
}

func (s *EntryService) invalidate(ctx context.Context, timetableID string) {
	if s.reports != nil {
		s.reports.InvalidateTimetable(ctx, timetableID)
	}
}

func (s *EntryService) recordAudit(ctx context.Context, actorID, timetableID, entryID string) {
	if s.audit == nil {
		return
	}
	var userID *string
	if actorID != "" {
		userID = &actorID
	}
	s.audit.Record(ctx, models.AuditLog{
		UserID:     userID,
		Action:     models.AuditActionEntryWrite,
		Resource:   "timetable_entry",
		ResourceID: &entryID,
		NewValues:  []byte(fmt.Sprintf(`{"timetable_id":%q}`, timetableID)),
	})
}

func referenceError(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrReferenceNotFound, fmt.Sprintf("%s %s does not exist", kind, id))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s", kind))
}
