package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/timetable-api/internal/models"
	"github.com/campushub/timetable-api/pkg/config"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
)

type suggestionEntryRepository interface {
	ListByLecturerAndDay(ctx context.Context, lecturerID, dayOfWeek string) ([]models.TimetableEntry, error)
	ListByRoomAndDay(ctx context.Context, roomID, dayOfWeek string) ([]models.TimetableEntry, error)
	ListByCourseAndDay(ctx context.Context, timetableID, courseID, dayOfWeek string) ([]models.TimetableEntry, error)
}

type suggestionRoomRepository interface {
	ListSchedulable(ctx context.Context) ([]models.Room, error)
}

type suggestionCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type suggestionTimetableReader interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
}

// SuggestSlotsRequest asks for feasible placements of one session.
// ExpectedStudents is optional; unknown counts pass capacity filtering
// optimistically.
type SuggestSlotsRequest struct {
	TimetableID      string `json:"timetable_id" validate:"required"`
	CourseID         string `json:"course_id" validate:"required"`
	LecturerID       string `json:"lecturer_id" validate:"required"`
	DurationMinutes  int    `json:"duration_minutes" validate:"required,min=30,max=240"`
	ExpectedStudents *int   `json:"expected_students,omitempty" validate:"omitempty,min=1"`
	Limit            int    `json:"limit,omitempty" validate:"omitempty,min=1,max=20"`
}

// SuggestionService searches for free slots with a first-fit scan. The
// iteration order is part of the contract: Monday through Friday, then start
// times ascending inside the configured window, then rooms in repository
// order. The scan stops at the result limit.
type SuggestionService struct {
	entries    suggestionEntryRepository
	rooms      suggestionRoomRepository
	courses    suggestionCourseReader
	timetables suggestionTimetableReader
	validator  *validator.Validate
	logger     *zap.Logger

	windowStart int
	windowEnd   int
	step        int
	limit       int
}

// NewSuggestionService instantiates SuggestionService. Malformed window
// configuration falls back to the 08:00-18:00 default.
func NewSuggestionService(
	entries suggestionEntryRepository,
	rooms suggestionRoomRepository,
	courses suggestionCourseReader,
	timetables suggestionTimetableReader,
	cfg config.SchedulingConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *SuggestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	windowStart, err := models.ParseClock(cfg.SuggestionStartWindow)
	if err != nil {
		windowStart = 8 * 60
	}
	windowEnd, err := models.ParseClock(cfg.SuggestionEndWindow)
	if err != nil || windowEnd <= windowStart {
		windowEnd = 18 * 60
	}
	step := cfg.SuggestionStepMinutes
	if step <= 0 {
		step = 30
	}
	limit := cfg.SuggestionLimit
	if limit <= 0 {
		limit = 5
	}

	return &SuggestionService{
		entries:     entries,
		rooms:       rooms,
		courses:     courses,
		timetables:  timetables,
		validator:   validate,
		logger:      logger,
		windowStart: windowStart,
		windowEnd:   windowEnd,
		step:        step,
		limit:       limit,
	}
}

// SuggestSlots returns up to the limit of (day, time range, room) proposals
// where the lecturer, the room and the course are all free. Finding nothing
// is a legitimate empty result, not an error.
func (s *SuggestionService) SuggestSlots(ctx context.Context, req SuggestSlotsRequest) ([]models.SlotSuggestion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid suggestion request")
	}

	if _, err := s.timetables.FindByID(ctx, req.TimetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, referenceError(err, "course", req.CourseID)
	}

	rooms, err := s.rooms.ListSchedulable(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	candidates := filterRooms(rooms, course.SessionType, req.ExpectedStudents)
	if len(candidates) == 0 {
		return []models.SlotSuggestion{}, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.limit
	}

	suggestions := []models.SlotSuggestion{}
	roomBusy := map[string][]models.TimetableEntry{}

	for _, day := range models.TeachingDays {
		lecturerBusy, err := s.entries.ListByLecturerAndDay(ctx, req.LecturerID, day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer entries")
		}
		courseBusy, err := s.entries.ListByCourseAndDay(ctx, req.TimetableID, req.CourseID, day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course entries")
		}

		for start := s.windowStart; start+req.DurationMinutes <= s.windowEnd; start += s.step {
			slot := models.Interval{Day: day, Start: start, End: start + req.DurationMinutes}
			if anyOverlap(slot, lecturerBusy) || anyOverlap(slot, courseBusy) {
				continue
			}

			for _, room := range candidates {
				busyKey := day + "|" + room.ID
				busy, ok := roomBusy[busyKey]
				if !ok {
					busy, err = s.entries.ListByRoomAndDay(ctx, room.ID, day)
					if err != nil {
						return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room entries")
					}
					roomBusy[busyKey] = busy
				}
				if anyOverlap(slot, busy) {
					continue
				}

				suggestions = append(suggestions, models.SlotSuggestion{
					Day:       day,
					StartTime: models.FormatClock(slot.Start),
					EndTime:   models.FormatClock(slot.End),
					Room: models.SuggestedRoom{
						ID:       room.ID,
						Name:     room.Name,
						Capacity: room.Capacity,
						Type:     room.Type,
					},
				})
				if len(suggestions) >= limit {
					s.logger.Debug("slot suggestion search complete",
						zap.String("course_id", req.CourseID),
						zap.Int("found", len(suggestions)))
					return suggestions, nil
				}
				// First fit: one suggestion per slot, the room order only
				// decides which room takes it.
				break
			}
		}
	}

	s.logger.Debug("slot suggestion search exhausted",
		zap.String("course_id", req.CourseID),
		zap.Int("found", len(suggestions)))
	return suggestions, nil
}

// filterRooms keeps rooms suitable for the session type and, when an
// enrolment count is supplied, large enough for it. Repository ordering is
// preserved.
func filterRooms(rooms []models.Room, session models.SessionType, expectedStudents *int) []models.Room {
	var out []models.Room
	for _, room := range rooms {
		if !room.SuitableFor(session) {
			continue
		}
		if expectedStudents != nil && room.Capacity < *expectedStudents {
			continue
		}
		out = append(out, room)
	}
	return out
}

func anyOverlap(slot models.Interval, entries []models.TimetableEntry) bool {
	for _, entry := range entries {
		if slot.Overlaps(entry.Interval()) {
			return true
		}
	}
	return false
}
