package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campushub/timetable-api/internal/middleware"
	"github.com/campushub/timetable-api/internal/models"
	"github.com/campushub/timetable-api/internal/service"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
)

type entryStoreStub struct {
	entries map[string]*models.TimetableEntry
}

func (s *entryStoreStub) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *e
	return &copied, nil
}

func (s *entryStoreStub) ListByTimetable(ctx context.Context, timetableID string) ([]models.TimetableEntry, error) {
	out := []models.TimetableEntry{}
	for _, e := range s.entries {
		if e.TimetableID == timetableID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *entryStoreStub) Create(ctx context.Context, e *models.TimetableEntry) error {
	s.entries[e.ID] = e
	return nil
}

func (s *entryStoreStub) Update(ctx context.Context, e *models.TimetableEntry) error {
	if _, ok := s.entries[e.ID]; !ok {
		return sql.ErrNoRows
	}
	s.entries[e.ID] = e
	return nil
}

func (s *entryStoreStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.entries[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.entries, id)
	return nil
}

type timetableLookupStub struct {
	status models.TimetableStatus
}

func (s timetableLookupStub) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	if id != "tt-1" {
		return nil, sql.ErrNoRows
	}
	return &models.Timetable{ID: id, Status: s.status, Version: 1}, nil
}

type courseLookupStub struct{}

func (courseLookupStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if id != "course-1" {
		return nil, sql.ErrNoRows
	}
	return &models.Course{ID: id, Code: "CS101", SessionType: models.SessionTypeLecture, LecturerID: "lect-1"}, nil
}

type roomLookupStub struct{}

func (roomLookupStub) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if id != "room-1" {
		return nil, sql.ErrNoRows
	}
	return &models.Room{ID: id, Name: "A101", Capacity: 60, Type: models.RoomTypeLectureHall, IsActive: true, IsAvailable: true}, nil
}

type lecturerLookupStub struct{}

func (lecturerLookupStub) FindByID(ctx context.Context, id string) (*models.Lecturer, error) {
	if id != "lect-1" {
		return nil, sql.ErrNoRows
	}
	return &models.Lecturer{ID: id, FullName: "Dana Osei", Active: true}, nil
}

type conflictLookupStub struct {
	report models.ConflictReport
}

func (s conflictLookupStub) FindConflicts(ctx context.Context, candidate models.TimetableEntry, excludeEntryID string) (models.ConflictReport, error) {
	return s.report, nil
}

type invalidatorSinkStub struct{}

func (invalidatorSinkStub) InvalidateTimetable(ctx context.Context, timetableID string) {}

func newEntryHandlerFixture(status models.TimetableStatus, report models.ConflictReport) (*EntryHandler, *entryStoreStub) {
	store := &entryStoreStub{entries: map[string]*models.TimetableEntry{}}
	svc := service.NewEntryService(
		store,
		timetableLookupStub{status: status},
		courseLookupStub{},
		roomLookupStub{},
		lecturerLookupStub{},
		conflictLookupStub{report: report},
		invalidatorSinkStub{},
		auditSinkStub{},
		nil,
		nil,
	)
	return NewEntryHandler(svc, nil), store
}

func validEntryPayload(t *testing.T) []byte {
	t.Helper()
	payload, err := json.Marshal(service.CreateEntryRequest{
		CourseID:   "course-1",
		RoomID:     "room-1",
		LecturerID: "lect-1",
		DayOfWeek:  "MONDAY",
		StartTime:  "09:00",
		EndTime:    "11:00",
		Type:       "LECTURE",
	})
	require.NoError(t, err)
	return payload
}

func TestEntryHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, store := newEntryHandlerFixture(models.TimetableStatusDraft, models.ConflictReport{})

	c, w := newGinContext(http.MethodPost, "/timetables/tt-1/entries", validEntryPayload(t))
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleScheduler})

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeEnvelope(t, w)
	require.Equal(t, "MONDAY", body.Data["day_of_week"])
	require.Equal(t, float64(540), body.Data["start_minute"])
	require.Len(t, store.entries, 1)
}

func TestEntryHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, store := newEntryHandlerFixture(models.TimetableStatusDraft, models.ConflictReport{
		Lecturer: []models.TimetableEntry{{
			ID:          "existing-1",
			TimetableID: "tt-2",
			LecturerID:  "lect-1",
			DayOfWeek:   "MONDAY",
			StartMinute: 600,
			EndMinute:   720,
		}},
	})

	c, w := newGinContext(http.MethodPost, "/timetables/tt-1/entries", validEntryPayload(t))
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	h.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeEnvelope(t, w)
	require.Equal(t, appErrors.ErrConflict.Code, body.Error.Code)
	conflicts, ok := body.Meta["conflicts"].(map[string]interface{})
	require.True(t, ok, "conflict report missing from meta")
	require.Len(t, conflicts["lecturer"], 1)
	require.Empty(t, store.entries)
}

func TestEntryHandlerCreateOnPublishedTimetable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, store := newEntryHandlerFixture(models.TimetableStatusPublished, models.ConflictReport{})

	c, w := newGinContext(http.MethodPost, "/timetables/tt-1/entries", validEntryPayload(t))
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	h.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeEnvelope(t, w)
	require.Equal(t, appErrors.ErrTimetableImmutable.Code, body.Error.Code)
	require.Empty(t, store.entries)
}

func TestEntryHandlerCreateMalformedTimes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newEntryHandlerFixture(models.TimetableStatusDraft, models.ConflictReport{})

	payload, _ := json.Marshal(service.CreateEntryRequest{
		CourseID:   "course-1",
		RoomID:     "room-1",
		LecturerID: "lect-1",
		DayOfWeek:  "MONDAY",
		StartTime:  "11:00",
		EndTime:    "09:00",
		Type:       "LECTURE",
	})
	c, w := newGinContext(http.MethodPost, "/timetables/tt-1/entries", payload)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	h.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeEnvelope(t, w)
	require.Equal(t, appErrors.ErrMalformedInterval.Code, body.Error.Code)
}

func TestEntryHandlerCreateUnknownRoom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newEntryHandlerFixture(models.TimetableStatusDraft, models.ConflictReport{})

	payload, _ := json.Marshal(service.CreateEntryRequest{
		CourseID:   "course-1",
		RoomID:     "room-missing",
		LecturerID: "lect-1",
		DayOfWeek:  "MONDAY",
		StartTime:  "09:00",
		EndTime:    "11:00",
		Type:       "LECTURE",
	})
	c, w := newGinContext(http.MethodPost, "/timetables/tt-1/entries", payload)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	h.Create(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeEnvelope(t, w)
	require.Equal(t, appErrors.ErrReferenceNotFound.Code, body.Error.Code)
}

func TestEntryHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, store := newEntryHandlerFixture(models.TimetableStatusDraft, models.ConflictReport{})
	store.entries["entry-1"] = &models.TimetableEntry{
		ID:          "entry-1",
		TimetableID: "tt-1",
		CourseID:    "course-1",
		RoomID:      "room-1",
		LecturerID:  "lect-1",
		DayOfWeek:   "MONDAY",
		StartMinute: 540,
		EndMinute:   660,
		Type:        models.SessionTypeLecture,
	}

	c, w := newGinContext(http.MethodDelete, "/entries/entry-1", nil)
	c.Params = gin.Params{{Key: "entryId", Value: "entry-1"}}

	h.Delete(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, store.entries)
}
