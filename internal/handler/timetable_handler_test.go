package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campushub/timetable-api/internal/middleware"
	"github.com/campushub/timetable-api/internal/models"
	"github.com/campushub/timetable-api/internal/service"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
)

type timetableStoreStub struct {
	timetables map[string]*models.Timetable
}

func (s *timetableStoreStub) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	out := make([]models.Timetable, 0, len(s.timetables))
	for _, t := range s.timetables {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (s *timetableStoreStub) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	t, ok := s.timetables[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (s *timetableStoreStub) Create(ctx context.Context, t *models.Timetable) error {
	if t.ID == "" {
		t.ID = "tt-new"
	}
	if t.Status == "" {
		t.Status = models.TimetableStatusDraft
	}
	if t.Version == 0 {
		t.Version = 1
	}
	s.timetables[t.ID] = t
	return nil
}

func (s *timetableStoreStub) Update(ctx context.Context, t *models.Timetable) error {
	if _, ok := s.timetables[t.ID]; !ok {
		return sql.ErrNoRows
	}
	s.timetables[t.ID] = t
	return nil
}

func (s *timetableStoreStub) Delete(ctx context.Context, id string) error {
	delete(s.timetables, id)
	return nil
}

func (s *timetableStoreStub) Publish(ctx context.Context, id, actorID string, publishedAt time.Time) error {
	t, ok := s.timetables[id]
	if !ok || t.Status != models.TimetableStatusDraft {
		return sql.ErrNoRows
	}
	t.Status = models.TimetableStatusPublished
	t.Version++
	t.PublishedBy = &actorID
	t.PublishedAt = &publishedAt
	return nil
}

func (s *timetableStoreStub) TransitionStatus(ctx context.Context, id string, from, to models.TimetableStatus) error {
	t, ok := s.timetables[id]
	if !ok || t.Status != from {
		return sql.ErrNoRows
	}
	t.Status = to
	return nil
}

func (s *timetableStoreStub) Archive(ctx context.Context, id string) error {
	t, ok := s.timetables[id]
	if !ok || t.Status == models.TimetableStatusArchived {
		return sql.ErrNoRows
	}
	t.Status = models.TimetableStatusArchived
	return nil
}

type entryCountStub struct {
	count int
}

func (s entryCountStub) CountByTimetable(ctx context.Context, timetableID string) (int, error) {
	return s.count, nil
}

func (s entryCountStub) DeleteByTimetable(ctx context.Context, timetableID string) error {
	return nil
}

type auditSinkStub struct{}

func (auditSinkStub) Record(ctx context.Context, log models.AuditLog) {}

type envelopeBody struct {
	Data  map[string]interface{} `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelopeBody {
	t.Helper()
	var body envelopeBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func newTimetableHandlerFixture(status models.TimetableStatus, entryCount int) (*TimetableHandler, *timetableStoreStub) {
	store := &timetableStoreStub{timetables: map[string]*models.Timetable{
		"tt-1": {
			ID:           "tt-1",
			Name:         "CS Semester 1",
			Department:   "Computer Science",
			Semester:     "1",
			AcademicYear: "2026/2027",
			Status:       status,
			Version:      1,
		},
	}}
	svc := service.NewTimetableService(store, entryCountStub{count: entryCount}, auditSinkStub{}, nil, nil)
	return NewTimetableHandler(svc, nil, nil, nil, nil), store
}

func TestTimetableHandlerPublish(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, store := newTimetableHandlerFixture(models.TimetableStatusDraft, 3)

	c, w := newGinContext(http.MethodPost, "/timetables/tt-1/publish", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleScheduler})

	h.Publish(c)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	require.Equal(t, string(models.TimetableStatusPublished), body.Data["status"])
	require.Equal(t, float64(2), body.Data["version"])
	require.Equal(t, "user-1", *store.timetables["tt-1"].PublishedBy)
}

func TestTimetableHandlerPublishEmptyTimetable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTimetableHandlerFixture(models.TimetableStatusDraft, 0)

	c, w := newGinContext(http.MethodPost, "/timetables/tt-1/publish", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	h.Publish(c)

	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeEnvelope(t, w)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, body.Error.Code)
}

func TestTimetableHandlerPublishNonDraft(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTimetableHandlerFixture(models.TimetableStatusPublished, 3)

	c, w := newGinContext(http.MethodPost, "/timetables/tt-1/publish", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	h.Publish(c)

	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeEnvelope(t, w)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, body.Error.Code)
}

func TestTimetableHandlerUnpublish(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, store := newTimetableHandlerFixture(models.TimetableStatusPublished, 3)

	c, w := newGinContext(http.MethodPost, "/timetables/tt-1/unpublish", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	h.Unpublish(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.TimetableStatusDraft, store.timetables["tt-1"].Status)
}

func TestTimetableHandlerArchiveTerminal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, store := newTimetableHandlerFixture(models.TimetableStatusPublished, 3)

	c, w := newGinContext(http.MethodPost, "/timetables/tt-1/archive", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}
	h.Archive(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.TimetableStatusArchived, store.timetables["tt-1"].Status)

	c, w = newGinContext(http.MethodPost, "/timetables/tt-1/publish", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}
	h.Publish(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestTimetableHandlerDeletePublished(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, store := newTimetableHandlerFixture(models.TimetableStatusPublished, 3)

	c, w := newGinContext(http.MethodDelete, "/timetables/tt-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	h.Delete(c)

	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, store.timetables, "tt-1")
}

func TestTimetableHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTimetableHandlerFixture(models.TimetableStatusDraft, 0)

	c, w := newGinContext(http.MethodGet, "/timetables/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTimetableHandlerFixture(models.TimetableStatusDraft, 0)

	payload, _ := json.Marshal(service.CreateTimetableRequest{
		Name:         "EE Semester 2",
		Department:   "Electrical Engineering",
		Semester:     "2",
		AcademicYear: "2026/2027",
	})
	c, w := newGinContext(http.MethodPost, "/timetables", payload)

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeEnvelope(t, w)
	require.Equal(t, string(models.TimetableStatusDraft), body.Data["status"])
}
