package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/timetable-api/internal/models"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
)

type timetableRepoStub struct {
	timetables map[string]*models.Timetable
	published  []string
	archived   []string
}

func (s *timetableRepoStub) List(_ context.Context, _ models.TimetableFilter) ([]models.Timetable, int, error) {
	var out []models.Timetable
	for _, tt := range s.timetables {
		out = append(out, *tt)
	}
	return out, len(out), nil
}

func (s *timetableRepoStub) FindByID(_ context.Context, id string) (*models.Timetable, error) {
	tt, ok := s.timetables[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *tt
	return &clone, nil
}

func (s *timetableRepoStub) Create(_ context.Context, tt *models.Timetable) error {
	if tt.ID == "" {
		tt.ID = "tt-new"
	}
	if tt.Status == "" {
		tt.Status = models.TimetableStatusDraft
	}
	if tt.Version == 0 {
		tt.Version = 1
	}
	clone := *tt
	s.timetables[tt.ID] = &clone
	return nil
}

func (s *timetableRepoStub) Update(_ context.Context, tt *models.Timetable) error {
	clone := *tt
	s.timetables[tt.ID] = &clone
	return nil
}

func (s *timetableRepoStub) Delete(_ context.Context, id string) error {
	if _, ok := s.timetables[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.timetables, id)
	return nil
}

func (s *timetableRepoStub) Publish(_ context.Context, id, actorID string, publishedAt time.Time) error {
	tt, ok := s.timetables[id]
	if !ok || tt.Status != models.TimetableStatusDraft {
		return sql.ErrNoRows
	}
	tt.Status = models.TimetableStatusPublished
	tt.Version++
	tt.PublishedAt = &publishedAt
	tt.PublishedBy = &actorID
	s.published = append(s.published, id)
	return nil
}

func (s *timetableRepoStub) TransitionStatus(_ context.Context, id string, from, to models.TimetableStatus) error {
	tt, ok := s.timetables[id]
	if !ok || tt.Status != from {
		return sql.ErrNoRows
	}
	tt.Status = to
	return nil
}

func (s *timetableRepoStub) Archive(_ context.Context, id string) error {
	tt, ok := s.timetables[id]
	if !ok || tt.Status == models.TimetableStatusArchived {
		return sql.ErrNoRows
	}
	tt.Status = models.TimetableStatusArchived
	s.archived = append(s.archived, id)
	return nil
}

type entryCounterStub struct {
	counts map[string]int
}

func (s entryCounterStub) CountByTimetable(_ context.Context, id string) (int, error) {
	return s.counts[id], nil
}

func (s entryCounterStub) DeleteByTimetable(_ context.Context, id string) error {
	delete(s.counts, id)
	return nil
}

type auditRecorderStub struct {
	records []models.AuditLog
}

func (s *auditRecorderStub) Record(_ context.Context, log models.AuditLog) {
	s.records = append(s.records, log)
}

func newTimetableServiceFixture(status models.TimetableStatus, entryCount int) (*TimetableService, *timetableRepoStub, *auditRecorderStub) {
	repo := &timetableRepoStub{timetables: map[string]*models.Timetable{
		"tt-1": {
			ID:      "tt-1",
			Name:    "CS Fall",
			Status:  status,
			Version: 1,
		},
	}}
	audit := &auditRecorderStub{}
	svc := NewTimetableService(repo, entryCounterStub{counts: map[string]int{"tt-1": entryCount}}, audit, nil, nil)
	return svc, repo, audit
}

func TestTimetableServicePublishDraft(t *testing.T) {
	svc, repo, audit := newTimetableServiceFixture(models.TimetableStatusDraft, 3)

	published, err := svc.Publish(context.Background(), "tt-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.TimetableStatusPublished, published.Status)
	assert.Equal(t, 2, published.Version)
	require.NotNil(t, published.PublishedAt)
	require.NotNil(t, published.PublishedBy)
	assert.Equal(t, "user-1", *published.PublishedBy)
	assert.Equal(t, []string{"tt-1"}, repo.published)
	require.Len(t, audit.records, 1)
	assert.Equal(t, models.AuditActionTimetablePublish, audit.records[0].Action)
}

func TestTimetableServicePublishEmptyDraft(t *testing.T) {
	svc, _, _ := newTimetableServiceFixture(models.TimetableStatusDraft, 0)

	_, err := svc.Publish(context.Background(), "tt-1", "user-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestTimetableServicePublishNonDraft(t *testing.T) {
	for _, status := range []models.TimetableStatus{models.TimetableStatusPublished, models.TimetableStatusArchived} {
		svc, _, _ := newTimetableServiceFixture(status, 3)
		_, err := svc.Publish(context.Background(), "tt-1", "user-1")
		require.Error(t, err, status)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code, status)
	}
}

func TestTimetableServiceUnpublish(t *testing.T) {
	svc, _, audit := newTimetableServiceFixture(models.TimetableStatusPublished, 3)

	timetable, err := svc.Unpublish(context.Background(), "tt-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimetableStatusDraft, timetable.Status)
	// Unpublish keeps the version; publish is the only version bump.
	assert.Equal(t, 1, timetable.Version)
	require.Len(t, audit.records, 1)
	assert.Equal(t, models.AuditActionTimetableUnpublish, audit.records[0].Action)
}

func TestTimetableServiceUnpublishNonPublished(t *testing.T) {
	for _, status := range []models.TimetableStatus{models.TimetableStatusDraft, models.TimetableStatusArchived} {
		svc, _, _ := newTimetableServiceFixture(status, 3)
		_, err := svc.Unpublish(context.Background(), "tt-1", "user-1")
		require.Error(t, err, status)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code, status)
	}
}

func TestTimetableServiceArchiveFromEitherState(t *testing.T) {
	for _, status := range []models.TimetableStatus{models.TimetableStatusDraft, models.TimetableStatusPublished} {
		svc, _, _ := newTimetableServiceFixture(status, 3)
		timetable, err := svc.Archive(context.Background(), "tt-1", "user-1")
		require.NoError(t, err, status)
		assert.Equal(t, models.TimetableStatusArchived, timetable.Status)
	}
}

func TestTimetableServiceArchiveIsTerminal(t *testing.T) {
	svc, _, _ := newTimetableServiceFixture(models.TimetableStatusArchived, 3)

	_, err := svc.Archive(context.Background(), "tt-1", "user-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestTimetableServiceFullLifecycle(t *testing.T) {
	svc, _, _ := newTimetableServiceFixture(models.TimetableStatusDraft, 2)

	published, err := svc.Publish(context.Background(), "tt-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, published.Version)

	draft, err := svc.Unpublish(context.Background(), "tt-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimetableStatusDraft, draft.Status)

	republished, err := svc.Publish(context.Background(), "tt-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, republished.Version)

	archived, err := svc.Archive(context.Background(), "tt-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimetableStatusArchived, archived.Status)

	_, err = svc.Publish(context.Background(), "tt-1", "user-1")
	require.Error(t, err)
}

func TestTimetableServiceDeleteOnlyDrafts(t *testing.T) {
	svc, _, _ := newTimetableServiceFixture(models.TimetableStatusPublished, 3)

	err := svc.Delete(context.Background(), "tt-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTimetableImmutable.Code, appErr.Code)
}

func TestTimetableServiceCreateStartsDraft(t *testing.T) {
	svc, _, _ := newTimetableServiceFixture(models.TimetableStatusDraft, 0)

	timetable, err := svc.Create(context.Background(), CreateTimetableRequest{
		Name:         "EE Spring",
		Department:   "Electrical Engineering",
		Semester:     "SPRING",
		AcademicYear: "2026/2027",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TimetableStatusDraft, timetable.Status)
	assert.Equal(t, 1, timetable.Version)
}

func TestTimetableServiceGetMissing(t *testing.T) {
	svc, _, _ := newTimetableServiceFixture(models.TimetableStatusDraft, 0)

	_, err := svc.Get(context.Background(), "tt-missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
