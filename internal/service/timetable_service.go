package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/timetable-api/internal/models"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
)

type timetableRepository interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	Create(ctx context.Context, timetable *models.Timetable) error
	Update(ctx context.Context, timetable *models.Timetable) error
	Delete(ctx context.Context, id string) error
	Publish(ctx context.Context, id, actorID string, publishedAt time.Time) error
	TransitionStatus(ctx context.Context, id string, from, to models.TimetableStatus) error
	Archive(ctx context.Context, id string) error
}

type timetableEntryCounter interface {
	CountByTimetable(ctx context.Context, timetableID string) (int, error)
	DeleteByTimetable(ctx context.Context, timetableID string) error
}

type auditRecorder interface {
	Record(ctx context.Context, log models.AuditLog)
}

// CreateTimetableRequest describes payload for creating a timetable.
type CreateTimetableRequest struct {
	Name         string `json:"name" validate:"required,min=3,max=150"`
	Department   string `json:"department" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
}

// UpdateTimetableRequest updates the descriptive fields of a timetable.
type UpdateTimetableRequest struct {
	Name         string `json:"name" validate:"required,min=3,max=150"`
	Department   string `json:"department" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
}

// TimetableService coordinates timetable CRUD and the publish lifecycle.
type TimetableService struct {
	repo      timetableRepository
	entries   timetableEntryCounter
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService instantiates TimetableService.
func NewTimetableService(repo timetableRepository, entries timetableEntryCounter, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, entries: entries, audit: audit, validator: validate, logger: logger}
}

// List returns timetables with pagination metadata.
func (s *TimetableService) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, *models.Pagination, error) {
	timetables, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return timetables, pagination, nil
}

// Get loads a timetable by id.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.Timetable, error) {
	timetable, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return timetable, nil
}

// Create stores a new timetable. New timetables always start as drafts at
// version 1.
func (s *TimetableService) Create(ctx context.Context, req CreateTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	timetable := models.Timetable{
		Name:         req.Name,
		Department:   req.Department,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
	}
	if err := s.repo.Create(ctx, &timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
	}
	return &timetable, nil
}

// Update modifies descriptive fields. Archived timetables are frozen.
func (s *TimetableService) Update(ctx context.Context, id string, req UpdateTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	timetable, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if timetable.Status == models.TimetableStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrTimetableImmutable, "archived timetables cannot be updated")
	}

	timetable.Name = req.Name
	timetable.Department = req.Department
	timetable.Semester = req.Semester
	timetable.AcademicYear = req.AcademicYear
	if err := s.repo.Update(ctx, timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable")
	}
	return timetable, nil
}

// Delete removes a draft timetable and its entries. Published and archived
// timetables are retained as a scheduling record.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	timetable, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !timetable.CanModify() {
		return appErrors.Clone(appErrors.ErrTimetableImmutable, "only draft timetables can be deleted")
	}
	if err := s.entries.DeleteByTimetable(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable entries")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

// Publish moves a draft timetable to published, bumping the version and
// stamping the acting user and time. An empty timetable cannot be published.
// The conditional update in the repository makes concurrent transitions
// resolve to one winner.
func (s *TimetableService) Publish(ctx context.Context, id, actorID string) (*models.Timetable, error) {
	timetable, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !timetable.CanTransition(models.TimetableStatusPublished) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot publish a %s timetable", timetable.Status))
	}

	count, err := s.entries.CountByTimetable(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count timetable entries")
	}
	if count == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "cannot publish an empty timetable")
	}

	publishedAt := time.Now().UTC()
	if err := s.repo.Publish(ctx, id, actorID, publishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "timetable left draft status during publish")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
	}

	s.recordAudit(ctx, actorID, models.AuditActionTimetablePublish, id)
	s.logger.Info("timetable published", zap.String("timetable_id", id), zap.String("actor_id", actorID))
	return s.Get(ctx, id)
}

// Unpublish returns a published timetable to draft for corrections. The
// version and the last publication stamp are retained.
func (s *TimetableService) Unpublish(ctx context.Context, id, actorID string) (*models.Timetable, error) {
	timetable, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !timetable.CanTransition(models.TimetableStatusDraft) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot unpublish a %s timetable", timetable.Status))
	}

	if err := s.repo.TransitionStatus(ctx, id, models.TimetableStatusPublished, models.TimetableStatusDraft); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "timetable left published status during unpublish")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unpublish timetable")
	}

	s.recordAudit(ctx, actorID, models.AuditActionTimetableUnpublish, id)
	s.logger.Info("timetable unpublished", zap.String("timetable_id", id), zap.String("actor_id", actorID))
	return s.Get(ctx, id)
}

// Archive retires a timetable permanently. Both drafts and published
// timetables can be archived; archived ones cannot.
func (s *TimetableService) Archive(ctx context.Context, id, actorID string) (*models.Timetable, error) {
	timetable, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !timetable.CanTransition(models.TimetableStatusArchived) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "timetable is already archived")
	}

	if err := s.repo.Archive(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "timetable is already archived")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive timetable")
	}

	s.recordAudit(ctx, actorID, models.AuditActionTimetableArchive, id)
	s.logger.Info("timetable archived", zap.String("timetable_id", id), zap.String("actor_id", actorID))
	return s.Get(ctx, id)
}

func (s *TimetableService) recordAudit(ctx context.Context, actorID, action, timetableID string) {
	if s.audit == nil {
		return
	}
	var userID *string
	if actorID != "" {
		userID = &actorID
	}
	s.audit.Record(ctx, models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "timetable",
		ResourceID: &timetableID,
	})
}
