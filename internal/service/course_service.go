package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/timetable-api/internal/models"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type courseLecturerReader interface {
	FindByID(ctx context.Context, id string) (*models.Lecturer, error)
}

// CreateCourseRequest describes payload for registering a course.
type CreateCourseRequest struct {
	Code                  string `json:"code" validate:"required,min=2,max=20"`
	Name                  string `json:"name" validate:"required,min=3,max=150"`
	WeeklyDurationMinutes int    `json:"weekly_duration_minutes" validate:"required,min=30"`
	SessionType           string `json:"session_type" validate:"required,oneof=LECTURE TUTORIAL LAB SEMINAR WORKSHOP"`
	LecturerID            string `json:"lecturer_id" validate:"required"`
}

// UpdateCourseRequest updates a course.
type UpdateCourseRequest struct {
	Code                  string `json:"code" validate:"required,min=2,max=20"`
	Name                  string `json:"name" validate:"required,min=3,max=150"`
	WeeklyDurationMinutes int    `json:"weekly_duration_minutes" validate:"required,min=30"`
	SessionType           string `json:"session_type" validate:"required,oneof=LECTURE TUTORIAL LAB SEMINAR WORKSHOP"`
	LecturerID            string `json:"lecturer_id" validate:"required"`
}

// CourseService manages the course catalogue.
type CourseService struct {
	repo      courseRepository
	lecturers courseLecturerReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService instantiates CourseService.
func NewCourseService(repo courseRepository, lecturers courseLecturerReader, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, lecturers: lecturers, validator: validate, logger: logger}
}

// List returns courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a new course bound to an existing lecturer.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.lecturers.FindByID(ctx, req.LecturerID); err != nil {
		return nil, referenceError(err, "lecturer", req.LecturerID)
	}
	course := models.Course{
		Code:                  req.Code,
		Name:                  req.Name,
		WeeklyDurationMinutes: req.WeeklyDurationMinutes,
		SessionType:           models.SessionType(req.SessionType),
		LecturerID:            req.LecturerID,
	}
	if err := s.repo.Create(ctx, &course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return &course, nil
}

// Update modifies a course.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lecturers.FindByID(ctx, req.LecturerID); err != nil {
		return nil, referenceError(err, "lecturer", req.LecturerID)
	}
	course.Code = req.Code
	course.Name = req.Name
	course.WeeklyDurationMinutes = req.WeeklyDurationMinutes
	course.SessionType = models.SessionType(req.SessionType)
	course.LecturerID = req.LecturerID
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}
