package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/campushub/timetable-api/internal/models"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	SetAvailability(ctx context.Context, id string, available bool) error
	Deactivate(ctx context.Context, id string) error
}

// CreateRoomRequest describes payload for registering a room.
type CreateRoomRequest struct {
	Name      string   `json:"name" validate:"required,min=2,max=100"`
	Capacity  int      `json:"capacity" validate:"required,min=10"`
	Type      string   `json:"type" validate:"required,oneof=LECTURE_HALL LABORATORY AMPHITHEATER TUTORIAL_ROOM SEMINAR_ROOM OTHER"`
	Equipment []string `json:"equipment"`
}

// UpdateRoomRequest updates a room's descriptive fields.
type UpdateRoomRequest struct {
	Name      string   `json:"name" validate:"required,min=2,max=100"`
	Capacity  int      `json:"capacity" validate:"required,min=10"`
	Type      string   `json:"type" validate:"required,oneof=LECTURE_HALL LABORATORY AMPHITHEATER TUTORIAL_ROOM SEMINAR_ROOM OTHER"`
	Equipment []string `json:"equipment"`
}

// RoomService manages the room inventory.
type RoomService struct {
	repo      roomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService instantiates RoomService.
func NewRoomService(repo roomRepository, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, validator: validate, logger: logger}
}

// List returns rooms with pagination metadata.
func (s *RoomService) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return rooms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a room by id.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// Create registers a new active, available room.
func (s *RoomService) Create(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room := models.Room{
		Name:        req.Name,
		Capacity:    req.Capacity,
		Type:        models.RoomType(req.Type),
		Equipment:   pq.StringArray(req.Equipment),
		IsActive:    true,
		IsAvailable: true,
	}
	if err := s.repo.Create(ctx, &room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	return &room, nil
}

// Update modifies a room's descriptive fields.
func (s *RoomService) Update(ctx context.Context, id string, req UpdateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	room.Name = req.Name
	room.Capacity = req.Capacity
	room.Type = models.RoomType(req.Type)
	room.Equipment = pq.StringArray(req.Equipment)
	if err := s.repo.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	return room, nil
}

// SetAvailability withdraws a room from scheduling or restores it. Existing
// entries keep their bookings; only new placements are affected.
func (s *RoomService) SetAvailability(ctx context.Context, id string, available bool) (*models.Room, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetAvailability(ctx, id, available); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set room availability")
	}
	s.logger.Info("room availability changed", zap.String("room_id", id), zap.Bool("available", available))
	return s.Get(ctx, id)
}

// Deactivate soft-deletes a room.
func (s *RoomService) Deactivate(ctx context.Context, id string) error {
	room, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !room.IsActive {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("room %s is already inactive", room.Name))
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate room")
	}
	return nil
}
