package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/timetable-api/internal/models"
	"github.com/campushub/timetable-api/internal/service"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
	"github.com/campushub/timetable-api/pkg/response"
)

// EntryHandler manages timetable entry endpoints.
type EntryHandler struct {
	entries *service.EntryService
	metrics *service.MetricsService
}

// NewEntryHandler constructs handler.
func NewEntryHandler(entries *service.EntryService, metrics *service.MetricsService) *EntryHandler {
	return &EntryHandler{entries: entries, metrics: metrics}
}

// entryError renders entry write failures. Conflicts are not plain errors:
// they carry the full per-dimension report, which the caller needs to render,
// so they get a 409 with the report in the error payload.
func (h *EntryHandler) entryError(c *gin.Context, err error) {
	var conflictErr *models.EntryConflictError
	if errors.As(err, &conflictErr) {
		h.metrics.RecordConflictCheck(false)
		h.metrics.RecordEntryRejection()
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.JSON(http.StatusConflict, response.Envelope{
			Error: &appErrors.Error{
				Code:    appErrors.ErrConflict.Code,
				Status:  http.StatusConflict,
				Message: conflictErr.Message,
			},
			Meta: map[string]interface{}{"conflicts": conflictErr.Report},
		})
		return
	}
	response.Error(c, err)
}

// List godoc
// @Summary List a timetable's entries
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/entries [get]
func (h *EntryHandler) List(c *gin.Context) {
	entries, err := h.entries.ListByTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Get godoc
// @Summary Get a timetable entry
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param entryId path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /entries/{entryId} [get]
func (h *EntryHandler) Get(c *gin.Context) {
	entry, err := h.entries.Get(c.Request.Context(), c.Param("entryId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Create godoc
// @Summary Add an entry to a draft timetable
// @Tags Entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Timetable ID"
// @Param payload body service.CreateEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Entry collides with stored bookings"
// @Router /timetables/{id}/entries [post]
func (h *EntryHandler) Create(c *gin.Context) {
	var req service.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.entries.Create(c.Request.Context(), c.Param("id"), actorIDFromContext(c), req)
	if err != nil {
		h.entryError(c, err)
		return
	}
	h.metrics.RecordConflictCheck(true)
	response.Created(c, entry)
}

// Update godoc
// @Summary Update a timetable entry
// @Tags Entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entryId path string true "Entry ID"
// @Param payload body service.UpdateEntryRequest true "Entry payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Entry collides with stored bookings"
// @Router /entries/{entryId} [put]
func (h *EntryHandler) Update(c *gin.Context) {
	var req service.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.entries.Update(c.Request.Context(), c.Param("entryId"), actorIDFromContext(c), req)
	if err != nil {
		h.entryError(c, err)
		return
	}
	h.metrics.RecordConflictCheck(true)
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Remove a timetable entry
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param entryId path string true "Entry ID"
// @Success 204 "No Content"
// @Router /entries/{entryId} [delete]
func (h *EntryHandler) Delete(c *gin.Context) {
	if err := h.entries.Delete(c.Request.Context(), c.Param("entryId"), actorIDFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
