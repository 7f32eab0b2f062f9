package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/scheduling-api/internal/models"
	"github.com/campushq/scheduling-api/internal/service"
	appErrors "github.com/campushq/scheduling-api/pkg/errors"
	"github.com/campushq/scheduling-api/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, scheduleID, markedBy string, req service.MarkAttendanceRequest) ([]models.AttendanceRecord, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.AttendanceRecord, error)
}

// AttendanceHandler manages per-session attendance endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Mark godoc
// @Summary Mark attendance for a scheduled session
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.MarkAttendanceRequest true "Attendance marks"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	markedBy := ""
	if claims := claimsFromContext(c); claims != nil {
		markedBy = claims.UserID
	}

	records, err := h.service.Mark(c.Request.Context(), c.Param("id"), markedBy, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// List godoc
// @Summary List attendance records for a scheduled session
// @Tags Attendance
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	records, err := h.service.ListBySchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
