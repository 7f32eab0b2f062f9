package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/scheduling-api/internal/models"
	"github.com/campushq/scheduling-api/internal/service"
	"github.com/campushq/scheduling-api/pkg/response"
)

type exportService interface {
	ExportTimetable(ctx context.Context, filter models.ScheduleFilter, format string) (*service.ExportFile, error)
}

// ExportHandler serves timetable downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Export the filtered timetable as CSV or PDF
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param date query string false "Filter by date (YYYY-MM-DD)"
// @Param roomId query string false "Filter by room"
// @Param courseId query string false "Filter by course"
// @Param instructorId query string false "Filter by instructor"
// @Success 200 {file} file
// @Router /schedules/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	filter := scheduleFilterFromQuery(c)
	format := c.DefaultQuery("format", service.ExportFormatCSV)

	file, err := h.service.ExportTimetable(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
