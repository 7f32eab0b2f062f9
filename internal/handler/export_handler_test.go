package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/scheduling-api/internal/models"
	"github.com/campushq/scheduling-api/internal/service"
)

type exportServiceMock struct {
	file   *service.ExportFile
	format string
	err    error
}

func (m *exportServiceMock) ExportTimetable(ctx context.Context, filter models.ScheduleFilter, format string) (*service.ExportFile, error) {
	m.format = format
	if m.err != nil {
		return nil, m.err
	}
	return m.file, nil
}

func TestExportHandlerServesDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &exportServiceMock{file: &service.ExportFile{
		FileName:    "timetable-2026-09-01.csv",
		ContentType: "text/csv",
		Content:     []byte("Date,Start\n"),
	}}
	handler := NewExportHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedules/export?format=csv&date=2026-09-01", nil)
	c.Request = req

	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mock.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable-2026-09-01.csv")
	assert.Equal(t, "Date,Start\n", w.Body.String())
}

func TestExportHandlerDefaultsToCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &exportServiceMock{file: &service.ExportFile{FileName: "timetable.csv", ContentType: "text/csv"}}
	handler := NewExportHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedules/export", nil)
	c.Request = req

	handler.Export(c)
	assert.Equal(t, service.ExportFormatCSV, mock.format)
}
