package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/scheduling-api/internal/models"
	"github.com/campushq/scheduling-api/internal/service"
	appErrors "github.com/campushq/scheduling-api/pkg/errors"
	"github.com/campushq/scheduling-api/pkg/response"
)

type scheduleServiceMock struct {
	listResp   []models.Schedule
	getResp    *models.Schedule
	createResp *models.Schedule
	createErr  error
	updateErr  error
	cancelErr  error
	bulkResp   []models.Schedule
	bulkErr    error
	upsertResp *service.UpsertResult
}

func (m *scheduleServiceMock) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	return m.listResp, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.listResp)}, nil
}

func (m *scheduleServiceMock) Get(ctx context.Context, id string) (*models.Schedule, error) {
	if m.getResp == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return m.getResp, nil
}

func (m *scheduleServiceMock) Create(ctx context.Context, req service.CreateScheduleRequest) (*models.Schedule, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createResp, nil
}

func (m *scheduleServiceMock) Update(ctx context.Context, id string, req service.UpdateScheduleRequest) (*models.Schedule, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.createResp, nil
}

func (m *scheduleServiceMock) Cancel(ctx context.Context, id string) error {
	return m.cancelErr
}

func (m *scheduleServiceMock) BulkCreate(ctx context.Context, req service.BulkCreateSchedulesRequest) ([]models.Schedule, error) {
	if m.bulkErr != nil {
		return nil, m.bulkErr
	}
	return m.bulkResp, nil
}

func (m *scheduleServiceMock) Upsert(ctx context.Context, req service.CreateScheduleRequest) (*service.UpsertResult, error) {
	return m.upsertResp, nil
}

func scheduleTestContext(t *testing.T, method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestScheduleHandlerCreate(t *testing.T) {
	mock := &scheduleServiceMock{createResp: &models.Schedule{ID: "sched-1", Status: models.ScheduleStatusActive}}
	handler := NewScheduleHandler(mock)

	c, w := scheduleTestContext(t, http.MethodPost, "/schedules", service.CreateScheduleRequest{
		RoomID:       "room-1",
		CourseID:     "course-1",
		InstructorID: "inst-1",
		Date:         "2026-09-01",
		StartTime:    "09:00",
		EndTime:      "10:00",
	})
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotNil(t, envelope.Data)
}

func TestScheduleHandlerCreateInvalidBody(t *testing.T) {
	handler := NewScheduleHandler(&scheduleServiceMock{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules", bytes.NewReader([]byte(`not-json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerCreateConflictCarriesViolations(t *testing.T) {
	rejected := &models.ScheduleRejectedError{
		Message: "schedule validation failed",
		Result: &models.ValidationResult{
			Accepted: false,
			Violations: []models.Violation{
				{Kind: models.ViolationRoomConflict, Message: "room busy", ConflictingScheduleID: "sched-9"},
			},
		},
	}
	mock := &scheduleServiceMock{
		createErr: appErrors.Wrap(rejected, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, rejected.Message),
	}
	handler := NewScheduleHandler(mock)

	c, w := scheduleTestContext(t, http.MethodPost, "/schedules", service.CreateScheduleRequest{
		RoomID:       "room-1",
		CourseID:     "course-1",
		InstructorID: "inst-1",
		Date:         "2026-09-01",
		StartTime:    "09:00",
		EndTime:      "10:00",
	})
	handler.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Error      *appErrors.Error         `json:"error"`
		Violations *models.ValidationResult `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrConflict.Code, envelope.Error.Code)
	require.NotNil(t, envelope.Violations)
	require.Len(t, envelope.Violations.Violations, 1)
	assert.Equal(t, models.ViolationRoomConflict, envelope.Violations.Violations[0].Kind)
}

func TestScheduleHandlerList(t *testing.T) {
	mock := &scheduleServiceMock{listResp: []models.Schedule{{ID: "sched-1"}}}
	handler := NewScheduleHandler(mock)

	c, w := scheduleTestContext(t, http.MethodGet, "/schedules?date=2026-09-01", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestScheduleHandlerGetNotFound(t *testing.T) {
	handler := NewScheduleHandler(&scheduleServiceMock{})

	c, w := scheduleTestContext(t, http.MethodGet, "/schedules/sched-x", nil)
	c.Params = gin.Params{{Key: "id", Value: "sched-x"}}
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleHandlerCancel(t *testing.T) {
	handler := NewScheduleHandler(&scheduleServiceMock{})

	c, w := scheduleTestContext(t, http.MethodDelete, "/schedules/sched-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}
	handler.Cancel(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestScheduleHandlerUpsertStatus(t *testing.T) {
	payload := service.CreateScheduleRequest{
		RoomID:       "room-1",
		CourseID:     "course-1",
		InstructorID: "inst-1",
		Date:         "2026-09-01",
		StartTime:    "09:00",
		EndTime:      "10:00",
	}

	created := &scheduleServiceMock{upsertResp: &service.UpsertResult{Schedule: &models.Schedule{ID: "sched-1"}, Created: true}}
	c, w := scheduleTestContext(t, http.MethodPut, "/schedules/upsert", payload)
	NewScheduleHandler(created).Upsert(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	updated := &scheduleServiceMock{upsertResp: &service.UpsertResult{Schedule: &models.Schedule{ID: "sched-1"}, Created: false}}
	c, w = scheduleTestContext(t, http.MethodPut, "/schedules/upsert", payload)
	NewScheduleHandler(updated).Upsert(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
