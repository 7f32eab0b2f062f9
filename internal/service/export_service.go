package service

import (
	"context"
	"fmt"

	"github.com/campushq/scheduling-api/internal/models"
	"github.com/campushq/scheduling-api/pkg/config"
	appErrors "github.com/campushq/scheduling-api/pkg/errors"
	"github.com/campushq/scheduling-api/pkg/export"
)

// Export formats supported for timetables.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type scheduleLister interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error)
}

// ExportFile is a rendered timetable ready to be served as a download.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders filtered timetables into downloadable CSV or PDF
// files.
type ExportService struct {
	schedules scheduleLister
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	cfg       config.SchedulingConfig
}

// NewExportService constructs an ExportService.
func NewExportService(schedules scheduleLister, csv *export.CSVExporter, pdf *export.PDFExporter, cfg config.SchedulingConfig) *ExportService {
	return &ExportService{schedules: schedules, csv: csv, pdf: pdf, cfg: cfg}
}

var timetableColumns = []export.Column{
	{Key: "date", Title: "Date", Weight: 1.2},
	{Key: "start_time", Title: "Start", Weight: 1},
	{Key: "end_time", Title: "End", Weight: 1},
	{Key: "room_id", Title: "Room", Weight: 1.5},
	{Key: "course_id", Title: "Course", Weight: 1.5},
	{Key: "instructor_id", Title: "Instructor", Weight: 1.5},
	{Key: "status", Title: "Status", Weight: 1},
}

// ExportTimetable renders the schedules matching the filter. The filter's
// pagination is overridden: an export always covers the whole result set up
// to the configured row cap.
func (s *ExportService) ExportTimetable(ctx context.Context, filter models.ScheduleFilter, format string) (*ExportFile, error) {
	if !s.cfg.ExportEnabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "timetable export is disabled")
	}

	maxRows := s.cfg.ExportMaxRows
	if maxRows <= 0 {
		maxRows = 1000
	}
	filter.Page = 1
	filter.PageSize = maxRows

	schedules, pagination, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if pagination != nil && pagination.TotalCount > maxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("export would cover %d rows, limit is %d; narrow the filter", pagination.TotalCount, maxRows))
	}

	table := export.Table{Columns: timetableColumns, Rows: make([]map[string]string, 0, len(schedules))}
	for _, sched := range schedules {
		table.Rows = append(table.Rows, map[string]string{
			"date":          sched.Date,
			"start_time":    sched.StartTime,
			"end_time":      sched.EndTime,
			"room_id":       sched.RoomID,
			"course_id":     sched.CourseID,
			"instructor_id": sched.InstructorID,
			"status":        string(sched.Status),
		})
	}

	name := "timetable"
	if filter.Date != "" {
		name += "-" + filter.Date
	}

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{FileName: name + ".csv", ContentType: "text/csv", Content: content}, nil
	case ExportFormatPDF:
		title := "Timetable"
		if filter.Date != "" {
			title += " " + filter.Date
		}
		content, err := s.pdf.Render(table, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{FileName: name + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
