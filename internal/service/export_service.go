package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/campushub/timetable-api/internal/models"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
	"github.com/campushub/timetable-api/pkg/export"
)

type exportEntryRepository interface {
	ListByTimetable(ctx context.Context, timetableID string) ([]models.TimetableEntry, error)
}

type exportTimetableReader interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
}

type exportCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type exportRoomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type exportLecturerReader interface {
	FindByID(ctx context.Context, id string) (*models.Lecturer, error)
}

// ExportFormat enumerates supported export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus response metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

var exportHeaders = []string{"Day", "Start", "End", "Course", "Type", "Lecturer", "Room"}

// ExportService renders a timetable as a downloadable document. Entries are
// exported in their stored day/time order with referenced names resolved.
type ExportService struct {
	entries    exportEntryRepository
	timetables exportTimetableReader
	courses    exportCourseReader
	rooms      exportRoomReader
	lecturers  exportLecturerReader
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService instantiates ExportService.
func NewExportService(
	entries exportEntryRepository,
	timetables exportTimetableReader,
	courses exportCourseReader,
	rooms exportRoomReader,
	lecturers exportLecturerReader,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		entries:    entries,
		timetables: timetables,
		courses:    courses,
		rooms:      rooms,
		lecturers:  lecturers,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// ExportTimetable renders one timetable in the requested format.
func (s *ExportService) ExportTimetable(ctx context.Context, timetableID string, format ExportFormat) (*ExportResult, error) {
	timetable, err := s.timetables.FindByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	dataset, err := s.buildDataset(ctx, timetableID)
	if err != nil {
		return nil, err
	}

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(*dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("timetable-%s.csv", timetableID),
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(*dataset, timetable.Name)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("timetable-%s.pdf", timetableID),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ExportService) buildDataset(ctx context.Context, timetableID string) (*export.Dataset, error) {
	entries, err := s.entries.ListByTimetable(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entries")
	}

	courseNames := map[string]string{}
	roomNames := map[string]string{}
	lecturerNames := map[string]string{}

	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		courseName, ok := courseNames[entry.CourseID]
		if !ok {
			courseName = entry.CourseID
			if course, err := s.courses.FindByID(ctx, entry.CourseID); err == nil {
				courseName = fmt.Sprintf("%s %s", course.Code, course.Name)
			}
			courseNames[entry.CourseID] = courseName
		}
		roomName, ok := roomNames[entry.RoomID]
		if !ok {
			roomName = entry.RoomID
			if room, err := s.rooms.FindByID(ctx, entry.RoomID); err == nil {
				roomName = room.Name
			}
			roomNames[entry.RoomID] = roomName
		}
		lecturerName, ok := lecturerNames[entry.LecturerID]
		if !ok {
			lecturerName = entry.LecturerID
			if lecturer, err := s.lecturers.FindByID(ctx, entry.LecturerID); err == nil {
				lecturerName = lecturer.FullName
			}
			lecturerNames[entry.LecturerID] = lecturerName
		}

		rows = append(rows, map[string]string{
			"Day":      entry.DayOfWeek,
			"Start":    entry.StartTime(),
			"End":      entry.EndTime(),
			"Course":   courseName,
			"Type":     string(entry.Type),
			"Lecturer": lecturerName,
			"Room":     roomName,
		})
	}

	return &export.Dataset{Headers: exportHeaders, Rows: rows}, nil
}
