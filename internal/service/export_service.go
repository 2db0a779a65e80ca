package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/models"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
	"github.com/mirai-juku/scheduling-api/pkg/export"
)

type dayScheduleLister interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.ClassSession, error)
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// ExportArtifact is a rendered export ready to stream to the client.
type ExportArtifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders a day's booth schedule as CSV or PDF.
type ExportService struct {
	sessions dayScheduleLister
	teachers teacherFinder
	students studentFinder
	subjects subjectFinder
	booths   boothFinder
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	enabled  bool
	logger   *zap.Logger
}

// NewExportService builds the service.
func NewExportService(sessions dayScheduleLister, teachers teacherFinder, students studentFinder, subjects subjectFinder, booths boothFinder, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		sessions: sessions,
		teachers: teachers,
		students: students,
		subjects: subjects,
		booths:   booths,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		enabled:  enabled,
		logger:   logger,
	}
}

var dayScheduleHeaders = []string{"Time", "Booth", "Teacher", "Student", "Subject", "Status"}

// DaySchedule renders the schedule for one date in the requested format.
func (s *ExportService) DaySchedule(ctx context.Context, dateStr, format string) (*ExportArtifact, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	date, err := time.ParseInLocation(dto.DateLayout, dateStr, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}

	sessions, err := s.sessions.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day schedule")
	}

	dataset := export.Dataset{Headers: dayScheduleHeaders}
	names := newNameCache()
	for _, session := range sessions {
		dataset.Rows = append(dataset.Rows, []string{
			fmt.Sprintf("%s-%s", session.StartTime, session.EndTime),
			names.booth(ctx, s.booths, session.BoothID),
			names.teacher(ctx, s.teachers, session.TeacherID),
			names.student(ctx, s.students, session.StudentID),
			names.subject(ctx, s.subjects, session.SubjectID),
			string(session.Status),
		})
	}

	switch format {
	case "", "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportArtifact{
			Filename:    fmt.Sprintf("schedule-%s.csv", dateStr),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case "pdf":
		data, err := s.pdf.Render(dataset, fmt.Sprintf("Schedule %s", dateStr))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportArtifact{
			Filename:    fmt.Sprintf("schedule-%s.pdf", dateStr),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
}

// nameCache memoizes roster lookups within one export run. Unknown IDs fall
// back to the raw ID rather than failing the whole export.
type nameCache struct {
	values map[string]string
}

func newNameCache() *nameCache {
	return &nameCache{values: make(map[string]string)}
}

func (c *nameCache) teacher(ctx context.Context, repo teacherFinder, id string) string {
	return c.lookup("teacher:"+id, id, func() (string, error) {
		t, err := repo.FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return t.FullName, nil
	})
}

func (c *nameCache) student(ctx context.Context, repo studentFinder, id string) string {
	return c.lookup("student:"+id, id, func() (string, error) {
		st, err := repo.FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return st.FullName, nil
	})
}

func (c *nameCache) subject(ctx context.Context, repo subjectFinder, id string) string {
	return c.lookup("subject:"+id, id, func() (string, error) {
		sub, err := repo.FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return sub.Name, nil
	})
}

func (c *nameCache) booth(ctx context.Context, repo boothFinder, id string) string {
	return c.lookup("booth:"+id, id, func() (string, error) {
		b, err := repo.FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return b.Name, nil
	})
}

func (c *nameCache) lookup(key, fallback string, load func() (string, error)) string {
	if cached, ok := c.values[key]; ok {
		return cached
	}
	name, err := load()
	if err != nil {
		name = fallback
	}
	c.values[key] = name
	return name
}
