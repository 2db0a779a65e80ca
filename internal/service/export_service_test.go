package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirai-juku/scheduling-api/internal/models"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
)

type subjectFinderStub struct {
	items map[string]*models.Subject
}

func (s *subjectFinderStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if sub, ok := s.items[id]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func newExportFixture(enabled bool) (*ExportService, *sessionsStub) {
	sessions := &sessionsStub{}
	teachers := &teacherDirStub{items: map[string]*models.Teacher{"t1": {ID: "t1", FullName: "Tanaka"}}}
	students := &studentDirStub{items: map[string]*models.Student{"s1": {ID: "s1", FullName: "Sato"}}}
	subjects := &subjectFinderStub{items: map[string]*models.Subject{"sub1": {ID: "sub1", Name: "Math JH"}}}
	booths := &boothDirStub{items: map[string]*models.Booth{"b1": {ID: "b1", Name: "Booth A"}}}
	return NewExportService(sessions, teachers, students, subjects, booths, enabled, nil), sessions
}

func TestExportDayScheduleCSV(t *testing.T) {
	svc, sessions := newExportFixture(true)
	sessions.existing = []models.ClassSession{{
		ID: "sess-1", TeacherID: "t1", StudentID: "s1", SubjectID: "sub1", BoothID: "b1",
		Date:      time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00", EndTime: "11:00", Status: models.SessionScheduled,
	}}

	artifact, err := svc.DaySchedule(context.Background(), "2025-01-06", "csv")
	require.NoError(t, err)

	assert.Equal(t, "schedule-2025-01-06.csv", artifact.Filename)
	assert.Equal(t, "text/csv", artifact.ContentType)

	body := string(artifact.Data)
	assert.True(t, strings.HasPrefix(body, "Time,Booth,Teacher,Student,Subject,Status"))
	assert.Contains(t, body, "10:00-11:00,Booth A,Tanaka,Sato,Math JH,SCHEDULED")
}

func TestExportDayScheduleUnknownNamesFallBack(t *testing.T) {
	svc, sessions := newExportFixture(true)
	sessions.existing = []models.ClassSession{{
		ID: "sess-1", TeacherID: "ghost", StudentID: "s1", SubjectID: "sub1", BoothID: "b1",
		Date:      time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00", EndTime: "11:00", Status: models.SessionScheduled,
	}}

	artifact, err := svc.DaySchedule(context.Background(), "2025-01-06", "")
	require.NoError(t, err)
	assert.Contains(t, string(artifact.Data), "ghost")
}

func TestExportDaySchedulePDF(t *testing.T) {
	svc, sessions := newExportFixture(true)
	sessions.existing = []models.ClassSession{{
		ID: "sess-1", TeacherID: "t1", StudentID: "s1", SubjectID: "sub1", BoothID: "b1",
		Date:      time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00", EndTime: "11:00", Status: models.SessionScheduled,
	}}

	artifact, err := svc.DaySchedule(context.Background(), "2025-01-06", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", artifact.ContentType)
	assert.NotEmpty(t, artifact.Data)
}

func TestExportDisabled(t *testing.T) {
	svc, _ := newExportFixture(false)

	_, err := svc.DaySchedule(context.Background(), "2025-01-06", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportFixture(true)

	_, err := svc.DaySchedule(context.Background(), "2025-01-06", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
