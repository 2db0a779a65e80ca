package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/models"
	"github.com/mirai-juku/scheduling-api/internal/scheduling"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
)

type sessionFixture struct {
	svc      *SessionService
	windows  *windowsStub
	sessions *sessionsStub
}

func newSessionFixture() *sessionFixture {
	windows := newWindowsStub()
	sessions := &sessionsStub{}
	teachers := &teacherDirStub{items: map[string]*models.Teacher{"t1": {ID: "t1", FullName: "Tanaka"}}}
	students := &studentDirStub{items: map[string]*models.Student{"s1": {ID: "s1", FullName: "Sato"}}}
	booths := &boothDirStub{items: map[string]*models.Booth{"b1": {ID: "b1", Name: "A"}}}
	svc := NewSessionService(sessions, windows, teachers, students, booths, nil, nil, nil)
	return &sessionFixture{svc: svc, windows: windows, sessions: sessions}
}

func oneOffRequest(startTime, endTime string, force bool) dto.CreateSessionRequest {
	return dto.CreateSessionRequest{
		TeacherID: "t1",
		StudentID: "s1",
		SubjectID: "sub1",
		BoothID:   "b1",
		Date:      "2025-01-06",
		StartTime: startTime,
		EndTime:   endTime,
		Force:     force,
	}
}

func TestSessionCreate(t *testing.T) {
	f := newSessionFixture()
	f.windows.addRegular("t1", "teacher", "MONDAY", scheduling.TimeRange{StartTime: "09:00", EndTime: "12:00"})

	session, conflicts, err := f.svc.Create(context.Background(), oneOffRequest("10:00", "11:00", false))
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	require.NotNil(t, session)
	assert.Equal(t, "sess-created", session.ID)
	assert.Equal(t, "2025-01-06", session.Date.Format(dto.DateLayout))
	require.Len(t, f.sessions.created, 1)
}

func TestSessionCreateRejectedOutsideWindow(t *testing.T) {
	f := newSessionFixture()
	f.windows.addRegular("t1", "teacher", "MONDAY", scheduling.TimeRange{StartTime: "09:00", EndTime: "12:00"})

	session, conflicts, err := f.svc.Create(context.Background(), oneOffRequest("13:00", "14:00", false))
	require.Error(t, err)
	assert.Nil(t, session)
	require.NotEmpty(t, conflicts)
	assert.Equal(t, scheduling.ConflictTeacherWrongTime, conflicts[0].Type)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.sessions.created)
}

func TestSessionCreateForceSkipsAvailabilityOnly(t *testing.T) {
	f := newSessionFixture()
	f.windows.addRegular("t1", "teacher", "MONDAY", scheduling.TimeRange{StartTime: "09:00", EndTime: "12:00"})

	session, conflicts, err := f.svc.Create(context.Background(), oneOffRequest("13:00", "14:00", true))
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	require.NotNil(t, session)
	require.Len(t, f.sessions.created, 1)
}

func TestSessionCreateRejectsOffGridTimes(t *testing.T) {
	f := newSessionFixture()
	f.sessions.existing = []models.ClassSession{{
		ID:        "other",
		TeacherID: "t9",
		StudentID: "s9",
		BoothID:   "b1",
		Date:      time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		EndTime:   "11:00",
	}}

	// Force must not smuggle an unplaceable time past validation into the
	// booth's booked hour.
	session, conflicts, err := f.svc.Create(context.Background(), oneOffRequest("10:07", "11:07", true))
	require.Error(t, err)
	assert.Nil(t, session)
	assert.Empty(t, conflicts)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.sessions.created)
}

func TestSessionUpdateRejectsOffGridMove(t *testing.T) {
	f := newSessionFixture()
	f.sessions.existing = []models.ClassSession{{
		ID: "sess-1", TeacherID: "t1", StudentID: "s1", BoothID: "b1",
		Date:      time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00", EndTime: "11:00", Status: models.SessionScheduled,
	}}

	start, end := "10:07", "11:07"
	_, _, err := f.svc.Update(context.Background(), "sess-1", dto.UpdateSessionRequest{
		StartTime: &start,
		EndTime:   &end,
		Force:     true,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.sessions.updated)
}

func TestSessionCreateForceCannotOverrideBoothConflict(t *testing.T) {
	f := newSessionFixture()
	f.sessions.existing = []models.ClassSession{{
		ID:        "other",
		TeacherID: "t9",
		StudentID: "s9",
		BoothID:   "b1",
		Date:      time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		EndTime:   "11:00",
	}}

	session, conflicts, err := f.svc.Create(context.Background(), oneOffRequest("10:30", "11:30", true))
	require.Error(t, err)
	assert.Nil(t, session)
	require.NotEmpty(t, conflicts)
	assert.Equal(t, scheduling.ConflictBooth, conflicts[0].Type)
	assert.Empty(t, f.sessions.created)
}

func TestSessionCreateRejectsDoubleBookedTeacher(t *testing.T) {
	f := newSessionFixture()
	f.sessions.existing = []models.ClassSession{{
		ID:        "other",
		TeacherID: "t1",
		StudentID: "s9",
		BoothID:   "b9",
		Date:      time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		EndTime:   "11:00",
	}}

	_, conflicts, err := f.svc.Create(context.Background(), oneOffRequest("10:00", "11:00", true))
	require.Error(t, err)
	require.NotEmpty(t, conflicts)
	assert.Equal(t, scheduling.ConflictTeacherUnavailable, conflicts[0].Type)
	assert.Contains(t, conflicts[0].Details, "already has a lesson")
}

func TestSessionUpdateMoveExcludesOwnSlot(t *testing.T) {
	f := newSessionFixture()
	f.sessions.existing = []models.ClassSession{{
		ID:        "sess-1",
		TeacherID: "t1",
		StudentID: "s1",
		BoothID:   "b1",
		Date:      time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		EndTime:   "11:00",
		Status:    models.SessionScheduled,
	}}

	// Shifting by 15 minutes overlaps the session's own old slot; only that
	// slot exists, so the move must succeed.
	start, end := "10:15", "11:15"
	session, conflicts, err := f.svc.Update(context.Background(), "sess-1", dto.UpdateSessionRequest{
		StartTime: &start,
		EndTime:   &end,
		Force:     true,
	})
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.Equal(t, "10:15", session.StartTime)
	require.Len(t, f.sessions.updated, 1)
}

func TestSessionUpdateMoveOntoOtherBookingFails(t *testing.T) {
	f := newSessionFixture()
	f.sessions.existing = []models.ClassSession{
		{
			ID: "sess-1", TeacherID: "t1", StudentID: "s1", BoothID: "b1",
			Date:      time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
			StartTime: "10:00", EndTime: "11:00", Status: models.SessionScheduled,
		},
		{
			ID: "sess-2", TeacherID: "t9", StudentID: "s9", BoothID: "b1",
			Date:      time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
			StartTime: "12:00", EndTime: "13:00", Status: models.SessionScheduled,
		},
	}

	start, end := "12:00", "13:00"
	_, conflicts, err := f.svc.Update(context.Background(), "sess-1", dto.UpdateSessionRequest{
		StartTime: &start,
		EndTime:   &end,
		Force:     true,
	})
	require.Error(t, err)
	require.NotEmpty(t, conflicts)
	assert.Equal(t, scheduling.ConflictBooth, conflicts[0].Type)
	assert.Empty(t, f.sessions.updated)
}

func TestSessionCancelIsIdempotent(t *testing.T) {
	f := newSessionFixture()
	f.sessions.existing = []models.ClassSession{{
		ID: "sess-1", TeacherID: "t1", StudentID: "s1", BoothID: "b1",
		Date:      time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00", EndTime: "11:00", Status: models.SessionCancelled,
	}}

	session, err := f.svc.Cancel(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, session.Status)
	assert.Empty(t, f.sessions.updated)
}

func TestSessionDayScheduleRejectsBadDate(t *testing.T) {
	f := newSessionFixture()

	_, err := f.svc.DaySchedule(context.Background(), "06-01-2025")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
