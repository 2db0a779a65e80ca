package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirai-juku/scheduling-api/internal/models"
)

func TestSessionRepositoryListForParticipants(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "series_id", "teacher_id", "student_id", "subject_id", "booth_id", "date", "start_time", "end_time", "status", "notes", "created_at", "updated_at"}).
		AddRow("sess-1", nil, "teacher-1", "student-2", "sub-1", "booth-1", date, "10:00", "11:00", "SCHEDULED", nil, now, now)

	mock.ExpectQuery("SELECT (.+) FROM class_sessions").
		WithArgs("CANCELLED", sqlmock.AnyArg(), sqlmock.AnyArg(), "teacher-1", "student-1", "booth-1").
		WillReturnRows(rows)

	sessions, err := repo.ListForParticipants(context.Background(), "teacher-1", "student-1", "booth-1", date, date.AddDate(0, 3, 0))
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "sess-1", sessions[0].ID)
	assert.Equal(t, models.SessionScheduled, sessions[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateBatchIsTransactional(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	seriesID := "series-1"
	sessions := []*models.ClassSession{
		{SeriesID: &seriesID, TeacherID: "t1", StudentID: "s1", SubjectID: "sub", BoothID: "b1", Date: date, StartTime: "10:00", EndTime: "11:00"},
		{SeriesID: &seriesID, TeacherID: "t1", StudentID: "s1", SubjectID: "sub", BoothID: "b1", Date: date.AddDate(0, 0, 7), StartTime: "10:00", EndTime: "11:00"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO class_sessions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO class_sessions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.CreateBatch(context.Background(), sessions)
	require.NoError(t, err)
	assert.NotEmpty(t, sessions[0].ID)
	assert.Equal(t, models.SessionScheduled, sessions[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCancelBySeries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	from := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE class_sessions").
		WithArgs("CANCELLED", sqlmock.AnyArg(), "series-1", from, "SCHEDULED").
		WillReturnResult(sqlmock.NewResult(0, 3))

	cancelled, err := repo.CancelBySeries(context.Background(), "series-1", from)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCancelBySeriesSurfacesRowCountError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	from := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE class_sessions").
		WillReturnResult(sqlmock.NewErrorResult(assert.AnError))

	_, err := repo.CancelBySeries(context.Background(), "series-1", from)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	sessions := []*models.ClassSession{
		{TeacherID: "t1", StudentID: "s1", SubjectID: "sub", BoothID: "b1", Date: date, StartTime: "10:00", EndTime: "11:00"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO class_sessions").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreateBatch(context.Background(), sessions)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
