package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mirai-juku/scheduling-api/internal/models"
)

// SessionRepository manages persistence for class sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = "id, series_id, teacher_id, student_id, subject_id, booth_id, date, start_time, end_time, status, notes, created_at, updated_at"

// List returns sessions matching filters along with total count.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, int, error) {
	base := "FROM class_sessions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.BoothID != "" {
		conditions = append(conditions, fmt.Sprintf("booth_id = $%d", len(args)+1))
		args = append(args, filter.BoothID)
	}
	if filter.SeriesID != "" {
		conditions = append(conditions, fmt.Sprintf("series_id = $%d", len(args)+1))
		args = append(args, filter.SeriesID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "date"
	}
	allowedSorts := map[string]string{
		"date":       "date, start_time",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "date, start_time"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", sessionColumns, base, column, order, size, offset)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// FindByID fetches a session by ID.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE id = $1", sessionColumns)
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListForParticipants returns non-cancelled sessions in a date range that
// involve the given teacher, student or booth. Conflict detection feeds on
// this set.
func (r *SessionRepository) ListForParticipants(ctx context.Context, teacherID, studentID, boothID string, from, to time.Time) ([]models.ClassSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_sessions
		WHERE status <> $1 AND date >= $2 AND date <= $3
		AND (teacher_id = $4 OR student_id = $5 OR booth_id = $6)
		ORDER BY date ASC, start_time ASC`, sessionColumns)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, models.SessionCancelled, from, to, teacherID, studentID, boothID); err != nil {
		return nil, fmt.Errorf("list sessions for participants: %w", err)
	}
	return sessions, nil
}

// ListByDate returns every non-cancelled session on one calendar date.
func (r *SessionRepository) ListByDate(ctx context.Context, date time.Time) ([]models.ClassSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_sessions WHERE date = $1 AND status <> $2 ORDER BY start_time ASC, booth_id ASC`, sessionColumns)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, date, models.SessionCancelled); err != nil {
		return nil, fmt.Errorf("list sessions by date: %w", err)
	}
	return sessions, nil
}

// Create inserts a single session record.
func (r *SessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	prepareSession(session)
	const query = `INSERT INTO class_sessions (id, series_id, teacher_id, student_id, subject_id, booth_id, date, start_time, end_time, status, notes, created_at, updated_at)
		VALUES (:id, :series_id, :teacher_id, :student_id, :subject_id, :booth_id, :date, :start_time, :end_time, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// CreateBatch inserts sessions atomically. Series materialization uses this
// so a failed insert never leaves a partial series behind.
func (r *SessionRepository) CreateBatch(ctx context.Context, sessions []*models.ClassSession) error {
	if len(sessions) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create batch: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO class_sessions (id, series_id, teacher_id, student_id, subject_id, booth_id, date, start_time, end_time, status, notes, created_at, updated_at)
		VALUES (:id, :series_id, :teacher_id, :student_id, :subject_id, :booth_id, :date, :start_time, :end_time, :status, :notes, :created_at, :updated_at)`
	for _, session := range sessions {
		prepareSession(session)
		if _, err := tx.NamedExecContext(ctx, query, session); err != nil {
			return fmt.Errorf("insert session batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create batch: %w", err)
	}
	return nil
}

// Update modifies an existing session record.
func (r *SessionRepository) Update(ctx context.Context, session *models.ClassSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_sessions SET booth_id = :booth_id, date = :date, start_time = :start_time, end_time = :end_time, status = :status, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session record.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM class_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CancelBySeries cancels every future scheduled session of a series.
func (r *SessionRepository) CancelBySeries(ctx context.Context, seriesID string, from time.Time) (int64, error) {
	const query = `UPDATE class_sessions SET status = $1, updated_at = $2 WHERE series_id = $3 AND date >= $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, models.SessionCancelled, time.Now().UTC(), seriesID, from, models.SessionScheduled)
	if err != nil {
		return 0, fmt.Errorf("cancel sessions by series: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel sessions by series: row count: %w", err)
	}
	return affected, nil
}

func prepareSession(session *models.ClassSession) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Status == "" {
		session.Status = models.SessionScheduled
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
}
