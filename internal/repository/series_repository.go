package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mirai-juku/scheduling-api/internal/models"
)

// SeriesRepository manages persistence for lesson series.
type SeriesRepository struct {
	db *sqlx.DB
}

// NewSeriesRepository constructs a SeriesRepository.
func NewSeriesRepository(db *sqlx.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

const seriesColumns = "id, teacher_id, student_id, subject_id, booth_id, start_time, end_time, start_date, end_date, days_of_week, status, created_at, updated_at"

// FindByID fetches a series by ID.
func (r *SeriesRepository) FindByID(ctx context.Context, id string) (*models.LessonSeries, error) {
	query := fmt.Sprintf("SELECT %s FROM lesson_series WHERE id = $1", seriesColumns)
	var series models.LessonSeries
	if err := r.db.GetContext(ctx, &series, query, id); err != nil {
		return nil, err
	}
	return &series, nil
}

// ListActiveByParticipant returns active series for a teacher or student.
func (r *SeriesRepository) ListActiveByParticipant(ctx context.Context, teacherID, studentID string) ([]models.LessonSeries, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_series WHERE status = $1 AND (teacher_id = $2 OR student_id = $3) ORDER BY start_date ASC`, seriesColumns)
	var list []models.LessonSeries
	if err := r.db.SelectContext(ctx, &list, query, models.SeriesActive, teacherID, studentID); err != nil {
		return nil, fmt.Errorf("list series by participant: %w", err)
	}
	return list, nil
}

// Create inserts a new series record.
func (r *SeriesRepository) Create(ctx context.Context, series *models.LessonSeries) error {
	if series.ID == "" {
		series.ID = uuid.NewString()
	}
	if series.Status == "" {
		series.Status = models.SeriesActive
	}
	if len(series.DaysOfWeek) == 0 {
		series.DaysOfWeek = []byte("[]")
	}
	now := time.Now().UTC()
	if series.CreatedAt.IsZero() {
		series.CreatedAt = now
	}
	series.UpdatedAt = now

	const query = `INSERT INTO lesson_series (id, teacher_id, student_id, subject_id, booth_id, start_time, end_time, start_date, end_date, days_of_week, status, created_at, updated_at)
		VALUES (:id, :teacher_id, :student_id, :subject_id, :booth_id, :start_time, :end_time, :start_date, :end_date, :days_of_week, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, series); err != nil {
		return fmt.Errorf("create series: %w", err)
	}
	return nil
}

// UpdateEndDate moves a series' end date, for series extension.
func (r *SeriesRepository) UpdateEndDate(ctx context.Context, id string, endDate *time.Time) error {
	const query = `UPDATE lesson_series SET end_date = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, endDate, time.Now().UTC()); err != nil {
		return fmt.Errorf("update series end date: %w", err)
	}
	return nil
}

// Cancel marks a series as cancelled.
func (r *SeriesRepository) Cancel(ctx context.Context, id string) error {
	const query = `UPDATE lesson_series SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.SeriesCancelled, time.Now().UTC()); err != nil {
		return fmt.Errorf("cancel series: %w", err)
	}
	return nil
}
