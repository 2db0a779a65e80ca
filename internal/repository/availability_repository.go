package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mirai-juku/scheduling-api/internal/models"
)

// AvailabilityRepository persists availability windows for teachers and
// students.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByPerson returns every stored window for one person, recurring first.
func (r *AvailabilityRepository) ListByPerson(ctx context.Context, personID, role string) ([]models.AvailabilityWindow, error) {
	const query = `SELECT id, person_id, role, kind, weekday, date, full_day, ranges, created_at, updated_at
		FROM availability_windows
		WHERE person_id = $1 AND role = $2
		ORDER BY kind ASC, weekday ASC NULLS LAST, date ASC NULLS LAST`
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, personID, role); err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}
	return windows, nil
}

// Replace swaps a person's full window set inside one transaction so readers
// never observe a half-written schedule.
func (r *AvailabilityRepository) Replace(ctx context.Context, personID, role string, windows []models.AvailabilityWindow) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace availability: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_windows WHERE person_id = $1 AND role = $2`, personID, role); err != nil {
		return fmt.Errorf("clear availability windows: %w", err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO availability_windows (id, person_id, role, kind, weekday, date, full_day, ranges, created_at, updated_at)
		VALUES (:id, :person_id, :role, :kind, :weekday, :date, :full_day, :ranges, :created_at, :updated_at)`
	for i := range windows {
		w := &windows[i]
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		w.PersonID = personID
		w.Role = role
		if len(w.Ranges) == 0 {
			w.Ranges = []byte("[]")
		}
		w.CreatedAt = now
		w.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insert, w); err != nil {
			return fmt.Errorf("insert availability window: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace availability: %w", err)
	}
	return nil
}

// DeleteExceptionsBefore drops date exceptions older than the cutoff.
func (r *AvailabilityRepository) DeleteExceptionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM availability_windows WHERE kind = $1 AND date < $2`
	result, err := r.db.ExecContext(ctx, query, models.AvailabilityExceptional, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale exceptions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
