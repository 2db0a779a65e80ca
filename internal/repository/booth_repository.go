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

// BoothRepository manages persistence for teaching booths.
type BoothRepository struct {
	db *sqlx.DB
}

// NewBoothRepository constructs a BoothRepository.
func NewBoothRepository(db *sqlx.DB) *BoothRepository {
	return &BoothRepository{db: db}
}

// List returns booths matching filters along with total count.
func (r *BoothRepository) List(ctx context.Context, filter models.BoothFilter) ([]models.Booth, int, error) {
	base := "FROM booths WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, capacity, notes, active, created_at, updated_at %s ORDER BY name ASC LIMIT %d OFFSET %d", base, size, offset)
	var booths []models.Booth
	if err := r.db.SelectContext(ctx, &booths, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list booths: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count booths: %w", err)
	}

	return booths, total, nil
}

// FindByID fetches a booth by ID.
func (r *BoothRepository) FindByID(ctx context.Context, id string) (*models.Booth, error) {
	const query = `SELECT id, name, capacity, notes, active, created_at, updated_at FROM booths WHERE id = $1`
	var booth models.Booth
	if err := r.db.GetContext(ctx, &booth, query, id); err != nil {
		return nil, err
	}
	return &booth, nil
}

// Create inserts a new booth record.
func (r *BoothRepository) Create(ctx context.Context, booth *models.Booth) error {
	if booth.ID == "" {
		booth.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if booth.CreatedAt.IsZero() {
		booth.CreatedAt = now
	}
	booth.UpdatedAt = now

	const query = `INSERT INTO booths (id, name, capacity, notes, active, created_at, updated_at)
		VALUES (:id, :name, :capacity, :notes, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booth); err != nil {
		return fmt.Errorf("create booth: %w", err)
	}
	return nil
}

// Update modifies an existing booth record.
func (r *BoothRepository) Update(ctx context.Context, booth *models.Booth) error {
	booth.UpdatedAt = time.Now().UTC()
	const query = `UPDATE booths SET name = :name, capacity = :capacity, notes = :notes, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, booth); err != nil {
		return fmt.Errorf("update booth: %w", err)
	}
	return nil
}

// Deactivate sets a booth's active flag to false.
func (r *BoothRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE booths SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate booth: %w", err)
	}
	return nil
}
