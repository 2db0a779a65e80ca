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

// SubjectRepository manages subjects and per-person subject preferences.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects matching filters along with total count.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Family != "" {
		conditions = append(conditions, fmt.Sprintf("family = $%d", len(args)+1))
		args = append(args, filter.Family)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
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

	query := fmt.Sprintf("SELECT id, name, family, level, active, created_at, updated_at %s ORDER BY family ASC, level ASC, name ASC LIMIT %d OFFSET %d", base, size, offset)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	return subjects, total, nil
}

// FindByID fetches a subject by ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name, family, level, active, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create inserts a new subject record.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now

	const query = `INSERT INTO subjects (id, name, family, level, active, created_at, updated_at)
		VALUES (:id, :name, :family, :level, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies an existing subject record.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET name = :name, family = :family, level = :level, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// ListPreferences returns the subject preferences for one person and role.
func (r *SubjectRepository) ListPreferences(ctx context.Context, personID, role string) ([]models.SubjectPreference, error) {
	const query = `SELECT sp.id, sp.person_id, sp.role, sp.subject_id, s.family, s.level, sp.created_at
		FROM subject_preferences sp
		JOIN subjects s ON s.id = sp.subject_id
		WHERE sp.person_id = $1 AND sp.role = $2
		ORDER BY s.family ASC, s.level ASC`
	var prefs []models.SubjectPreference
	if err := r.db.SelectContext(ctx, &prefs, query, personID, role); err != nil {
		return nil, fmt.Errorf("list subject preferences: %w", err)
	}
	return prefs, nil
}

// ListPreferencesByRole returns every preference for a role, for ranking a
// whole candidate pool in one round trip.
func (r *SubjectRepository) ListPreferencesByRole(ctx context.Context, role string) ([]models.SubjectPreference, error) {
	const query = `SELECT sp.id, sp.person_id, sp.role, sp.subject_id, s.family, s.level, sp.created_at
		FROM subject_preferences sp
		JOIN subjects s ON s.id = sp.subject_id
		WHERE sp.role = $1`
	var prefs []models.SubjectPreference
	if err := r.db.SelectContext(ctx, &prefs, query, role); err != nil {
		return nil, fmt.Errorf("list subject preferences by role: %w", err)
	}
	return prefs, nil
}

// ReplacePreferences swaps a person's subject preferences inside one
// transaction.
func (r *SubjectRepository) ReplacePreferences(ctx context.Context, personID, role string, subjectIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace preferences: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subject_preferences WHERE person_id = $1 AND role = $2`, personID, role); err != nil {
		return fmt.Errorf("clear subject preferences: %w", err)
	}

	now := time.Now().UTC()
	for _, subjectID := range subjectIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subject_preferences (id, person_id, role, subject_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), personID, role, subjectID, now); err != nil {
			return fmt.Errorf("insert subject preference: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace preferences: %w", err)
	}
	return nil
}
