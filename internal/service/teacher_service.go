package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mirai-juku/scheduling-api/internal/models"
	"github.com/mirai-juku/scheduling-api/internal/scheduling"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Deactivate(ctx context.Context, id string) error
}

type preferenceWriter interface {
	ListPreferences(ctx context.Context, personID, role string) ([]models.SubjectPreference, error)
	ReplacePreferences(ctx context.Context, personID, role string, subjectIDs []string) error
}

// CreateTeacherRequest captures the payload for registering a teacher.
type CreateTeacherRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	FullName   string   `json:"fullName" validate:"required"`
	Kana       *string  `json:"kana"`
	Phone      *string  `json:"phone"`
	SubjectIDs []string `json:"subjectIds"`
}

// UpdateTeacherRequest captures the payload for editing a teacher.
type UpdateTeacherRequest struct {
	Email      *string   `json:"email" validate:"omitempty,email"`
	FullName   *string   `json:"fullName"`
	Kana       *string   `json:"kana"`
	Phone      *string   `json:"phone"`
	Active     *bool     `json:"active"`
	SubjectIDs *[]string `json:"subjectIds"`
}

// TeacherService handles the teacher roster and its subject links.
type TeacherService struct {
	repo      teacherRepository
	prefs     preferenceWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService builds the service.
func NewTeacherService(repo teacherRepository, prefs preferenceWriter, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, prefs: prefs, validator: validate, logger: logger}
}

// List returns teachers matching the filter with pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return teachers, models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches one teacher.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Subjects returns the teacher's subject links.
func (s *TeacherService) Subjects(ctx context.Context, id string) ([]models.SubjectPreference, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	prefs, err := s.prefs.ListPreferences(ctx, id, string(scheduling.RoleTeacher))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher subjects")
	}
	return prefs, nil
}

// Create registers a new teacher and optional subject links.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	}

	teacher := &models.Teacher{
		Email:    req.Email,
		FullName: req.FullName,
		Kana:     req.Kana,
		Phone:    req.Phone,
		Active:   true,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	if len(req.SubjectIDs) > 0 {
		if err := s.prefs.ReplacePreferences(ctx, teacher.ID, string(scheduling.RoleTeacher), req.SubjectIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store teacher subjects")
		}
	}
	return teacher, nil
}

// Update edits a teacher and optionally rewrites the subject links.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != teacher.Email {
		exists, err := s.repo.ExistsByEmail(ctx, *req.Email, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher email")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
		}
		teacher.Email = *req.Email
	}
	if req.FullName != nil {
		teacher.FullName = *req.FullName
	}
	if req.Kana != nil {
		teacher.Kana = req.Kana
	}
	if req.Phone != nil {
		teacher.Phone = req.Phone
	}
	if req.Active != nil {
		teacher.Active = *req.Active
	}

	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}

	if req.SubjectIDs != nil {
		if err := s.prefs.ReplacePreferences(ctx, id, string(scheduling.RoleTeacher), *req.SubjectIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store teacher subjects")
		}
	}
	return teacher, nil
}

// Deactivate retires a teacher from the roster without deleting history.
func (s *TeacherService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate teacher")
	}
	return nil
}
