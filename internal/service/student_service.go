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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

// CreateStudentRequest captures the payload for enrolling a student.
type CreateStudentRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	FullName   string   `json:"fullName" validate:"required"`
	Kana       *string  `json:"kana"`
	GradeLevel *string  `json:"gradeLevel"`
	Phone      *string  `json:"phone"`
	SubjectIDs []string `json:"subjectIds"`
}

// UpdateStudentRequest captures the payload for editing a student.
type UpdateStudentRequest struct {
	Email      *string   `json:"email" validate:"omitempty,email"`
	FullName   *string   `json:"fullName"`
	Kana       *string   `json:"kana"`
	GradeLevel *string   `json:"gradeLevel"`
	Phone      *string   `json:"phone"`
	Active     *bool     `json:"active"`
	SubjectIDs *[]string `json:"subjectIds"`
}

// StudentService handles the student roster and its subject links.
type StudentService struct {
	repo      studentRepository
	prefs     preferenceWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService builds the service.
func NewStudentService(repo studentRepository, prefs preferenceWriter, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, prefs: prefs, validator: validate, logger: logger}
}

// List returns students matching the filter with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Subjects returns the student's subject links.
func (s *StudentService) Subjects(ctx context.Context, id string) ([]models.SubjectPreference, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	prefs, err := s.prefs.ListPreferences(ctx, id, string(scheduling.RoleStudent))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student subjects")
	}
	return prefs, nil
}

// Create enrolls a new student and optional subject links.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	}

	student := &models.Student{
		Email:      req.Email,
		FullName:   req.FullName,
		Kana:       req.Kana,
		GradeLevel: req.GradeLevel,
		Phone:      req.Phone,
		Active:     true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	if len(req.SubjectIDs) > 0 {
		if err := s.prefs.ReplacePreferences(ctx, student.ID, string(scheduling.RoleStudent), req.SubjectIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store student subjects")
		}
	}
	return student, nil
}

// Update edits a student and optionally rewrites the subject links.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != student.Email {
		exists, err := s.repo.ExistsByEmail(ctx, *req.Email, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student email")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
		}
		student.Email = *req.Email
	}
	if req.FullName != nil {
		student.FullName = *req.FullName
	}
	if req.Kana != nil {
		student.Kana = req.Kana
	}
	if req.GradeLevel != nil {
		student.GradeLevel = req.GradeLevel
	}
	if req.Phone != nil {
		student.Phone = req.Phone
	}
	if req.Active != nil {
		student.Active = *req.Active
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	if req.SubjectIDs != nil {
		if err := s.prefs.ReplacePreferences(ctx, id, string(scheduling.RoleStudent), *req.SubjectIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store student subjects")
		}
	}
	return student, nil
}

// Deactivate retires a student from the roster without deleting history.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	return nil
}
