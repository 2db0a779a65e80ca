package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/models"
	"github.com/mirai-juku/scheduling-api/internal/scheduling"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
)

type teacherRoster interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type studentRoster interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type subjectPreferenceRepo interface {
	ListPreferences(ctx context.Context, personID, role string) ([]models.SubjectPreference, error)
	ListPreferencesByRole(ctx context.Context, role string) ([]models.SubjectPreference, error)
}

// CompatibilityService ranks candidate teachers for a student (and vice
// versa) by subject preference overlap.
type CompatibilityService struct {
	teachers  teacherRoster
	students  studentRoster
	subjects  subjectPreferenceRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCompatibilityService builds the service.
func NewCompatibilityService(teachers teacherRoster, students studentRoster, subjects subjectPreferenceRepo, validate *validator.Validate, logger *zap.Logger) *CompatibilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompatibilityService{teachers: teachers, students: students, subjects: subjects, validator: validate, logger: logger}
}

// Rank dispatches on which anchor the query names: a studentId ranks the
// teacher pool, a teacherId ranks the student pool.
func (s *CompatibilityService) Rank(ctx context.Context, query dto.RankQuery) (*dto.RankResponse, error) {
	switch {
	case query.StudentID != "" && query.TeacherID != "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "provide studentId or teacherId, not both")
	case query.StudentID != "":
		return s.rankTeachers(ctx, query.StudentID, query.SubjectFamily)
	case query.TeacherID != "":
		return s.rankStudents(ctx, query.TeacherID, query.SubjectFamily)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId or teacherId is required")
	}
}

func (s *CompatibilityService) rankTeachers(ctx context.Context, studentID, subjectFamily string) (*dto.RankResponse, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	anchorPrefs, err := s.subjects.ListPreferences(ctx, studentID, string(scheduling.RoleStudent))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student preferences")
	}

	poolPrefs, err := s.subjects.ListPreferencesByRole(ctx, string(scheduling.RoleTeacher))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher preferences")
	}
	prefsByPerson := groupPreferences(poolPrefs)

	active := true
	var candidates []scheduling.Candidate
	page := 1
	for {
		teachers, total, err := s.teachers.List(ctx, models.TeacherFilter{Active: &active, Page: page, PageSize: 100})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
		}
		for _, teacher := range teachers {
			tier, counts := scheduling.Classify(prefsByPerson[teacher.ID], toCorePreferences(anchorPrefs), subjectFamily)
			candidates = append(candidates, scheduling.Candidate{ID: teacher.ID, Name: teacher.FullName, Tier: tier, Counts: counts})
		}
		if page*100 >= total || len(teachers) == 0 {
			break
		}
		page++
	}

	scheduling.Rank(candidates)
	return buildRankResponse(string(scheduling.RoleTeacher), candidates), nil
}

func (s *CompatibilityService) rankStudents(ctx context.Context, teacherID, subjectFamily string) (*dto.RankResponse, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	anchorPrefs, err := s.subjects.ListPreferences(ctx, teacherID, string(scheduling.RoleTeacher))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher preferences")
	}

	poolPrefs, err := s.subjects.ListPreferencesByRole(ctx, string(scheduling.RoleStudent))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student preferences")
	}
	prefsByPerson := groupPreferences(poolPrefs)

	active := true
	var candidates []scheduling.Candidate
	page := 1
	for {
		students, total, err := s.students.List(ctx, models.StudentFilter{Active: &active, Page: page, PageSize: 100})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
		}
		for _, student := range students {
			tier, counts := scheduling.Classify(toCorePreferences(anchorPrefs), prefsByPerson[student.ID], subjectFamily)
			candidates = append(candidates, scheduling.Candidate{ID: student.ID, Name: student.FullName, Tier: tier, Counts: counts})
		}
		if page*100 >= total || len(students) == 0 {
			break
		}
		page++
	}

	scheduling.Rank(candidates)
	return buildRankResponse(string(scheduling.RoleStudent), candidates), nil
}

func groupPreferences(prefs []models.SubjectPreference) map[string][]scheduling.SubjectPreference {
	grouped := make(map[string][]scheduling.SubjectPreference)
	for _, p := range prefs {
		grouped[p.PersonID] = append(grouped[p.PersonID], scheduling.SubjectPreference{Family: p.Family, Level: p.Level})
	}
	return grouped
}

func toCorePreferences(prefs []models.SubjectPreference) []scheduling.SubjectPreference {
	out := make([]scheduling.SubjectPreference, 0, len(prefs))
	for _, p := range prefs {
		out = append(out, scheduling.SubjectPreference{Family: p.Family, Level: p.Level})
	}
	return out
}

func buildRankResponse(role string, candidates []scheduling.Candidate) *dto.RankResponse {
	resp := &dto.RankResponse{Role: role, Candidates: make([]dto.RankedCandidate, 0, len(candidates))}
	for _, c := range candidates {
		resp.Candidates = append(resp.Candidates, dto.RankedCandidate{
			ID:       c.ID,
			Name:     c.Name,
			Tier:     c.Tier,
			Priority: c.Tier.Priority(),
			Counts:   c.Counts,
		})
	}
	return resp
}
