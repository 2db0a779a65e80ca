package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/models"
	"github.com/mirai-juku/scheduling-api/internal/service"
)

type teacherPoolStub struct {
	teachers []models.Teacher
}

func (s *teacherPoolStub) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	return s.teachers, len(s.teachers), nil
}

func (s *teacherPoolStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	for i := range s.teachers {
		if s.teachers[i].ID == id {
			return &s.teachers[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type studentPoolStub struct {
	students []models.Student
}

func (s *studentPoolStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	return s.students, len(s.students), nil
}

func (s *studentPoolStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for i := range s.students {
		if s.students[i].ID == id {
			return &s.students[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type preferencePoolStub struct {
	prefs []models.SubjectPreference
}

func (s *preferencePoolStub) ListPreferences(ctx context.Context, personID, role string) ([]models.SubjectPreference, error) {
	var out []models.SubjectPreference
	for _, p := range s.prefs {
		if p.PersonID == personID && p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *preferencePoolStub) ListPreferencesByRole(ctx context.Context, role string) ([]models.SubjectPreference, error) {
	var out []models.SubjectPreference
	for _, p := range s.prefs {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

func newCompatibilityHandlerFixture() *CompatibilityHandler {
	teachers := &teacherPoolStub{teachers: []models.Teacher{
		{ID: "t1", FullName: "Tanaka", Active: true},
	}}
	students := &studentPoolStub{students: []models.Student{
		{ID: "s1", FullName: "Sato", Active: true},
	}}
	prefs := &preferencePoolStub{prefs: []models.SubjectPreference{
		{PersonID: "t1", Role: "teacher", Family: "math", Level: "junior-high"},
		{PersonID: "s1", Role: "student", Family: "math", Level: "junior-high"},
	}}
	svc := service.NewCompatibilityService(teachers, students, prefs, nil, nil)
	return NewCompatibilityHandler(svc)
}

func TestCompatibilityHandlerRankRequiresAnchor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCompatibilityHandlerFixture()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/compatibility/rank", nil)
	c.Request = req

	handler.Rank(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompatibilityHandlerRankTeachersForStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCompatibilityHandlerFixture()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/compatibility/rank?studentId=s1&subjectFamily=math", nil)
	c.Request = req

	handler.Rank(c)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.RankResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "teacher", envelope.Data.Role)
	require.Len(t, envelope.Data.Candidates, 1)
	require.Equal(t, "t1", envelope.Data.Candidates[0].ID)
}

func TestCompatibilityHandlerRankUnknownStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCompatibilityHandlerFixture()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/compatibility/rank?studentId=ghost", nil)
	c.Request = req

	handler.Rank(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}
