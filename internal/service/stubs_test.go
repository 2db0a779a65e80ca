package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/mirai-juku/scheduling-api/internal/models"
	"github.com/mirai-juku/scheduling-api/internal/scheduling"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
)

type teacherDirStub struct {
	items map[string]*models.Teacher
}

func (s *teacherDirStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := s.items[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *teacherDirStub) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var out []models.Teacher
	for _, t := range s.items {
		out = append(out, *t)
	}
	return out, len(out), nil
}

type studentDirStub struct {
	items map[string]*models.Student
}

func (s *studentDirStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if st, ok := s.items[id]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *studentDirStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, st := range s.items {
		out = append(out, *st)
	}
	return out, len(out), nil
}

type boothDirStub struct {
	items map[string]*models.Booth
}

func (s *boothDirStub) FindByID(ctx context.Context, id string) (*models.Booth, error) {
	if b, ok := s.items[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type windowsStub struct {
	windows map[string][]models.AvailabilityWindow
}

func newWindowsStub() *windowsStub {
	return &windowsStub{windows: make(map[string][]models.AvailabilityWindow)}
}

func (s *windowsStub) ListByPerson(ctx context.Context, personID, role string) ([]models.AvailabilityWindow, error) {
	return s.windows[personID+"|"+role], nil
}

func (s *windowsStub) Replace(ctx context.Context, personID, role string, records []models.AvailabilityWindow) error {
	s.windows[personID+"|"+role] = records
	return nil
}

func (s *windowsStub) addRegular(personID, role, weekday string, ranges ...scheduling.TimeRange) {
	key := personID + "|" + role
	s.windows[key] = append(s.windows[key], models.AvailabilityWindow{
		Kind:    models.AvailabilityRegular,
		Weekday: &weekday,
		Ranges:  rangesJSON(ranges...),
	})
}

func (s *windowsStub) addException(personID, role string, date time.Time, fullDay bool, ranges ...scheduling.TimeRange) {
	key := personID + "|" + role
	s.windows[key] = append(s.windows[key], models.AvailabilityWindow{
		Kind:    models.AvailabilityExceptional,
		Date:    &date,
		FullDay: fullDay,
		Ranges:  rangesJSON(ranges...),
	})
}

func rangesJSON(ranges ...scheduling.TimeRange) types.JSONText {
	if len(ranges) == 0 {
		return types.JSONText("[]")
	}
	raw, _ := json.Marshal(ranges)
	return types.JSONText(raw)
}

type sessionsStub struct {
	existing        []models.ClassSession
	created         []*models.ClassSession
	updated         []*models.ClassSession
	deleted         []string
	cancelledSeries []string
	createBatchErr  error
}

func (s *sessionsStub) List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, int, error) {
	return s.existing, len(s.existing), nil
}

func (s *sessionsStub) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	for i := range s.existing {
		if s.existing[i].ID == id {
			cp := s.existing[i]
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *sessionsStub) ListForParticipants(ctx context.Context, teacherID, studentID, boothID string, from, to time.Time) ([]models.ClassSession, error) {
	return s.existing, nil
}

func (s *sessionsStub) ListByDate(ctx context.Context, date time.Time) ([]models.ClassSession, error) {
	var out []models.ClassSession
	for _, sess := range s.existing {
		if sess.Date.Equal(date) {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *sessionsStub) Create(ctx context.Context, session *models.ClassSession) error {
	session.ID = "sess-created"
	s.created = append(s.created, session)
	return nil
}

func (s *sessionsStub) CreateBatch(ctx context.Context, sessions []*models.ClassSession) error {
	if s.createBatchErr != nil {
		return s.createBatchErr
	}
	s.created = append(s.created, sessions...)
	return nil
}

func (s *sessionsStub) CancelBySeries(ctx context.Context, seriesID string, from time.Time) (int64, error) {
	s.cancelledSeries = append(s.cancelledSeries, seriesID)
	var n int64
	for _, sess := range s.existing {
		if sess.SeriesID != nil && *sess.SeriesID == seriesID && !sess.Date.Before(from) {
			n++
		}
	}
	return n, nil
}

func (s *sessionsStub) Update(ctx context.Context, session *models.ClassSession) error {
	s.updated = append(s.updated, session)
	return nil
}

func (s *sessionsStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type seriesStoreStub struct {
	records          map[string]*models.LessonSeries
	nextID           string
	updateEndDateErr error
}

func newSeriesStoreStub() *seriesStoreStub {
	return &seriesStoreStub{records: make(map[string]*models.LessonSeries), nextID: "series-1"}
}

func (s *seriesStoreStub) FindByID(ctx context.Context, id string) (*models.LessonSeries, error) {
	if record, ok := s.records[id]; ok {
		cp := *record
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *seriesStoreStub) Create(ctx context.Context, series *models.LessonSeries) error {
	if series.ID == "" {
		series.ID = s.nextID
	}
	cp := *series
	s.records[series.ID] = &cp
	return nil
}

func (s *seriesStoreStub) UpdateEndDate(ctx context.Context, id string, endDate *time.Time) error {
	if s.updateEndDateErr != nil {
		return s.updateEndDateErr
	}
	if record, ok := s.records[id]; ok {
		record.EndDate = endDate
	}
	return nil
}

func (s *seriesStoreStub) Cancel(ctx context.Context, id string) error {
	if record, ok := s.records[id]; ok {
		record.Status = models.SeriesCancelled
	}
	return nil
}

type memoryStore struct {
	values map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string][]byte)}
}

func (s *memoryStore) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *memoryStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = raw
	return nil
}

func (s *memoryStore) DeleteByPattern(ctx context.Context, pattern string) error {
	return nil
}
