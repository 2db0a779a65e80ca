package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/models"
	"github.com/mirai-juku/scheduling-api/internal/scheduling"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
)

type sessionStore interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	ListForParticipants(ctx context.Context, teacherID, studentID, boothID string, from, to time.Time) ([]models.ClassSession, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.ClassSession, error)
	Create(ctx context.Context, session *models.ClassSession) error
	Update(ctx context.Context, session *models.ClassSession) error
	Delete(ctx context.Context, id string) error
}

// SessionService manages one-off lesson sessions. Every write passes the
// same conflict detection as series creation; force only disables the soft
// availability checks, never the booth and double-booking ones.
type SessionService struct {
	sessions  sessionStore
	windows   availabilityWindowRepo
	teachers  teacherFinder
	students  studentFinder
	booths    boothFinder
	metrics   *MetricsService
	detector  *scheduling.Detector
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService builds the service.
func NewSessionService(sessions sessionStore, windows availabilityWindowRepo, teachers teacherFinder, students studentFinder, booths boothFinder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions:  sessions,
		windows:   windows,
		teachers:  teachers,
		students:  students,
		booths:    booths,
		metrics:   metrics,
		detector:  scheduling.NewDetector(nil),
		validator: validate,
		logger:    logger,
	}
}

// List returns sessions matching the filter with pagination metadata.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, models.Pagination, error) {
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return sessions, models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches one session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.ClassSession, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// Create books a one-off session. Any detected conflict rejects the booking;
// Force limits detection to the hard resource checks.
func (s *SessionService) Create(ctx context.Context, req dto.CreateSessionRequest) (*models.ClassSession, []scheduling.Conflict, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if req.StartTime >= req.EndTime {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be before endTime")
	}
	if !scheduling.OnGrid(req.StartTime, req.EndTime) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time range %s-%s is off the slot grid", req.StartTime, req.EndTime))
	}
	date, err := time.ParseInLocation(dto.DateLayout, req.Date, time.UTC)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}
	if err := s.ensureParticipants(ctx, req.TeacherID, req.StudentID, req.BoothID); err != nil {
		return nil, nil, err
	}

	conflicts, err := s.conflictsFor(ctx, req.TeacherID, req.StudentID, req.BoothID, date, req.StartTime, req.EndTime, !req.Force, "")
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		return nil, conflicts, appErrors.Clone(appErrors.ErrScheduleConflict, "session conflicts with the existing schedule")
	}

	session := &models.ClassSession{
		TeacherID: req.TeacherID,
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		BoothID:   req.BoothID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	s.metrics.RecordSessionsCreated(1)
	return session, nil, nil
}

// Update reschedules or annotates a session. Moves re-run conflict detection
// with the session's own slot excluded from the double-booking check.
func (s *SessionService) Update(ctx context.Context, id string, req dto.UpdateSessionRequest) (*models.ClassSession, []scheduling.Conflict, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	moved := false
	if req.BoothID != nil && *req.BoothID != session.BoothID {
		session.BoothID = *req.BoothID
		moved = true
	}
	if req.Date != nil {
		date, err := time.ParseInLocation(dto.DateLayout, *req.Date, time.UTC)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
		}
		if !date.Equal(session.Date) {
			session.Date = date
			moved = true
		}
	}
	if req.StartTime != nil && *req.StartTime != session.StartTime {
		session.StartTime = *req.StartTime
		moved = true
	}
	if req.EndTime != nil && *req.EndTime != session.EndTime {
		session.EndTime = *req.EndTime
		moved = true
	}
	if req.Status != nil {
		session.Status = models.SessionStatus(*req.Status)
	}
	if req.Notes != nil {
		session.Notes = req.Notes
	}

	if session.StartTime >= session.EndTime {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be before endTime")
	}
	if !scheduling.OnGrid(session.StartTime, session.EndTime) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time range %s-%s is off the slot grid", session.StartTime, session.EndTime))
	}

	if moved && session.Status == models.SessionScheduled {
		conflicts, err := s.conflictsFor(ctx, session.TeacherID, session.StudentID, session.BoothID, session.Date, session.StartTime, session.EndTime, !req.Force, session.ID)
		if err != nil {
			return nil, nil, err
		}
		if len(conflicts) > 0 {
			return nil, conflicts, appErrors.Clone(appErrors.ErrScheduleConflict, "rescheduled session conflicts with the existing schedule")
		}
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	return session, nil, nil
}

// Cancel marks a session cancelled, freeing its booth and participants.
func (s *SessionService) Cancel(ctx context.Context, id string) (*models.ClassSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionCancelled {
		return session, nil
	}
	session.Status = models.SessionCancelled
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel session")
	}
	return session, nil
}

// Delete removes a session outright.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return nil
}

// DaySchedule returns every non-cancelled session on one date, for the day
// view and the export endpoints.
func (s *SessionService) DaySchedule(ctx context.Context, dateStr string) ([]models.ClassSession, error) {
	date, err := time.ParseInLocation(dto.DateLayout, dateStr, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}
	sessions, err := s.sessions.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day schedule")
	}
	return sessions, nil
}

// conflictsFor runs single-date detection: the one-off booking is treated as
// a series with a single occurrence.
func (s *SessionService) conflictsFor(ctx context.Context, teacherID, studentID, boothID string, date time.Time, startTime, endTime string, checkAvailability bool, excludeSessionID string) ([]scheduling.Conflict, error) {
	teacherWindows, err := s.windows.ListByPerson(ctx, teacherID, string(scheduling.RoleTeacher))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher availability")
	}
	teacherAvail, err := toPersonAvailability(teacherWindows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode teacher availability")
	}

	studentWindows, err := s.windows.ListByPerson(ctx, studentID, string(scheduling.RoleStudent))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student availability")
	}
	studentAvail, err := toPersonAvailability(studentWindows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode student availability")
	}

	queryStart := time.Now()
	committed, err := s.sessions.ListForParticipants(ctx, teacherID, studentID, boothID, date, date)
	s.metrics.ObserveDBQuery("sessions_overlap", time.Since(queryStart))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committed sessions")
	}
	existing := make([]scheduling.BookedSession, 0, len(committed))
	for _, session := range committed {
		if excludeSessionID != "" && session.ID == excludeSessionID {
			continue
		}
		existing = append(existing, scheduling.BookedSession{
			ID:        session.ID,
			Date:      session.Date,
			TeacherID: session.TeacherID,
			StudentID: session.StudentID,
			BoothID:   session.BoothID,
			StartTime: session.StartTime,
			EndTime:   session.EndTime,
		})
	}

	occurrences := s.detector.Detect(scheduling.DetectorInput{
		Definition: scheduling.SeriesDefinition{
			TeacherID: teacherID,
			StudentID: studentID,
			BoothID:   boothID,
			StartTime: startTime,
			EndTime:   endTime,
			StartDate: date,
			EndDate:   &date,
		},
		Teacher:           teacherAvail,
		Student:           studentAvail,
		Existing:          existing,
		CheckAvailability: checkAvailability,
	})

	var conflicts []scheduling.Conflict
	for _, occ := range occurrences {
		conflicts = append(conflicts, occ.Conflicts...)
	}
	for _, conflict := range conflicts {
		s.metrics.RecordConflict(string(conflict.Type))
	}
	return conflicts, nil
}

func (s *SessionService) ensureParticipants(ctx context.Context, teacherID, studentID, boothID string) error {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.booths.FindByID(ctx, boothID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booth not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booth")
	}
	return nil
}
