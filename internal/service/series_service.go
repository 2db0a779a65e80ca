package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/models"
	"github.com/mirai-juku/scheduling-api/internal/scheduling"
	"github.com/mirai-juku/scheduling-api/pkg/config"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
)

type seriesSessionStore interface {
	ListForParticipants(ctx context.Context, teacherID, studentID, boothID string, from, to time.Time) ([]models.ClassSession, error)
	CreateBatch(ctx context.Context, sessions []*models.ClassSession) error
	CancelBySeries(ctx context.Context, seriesID string, from time.Time) (int64, error)
}

type seriesStore interface {
	FindByID(ctx context.Context, id string) (*models.LessonSeries, error)
	Create(ctx context.Context, series *models.LessonSeries) error
	UpdateEndDate(ctx context.Context, id string, endDate *time.Time) error
	Cancel(ctx context.Context, id string) error
}

type boothFinder interface {
	FindByID(ctx context.Context, id string) (*models.Booth, error)
}

// SeriesService previews and materializes recurring lesson series. Preview
// runs conflict detection without writing anything; Create re-runs the same
// detection server-side so stale client state can never force a write.
type SeriesService struct {
	windows   availabilityWindowRepo
	sessions  seriesSessionStore
	series    seriesStore
	teachers  teacherFinder
	students  studentFinder
	booths    boothFinder
	cache     *CacheService
	metrics   *MetricsService
	detector  *scheduling.Detector
	cfg       config.SchedulingConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSeriesService builds the service.
func NewSeriesService(windows availabilityWindowRepo, sessions seriesSessionStore, series seriesStore, teachers teacherFinder, students studentFinder, booths boothFinder, cache *CacheService, metrics *MetricsService, cfg config.SchedulingConfig, validate *validator.Validate, logger *zap.Logger) *SeriesService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultHorizonMonths <= 0 {
		cfg.DefaultHorizonMonths = 3
	}
	return &SeriesService{
		windows:   windows,
		sessions:  sessions,
		series:    series,
		teachers:  teachers,
		students:  students,
		booths:    booths,
		cache:     cache,
		metrics:   metrics,
		detector:  scheduling.NewDetector(nil),
		cfg:       cfg,
		validator: validate,
		logger:    logger,
	}
}

// Preview expands the definition and reports every candidate date with its
// conflicts. Results are cached briefly since operators re-request previews
// while editing resolutions.
func (s *SeriesService) Preview(ctx context.Context, req dto.PreviewSeriesRequest) (*dto.PreviewSeriesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preview payload")
	}
	def, err := req.Definition.ToDefinition()
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipants(ctx, def); err != nil {
		return nil, err
	}

	cacheKey := PreviewKey(req)
	if s.cache != nil {
		var cached dto.PreviewSeriesResponse
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	occurrences, err := s.detect(ctx, def, s.checkAvailability(req.CheckAvailability), req.Months, "")
	if err != nil {
		return nil, err
	}

	resp := buildPreviewResponse(occurrences)
	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, resp, s.cfg.PreviewCacheTTL)
	}
	return resp, nil
}

// Create re-validates the definition, applies the operator's per-date
// actions, and materializes the series. When re-validation leaves flagged
// dates without a usable action the call returns success=false with the
// fresh conflicts and writes nothing.
func (s *SeriesService) Create(ctx context.Context, req dto.CreateSeriesRequest) (*dto.CreateSeriesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create payload")
	}
	def, err := req.Definition.ToDefinition()
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipants(ctx, def); err != nil {
		return nil, err
	}

	occurrences, err := s.detect(ctx, def, s.checkAvailability(req.CheckAvailability), req.Months, "")
	if err != nil {
		return nil, err
	}

	engine := scheduling.NewResolutionEngine(occurrences, def.StartTime, def.EndTime)
	if err := s.applyActions(engine, req.Actions); err != nil {
		return nil, err
	}

	if unresolved := engine.Unresolved(); len(unresolved) > 0 {
		resp := &dto.CreateSeriesResponse{Success: false}
		resp.Conflicts, resp.ConflictsByDate = unresolvedConflicts(engine, unresolved)
		return resp, nil
	}

	compiled := make(map[string]scheduling.SessionAction)
	for _, action := range engine.Compile() {
		compiled[scheduling.DateKey(action.Date)] = action
	}

	record, err := s.storeSeries(ctx, def)
	if err != nil {
		return nil, err
	}

	var created []*models.ClassSession
	skipped := 0
	for _, occ := range occurrences {
		start, end := def.StartTime, def.EndTime
		if occ.Flagged() {
			action := compiled[scheduling.DateKey(occ.Date)]
			switch action.Action {
			case scheduling.ActionSkip:
				skipped++
				continue
			case scheduling.ActionUseAlternative:
				start, end = action.AlternativeStartTime, action.AlternativeEndTime
			}
		}
		created = append(created, &models.ClassSession{
			SeriesID:  &record.ID,
			TeacherID: def.TeacherID,
			StudentID: def.StudentID,
			SubjectID: def.SubjectID,
			BoothID:   def.BoothID,
			Date:      occ.Date,
			StartTime: start,
			EndTime:   end,
		})
	}

	if err := s.sessions.CreateBatch(ctx, created); err != nil {
		// The series row is already committed; cancel it so a retry never
		// finds an active series with no sessions.
		if cancelErr := s.series.Cancel(ctx, record.ID); cancelErr != nil {
			s.logger.Error("failed to cancel series after batch insert failure",
				zap.String("seriesId", record.ID), zap.Error(cancelErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sessions")
	}

	s.metrics.RecordSessionsCreated(len(created))
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, "scheduling:preview:*")
	}
	s.logger.Info("series created",
		zap.String("seriesId", record.ID),
		zap.Int("created", len(created)),
		zap.Int("skipped", skipped))

	return &dto.CreateSeriesResponse{
		Success:      true,
		SeriesID:     record.ID,
		CreatedCount: len(created),
		SkippedCount: skipped,
	}, nil
}

// Extend pushes a series' end date forward and materializes the added dates,
// running the same detect/resolve cycle as Create over the new tail only.
func (s *SeriesService) Extend(ctx context.Context, seriesID string, req dto.ExtendSeriesRequest) (*dto.CreateSeriesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid extend payload")
	}
	record, err := s.series.FindByID(ctx, seriesID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}
	if record.Status != models.SeriesActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "series is not active")
	}

	newEnd, err := time.ParseInLocation(dto.DateLayout, req.EndDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid endDate")
	}

	tailStart := record.StartDate
	if record.EndDate != nil {
		if !newEnd.After(*record.EndDate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must extend the series")
		}
		tailStart = record.EndDate.AddDate(0, 0, 1)
	}

	var days []int
	if len(record.DaysOfWeek) > 0 {
		if err := json.Unmarshal(record.DaysOfWeek, &days); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode series weekdays")
		}
	}
	def := scheduling.SeriesDefinition{
		TeacherID:  record.TeacherID,
		StudentID:  record.StudentID,
		SubjectID:  record.SubjectID,
		BoothID:    record.BoothID,
		StartTime:  record.StartTime,
		EndTime:    record.EndTime,
		StartDate:  tailStart,
		EndDate:    &newEnd,
		DaysOfWeek: days,
	}

	occurrences, err := s.detect(ctx, def, s.checkAvailability(req.CheckAvailability), 0, seriesID)
	if err != nil {
		return nil, err
	}

	engine := scheduling.NewResolutionEngine(occurrences, def.StartTime, def.EndTime)
	if err := s.applyActions(engine, req.Actions); err != nil {
		return nil, err
	}
	if unresolved := engine.Unresolved(); len(unresolved) > 0 {
		resp := &dto.CreateSeriesResponse{Success: false, SeriesID: seriesID}
		resp.Conflicts, resp.ConflictsByDate = unresolvedConflicts(engine, unresolved)
		return resp, nil
	}

	compiled := make(map[string]scheduling.SessionAction)
	for _, action := range engine.Compile() {
		compiled[scheduling.DateKey(action.Date)] = action
	}

	var created []*models.ClassSession
	skipped := 0
	for _, occ := range occurrences {
		start, end := def.StartTime, def.EndTime
		if occ.Flagged() {
			action := compiled[scheduling.DateKey(occ.Date)]
			switch action.Action {
			case scheduling.ActionSkip:
				skipped++
				continue
			case scheduling.ActionUseAlternative:
				start, end = action.AlternativeStartTime, action.AlternativeEndTime
			}
		}
		created = append(created, &models.ClassSession{
			SeriesID:  &record.ID,
			TeacherID: def.TeacherID,
			StudentID: def.StudentID,
			SubjectID: def.SubjectID,
			BoothID:   def.BoothID,
			Date:      occ.Date,
			StartTime: start,
			EndTime:   end,
		})
	}

	if err := s.sessions.CreateBatch(ctx, created); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sessions")
	}
	if err := s.series.UpdateEndDate(ctx, seriesID, &newEnd); err != nil {
		// The tail sessions are already committed past the recorded end
		// date; cancel them so a retried extension cannot duplicate them.
		if _, cancelErr := s.sessions.CancelBySeries(ctx, seriesID, tailStart); cancelErr != nil {
			s.logger.Error("failed to cancel tail sessions after end date failure",
				zap.String("seriesId", seriesID), zap.Error(cancelErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move series end date")
	}

	s.metrics.RecordSessionsCreated(len(created))
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, "scheduling:preview:*")
	}

	return &dto.CreateSeriesResponse{
		Success:      true,
		SeriesID:     seriesID,
		CreatedCount: len(created),
		SkippedCount: skipped,
	}, nil
}

// Cancel marks the series cancelled. Future sessions are cancelled by the
// session store, not deleted, so history stays intact.
func (s *SeriesService) Cancel(ctx context.Context, seriesID string) error {
	if _, err := s.series.FindByID(ctx, seriesID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}
	if err := s.series.Cancel(ctx, seriesID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel series")
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	cancelled, err := s.sessions.CancelBySeries(ctx, seriesID, today)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel series sessions")
	}
	s.logger.Info("series cancelled", zap.String("seriesId", seriesID), zap.Int64("sessionsCancelled", cancelled))
	return nil
}

// Get returns the stored series record.
func (s *SeriesService) Get(ctx context.Context, seriesID string) (*models.LessonSeries, error) {
	record, err := s.series.FindByID(ctx, seriesID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}
	return record, nil
}

func (s *SeriesService) checkAvailability(override *bool) bool {
	if override != nil {
		return *override
	}
	return s.cfg.CheckAvailability
}

// detect loads both participants' availability and the committed sessions
// overlapping the series window, then runs the pure detector over them.
// excludeSeriesID drops a series' own sessions from the double-booking check
// when re-validating an extension.
func (s *SeriesService) detect(ctx context.Context, def scheduling.SeriesDefinition, checkAvailability bool, months int, excludeSeriesID string) ([]scheduling.Occurrence, error) {
	if months <= 0 {
		months = s.cfg.DefaultHorizonMonths
	}

	teacherWindows, err := s.windows.ListByPerson(ctx, def.TeacherID, string(scheduling.RoleTeacher))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher availability")
	}
	teacherAvail, err := toPersonAvailability(teacherWindows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode teacher availability")
	}

	studentWindows, err := s.windows.ListByPerson(ctx, def.StudentID, string(scheduling.RoleStudent))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student availability")
	}
	studentAvail, err := toPersonAvailability(studentWindows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode student availability")
	}

	from := def.StartDate
	to := def.StartDate.AddDate(0, months, 0)
	if def.EndDate != nil {
		to = *def.EndDate
	}
	queryStart := time.Now()
	committed, err := s.sessions.ListForParticipants(ctx, def.TeacherID, def.StudentID, def.BoothID, from, to)
	s.metrics.ObserveDBQuery("sessions_overlap", time.Since(queryStart))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committed sessions")
	}

	existing := make([]scheduling.BookedSession, 0, len(committed))
	for _, session := range committed {
		if excludeSeriesID != "" && session.SeriesID != nil && *session.SeriesID == excludeSeriesID {
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
		Definition:        def,
		Teacher:           teacherAvail,
		Student:           studentAvail,
		Existing:          existing,
		CheckAvailability: checkAvailability,
		HorizonMonths:     months,
	})

	for _, occ := range occurrences {
		for _, conflict := range occ.Conflicts {
			s.metrics.RecordConflict(string(conflict.Type))
		}
	}
	return occurrences, nil
}

// applyActions replays the client's decisions onto a freshly seeded engine.
// Actions for dates the server no longer flags are silently dropped; invalid
// alternative windows reject the whole call.
func (s *SeriesService) applyActions(engine *scheduling.ResolutionEngine, actions []dto.SessionActionRequest) error {
	for _, action := range actions {
		date, err := time.ParseInLocation(dto.DateLayout, action.Date, time.UTC)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "invalid action date")
		}
		if err := engine.SetAction(date, scheduling.ActionType(action.Action)); err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
				continue
			}
			return err
		}
		if scheduling.ActionType(action.Action) == scheduling.ActionUseAlternative && action.AlternativeStartTime != nil && action.AlternativeEndTime != nil {
			if err := engine.CommitAlternativeTime(date, *action.AlternativeStartTime, *action.AlternativeEndTime); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *SeriesService) ensureParticipants(ctx context.Context, def scheduling.SeriesDefinition) error {
	if _, err := s.teachers.FindByID(ctx, def.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if _, err := s.students.FindByID(ctx, def.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.booths.FindByID(ctx, def.BoothID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booth not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booth")
	}
	return nil
}

func (s *SeriesService) storeSeries(ctx context.Context, def scheduling.SeriesDefinition) (*models.LessonSeries, error) {
	days, err := json.Marshal(def.DaysOfWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode weekdays")
	}
	record := &models.LessonSeries{
		TeacherID:  def.TeacherID,
		StudentID:  def.StudentID,
		SubjectID:  def.SubjectID,
		BoothID:    def.BoothID,
		StartTime:  def.StartTime,
		EndTime:    def.EndTime,
		StartDate:  def.StartDate,
		EndDate:    def.EndDate,
		DaysOfWeek: types.JSONText(days),
	}
	if err := s.series.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store series")
	}
	return record, nil
}

func buildPreviewResponse(occurrences []scheduling.Occurrence) *dto.PreviewSeriesResponse {
	resp := &dto.PreviewSeriesResponse{
		Dates:           make([]string, 0, len(occurrences)),
		Conflicts:       []scheduling.Conflict{},
		ConflictsByDate: make(map[string][]scheduling.Conflict),
	}
	for _, occ := range occurrences {
		key := scheduling.DateKey(occ.Date)
		resp.Dates = append(resp.Dates, key)
		if occ.Flagged() {
			resp.Summary.FlaggedDates++
			resp.Conflicts = append(resp.Conflicts, occ.Conflicts...)
			resp.ConflictsByDate[key] = occ.Conflicts
		}
	}
	resp.Summary.TotalDates = len(occurrences)
	return resp
}

func unresolvedConflicts(engine *scheduling.ResolutionEngine, unresolved []time.Time) ([]scheduling.Conflict, map[string][]scheduling.Conflict) {
	var flat []scheduling.Conflict
	byDate := make(map[string][]scheduling.Conflict, len(unresolved))
	for _, date := range unresolved {
		conflicts := engine.ConflictsFor(date)
		flat = append(flat, conflicts...)
		byDate[scheduling.DateKey(date)] = conflicts
	}
	return flat, byDate
}
