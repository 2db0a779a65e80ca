package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/models"
	"github.com/mirai-juku/scheduling-api/internal/scheduling"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
)

type availabilityWindowRepo interface {
	ListByPerson(ctx context.Context, personID, role string) ([]models.AvailabilityWindow, error)
	Replace(ctx context.Context, personID, role string, windows []models.AvailabilityWindow) error
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// AvailabilityService manages weekly windows and date exceptions for teachers
// and students, and resolves the governing window for single dates.
type AvailabilityService struct {
	windows   availabilityWindowRepo
	teachers  teacherFinder
	students  studentFinder
	grid      *scheduling.Grid
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService builds the service.
func NewAvailabilityService(windows availabilityWindowRepo, teachers teacherFinder, students studentFinder, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		windows:   windows,
		teachers:  teachers,
		students:  students,
		grid:      scheduling.NewGrid(),
		validator: validate,
		logger:    logger,
	}
}

// Get returns a person's stored availability windows.
func (s *AvailabilityService) Get(ctx context.Context, personID, role string) (*dto.AvailabilityResponse, error) {
	if err := s.ensurePerson(ctx, personID, role); err != nil {
		return nil, err
	}

	windows, err := s.windows.ListByPerson(ctx, personID, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	resp := &dto.AvailabilityResponse{PersonID: personID, Role: role, Regular: []dto.WindowPayload{}, Exceptions: []dto.WindowPayload{}}
	for _, w := range windows {
		payload, err := windowToPayload(w)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode availability window")
		}
		if w.Kind == models.AvailabilityExceptional {
			resp.Exceptions = append(resp.Exceptions, payload)
		} else {
			resp.Regular = append(resp.Regular, payload)
		}
	}
	return resp, nil
}

// Replace swaps a person's full availability in one atomic write.
func (s *AvailabilityService) Replace(ctx context.Context, personID, role string, req dto.PutAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if err := s.ensurePerson(ctx, personID, role); err != nil {
		return nil, err
	}

	records := make([]models.AvailabilityWindow, 0, len(req.Regular)+len(req.Exceptions))
	for _, payload := range req.Regular {
		record, err := s.payloadToWindow(payload, models.AvailabilityRegular)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	for _, payload := range req.Exceptions {
		record, err := s.payloadToWindow(payload, models.AvailabilityExceptional)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := s.windows.Replace(ctx, personID, role, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store availability")
	}

	return s.Get(ctx, personID, role)
}

// ResolveDay reports which window governs one calendar date and its slot
// coverage. hasData false means the person has no window for the date at all,
// which scheduling treats as fully available.
func (s *AvailabilityService) ResolveDay(ctx context.Context, personID, role, dateStr, modeStr string) (*dto.ResolvedDayResponse, error) {
	date, err := time.ParseInLocation(dto.DateLayout, dateStr, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}
	mode := scheduling.ModeWithSpecial
	switch modeStr {
	case "", string(scheduling.ModeWithSpecial):
	case string(scheduling.ModeRegularOnly):
		mode = scheduling.ModeRegularOnly
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown mode %q", modeStr))
	}

	if err := s.ensurePerson(ctx, personID, role); err != nil {
		return nil, err
	}

	windows, err := s.windows.ListByPerson(ctx, personID, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	avail, err := toPersonAvailability(windows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode availability windows")
	}

	resp := &dto.ResolvedDayResponse{Date: dateStr, Mode: string(mode)}
	window := scheduling.ResolveForDate(date, avail, mode)
	if window == nil {
		return resp, nil
	}

	resp.HasData = true
	payload := coreWindowToPayload(*window)
	resp.Window = &payload
	resp.Coverage = scheduling.Rasterize(window, s.grid)
	return resp, nil
}

func (s *AvailabilityService) ensurePerson(ctx context.Context, personID, role string) error {
	switch role {
	case string(scheduling.RoleTeacher):
		if _, err := s.teachers.FindByID(ctx, personID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
	case string(scheduling.RoleStudent):
		if _, err := s.students.FindByID(ctx, personID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", role))
	}
	return nil
}

func (s *AvailabilityService) payloadToWindow(payload dto.WindowPayload, kind models.AvailabilityKind) (models.AvailabilityWindow, error) {
	record := models.AvailabilityWindow{Kind: kind, FullDay: payload.FullDay}

	switch kind {
	case models.AvailabilityRegular:
		if payload.Weekday == nil || payload.Date != nil {
			return record, appErrors.Clone(appErrors.ErrValidation, "regular windows need a weekday and no date")
		}
		record.Weekday = payload.Weekday
	case models.AvailabilityExceptional:
		if payload.Date == nil || payload.Weekday != nil {
			return record, appErrors.Clone(appErrors.ErrValidation, "exception windows need a date and no weekday")
		}
		date, err := time.ParseInLocation(dto.DateLayout, *payload.Date, time.UTC)
		if err != nil {
			return record, appErrors.Clone(appErrors.ErrValidation, "invalid exception date")
		}
		record.Date = &date
	}

	ranges := make([]scheduling.TimeRange, 0, len(payload.Ranges))
	for _, r := range payload.Ranges {
		if s.grid.IndexOfStart(r.StartTime) == scheduling.IndexNotFound || s.grid.IndexOfEnd(r.EndTime) == scheduling.IndexNotFound {
			return record, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time range %s-%s is off the slot grid", r.StartTime, r.EndTime))
		}
		if r.StartTime >= r.EndTime {
			return record, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time range %s-%s is inverted", r.StartTime, r.EndTime))
		}
		ranges = append(ranges, scheduling.TimeRange{StartTime: r.StartTime, EndTime: r.EndTime})
	}

	raw, err := json.Marshal(ranges)
	if err != nil {
		return record, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode time ranges")
	}
	record.Ranges = types.JSONText(raw)
	return record, nil
}

func windowToPayload(w models.AvailabilityWindow) (dto.WindowPayload, error) {
	payload := dto.WindowPayload{Weekday: w.Weekday, FullDay: w.FullDay}
	if w.Date != nil {
		day := w.Date.Format(dto.DateLayout)
		payload.Date = &day
	}

	var ranges []scheduling.TimeRange
	if len(w.Ranges) > 0 {
		if err := json.Unmarshal(w.Ranges, &ranges); err != nil {
			return payload, fmt.Errorf("decode ranges for window %s: %w", w.ID, err)
		}
	}
	payload.Ranges = make([]dto.TimeRangePayload, 0, len(ranges))
	for _, r := range ranges {
		payload.Ranges = append(payload.Ranges, dto.TimeRangePayload{StartTime: r.StartTime, EndTime: r.EndTime})
	}
	return payload, nil
}

func coreWindowToPayload(w scheduling.Window) dto.WindowPayload {
	payload := dto.WindowPayload{FullDay: w.FullDay}
	if w.Weekday != "" {
		weekday := w.Weekday
		payload.Weekday = &weekday
	}
	if w.Date != "" {
		date := w.Date
		payload.Date = &date
	}
	for _, r := range w.Ranges {
		payload.Ranges = append(payload.Ranges, dto.TimeRangePayload{StartTime: r.StartTime, EndTime: r.EndTime})
	}
	return payload
}

// toPersonAvailability decodes stored windows into the read-only snapshot the
// core scheduling routines consume.
func toPersonAvailability(windows []models.AvailabilityWindow) (scheduling.PersonAvailability, error) {
	var avail scheduling.PersonAvailability
	for _, w := range windows {
		var ranges []scheduling.TimeRange
		if len(w.Ranges) > 0 {
			if err := json.Unmarshal(w.Ranges, &ranges); err != nil {
				return avail, fmt.Errorf("decode ranges for window %s: %w", w.ID, err)
			}
		}
		window := scheduling.Window{FullDay: w.FullDay, Ranges: ranges}
		if w.Kind == models.AvailabilityExceptional {
			if w.Date != nil {
				window.Date = w.Date.Format(dto.DateLayout)
			}
			avail.Exceptions = append(avail.Exceptions, window)
			continue
		}
		if w.Weekday != nil {
			window.Weekday = *w.Weekday
		}
		avail.Regular = append(avail.Regular, window)
	}
	return avail, nil
}
