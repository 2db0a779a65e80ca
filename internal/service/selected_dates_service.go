package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
)

// SelectedDatesStore is the persistence port for the operator's calendar
// date selection. The Redis-backed cache repository satisfies it; tests
// inject an in-memory one.
type SelectedDatesStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// SelectedDatesService keeps each operator's multi-select calendar state
// across devices. Past dates are filtered out on every read and write so the
// selection never references days that can no longer be scheduled.
type SelectedDatesService struct {
	store     SelectedDatesStore
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSelectedDatesService builds the service.
func NewSelectedDatesService(store SelectedDatesStore, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *SelectedDatesService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 90 * 24 * time.Hour
	}
	return &SelectedDatesService{store: store, ttl: ttl, validator: validate, logger: logger, now: time.Now}
}

// Get returns the operator's current selection, dropping past dates.
func (s *SelectedDatesService) Get(ctx context.Context, userID string) (*dto.SelectedDatesPayload, error) {
	payload := &dto.SelectedDatesPayload{Dates: []string{}}
	if s.store == nil {
		return payload, nil
	}

	var stored []string
	if err := s.store.Get(ctx, selectedDatesKey(userID), &stored); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return payload, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selected dates")
	}

	payload.Dates = s.normalize(stored)
	return payload, nil
}

// Put replaces the operator's selection with a cleaned copy: parseable
// future dates only, deduplicated and ascending.
func (s *SelectedDatesService) Put(ctx context.Context, userID string, req dto.SelectedDatesPayload) (*dto.SelectedDatesPayload, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selected dates payload")
	}

	cleaned := s.normalize(req.Dates)
	if s.store != nil {
		if err := s.store.Set(ctx, selectedDatesKey(userID), cleaned, s.ttl); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store selected dates")
		}
	}
	return &dto.SelectedDatesPayload{Dates: cleaned}, nil
}

func (s *SelectedDatesService) normalize(dates []string) []string {
	today := s.now().UTC().Truncate(24 * time.Hour)
	seen := make(map[string]bool, len(dates))
	cleaned := make([]string, 0, len(dates))
	for _, raw := range dates {
		date, err := time.ParseInLocation(dto.DateLayout, raw, time.UTC)
		if err != nil || date.Before(today) || seen[raw] {
			continue
		}
		seen[raw] = true
		cleaned = append(cleaned, raw)
	}
	sort.Strings(cleaned)
	return cleaned
}

func selectedDatesKey(userID string) string {
	return "calendar:selected:" + userID
}
