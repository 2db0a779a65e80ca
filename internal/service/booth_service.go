package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mirai-juku/scheduling-api/internal/models"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
)

type boothRepository interface {
	List(ctx context.Context, filter models.BoothFilter) ([]models.Booth, int, error)
	FindByID(ctx context.Context, id string) (*models.Booth, error)
	Create(ctx context.Context, booth *models.Booth) error
	Update(ctx context.Context, booth *models.Booth) error
	Deactivate(ctx context.Context, id string) error
}

// UpsertBoothRequest captures the payload for creating or editing a booth.
type UpsertBoothRequest struct {
	Name     string  `json:"name" validate:"required"`
	Capacity int     `json:"capacity" validate:"min=1"`
	Notes    *string `json:"notes"`
	Active   *bool   `json:"active"`
}

// BoothService manages the bookable teaching stations.
type BoothService struct {
	repo      boothRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBoothService builds the service.
func NewBoothService(repo boothRepository, validate *validator.Validate, logger *zap.Logger) *BoothService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoothService{repo: repo, validator: validate, logger: logger}
}

// List returns booths matching the filter with pagination metadata.
func (s *BoothService) List(ctx context.Context, filter models.BoothFilter) ([]models.Booth, models.Pagination, error) {
	booths, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list booths")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	return booths, models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches one booth.
func (s *BoothService) Get(ctx context.Context, id string) (*models.Booth, error) {
	booth, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booth not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booth")
	}
	return booth, nil
}

// Create registers a new booth.
func (s *BoothService) Create(ctx context.Context, req UpsertBoothRequest) (*models.Booth, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booth payload")
	}
	booth := &models.Booth{
		Name:     req.Name,
		Capacity: req.Capacity,
		Notes:    req.Notes,
		Active:   true,
	}
	if req.Active != nil {
		booth.Active = *req.Active
	}
	if err := s.repo.Create(ctx, booth); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booth")
	}
	return booth, nil
}

// Update edits an existing booth.
func (s *BoothService) Update(ctx context.Context, id string, req UpsertBoothRequest) (*models.Booth, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booth payload")
	}
	booth, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	booth.Name = req.Name
	booth.Capacity = req.Capacity
	booth.Notes = req.Notes
	if req.Active != nil {
		booth.Active = *req.Active
	}
	if err := s.repo.Update(ctx, booth); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booth")
	}
	return booth, nil
}

// Deactivate removes a booth from the bookable pool.
func (s *BoothService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate booth")
	}
	return nil
}
