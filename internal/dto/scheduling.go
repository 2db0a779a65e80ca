package dto

import (
	"fmt"
	"time"

	"github.com/mirai-juku/scheduling-api/internal/scheduling"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// SeriesDefinitionRequest carries a recurrence rule over the wire.
// DaysOfWeek uses 0=Sunday..6=Saturday.
type SeriesDefinitionRequest struct {
	TeacherID  string  `json:"teacherId" validate:"required"`
	StudentID  string  `json:"studentId" validate:"required"`
	SubjectID  string  `json:"subjectId" validate:"required"`
	BoothID    string  `json:"boothId" validate:"required"`
	StartTime  string  `json:"startTime" validate:"required"`
	EndTime    string  `json:"endTime" validate:"required"`
	StartDate  string  `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    *string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	DaysOfWeek []int   `json:"daysOfWeek" validate:"omitempty,dive,min=0,max=6"`
}

// ToDefinition converts the payload into the core definition, rejecting
// inverted or off-grid time ranges and inverted date ranges before any
// downstream work.
func (r SeriesDefinitionRequest) ToDefinition() (scheduling.SeriesDefinition, error) {
	if r.StartTime >= r.EndTime {
		return scheduling.SeriesDefinition{}, appErrors.Clone(appErrors.ErrValidation, "startTime must be before endTime")
	}
	if !scheduling.OnGrid(r.StartTime, r.EndTime) {
		return scheduling.SeriesDefinition{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time range %s-%s is off the slot grid", r.StartTime, r.EndTime))
	}
	startDate, err := time.ParseInLocation(DateLayout, r.StartDate, time.UTC)
	if err != nil {
		return scheduling.SeriesDefinition{}, appErrors.Clone(appErrors.ErrValidation, "invalid startDate")
	}
	def := scheduling.SeriesDefinition{
		TeacherID:  r.TeacherID,
		StudentID:  r.StudentID,
		SubjectID:  r.SubjectID,
		BoothID:    r.BoothID,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		StartDate:  startDate,
		DaysOfWeek: r.DaysOfWeek,
	}
	if r.EndDate != nil {
		endDate, err := time.ParseInLocation(DateLayout, *r.EndDate, time.UTC)
		if err != nil {
			return scheduling.SeriesDefinition{}, appErrors.Clone(appErrors.ErrValidation, "invalid endDate")
		}
		if endDate.Before(startDate) {
			return scheduling.SeriesDefinition{}, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
		}
		def.EndDate = &endDate
	}
	return def, nil
}

// PreviewSeriesRequest asks for the conflict preview of a series definition.
type PreviewSeriesRequest struct {
	Definition        SeriesDefinitionRequest `json:"definition" validate:"required"`
	CheckAvailability *bool                   `json:"checkAvailability"`
	Months            int                     `json:"months" validate:"omitempty,min=1,max=12"`
}

// PreviewSummary aggregates a detection run.
type PreviewSummary struct {
	TotalDates   int `json:"totalDates"`
	FlaggedDates int `json:"flaggedDates"`
}

// PreviewSeriesResponse returns per-date conflict results.
type PreviewSeriesResponse struct {
	Dates           []string                         `json:"dates"`
	Conflicts       []scheduling.Conflict            `json:"conflicts"`
	ConflictsByDate map[string][]scheduling.Conflict `json:"conflictsByDate"`
	Summary         PreviewSummary                   `json:"summary"`
}

// SessionActionRequest is one operator decision for a flagged date.
type SessionActionRequest struct {
	Date                 string  `json:"date" validate:"required,datetime=2006-01-02"`
	Action               string  `json:"action" validate:"required,oneof=SKIP FORCE_CREATE USE_ALTERNATIVE"`
	AlternativeStartTime *string `json:"alternativeStartTime"`
	AlternativeEndTime   *string `json:"alternativeEndTime"`
}

// CreateSeriesRequest materializes a series: the definition plus the
// compiled per-date actions for its flagged occurrences.
type CreateSeriesRequest struct {
	Definition        SeriesDefinitionRequest `json:"definition" validate:"required"`
	Actions           []SessionActionRequest  `json:"sessionActions" validate:"omitempty,dive"`
	CheckAvailability *bool                   `json:"checkAvailability"`
	Months            int                     `json:"months" validate:"omitempty,min=1,max=12"`
}

// ExtendSeriesRequest pushes a series' end date forward, with actions for
// any flagged dates in the added tail.
type ExtendSeriesRequest struct {
	EndDate           string                 `json:"endDate" validate:"required,datetime=2006-01-02"`
	Actions           []SessionActionRequest `json:"sessionActions" validate:"omitempty,dive"`
	CheckAvailability *bool                  `json:"checkAvailability"`
}

// CreateSeriesResponse reports the outcome. Success false means the server's
// re-validation found remaining conflicts: the caller must re-enter
// resolution with the returned conflict set.
type CreateSeriesResponse struct {
	Success         bool                             `json:"success"`
	SeriesID        string                           `json:"seriesId,omitempty"`
	CreatedCount    int                              `json:"createdCount"`
	SkippedCount    int                              `json:"skippedCount"`
	Conflicts       []scheduling.Conflict            `json:"conflicts,omitempty"`
	ConflictsByDate map[string][]scheduling.Conflict `json:"conflictsByDate,omitempty"`
}
