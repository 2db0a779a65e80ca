package dto

// TimeRangePayload is one allowed interval inside a window payload.
type TimeRangePayload struct {
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// WindowPayload is one availability window over the wire: either Weekday
// (recurring) or Date (exception) is set.
type WindowPayload struct {
	Weekday *string            `json:"weekday" validate:"omitempty,oneof=SUNDAY MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY"`
	Date    *string            `json:"date" validate:"omitempty,datetime=2006-01-02"`
	FullDay bool               `json:"fullDay"`
	Ranges  []TimeRangePayload `json:"ranges" validate:"omitempty,dive"`
}

// PutAvailabilityRequest replaces a person's availability windows.
type PutAvailabilityRequest struct {
	Regular    []WindowPayload `json:"regular" validate:"omitempty,dive"`
	Exceptions []WindowPayload `json:"exceptions" validate:"omitempty,dive"`
}

// AvailabilityResponse returns a person's stored windows.
type AvailabilityResponse struct {
	PersonID   string          `json:"personId"`
	Role       string          `json:"role"`
	Regular    []WindowPayload `json:"regular"`
	Exceptions []WindowPayload `json:"exceptions"`
}

// ResolvedDayResponse reports the governing window and slot coverage for one
// calendar date.
type ResolvedDayResponse struct {
	Date     string         `json:"date"`
	Mode     string         `json:"mode"`
	HasData  bool           `json:"hasData"`
	Window   *WindowPayload `json:"window,omitempty"`
	Coverage []bool         `json:"coverage"`
}
