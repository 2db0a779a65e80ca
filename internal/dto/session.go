package dto

import "encoding/json"

// CreateSessionRequest books a single one-off lesson. Legacy clients send
// the subject in two shapes: a nested {"subject": {"id", "name"}} object or
// flattened "subjectId"/"subjectName" keys. UnmarshalJSON canonicalizes both
// into SubjectID/SubjectName in one step so nothing downstream branches on
// which shape arrived.
type CreateSessionRequest struct {
	TeacherID   string  `json:"teacherId" validate:"required"`
	StudentID   string  `json:"studentId" validate:"required"`
	SubjectID   string  `json:"subjectId" validate:"required"`
	SubjectName string  `json:"subjectName"`
	BoothID     string  `json:"boothId" validate:"required"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string  `json:"startTime" validate:"required"`
	EndTime     string  `json:"endTime" validate:"required"`
	Notes       *string `json:"notes"`
	Force       bool    `json:"force"`
}

type subjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts both the nested and the flattened subject shape.
// The nested object wins when both are present.
func (r *CreateSessionRequest) UnmarshalJSON(data []byte) error {
	type plain CreateSessionRequest
	aux := struct {
		*plain
		Subject *subjectRef `json:"subject"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Subject != nil {
		r.SubjectID = aux.Subject.ID
		r.SubjectName = aux.Subject.Name
	}
	return nil
}

// UpdateSessionRequest reschedules or annotates an existing session.
type UpdateSessionRequest struct {
	BoothID   *string `json:"boothId"`
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
	Status    *string `json:"status" validate:"omitempty,oneof=SCHEDULED COMPLETED CANCELLED"`
	Notes     *string `json:"notes"`
	Force     bool    `json:"force"`
}

// SelectedDatesPayload carries the operator's calendar date selection.
type SelectedDatesPayload struct {
	Dates []string `json:"dates" validate:"omitempty,dive,datetime=2006-01-02"`
}
