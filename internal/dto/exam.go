package dto

import (
	"encoding/json"

	"github.com/noah-isme/assessment-api/internal/models"
)

// ExamPayload is the request body of exam create/update. Fields stay raw so the validator can tell an absent
// field from a present one and reject values of the wrong JSON type instead of coercing them.
type ExamPayload struct {
	ExamTitle       json.RawMessage `json:"examTitle,omitempty" swaggertype:"string"`
	Department      json.RawMessage `json:"department,omitempty" swaggertype:"string"`
	DurationMinutes json.RawMessage `json:"durationMinutes,omitempty" swaggertype:"number"`
	Status          json.RawMessage `json:"status,omitempty" swaggertype:"string"`
	Questions       json.RawMessage `json:"questions,omitempty" swaggertype:"array,object"`
}

// ExamContent is the typed shape authored by clients before it is sent as an ExamPayload.
type ExamContent struct {
	ExamTitle       string              `json:"examTitle"`
	Department      string              `json:"department"`
	DurationMinutes float64             `json:"durationMinutes"`
	Status          models.ExamStatus   `json:"status,omitempty"`
	Questions       models.QuestionList `json:"questions"`
}

// Payload converts typed content into the wire payload carrying every field.
func (c ExamContent) Payload() (ExamPayload, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return ExamPayload{}, err
	}
	var p ExamPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ExamPayload{}, err
	}
	return p, nil
}

// ExamResponse wraps a single exam.
type ExamResponse struct {
	Exam *models.Exam `json:"exam"`
}

// ExamListResponse wraps an exam listing.
type ExamListResponse struct {
	Exams []models.ExamSummary `json:"exams"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	User models.UserInfo `json:"user"`
}

// UserListResponse wraps the admin user listing.
type UserListResponse struct {
	Users []models.UserInfo `json:"users"`
}

// CreateApplicantRequest is the admin payload for provisioning an applicant.
type CreateApplicantRequest struct {
	FullName string `json:"fullName" validate:"required,notblank,min=2,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,notblank,min=8"`
}

// UpdateUserStatusRequest toggles an account.
type UpdateUserStatusRequest struct {
	Status models.UserStatus `json:"status" validate:"required,oneof=Active Disabled"`
}
