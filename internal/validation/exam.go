package validation

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/noah-isme/assessment-api/internal/dto"
	"github.com/noah-isme/assessment-api/internal/models"
)

const (
	MaxTitleLength      = 150
	MaxDepartmentLength = 80
)

// ExamInput is a create payload that passed every check.
type ExamInput struct {
	ExamTitle       string
	Department      string
	DurationMinutes float64
	Status          models.ExamStatus
	Questions       models.QuestionList
}

// ValidateCreate checks a full exam payload. Status defaults to draft unless it is exactly "published";
// absent or null questions mean an empty exam.
func ValidateCreate(p dto.ExamPayload) (*ExamInput, error) {
	title, err := text(p.ExamTitle, "examTitle", "examTitle is required", MaxTitleLength)
	if err != nil {
		return nil, err
	}
	department, err := text(p.Department, "department", "department is required", MaxDepartmentLength)
	if err != nil {
		return nil, err
	}
	duration, err := Duration(p.DurationMinutes)
	if err != nil {
		return nil, err
	}

	status := models.ExamDraft
	if s, ok := stringValue(p.Status); ok && models.ExamStatus(s) == models.ExamPublished {
		status = models.ExamPublished
	}

	questions := models.QuestionList{}
	if present(p.Questions) && !isNull(p.Questions) {
		questions, err = ValidateQuestions(p.Questions)
		if err != nil {
			return nil, err
		}
	}

	return &ExamInput{
		ExamTitle:       title,
		Department:      department,
		DurationMinutes: duration,
		Status:          status,
		Questions:       questions,
	}, nil
}

// ValidatePatch checks only the fields present in an update payload.
func ValidatePatch(p dto.ExamPayload) (models.ExamPatch, error) {
	var patch models.ExamPatch

	if present(p.ExamTitle) {
		title, err := text(p.ExamTitle, "examTitle", "examTitle cannot be empty", MaxTitleLength)
		if err != nil {
			return models.ExamPatch{}, err
		}
		patch.ExamTitle = &title
	}

	if present(p.Department) {
		department, err := text(p.Department, "department", "department cannot be empty", MaxDepartmentLength)
		if err != nil {
			return models.ExamPatch{}, err
		}
		patch.Department = &department
	}

	if present(p.DurationMinutes) {
		duration, err := Duration(p.DurationMinutes)
		if err != nil {
			return models.ExamPatch{}, err
		}
		patch.DurationMinutes = &duration
	}

	if present(p.Status) {
		s, _ := stringValue(p.Status)
		status := models.ExamStatus(s)
		if !status.Valid() {
			return models.ExamPatch{}, fieldError("status must be draft or published")
		}
		patch.Status = &status
	}

	if present(p.Questions) {
		questions, err := ValidateQuestions(p.Questions)
		if err != nil {
			return models.ExamPatch{}, err
		}
		patch.Questions = &questions
	}

	return patch, nil
}

// Duration accepts a JSON number or a numeric string and requires a finite value above zero.
func Duration(raw json.RawMessage) (float64, error) {
	invalid := fieldError("durationMinutes must be a positive number")

	value, err := decode(raw)
	if err != nil {
		return 0, invalid
	}

	var f float64
	switch v := value.(type) {
	case json.Number:
		f, err = v.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, invalid
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, invalid
	}
	return f, nil
}

// CheckContent runs the create rules over typed content, as the authoring client does before publishing.
func CheckContent(c dto.ExamContent) error {
	payload, err := c.Payload()
	if err != nil {
		return fieldError("exam payload cannot be encoded")
	}
	_, err = ValidateCreate(payload)
	return err
}

func text(raw json.RawMessage, field, emptyMessage string, max int) (string, error) {
	s, ok := stringValue(raw)
	s = strings.TrimSpace(s)
	if !ok || s == "" {
		return "", fieldError(emptyMessage)
	}
	if utf8.RuneCountInString(s) > max {
		return "", fieldError(field + " must be at most " + strconv.Itoa(max) + " characters")
	}
	return s, nil
}

func stringValue(raw json.RawMessage) (string, bool) {
	if !present(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
