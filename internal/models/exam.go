package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ExamStatus tracks whether an exam is still being authored.
type ExamStatus string

const (
	ExamDraft     ExamStatus = "draft"
	ExamPublished ExamStatus = "published"
)

// Valid reports whether the status is one of the known values.
func (s ExamStatus) Valid() bool {
	return s == ExamDraft || s == ExamPublished
}

// QuestionType is the discriminator of the Question variant.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionNarrative      QuestionType = "narrative"
)

// QuestionTypes lists the supported kinds in presentation order.
var QuestionTypes = []QuestionType{QuestionMultipleChoice, QuestionTrueFalse, QuestionNarrative}

// Known reports whether the type is supported.
func (t QuestionType) Known() bool {
	switch t {
	case QuestionMultipleChoice, QuestionTrueFalse, QuestionNarrative:
		return true
	}
	return false
}

// Label is the human readable name of the question kind.
func (t QuestionType) Label() string {
	switch t {
	case QuestionMultipleChoice:
		return "Multiple Choice"
	case QuestionTrueFalse:
		return "True or False"
	case QuestionNarrative:
		return "Narrative"
	}
	return string(t)
}

// Question is one entry of an exam. Only the fields of its Type are populated.
type Question struct {
	ID             string       `json:"id" bson:"id"`
	Type           QuestionType `json:"type" bson:"type"`
	Prompt         string       `json:"prompt" bson:"prompt"`
	Choices        []string     `json:"choices,omitempty" bson:"choices,omitempty"`
	CorrectIndex   *int         `json:"correctIndex,omitempty" bson:"correctIndex,omitempty"`
	CorrectBoolean *bool        `json:"correctBoolean,omitempty" bson:"correctBoolean,omitempty"`
	Rubric         string       `json:"rubric,omitempty" bson:"rubric,omitempty"`
}

// QuestionList is stored as a single JSON document column in PostgreSQL.
type QuestionList []Question

// Value implements driver.Valuer.
func (l QuestionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (l *QuestionList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = QuestionList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("questions: unsupported column type")
	}
	var out QuestionList
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	if out == nil {
		out = QuestionList{}
	}
	*l = out
	return nil
}

// Exam is an owner-scoped assessment with its ordered questions.
type Exam struct {
	ID              string       `db:"id" json:"id"`
	ExamTitle       string       `db:"exam_title" json:"examTitle"`
	Department      string       `db:"department" json:"department"`
	DurationMinutes float64      `db:"duration_minutes" json:"durationMinutes"`
	Status          ExamStatus   `db:"status" json:"status"`
	Questions       QuestionList `db:"questions" json:"questions"`
	CreatedBy       string       `db:"created_by" json:"createdBy"`
	CreatedAt       time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updatedAt"`
}

// Summary drops the question bodies for listings.
func (e *Exam) Summary() ExamSummary {
	return ExamSummary{
		ID:              e.ID,
		ExamTitle:       e.ExamTitle,
		Department:      e.Department,
		DurationMinutes: e.DurationMinutes,
		Status:          e.Status,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// ExamSummary is the metadata-only projection returned by listings.
type ExamSummary struct {
	ID              string     `db:"id" json:"id"`
	ExamTitle       string     `db:"exam_title" json:"examTitle"`
	Department      string     `db:"department" json:"department"`
	DurationMinutes float64    `db:"duration_minutes" json:"durationMinutes"`
	Status          ExamStatus `db:"status" json:"status"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// ExamFilter narrows an owner's exam listing.
type ExamFilter struct {
	Department string
	Status     ExamStatus
}

// ExamPatch holds the validated subset of fields to change. Nil means untouched.
type ExamPatch struct {
	ExamTitle       *string
	Department      *string
	DurationMinutes *float64
	Status          *ExamStatus
	Questions       *QuestionList
}

// Empty reports whether the patch changes nothing.
func (p ExamPatch) Empty() bool {
	return p.ExamTitle == nil && p.Department == nil && p.DurationMinutes == nil && p.Status == nil && p.Questions == nil
}

// Apply copies the present fields onto the exam.
func (p ExamPatch) Apply(e *Exam) {
	if p.ExamTitle != nil {
		e.ExamTitle = *p.ExamTitle
	}
	if p.Department != nil {
		e.Department = *p.Department
	}
	if p.DurationMinutes != nil {
		e.DurationMinutes = *p.DurationMinutes
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Questions != nil {
		e.Questions = *p.Questions
	}
}
