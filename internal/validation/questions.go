// Package validation holds the pure exam and question checks shared by the API and the authoring client.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/noah-isme/assessment-api/internal/models"
)

// Error describes the first violated rule. Position is the 1-based question index, or 0 for exam-level fields.
type Error struct {
	Position int
	Reason   string
}

func (e *Error) Error() string {
	if e.Position == 0 {
		return e.Reason
	}
	if e.Reason == reasonInvalid {
		return fmt.Sprintf("question %d is invalid", e.Position)
	}
	return fmt.Sprintf("question %d: %s", e.Position, e.Reason)
}

const reasonInvalid = "invalid"

func fieldError(reason string) *Error {
	return &Error{Reason: reason}
}

func questionError(position int, reason string) *Error {
	return &Error{Position: position, Reason: reason}
}

// ValidateQuestions checks a raw JSON question sequence and returns the typed questions in input order.
// Fields that do not belong to a question's type are dropped; strings are trimmed.
func ValidateQuestions(raw json.RawMessage) (models.QuestionList, error) {
	value, err := decode(raw)
	if err != nil {
		return nil, fieldError("questions must be an array")
	}
	items, ok := value.([]interface{})
	if !ok {
		return nil, fieldError("questions must be an array")
	}

	out := make(models.QuestionList, 0, len(items))
	for i, item := range items {
		q, err := validateQuestion(i+1, item)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func validateQuestion(pos int, item interface{}) (models.Question, error) {
	fields, ok := item.(map[string]interface{})
	if !ok {
		return models.Question{}, questionError(pos, reasonInvalid)
	}

	typ, ok := nonEmptyString(fields["type"])
	if !ok {
		return models.Question{}, questionError(pos, "type is required")
	}
	qType := models.QuestionType(typ)
	if !qType.Known() {
		return models.Question{}, questionError(pos, "unsupported type")
	}

	prompt, ok := nonEmptyString(fields["prompt"])
	if !ok {
		return models.Question{}, questionError(pos, "prompt is required")
	}

	q := models.Question{Type: qType, Prompt: prompt}
	if id, ok := nonEmptyString(fields["id"]); ok {
		q.ID = id
	}

	switch qType {
	case models.QuestionMultipleChoice:
		choices, correct, err := multipleChoice(pos, fields)
		if err != nil {
			return models.Question{}, err
		}
		q.Choices = choices
		q.CorrectIndex = &correct
	case models.QuestionTrueFalse:
		answer, ok := fields["correctBoolean"].(bool)
		if !ok {
			return models.Question{}, questionError(pos, "correctBoolean must be true/false")
		}
		q.CorrectBoolean = &answer
	case models.QuestionNarrative:
		rubric, ok := nonEmptyString(fields["rubric"])
		if !ok {
			return models.Question{}, questionError(pos, "rubric is required")
		}
		q.Rubric = rubric
	}

	return q, nil
}

func multipleChoice(pos int, fields map[string]interface{}) ([]string, int, error) {
	rawChoices, ok := fields["choices"].([]interface{})
	if !ok {
		return nil, 0, questionError(pos, "choices must be an array")
	}

	choices := make([]string, len(rawChoices))
	filled := 0
	for i, c := range rawChoices {
		s, _ := c.(string)
		choices[i] = strings.TrimSpace(s)
		if choices[i] != "" {
			filled++
		}
	}
	if filled < 2 {
		return nil, 0, questionError(pos, "at least 2 non-empty choices required")
	}

	index, ok := integer(fields["correctIndex"])
	if !ok {
		return nil, 0, questionError(pos, "correctIndex must be an integer")
	}
	if index < 0 || index >= len(choices) {
		return nil, 0, questionError(pos, "correctIndex out of range")
	}
	if choices[index] == "" {
		return nil, 0, questionError(pos, "correct choice cannot be empty")
	}

	return choices, index, nil
}

// IsValidQuestion applies the same rules to an already typed question.
func IsValidQuestion(q models.Question) bool {
	raw, err := json.Marshal(q)
	if err != nil {
		return false
	}
	_, err = ValidateQuestions(json.RawMessage("[" + string(raw) + "]"))
	return err == nil
}

func decode(raw json.RawMessage) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func nonEmptyString(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func integer(v interface{}) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return -1, true
	}
	return int(f), true
}
