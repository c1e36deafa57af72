package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/assessment-api/internal/models"
)

func TestValidateQuestionsAcceptsEveryKind(t *testing.T) {
	raw := json.RawMessage(`[
		{"id":"q-1","type":"multiple_choice","prompt":"  Pick one ","choices":["a"," b ","",""],"correctIndex":1,"rubric":"ignored"},
		{"type":"true_false","prompt":"Sky is blue","correctBoolean":false},
		{"type":"narrative","prompt":"Explain","rubric":"Clarity"}
	]`)

	questions, err := ValidateQuestions(raw)
	require.NoError(t, err)
	require.Len(t, questions, 3)

	mc := questions[0]
	assert.Equal(t, "q-1", mc.ID)
	assert.Equal(t, "Pick one", mc.Prompt)
	assert.Equal(t, []string{"a", "b", "", ""}, mc.Choices)
	require.NotNil(t, mc.CorrectIndex)
	assert.Equal(t, 1, *mc.CorrectIndex)
	assert.Empty(t, mc.Rubric)

	tf := questions[1]
	require.NotNil(t, tf.CorrectBoolean)
	assert.False(t, *tf.CorrectBoolean)
	assert.Nil(t, tf.CorrectIndex)

	assert.Equal(t, models.QuestionNarrative, questions[2].Type)
	assert.Equal(t, "Clarity", questions[2].Rubric)
}

func TestValidateQuestionsEmptyList(t *testing.T) {
	questions, err := ValidateQuestions(json.RawMessage(`[]`))
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestValidateQuestionsRejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"not an array", `{"type":"narrative"}`, "questions must be an array"},
		{"null", `null`, "questions must be an array"},
		{"not an object", `["oops"]`, "question 1 is invalid"},
		{"missing type", `[{"prompt":"x"}]`, "question 1: type is required"},
		{"blank type", `[{"type":"  ","prompt":"x"}]`, "question 1: type is required"},
		{"unknown type", `[{"type":"essay","prompt":"x"}]`, "question 1: unsupported type"},
		{"unknown type before prompt", `[{"type":"essay"}]`, "question 1: unsupported type"},
		{"blank prompt", `[{"type":"narrative","prompt":"   ","rubric":"r"}]`, "question 1: prompt is required"},
		{"choices not array", `[{"type":"multiple_choice","prompt":"x","choices":"a,b","correctIndex":0}]`, "question 1: choices must be an array"},
		{"one filled choice", `[{"type":"multiple_choice","prompt":"x","choices":["a","  "],"correctIndex":0}]`, "question 1: at least 2 non-empty choices required"},
		{"string index", `[{"type":"multiple_choice","prompt":"x","choices":["a","b"],"correctIndex":"0"}]`, "question 1: correctIndex must be an integer"},
		{"fractional index", `[{"type":"multiple_choice","prompt":"x","choices":["a","b"],"correctIndex":0.5}]`, "question 1: correctIndex must be an integer"},
		{"index out of range", `[{"type":"multiple_choice","prompt":"x","choices":["a","b"],"correctIndex":2}]`, "question 1: correctIndex out of range"},
		{"negative index", `[{"type":"multiple_choice","prompt":"x","choices":["a","b"],"correctIndex":-1}]`, "question 1: correctIndex out of range"},
		{"empty correct choice", `[{"type":"multiple_choice","prompt":"x","choices":["a","b",""],"correctIndex":2}]`, "question 1: correct choice cannot be empty"},
		{"truthy boolean", `[{"type":"true_false","prompt":"x","correctBoolean":1}]`, "question 1: correctBoolean must be true/false"},
		{"string boolean", `[{"type":"true_false","prompt":"x","correctBoolean":"true"}]`, "question 1: correctBoolean must be true/false"},
		{"missing rubric", `[{"type":"narrative","prompt":"x"}]`, "question 1: rubric is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateQuestions(json.RawMessage(tc.raw))
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestValidateQuestionsReportsFirstViolator(t *testing.T) {
	raw := json.RawMessage(`[
		{"type":"narrative","prompt":"ok","rubric":"r"},
		{"type":"true_false","prompt":"ok","correctBoolean":true},
		{"type":"narrative","prompt":"bad"},
		{"type":"unknown"}
	]`)

	_, err := ValidateQuestions(raw)
	require.Error(t, err)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 3, verr.Position)
	assert.Equal(t, "rubric is required", verr.Reason)
}

func TestMultipleChoiceBoundary(t *testing.T) {
	_, err := ValidateQuestions(json.RawMessage(`[{"type":"multiple_choice","prompt":"x","choices":["a","b"],"correctIndex":0}]`))
	assert.NoError(t, err)

	_, err = ValidateQuestions(json.RawMessage(`[{"type":"multiple_choice","prompt":"x","choices":["a"],"correctIndex":0}]`))
	assert.EqualError(t, err, "question 1: at least 2 non-empty choices required")
}

func TestIsValidQuestion(t *testing.T) {
	zero := 0
	yes := true

	assert.True(t, IsValidQuestion(models.Question{Type: models.QuestionMultipleChoice, Prompt: "p", Choices: []string{"a", "b"}, CorrectIndex: &zero}))
	assert.True(t, IsValidQuestion(models.Question{Type: models.QuestionTrueFalse, Prompt: "p", CorrectBoolean: &yes}))
	assert.False(t, IsValidQuestion(models.Question{Type: models.QuestionTrueFalse, Prompt: "p"}))
	assert.False(t, IsValidQuestion(models.Question{Type: models.QuestionNarrative, Prompt: ""}))
}
