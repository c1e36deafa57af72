package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/noah-isme/assessment-api/internal/models"
)

func TestParseObjectID(t *testing.T) {
	oid := primitive.NewObjectID()

	got, err := parseObjectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = parseObjectID("abc")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestExamDocumentRoundTrip(t *testing.T) {
	owner := primitive.NewObjectID()
	index := 1
	now := time.Now().UTC().Truncate(time.Millisecond)
	exam := &models.Exam{
		ExamTitle:       "Screening",
		Department:      "Finance",
		DurationMinutes: 30,
		Status:          models.ExamPublished,
		Questions: models.QuestionList{{
			ID:           "q1",
			Type:         models.QuestionMultipleChoice,
			Prompt:       "Pick",
			Choices:      []string{"a", "b"},
			CorrectIndex: &index,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	doc := newExamDocument(exam, owner)
	doc.ID = primitive.NewObjectID()

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var decoded examDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	got := decoded.model()
	assert.Equal(t, doc.ID.Hex(), got.ID)
	assert.Equal(t, owner.Hex(), got.CreatedBy)
	assert.Equal(t, exam.Questions, got.Questions)
	assert.True(t, now.Equal(got.UpdatedAt))

	summary := decoded.summary()
	assert.Equal(t, "Screening", summary.ExamTitle)
	assert.Equal(t, models.ExamPublished, summary.Status)
}

func TestExamDocumentDropsNilQuestions(t *testing.T) {
	doc := newExamDocument(&models.Exam{}, primitive.NewObjectID())
	assert.NotNil(t, doc.Questions)

	var empty examDocument
	assert.NotNil(t, empty.model().Questions)
}

func TestExamListFilter(t *testing.T) {
	owner := primitive.NewObjectID()

	assert.Equal(t, bson.M{"createdBy": owner}, examListFilter(owner, models.ExamFilter{}))
	assert.Equal(t, bson.M{"createdBy": owner, "department": "Sales", "status": models.ExamDraft},
		examListFilter(owner, models.ExamFilter{Department: "Sales", Status: models.ExamDraft}))
}

func TestOwnedFilter(t *testing.T) {
	id := primitive.NewObjectID()
	owner := primitive.NewObjectID()

	filter, err := ownedFilter(id.Hex(), owner.Hex())
	require.NoError(t, err)
	assert.Equal(t, bson.M{"_id": id, "createdBy": owner}, filter)

	_, err = ownedFilter("bad", owner.Hex())
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestExamPatchUpdateSetsOnlyPresentFields(t *testing.T) {
	now := time.Now().UTC()
	department := "IT"

	update := examPatchUpdate(models.ExamPatch{Department: &department}, now)
	assert.Equal(t, bson.M{"$set": bson.M{"department": "IT", "updatedAt": now}}, update)

	var empty models.QuestionList
	update = examPatchUpdate(models.ExamPatch{Questions: &empty}, now)
	fields := update["$set"].(bson.M)
	assert.Equal(t, []models.Question{}, fields["questions"])
	assert.NotContains(t, fields, "examTitle")
}

func TestAuditDocumentKeepsJSONStructure(t *testing.T) {
	doc := newAuditDocument(&models.AuditLog{Action: models.AuditActionLogin, NewValues: []byte(`{"status":"success"}`)})
	values, ok := doc.NewValues.(bson.M)
	require.True(t, ok)
	assert.Equal(t, "success", values["status"])

	doc = newAuditDocument(&models.AuditLog{Action: models.AuditActionLogin, NewValues: []byte(`not json`)})
	assert.Equal(t, "not json", doc.NewValues)
}
