package repository

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/noah-isme/assessment-api/internal/models"
)

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	FullName     string             `bson:"fullName"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	Role         models.UserRole    `bson:"role"`
	Status       models.UserStatus  `bson:"status"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d userDocument) model() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		FullName:     d.FullName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		Status:       d.Status,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type examDocument struct {
	ID              primitive.ObjectID `bson:"_id"`
	ExamTitle       string             `bson:"examTitle"`
	Department      string             `bson:"department"`
	DurationMinutes float64            `bson:"durationMinutes"`
	Status          models.ExamStatus  `bson:"status"`
	Questions       []models.Question  `bson:"questions"`
	CreatedBy       primitive.ObjectID `bson:"createdBy"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

func newExamDocument(exam *models.Exam, owner primitive.ObjectID) examDocument {
	questions := []models.Question(exam.Questions)
	if questions == nil {
		questions = []models.Question{}
	}
	return examDocument{
		ExamTitle:       exam.ExamTitle,
		Department:      exam.Department,
		DurationMinutes: exam.DurationMinutes,
		Status:          exam.Status,
		Questions:       questions,
		CreatedBy:       owner,
		CreatedAt:       exam.CreatedAt,
		UpdatedAt:       exam.UpdatedAt,
	}
}

func (d examDocument) model() *models.Exam {
	questions := models.QuestionList(d.Questions)
	if questions == nil {
		questions = models.QuestionList{}
	}
	return &models.Exam{
		ID:              d.ID.Hex(),
		ExamTitle:       d.ExamTitle,
		Department:      d.Department,
		DurationMinutes: d.DurationMinutes,
		Status:          d.Status,
		Questions:       questions,
		CreatedBy:       d.CreatedBy.Hex(),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (d examDocument) summary() models.ExamSummary {
	return models.ExamSummary{
		ID:              d.ID.Hex(),
		ExamTitle:       d.ExamTitle,
		Department:      d.Department,
		DurationMinutes: d.DurationMinutes,
		Status:          d.Status,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type auditDocument struct {
	ID         primitive.ObjectID `bson:"_id"`
	UserID     *string            `bson:"userId,omitempty"`
	Action     string             `bson:"action"`
	Resource   string             `bson:"resource"`
	ResourceID *string            `bson:"resourceId,omitempty"`
	NewValues  interface{}        `bson:"newValues,omitempty"`
	IPAddress  string             `bson:"ip"`
	UserAgent  string             `bson:"userAgent"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func newAuditDocument(log *models.AuditLog) auditDocument {
	doc := auditDocument{
		ID:         primitive.NewObjectID(),
		UserID:     log.UserID,
		Action:     log.Action,
		Resource:   log.Resource,
		ResourceID: log.ResourceID,
		IPAddress:  log.IPAddress,
		UserAgent:  log.UserAgent,
		CreatedAt:  log.CreatedAt,
	}
	if len(log.NewValues) > 0 {
		var values bson.M
		if err := bson.UnmarshalExtJSON(log.NewValues, false, &values); err == nil {
			doc.NewValues = values
		} else {
			doc.NewValues = string(log.NewValues)
		}
	}
	return doc
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func examListFilter(owner primitive.ObjectID, filter models.ExamFilter) bson.M {
	query := bson.M{"createdBy": owner}
	if filter.Department != "" {
		query["department"] = filter.Department
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

func examPatchUpdate(patch models.ExamPatch, updatedAt time.Time) bson.M {
	fields := bson.M{"updatedAt": updatedAt}
	if patch.ExamTitle != nil {
		fields["examTitle"] = *patch.ExamTitle
	}
	if patch.Department != nil {
		fields["department"] = *patch.Department
	}
	if patch.DurationMinutes != nil {
		fields["durationMinutes"] = *patch.DurationMinutes
	}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}
	if patch.Questions != nil {
		questions := []models.Question(*patch.Questions)
		if questions == nil {
			questions = []models.Question{}
		}
		fields["questions"] = questions
	}
	return bson.M{"$set": fields}
}
