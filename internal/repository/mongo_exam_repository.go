package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/assessment-api/internal/models"
	"github.com/noah-isme/assessment-api/pkg/database"
)

// MongoExamRepository stores each exam as one document with its questions embedded.
type MongoExamRepository struct {
	exams *mongo.Collection
}

// NewMongoExamRepository creates a new instance of MongoExamRepository.
func NewMongoExamRepository(db *mongo.Database) *MongoExamRepository {
	return &MongoExamRepository{exams: db.Collection(database.ExamsCollection)}
}

// Create inserts an exam, assigning its id and timestamps.
func (r *MongoExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	owner, err := parseObjectID(exam.CreatedBy)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	exam.CreatedAt = now
	exam.UpdatedAt = now

	doc := newExamDocument(exam, owner)
	doc.ID = primitive.NewObjectID()
	if _, err := r.exams.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	exam.ID = doc.ID.Hex()
	if exam.Questions == nil {
		exam.Questions = models.QuestionList{}
	}
	return nil
}

// ListByOwner returns the owner's exam metadata, most recently updated first.
func (r *MongoExamRepository) ListByOwner(ctx context.Context, ownerID string, filter models.ExamFilter) ([]models.ExamSummary, error) {
	owner, err := parseObjectID(ownerID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetProjection(bson.M{"questions": 0})

	cursor, err := r.exams.Find(ctx, examListFilter(owner, filter), opts)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer cursor.Close(ctx)

	exams := []models.ExamSummary{}
	for cursor.Next(ctx) {
		var doc examDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode exam: %w", err)
		}
		exams = append(exams, doc.summary())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate exams: %w", err)
	}
	return exams, nil
}

// FindOwned returns the exam only when it belongs to ownerID.
func (r *MongoExamRepository) FindOwned(ctx context.Context, id, ownerID string) (*models.Exam, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	var doc examDocument
	if err := r.exams.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find exam: %w", err)
	}
	return doc.model(), nil
}

// UpdateOwned sets only the fields present in the patch plus updatedAt, and returns the stored exam.
func (r *MongoExamRepository) UpdateOwned(ctx context.Context, id, ownerID string, patch models.ExamPatch) (*models.Exam, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc examDocument
	if err := r.exams.FindOneAndUpdate(ctx, filter, examPatchUpdate(patch, time.Now().UTC()), opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update exam: %w", err)
	}
	return doc.model(), nil
}

// DeleteOwned removes an owned exam.
func (r *MongoExamRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return err
	}
	res, err := r.exams.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func ownedFilter(id, ownerID string) (bson.M, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	owner, err := parseObjectID(ownerID)
	if err != nil {
		return nil, ErrNotFound
	}
	return bson.M{"_id": oid, "createdBy": owner}, nil
}
