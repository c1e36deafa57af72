package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/noah-isme/assessment-api/internal/models"
	"github.com/noah-isme/assessment-api/pkg/database"
)

// MongoAuditRepository appends audit entries to the audit_logs collection.
type MongoAuditRepository struct {
	logs *mongo.Collection
}

// NewMongoAuditRepository creates a new instance of MongoAuditRepository.
func NewMongoAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{logs: db.Collection(database.AuditLogsCollection)}
}

// CreateAuditLog stores an audit log entry.
func (r *MongoAuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	doc := newAuditDocument(log)
	if _, err := r.logs.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	log.ID = doc.ID.Hex()
	return nil
}
