package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/assessment-api/internal/handler"
	"github.com/noah-isme/assessment-api/internal/models"
	"github.com/noah-isme/assessment-api/internal/repository"
	"github.com/noah-isme/assessment-api/pkg/config"
	"github.com/noah-isme/assessment-api/pkg/database"
)

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id, fullName string, updatedAt time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.UserStatus, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type examStore interface {
	Create(ctx context.Context, exam *models.Exam) error
	ListByOwner(ctx context.Context, ownerID string, filter models.ExamFilter) ([]models.ExamSummary, error)
	FindOwned(ctx context.Context, id, ownerID string) (*models.Exam, error)
	UpdateOwned(ctx context.Context, id, ownerID string, patch models.ExamPatch) (*models.Exam, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

type auditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// stores is the persistence selected by DB_DRIVER.
type stores struct {
	users  userStore
	exams  examStore
	audit  auditStore
	ping   handler.Pinger
	closer func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := database.NewPostgres(cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		logger.Info("storage ready", zap.String("driver", cfg.Driver), zap.String("host", cfg.Host), zap.String("database", cfg.Name))
		return &stores{
			users:  repository.NewUserRepository(db),
			exams:  repository.NewExamRepository(db),
			audit:  repository.NewAuditRepository(db),
			ping:   db.PingContext,
			closer: func(context.Context) error { return db.Close() },
		}, nil
	case config.DriverMongo, "":
		client, db, err := database.NewMongo(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		logger.Info("storage ready", zap.String("driver", config.DriverMongo), zap.String("database", cfg.MongoDatabase))
		return &stores{
			users:  repository.NewMongoUserRepository(db),
			exams:  repository.NewMongoExamRepository(db),
			audit:  repository.NewMongoAuditRepository(db),
			ping:   func(ctx context.Context) error { return client.Ping(ctx, nil) },
			closer: client.Disconnect,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}
