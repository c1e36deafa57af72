package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/assessment-api/internal/dto"
	"github.com/noah-isme/assessment-api/internal/models"
	"github.com/noah-isme/assessment-api/internal/repository"
	"github.com/noah-isme/assessment-api/internal/validation"
	appErrors "github.com/noah-isme/assessment-api/pkg/errors"
)

type examRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	ListByOwner(ctx context.Context, ownerID string, filter models.ExamFilter) ([]models.ExamSummary, error)
	FindOwned(ctx context.Context, id, ownerID string) (*models.Exam, error)
	UpdateOwned(ctx context.Context, id, ownerID string, patch models.ExamPatch) (*models.Exam, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

// ExamService runs the owner-scoped exam workflow. Every payload is validated before anything is written.
type ExamService struct {
	repo    examRepository
	audit   auditRecorder
	cache   *ListCache
	metrics *MetricsService
	logger  *zap.Logger
}

// NewExamService constructs an ExamService. cache and metrics may be nil.
func NewExamService(repo examRepository, audit auditRecorder, cache *ListCache, metrics *MetricsService, logger *zap.Logger) *ExamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, audit: audit, cache: cache, metrics: metrics, logger: logger}
}

// Create validates the payload and stores a new exam owned by ownerID.
func (s *ExamService) Create(ctx context.Context, ownerID string, payload dto.ExamPayload, meta models.RequestMeta) (*models.Exam, error) {
	input, err := validation.ValidateCreate(payload)
	if err != nil {
		s.metrics.RecordRejection("create")
		return nil, appErrors.Validation(err.Error())
	}

	exam := &models.Exam{
		ExamTitle:       input.ExamTitle,
		Department:      input.Department,
		DurationMinutes: input.DurationMinutes,
		Status:          input.Status,
		Questions:       assignQuestionIDs(input.Questions),
		CreatedBy:       ownerID,
	}

	start := time.Now()
	err = s.repo.Create(ctx, exam)
	s.metrics.ObserveDBQuery("exams.create", time.Since(start))
	if err != nil {
		s.logger.Error("failed to create exam", zap.String("owner", ownerID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create exam")
	}

	s.afterWrite(ctx, "create", models.AuditActionExamCreate, exam, meta)
	return exam, nil
}

// List returns the owner's exam summaries, most recently updated first. Unknown status filters are ignored.
func (s *ExamService) List(ctx context.Context, ownerID string, department, status string) ([]models.ExamSummary, error) {
	filter := models.ExamFilter{Department: strings.TrimSpace(department)}
	if st := models.ExamStatus(strings.TrimSpace(status)); st.Valid() {
		filter.Status = st
	}

	if exams, ok := s.cache.Load(ctx, ownerID, filter); ok {
		return exams, nil
	}

	start := time.Now()
	exams, err := s.repo.ListByOwner(ctx, ownerID, filter)
	s.metrics.ObserveDBQuery("exams.list", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			return []models.ExamSummary{}, nil
		}
		s.logger.Error("failed to list exams", zap.String("owner", ownerID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to list exams")
	}
	if exams == nil {
		exams = []models.ExamSummary{}
	}

	s.cache.Store(ctx, ownerID, filter, exams)
	return exams, nil
}

// Get returns an owned exam. Exams of other owners are reported exactly like missing ones.
func (s *ExamService) Get(ctx context.Context, ownerID, id string) (*models.Exam, error) {
	start := time.Now()
	exam, err := s.repo.FindOwned(ctx, strings.TrimSpace(id), ownerID)
	s.metrics.ObserveDBQuery("exams.find", time.Since(start))
	if err != nil {
		return nil, s.lookupError(err, "failed to load exam")
	}
	return exam, nil
}

// Update applies the fields present in the payload. A payload without fields returns the exam unchanged.
func (s *ExamService) Update(ctx context.Context, ownerID, id string, payload dto.ExamPayload, meta models.RequestMeta) (*models.Exam, error) {
	patch, err := validation.ValidatePatch(payload)
	if err != nil {
		s.metrics.RecordRejection("update")
		return nil, appErrors.Validation(err.Error())
	}

	if patch.Empty() {
		return s.Get(ctx, ownerID, id)
	}

	if patch.Questions != nil {
		questions := assignQuestionIDs(*patch.Questions)
		patch.Questions = &questions
	}

	start := time.Now()
	exam, err := s.repo.UpdateOwned(ctx, strings.TrimSpace(id), ownerID, patch)
	s.metrics.ObserveDBQuery("exams.update", time.Since(start))
	if err != nil {
		return nil, s.lookupError(err, "failed to update exam")
	}

	s.afterWrite(ctx, "update", models.AuditActionExamUpdate, exam, meta)
	return exam, nil
}

// Delete removes an owned exam.
func (s *ExamService) Delete(ctx context.Context, ownerID, id string, meta models.RequestMeta) error {
	id = strings.TrimSpace(id)
	start := time.Now()
	err := s.repo.DeleteOwned(ctx, id, ownerID)
	s.metrics.ObserveDBQuery("exams.delete", time.Since(start))
	if err != nil {
		return s.lookupError(err, "failed to delete exam")
	}

	s.afterWrite(ctx, "delete", models.AuditActionExamDelete, &models.Exam{ID: id, CreatedBy: ownerID}, meta)
	return nil
}

func (s *ExamService) afterWrite(ctx context.Context, op, action string, exam *models.Exam, meta models.RequestMeta) {
	s.metrics.RecordExamWrite(op)
	s.cache.Invalidate(ctx, exam.CreatedBy)

	values := map[string]interface{}{"examId": exam.ID}
	if action != models.AuditActionExamDelete {
		values["status"] = exam.Status
		values["questions"] = len(exam.Questions)
	}
	recordAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     strPtr(exam.CreatedBy),
		Action:     action,
		Resource:   "exam",
		ResourceID: strPtr(exam.ID),
		NewValues:  auditValues(values),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
}

func (s *ExamService) lookupError(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		return appErrors.Validation("invalid exam id")
	case errors.Is(err, repository.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "exam not found")
	}
	s.logger.Error(message, zap.Error(err))
	return appErrors.Internal(err, message)
}

// assignQuestionIDs keeps client supplied ids and gives every other question a fresh one.
func assignQuestionIDs(questions models.QuestionList) models.QuestionList {
	out := make(models.QuestionList, len(questions))
	for i, q := range questions {
		if strings.TrimSpace(q.ID) == "" {
			q.ID = uuid.NewString()
		}
		out[i] = q
	}
	return out
}
