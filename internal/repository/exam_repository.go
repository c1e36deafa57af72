package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/assessment-api/internal/models"
)

const (
	examSummaryColumns = `id, exam_title, department, duration_minutes, status, created_at, updated_at`
	examColumns        = `id, exam_title, department, duration_minutes, status, questions, created_by, created_at, updated_at`
)

// ExamRepository stores exams in PostgreSQL with the question list in a JSONB column.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository creates a new instance of ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// Create inserts an exam, assigning its id and timestamps.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	exam.CreatedAt = now
	exam.UpdatedAt = now
	if exam.Questions == nil {
		exam.Questions = models.QuestionList{}
	}

	const query = `INSERT INTO exams (id, exam_title, department, duration_minutes, status, questions, created_by, created_at, updated_at) VALUES (:id, :exam_title, :department, :duration_minutes, :status, :questions, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's exam metadata, most recently updated first.
func (r *ExamRepository) ListByOwner(ctx context.Context, ownerID string, filter models.ExamFilter) ([]models.ExamSummary, error) {
	conditions := []string{"created_by = $1"}
	args := []interface{}{ownerID}

	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM exams WHERE %s ORDER BY updated_at DESC", examSummaryColumns, strings.Join(conditions, " AND "))

	exams := []models.ExamSummary{}
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// FindOwned returns the exam only when it belongs to ownerID.
func (r *ExamRepository) FindOwned(ctx context.Context, id, ownerID string) (*models.Exam, error) {
	if !validUUID(id) {
		return nil, ErrInvalidID
	}
	query := `SELECT ` + examColumns + ` FROM exams WHERE id = $1 AND created_by = $2 LIMIT 1`
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find exam: %w", err)
	}
	return &exam, nil
}

// UpdateOwned sets only the fields present in the patch plus updated_at, and returns the stored exam.
func (r *ExamRepository) UpdateOwned(ctx context.Context, id, ownerID string, patch models.ExamPatch) (*models.Exam, error) {
	if !validUUID(id) {
		return nil, ErrInvalidID
	}

	sets := []string{}
	args := []interface{}{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.ExamTitle != nil {
		set("exam_title", *patch.ExamTitle)
	}
	if patch.Department != nil {
		set("department", *patch.Department)
	}
	if patch.DurationMinutes != nil {
		set("duration_minutes", *patch.DurationMinutes)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Questions != nil {
		set("questions", *patch.Questions)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id, ownerID)
	query := fmt.Sprintf("UPDATE exams SET %s WHERE id = $%d AND created_by = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args)-1, len(args), examColumns)

	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update exam: %w", err)
	}
	return &exam, nil
}

// DeleteOwned removes an owned exam.
func (r *ExamRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	if !validUUID(id) {
		return ErrInvalidID
	}
	const query = `DELETE FROM exams WHERE id = $1 AND created_by = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete exam rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
