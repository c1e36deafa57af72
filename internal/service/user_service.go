package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/assessment-api/internal/dto"
	"github.com/noah-isme/assessment-api/internal/models"
	"github.com/noah-isme/assessment-api/internal/repository"
	"github.com/noah-isme/assessment-api/internal/validation"
	appErrors "github.com/noah-isme/assessment-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateStatus(ctx context.Context, id string, status models.UserStatus, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// UserService handles the administrator's account management.
type UserService struct {
	repo       userRepository
	audit      auditRecorder
	validator  *validator.Validate
	logger     *zap.Logger
	adminEmail string
	bcryptCost int
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, cfg AuthConfig) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.NewValidator()
	}
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = 12
	}
	return &UserService{
		repo:       repo,
		audit:      audit,
		validator:  validate,
		logger:     logger,
		adminEmail: normalizeEmail(cfg.AdminEmail),
		bcryptCost: cost,
	}
}

// List returns every account, newest first, without credentials.
func (s *UserService) List(ctx context.Context) ([]models.UserInfo, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to list users")
	}
	out := make([]models.UserInfo, 0, len(users))
	for i := range users {
		out = append(out, users[i].Info())
	}
	return out, nil
}

// CreateApplicant provisions an active applicant account.
func (s *UserService) CreateApplicant(ctx context.Context, actor *models.User, req dto.CreateApplicantRequest, meta models.RequestMeta) (*models.UserInfo, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid applicant payload")
	}
	if s.reserved(req.Email) {
		return nil, appErrors.Validation(s.adminEmail + " cannot be created as an applicant")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleApplicant,
		Status:       models.StatusActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Email already registered")
		}
		s.logger.Error("failed to create applicant", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create applicant")
	}

	recordAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionUserCreate,
		Resource:   "user",
		ResourceID: &user.ID,
		NewValues:  auditValues(map[string]string{"email": user.Email, "role": string(user.Role)}),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})

	info := user.Info()
	return &info, nil
}

// UpdateStatus enables or disables an account. The reserved admin can never be disabled.
func (s *UserService) UpdateStatus(ctx context.Context, actor *models.User, id string, req dto.UpdateUserStatusRequest, meta models.RequestMeta) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "status must be Active or Disabled")
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.reserved(user.Email) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, s.adminEmail+" cannot be disabled")
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, user.ID, req.Status, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Internal(err, "failed to update user status")
	}
	user.Status = req.Status
	user.UpdatedAt = now

	recordAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionUserStatus,
		Resource:   "user",
		ResourceID: &user.ID,
		NewValues:  auditValues(map[string]string{"status": string(req.Status)}),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})

	info := user.Info()
	return &info, nil
}

// Delete removes an account. The reserved admin can never be deleted.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id string, meta models.RequestMeta) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if s.reserved(user.Email) {
		return appErrors.Clone(appErrors.ErrForbidden, s.adminEmail+" cannot be deleted")
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return appErrors.Internal(err, "failed to delete user")
	}

	recordAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionUserDelete,
		Resource:   "user",
		ResourceID: &user.ID,
		NewValues:  auditValues(map[string]string{"email": user.Email}),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

func (s *UserService) find(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidID):
			return nil, appErrors.Validation("Invalid user id")
		case errors.Is(err, repository.ErrNotFound):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		s.logger.Error("failed to load user", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

func (s *UserService) reserved(email string) bool {
	return s.adminEmail != "" && normalizeEmail(email) == s.adminEmail
}

func actorID(actor *models.User) *string {
	if actor == nil {
		return nil
	}
	return strPtr(actor.ID)
}
