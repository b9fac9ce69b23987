package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusphere/core-api/internal/models"
	appErrors "github.com/edusphere/core-api/pkg/errors"
)

type accessHistoryRepository interface {
	Create(ctx context.Context, access *models.AccessHistory) error
	FindByID(ctx context.Context, id string) (*models.AccessHistory, error)
	List(ctx context.Context, filter models.AccessHistoryFilter) ([]models.AccessHistory, int, error)
}

type enrollmentAccessReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, cancelledAt *time.Time) error
}

// RecordAccessRequest describes an access event payload. Exactly one of
// LessonID or LiveSessionID is expected.
type RecordAccessRequest struct {
	UserID        string  `json:"userId" validate:"required,uuid4"`
	EnrollmentID  string  `json:"enrollmentId" validate:"required,uuid4"`
	LessonID      *string `json:"lessonId,omitempty" validate:"omitempty,uuid4"`
	LiveSessionID *string `json:"liveSessionId,omitempty" validate:"omitempty,uuid4"`
}

// AccessService gates content access on enrollment state. Expiry is
// materialized lazily here; there is no background sweep.
type AccessService struct {
	repo        accessHistoryRepository
	enrollments enrollmentAccessReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAccessService constructs AccessService.
func NewAccessService(repo accessHistoryRepository, enrollments enrollmentAccessReader, validate *validator.Validate, logger *zap.Logger) *AccessService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{repo: repo, enrollments: enrollments, validator: validate, logger: logger}
}

// Record appends an access event after checking the enrollment is ACTIVE
// and unexpired. Hitting an expired enrollment flips it to EXPIRED before
// rejecting the access.
func (s *AccessService) Record(ctx context.Context, req RecordAccessRequest) (*models.AccessHistory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid access payload")
	}
	if req.LessonID == nil && req.LiveSessionID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "either lessonId or liveSessionId must be provided")
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment is not active")
	}
	if enrollment.ExpiresAt != nil && time.Now().UTC().After(*enrollment.ExpiresAt) {
		if err := s.enrollments.UpdateStatus(ctx, enrollment.ID, models.EnrollmentStatusExpired, nil); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expire enrollment")
		}
		s.logger.Info("enrollment expired on access", zap.String("enrollment_id", enrollment.ID))
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment has expired")
	}

	access := &models.AccessHistory{
		UserID:        req.UserID,
		EnrollmentID:  req.EnrollmentID,
		LessonID:      req.LessonID,
		LiveSessionID: req.LiveSessionID,
		AccessedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, access); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record access")
	}
	return access, nil
}

// FindByID returns a single access event.
func (s *AccessService) FindByID(ctx context.Context, id string) (*models.AccessHistory, error) {
	access, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "access history not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load access history")
	}
	return access, nil
}

// List returns access events with pagination metadata.
func (s *AccessService) List(ctx context.Context, filter models.AccessHistoryFilter) ([]models.AccessHistory, *models.Pagination, error) {
	accesses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list access history")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return accesses, pagination, nil
}
