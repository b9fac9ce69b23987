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

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, userID, courseID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	SetExpiry(ctx context.Context, id string, expiresAt *time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, cancelledAt *time.Time) error
	Delete(ctx context.Context, id string) error
}

type paymentCreator interface {
	CreateForEnrollment(ctx context.Context, enrollmentID string, amount float64, paymentMethod *string) (*models.Payment, error)
}

// CreateEnrollmentRequest describes the enrollment creation payload.
type CreateEnrollmentRequest struct {
	UserID        string     `json:"userId" validate:"required,uuid4"`
	CourseID      string     `json:"courseId" validate:"required,uuid4"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	Amount        float64    `json:"amount" validate:"required,gt=0"`
	PaymentMethod *string    `json:"paymentMethod,omitempty"`
}

// UpdateEnrollmentRequest describes the patch payload. Only the expiry
// window is caller-mutable; status moves through dedicated transitions.
type UpdateEnrollmentRequest struct {
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// EnrollmentService owns the enrollment lifecycle: creation, activation via
// payment, lazy expiry, cancellation and administrative deletion.
type EnrollmentService struct {
	repo      enrollmentRepository
	payments  paymentCreator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, payments paymentCreator, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, payments: payments, validator: validate, logger: logger}
}

// Create registers a learner on a course and opens the associated payment.
// Fails with Conflict when the pair already holds an ACTIVE enrollment; a
// non-active prior enrollment (pending, expired, cancelled) does not block
// re-enrollment. The new enrollment starts PENDING and only activates once
// its payment is processed.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.EnrollmentWithPayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	active, err := s.repo.ExistsActive(ctx, req.UserID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}
	if active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user already enrolled in this course")
	}

	enrollment := &models.Enrollment{
		UserID:     req.UserID,
		CourseID:   req.CourseID,
		Status:     models.EnrollmentStatusPending,
		EnrolledAt: time.Now().UTC(),
		ExpiresAt:  req.ExpiresAt,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	payment, err := s.payments.CreateForEnrollment(ctx, enrollment.ID, req.Amount, req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	s.logger.Info("enrollment created",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("user_id", enrollment.UserID),
		zap.String("course_id", enrollment.CourseID))

	return &models.EnrollmentWithPayment{Enrollment: *enrollment, Payment: payment}, nil
}

// FindByID returns a single enrollment.
func (s *EnrollmentService) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
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
	return enrollments, pagination, nil
}

// Update merges the provided fields into an existing enrollment.
func (s *EnrollmentService) Update(ctx context.Context, id string, req UpdateEnrollmentRequest) (*models.Enrollment, error) {
	enrollment, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ExpiresAt != nil {
		if err := s.repo.SetExpiry(ctx, id, req.ExpiresAt); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
		}
		enrollment.ExpiresAt = req.ExpiresAt
	}
	return enrollment, nil
}

// Cancel marks an enrollment cancelled. Cancelling an already-cancelled
// enrollment is permitted and re-stamps cancelled_at.
func (s *EnrollmentService) Cancel(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cancelledAt := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, models.EnrollmentStatusCancelled, &cancelledAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel enrollment")
	}
	enrollment.Status = models.EnrollmentStatusCancelled
	enrollment.CancelledAt = &cancelledAt
	return enrollment, nil
}

// Delete hard-deletes an enrollment and, by cascade, its payment.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	s.logger.Info("enrollment deleted", zap.String("enrollment_id", id))
	return nil
}
