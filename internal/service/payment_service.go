package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edusphere/core-api/internal/models"
	appErrors "github.com/edusphere/core-api/pkg/errors"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Payment, error)
	UpdateStatusByEnrollment(ctx context.Context, enrollmentID string, status models.PaymentStatus, paidAt *time.Time) error
}

type enrollmentStatusWriter interface {
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, cancelledAt *time.Time) error
}

// PaymentService tracks the single payment bound to each enrollment and
// drives enrollment activation when a payment completes. Actual gateway
// processing is stubbed: every payment succeeds.
type PaymentService struct {
	repo        paymentRepository
	enrollments enrollmentStatusWriter
	logger      *zap.Logger
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(repo paymentRepository, enrollments enrollmentStatusWriter, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, enrollments: enrollments, logger: logger}
}

// CreateForEnrollment opens a PENDING payment with a generated transaction
// id. The id is unique enough for reconciliation, not a security token.
func (s *PaymentService) CreateForEnrollment(ctx context.Context, enrollmentID string, amount float64, paymentMethod *string) (*models.Payment, error) {
	payment := &models.Payment{
		EnrollmentID:  enrollmentID,
		Amount:        amount,
		PaymentMethod: paymentMethod,
		Status:        models.PaymentStatusPending,
		TransactionID: newTransactionID(),
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}
	return payment, nil
}

// Process completes the payment for an enrollment and activates the
// enrollment, whatever its prior status. Processing twice is harmless; the
// end state stays COMPLETED/ACTIVE.
func (s *PaymentService) Process(ctx context.Context, enrollmentID string) (*models.Payment, error) {
	if _, err := s.repo.FindByEnrollmentID(ctx, enrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	paidAt := time.Now().UTC()
	if err := s.repo.UpdateStatusByEnrollment(ctx, enrollmentID, models.PaymentStatusCompleted, &paidAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete payment")
	}
	if err := s.enrollments.UpdateStatus(ctx, enrollmentID, models.EnrollmentStatusActive, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate enrollment")
	}

	payment, err := s.repo.FindByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload payment")
	}

	s.logger.Info("payment completed",
		zap.String("enrollment_id", enrollmentID),
		zap.String("transaction_id", payment.TransactionID))
	return payment, nil
}

// FindByID returns a payment by its ID.
func (s *PaymentService) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// FindByEnrollmentID returns the payment tied to an enrollment.
func (s *PaymentService) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Payment, error) {
	payment, err := s.repo.FindByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// newTransactionID builds a TXN-<millis>-<suffix> identifier. Collisions are
// negligible but not impossible.
func newTransactionID() string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("TXN-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("TXN-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
