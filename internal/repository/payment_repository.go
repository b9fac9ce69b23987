package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusphere/core-api/internal/models"
)

// PaymentRepository handles persistence of enrollment payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, enrollment_id, amount, payment_method, status, transaction_id, paid_at, created_at`

// Create persists a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	const query = `INSERT INTO payments (id, enrollment_id, amount, payment_method, status, transaction_id, paid_at, created_at)
        VALUES (:id, :enrollment_id, :amount, :payment_method, :status, :transaction_id, :paid_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindByID returns a payment by its ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	query := fmt.Sprintf("SELECT %s FROM payments WHERE id = $1", paymentColumns)
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByEnrollmentID returns the payment tied to an enrollment.
func (r *PaymentRepository) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Payment, error) {
	query := fmt.Sprintf("SELECT %s FROM payments WHERE enrollment_id = $1", paymentColumns)
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, enrollmentID); err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateStatusByEnrollment updates the payment status and paid_at for an enrollment.
func (r *PaymentRepository) UpdateStatusByEnrollment(ctx context.Context, enrollmentID string, status models.PaymentStatus, paidAt *time.Time) error {
	const query = `UPDATE payments SET status = $2, paid_at = $3 WHERE enrollment_id = $1`
	if _, err := r.db.ExecContext(ctx, query, enrollmentID, status, paidAt); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}
