package models

import "time"

// PaymentStatus represents the lifecycle of a payment.
type PaymentStatus string

// Possible payment statuses.
const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment records the single payment tied to an enrollment. The transaction
// id is generated at creation and is not a security-sensitive identifier.
type Payment struct {
	ID            string        `db:"id" json:"id"`
	EnrollmentID  string        `db:"enrollment_id" json:"enrollmentId"`
	Amount        float64       `db:"amount" json:"amount"`
	PaymentMethod *string       `db:"payment_method" json:"paymentMethod,omitempty"`
	Status        PaymentStatus `db:"status" json:"status"`
	TransactionID string        `db:"transaction_id" json:"transactionId"`
	PaidAt        *time.Time    `db:"paid_at" json:"paidAt,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
}
