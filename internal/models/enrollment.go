package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusPending   EnrollmentStatus = "PENDING"
	EnrollmentStatusExpired   EnrollmentStatus = "EXPIRED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// Enrollment captures a learner's claim to access a course, gated by
// payment and expiry. Status and timestamps are mutated only through the
// enrollment service.
type Enrollment struct {
	ID          string           `db:"id" json:"id"`
	UserID      string           `db:"user_id" json:"userId"`
	CourseID    string           `db:"course_id" json:"courseId"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt  time.Time        `db:"enrolled_at" json:"enrolledAt"`
	ExpiresAt   *time.Time       `db:"expires_at" json:"expiresAt,omitempty"`
	CancelledAt *time.Time       `db:"cancelled_at" json:"cancelledAt,omitempty"`
}

// EnrollmentWithPayment is the composite returned on enrollment creation.
type EnrollmentWithPayment struct {
	Enrollment
	Payment *Payment `json:"payment,omitempty"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	UserID   string
	CourseID string
	Status   EnrollmentStatus
	Page     int
	PageSize int
}
