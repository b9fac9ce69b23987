package models

import "time"

// Grade is the immutable result of one grading pass over a submission.
// At most one grade exists per submission; totalScore never exceeds
// maxScore and percentage is 100*totalScore/maxScore (0 when maxScore is 0).
type Grade struct {
	ID           string    `db:"id" json:"id"`
	SubmissionID string    `db:"submission_id" json:"submissionId"`
	TotalScore   float64   `db:"total_score" json:"totalScore"`
	MaxScore     float64   `db:"max_score" json:"maxScore"`
	Percentage   float64   `db:"percentage" json:"percentage"`
	Feedback     *string   `db:"feedback" json:"feedback,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// GradeReportRow is a flattened graded-submission row used by report export.
type GradeReportRow struct {
	SubmissionID string     `db:"submission_id" json:"submissionId"`
	UserID       string     `db:"user_id" json:"userId"`
	SubmittedAt  *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`
	TotalScore   float64    `db:"total_score" json:"totalScore"`
	MaxScore     float64    `db:"max_score" json:"maxScore"`
	Percentage   float64    `db:"percentage" json:"percentage"`
}
