package models

import "time"

// SubmissionStatus represents the grading state of a submission. PENDING
// covers both "recorded, grading in progress" and "grading incomplete";
// GRADED is terminal.
type SubmissionStatus string

const (
	SubmissionStatusPending SubmissionStatus = "PENDING"
	SubmissionStatusGraded  SubmissionStatus = "GRADED"
)

// Submission holds a learner's answers for an assessment. Repeat
// submissions by the same user are allowed.
type Submission struct {
	ID           string           `db:"id" json:"id"`
	AssessmentID string           `db:"assessment_id" json:"assessmentId"`
	UserID       string           `db:"user_id" json:"userId"`
	Status       SubmissionStatus `db:"status" json:"status"`
	SubmittedAt  *time.Time       `db:"submitted_at" json:"submittedAt,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
	Answers      []Answer         `db:"-" json:"answers,omitempty"`
}

// Answer binds a free-text response to a question within a submission.
type Answer struct {
	ID           string `db:"id" json:"id"`
	SubmissionID string `db:"submission_id" json:"submissionId"`
	QuestionID   string `db:"question_id" json:"questionId"`
	Answer       string `db:"answer" json:"answer"`
}

// SubmissionDetail enriches a submission with its parent assessment and grade.
type SubmissionDetail struct {
	Submission
	Assessment *Assessment `json:"assessment,omitempty"`
	Grade      *Grade      `json:"grade,omitempty"`
}
