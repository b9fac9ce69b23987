package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusphere/core-api/internal/models"
)

// SubmissionRepository handles persistence of submissions and their answers.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, assessment_id, user_id, status, submitted_at, created_at`

// Create persists a submission together with its answers.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = time.Now().UTC()
	}
	if submission.Status == "" {
		submission.Status = models.SubmissionStatusPending
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submission tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertSubmission = `INSERT INTO submissions (id, assessment_id, user_id, status, submitted_at, created_at)
        VALUES (:id, :assessment_id, :user_id, :status, :submitted_at, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertSubmission, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}

	const insertAnswer = `INSERT INTO answers (id, submission_id, question_id, answer)
        VALUES (:id, :submission_id, :question_id, :answer)`
	for i := range submission.Answers {
		answer := &submission.Answers[i]
		if answer.ID == "" {
			answer.ID = uuid.NewString()
		}
		answer.SubmissionID = submission.ID
		if _, err := tx.NamedExecContext(ctx, insertAnswer, answer); err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submission tx: %w", err)
	}
	return nil
}

// FindByID returns a submission with its answers loaded.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE id = $1", submissionColumns)
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}

	const answersQuery = `SELECT id, submission_id, question_id, answer FROM answers WHERE submission_id = $1`
	if err := r.db.SelectContext(ctx, &submission.Answers, answersQuery, id); err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	return &submission, nil
}

// ListByAssessment returns submissions for an assessment, newest first.
func (r *SubmissionRepository) ListByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error) {
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE assessment_id = $1 ORDER BY created_at DESC", submissionColumns)
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, assessmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// ListByUser returns a user's submissions across assessments, newest first.
func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string) ([]models.Submission, error) {
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE user_id = $1 ORDER BY created_at DESC", submissionColumns)
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, userID); err != nil {
		return nil, fmt.Errorf("list user submissions: %w", err)
	}
	return submissions, nil
}

// UpdateStatus moves a submission through its grading lifecycle. The
// submitted_at timestamp is set when leaving PENDING and cleared when
// a submission is re-marked PENDING.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus, submittedAt *time.Time) error {
	const query = `UPDATE submissions SET status = $2, submitted_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, submittedAt); err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	return nil
}
