package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusphere/core-api/internal/models"
)

// GradeRepository handles persistence of grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `id, submission_id, total_score, max_score, percentage, feedback, created_at`

// Create persists a grade. The submission_id column carries a unique
// constraint so a second grading pass for the same submission fails.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grades (id, submission_id, total_score, max_score, percentage, feedback, created_at)
        VALUES (:id, :submission_id, :total_score, :max_score, :percentage, :feedback, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// FindBySubmissionID returns the grade for a submission.
func (r *GradeRepository) FindBySubmissionID(ctx context.Context, submissionID string) (*models.Grade, error) {
	query := fmt.Sprintf("SELECT %s FROM grades WHERE submission_id = $1", gradeColumns)
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, submissionID); err != nil {
		return nil, err
	}
	return &grade, nil
}

// MapBySubmissionIDs returns grades keyed by submission id.
func (r *GradeRepository) MapBySubmissionIDs(ctx context.Context, submissionIDs []string) (map[string]models.Grade, error) {
	if len(submissionIDs) == 0 {
		return map[string]models.Grade{}, nil
	}
	placeholders := make([]string, len(submissionIDs))
	args := make([]interface{}, len(submissionIDs))
	for i, id := range submissionIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("SELECT %s FROM grades WHERE submission_id IN (%s)", gradeColumns, strings.Join(placeholders, ","))

	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("map grades: %w", err)
	}
	result := make(map[string]models.Grade, len(grades))
	for _, grade := range grades {
		result[grade.SubmissionID] = grade
	}
	return result, nil
}

// ReportByAssessment returns graded submission rows for report export,
// newest submission first.
func (r *GradeRepository) ReportByAssessment(ctx context.Context, assessmentID string) ([]models.GradeReportRow, error) {
	const query = `SELECT s.id AS submission_id, s.user_id, s.submitted_at, g.total_score, g.max_score, g.percentage
        FROM grades g
        JOIN submissions s ON s.id = g.submission_id
        WHERE s.assessment_id = $1
        ORDER BY s.created_at DESC`
	var rows []models.GradeReportRow
	if err := r.db.SelectContext(ctx, &rows, query, assessmentID); err != nil {
		return nil, fmt.Errorf("assessment grade report: %w", err)
	}
	return rows, nil
}
