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

// AssessmentRepository handles persistence of assessments.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

const assessmentColumns = `id, course_id, title, description, start_date, end_date, created_at`

// Create persists a new assessment.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assessments (id, course_id, title, description, start_date, end_date, created_at)
        VALUES (:id, :course_id, :title, :description, :start_date, :end_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// FindByID returns an assessment by its ID.
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	query := fmt.Sprintf("SELECT %s FROM assessments WHERE id = $1", assessmentColumns)
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// FindByIDs returns assessments keyed by id.
func (r *AssessmentRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Assessment, error) {
	if len(ids) == 0 {
		return map[string]models.Assessment{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("SELECT %s FROM assessments WHERE id IN (%s)", assessmentColumns, strings.Join(placeholders, ","))

	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, args...); err != nil {
		return nil, fmt.Errorf("map assessments: %w", err)
	}
	result := make(map[string]models.Assessment, len(assessments))
	for _, assessment := range assessments {
		result[assessment.ID] = assessment
	}
	return result, nil
}

// ListByCourse returns assessments for a course, newest first.
func (r *AssessmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Assessment, error) {
	query := fmt.Sprintf("SELECT %s FROM assessments WHERE course_id = $1 ORDER BY created_at DESC", assessmentColumns)
	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, courseID); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}
