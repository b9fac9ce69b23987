package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusphere/core-api/internal/models"
)

// QuestionRepository handles persistence of assessment questions.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository constructs the repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, assessment_id, type, text, options, correct_answer, points, position`

// Create persists a new question.
func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	const query = `INSERT INTO questions (id, assessment_id, type, text, options, correct_answer, points, position)
        VALUES (:id, :assessment_id, :type, :text, :options, :correct_answer, :points, :position)`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// ListByAssessment returns questions ordered by position ascending. Ties
// keep insertion order via the serial sequence column.
func (r *QuestionRepository) ListByAssessment(ctx context.Context, assessmentID string) ([]models.Question, error) {
	query := fmt.Sprintf("SELECT %s FROM questions WHERE assessment_id = $1 ORDER BY position ASC, seq ASC", questionColumns)
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, query, assessmentID); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// ExistingIDs returns which of the given question IDs belong to the
// assessment. Used to validate answer bindings before persisting a
// submission.
func (r *QuestionRepository) ExistingIDs(ctx context.Context, assessmentID string, questionIDs []string) (map[string]bool, error) {
	if len(questionIDs) == 0 {
		return map[string]bool{}, nil
	}
	placeholders := make([]string, len(questionIDs))
	args := make([]interface{}, 0, len(questionIDs)+1)
	args = append(args, assessmentID)
	for i, id := range questionIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	query := fmt.Sprintf("SELECT id FROM questions WHERE assessment_id = $1 AND id IN (%s)", strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("validate questions: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool, len(questionIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		existing[id] = true
	}
	return existing, rows.Err()
}
