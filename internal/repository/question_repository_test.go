package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/core-api/internal/models"
)

func TestQuestionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO questions")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	answer := "Paris"
	question := &models.Question{
		AssessmentID:  "asm-1",
		Type:          models.QuestionTypeObjective,
		Text:          "Capital of France?",
		Options:       pq.StringArray{"Paris", "Lyon"},
		CorrectAnswer: &answer,
		Points:        5,
		Order:         1,
	}
	require.NoError(t, repo.Create(context.Background(), question))
	require.NotEmpty(t, question.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionRepositoryListByAssessmentOrdered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, assessment_id, type, text, options, correct_answer, points, position FROM questions WHERE assessment_id = $1 ORDER BY position ASC, seq ASC")).
		WithArgs("asm-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "assessment_id", "type", "text", "options", "correct_answer", "points", "position"}).
			AddRow("q-1", "asm-1", models.QuestionTypeObjective, "First?", nil, "yes", 2.0, 1).
			AddRow("q-2", "asm-1", models.QuestionTypeEssay, "Discuss.", nil, nil, 8.0, 2))

	questions, err := repo.ListByAssessment(context.Background(), "asm-1")
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Equal(t, "q-1", questions[0].ID)
	require.Equal(t, 2, questions[1].Order)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionRepositoryExistingIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM questions WHERE assessment_id = $1 AND id IN ($2,$3)")).
		WithArgs("asm-1", "q-1", "q-9").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("q-1"))

	existing, err := repo.ExistingIDs(context.Background(), "asm-1", []string{"q-1", "q-9"})
	require.NoError(t, err)
	require.True(t, existing["q-1"])
	require.False(t, existing["q-9"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionRepositoryExistingIDsEmptyInput(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	existing, err := repo.ExistingIDs(context.Background(), "asm-1", nil)
	require.NoError(t, err)
	require.Empty(t, existing)
}
