package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/core-api/internal/models"
)

func TestSubmissionRepositoryCreateWithAnswers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO answers")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO answers")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	submission := &models.Submission{
		AssessmentID: "asm-1",
		UserID:       "user-1",
		Answers: []models.Answer{
			{QuestionID: "q-1", Answer: "paris"},
			{QuestionID: "q-2", Answer: "blue"},
		},
	}
	require.NoError(t, repo.Create(context.Background(), submission))
	require.NotEmpty(t, submission.ID)
	require.Equal(t, models.SubmissionStatusPending, submission.Status)
	for _, answer := range submission.Answers {
		require.NotEmpty(t, answer.ID)
		require.Equal(t, submission.ID, answer.SubmissionID)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCreateRollsBackOnAnswerFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO answers")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	submission := &models.Submission{
		AssessmentID: "asm-1",
		UserID:       "user-1",
		Answers:      []models.Answer{{QuestionID: "q-1", Answer: "x"}},
	}
	require.Error(t, repo.Create(context.Background(), submission))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryFindByIDLoadsAnswers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	submittedAt := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, assessment_id, user_id, status, submitted_at, created_at FROM submissions WHERE id = $1")).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "assessment_id", "user_id", "status", "submitted_at", "created_at"}).
			AddRow("sub-1", "asm-1", "user-1", models.SubmissionStatusGraded, submittedAt, submittedAt))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, submission_id, question_id, answer FROM answers WHERE submission_id = $1")).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "submission_id", "question_id", "answer"}).
			AddRow("ans-1", "sub-1", "q-1", "paris"))

	submission, err := repo.FindByID(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, submission.Status)
	require.Len(t, submission.Answers, 1)
	require.Equal(t, "paris", submission.Answers[0].Answer)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	gradedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions SET status = $2, submitted_at = $3 WHERE id = $1")).
		WithArgs("sub-1", models.SubmissionStatusGraded, gradedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "sub-1", models.SubmissionStatusGraded, &gradedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListByAssessment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, assessment_id, user_id, status, submitted_at, created_at FROM submissions WHERE assessment_id = $1 ORDER BY created_at DESC")).
		WithArgs("asm-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "assessment_id", "user_id", "status", "submitted_at", "created_at"}).
			AddRow("sub-1", "asm-1", "user-1", models.SubmissionStatusPending, nil, time.Now()).
			AddRow("sub-2", "asm-1", "user-2", models.SubmissionStatusGraded, time.Now(), time.Now()))

	submissions, err := repo.ListByAssessment(context.Background(), "asm-1")
	require.NoError(t, err)
	require.Len(t, submissions, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
