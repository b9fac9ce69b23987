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

func gradeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "submission_id", "total_score", "max_score", "percentage", "feedback", "created_at"})
}

func TestGradeRepositoryCreateAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grades")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	grade := &models.Grade{SubmissionID: "sub-1", TotalScore: 8, MaxScore: 10, Percentage: 80}
	require.NoError(t, repo.Create(context.Background(), grade))
	require.NotEmpty(t, grade.ID)
	require.False(t, grade.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryFindBySubmissionID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, submission_id, total_score, max_score, percentage, feedback, created_at FROM grades WHERE submission_id = $1")).
		WithArgs("sub-1").
		WillReturnRows(gradeRows().AddRow("g-1", "sub-1", 8.0, 10.0, 80.0, nil, time.Now()))

	grade, err := repo.FindBySubmissionID(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, 80.0, grade.Percentage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryMapBySubmissionIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, submission_id, total_score, max_score, percentage, feedback, created_at FROM grades WHERE submission_id IN ($1,$2)")).
		WithArgs("sub-1", "sub-2").
		WillReturnRows(gradeRows().
			AddRow("g-1", "sub-1", 8.0, 10.0, 80.0, nil, time.Now()).
			AddRow("g-2", "sub-2", 5.0, 10.0, 50.0, nil, time.Now()))

	grades, err := repo.MapBySubmissionIDs(context.Background(), []string{"sub-1", "sub-2"})
	require.NoError(t, err)
	require.Len(t, grades, 2)
	require.Equal(t, 50.0, grades["sub-2"].Percentage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryMapBySubmissionIDsEmptyInput(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	grades, err := repo.MapBySubmissionIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, grades)
}

func TestGradeRepositoryReportByAssessment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	submittedAt := time.Now().UTC()
	mock.ExpectQuery("SELECT s.id AS submission_id, s.user_id, s.submitted_at, g.total_score, g.max_score, g.percentage").
		WithArgs("asm-1").
		WillReturnRows(sqlmock.NewRows([]string{"submission_id", "user_id", "submitted_at", "total_score", "max_score", "percentage"}).
			AddRow("sub-1", "user-1", submittedAt, 8.0, 10.0, 80.0))

	rows, err := repo.ReportByAssessment(context.Background(), "asm-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "user-1", rows[0].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}
