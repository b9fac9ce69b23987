package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/core-api/internal/models"
	appErrors "github.com/edusphere/core-api/pkg/errors"
)

type mockSubmissionRepo struct {
	submissions map[string]models.Submission
	nextID      string
}

func (m *mockSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	if m.submissions == nil {
		m.submissions = make(map[string]models.Submission)
	}
	submission.ID = m.nextID
	if submission.ID == "" {
		submission.ID = "generated"
	}
	submission.CreatedAt = time.Now().UTC()
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *mockSubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	if s, ok := m.submissions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionRepo) ListByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error) {
	var out []models.Submission
	for _, s := range m.submissions {
		if s.AssessmentID == assessmentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSubmissionRepo) ListByUser(ctx context.Context, userID string) ([]models.Submission, error) {
	var out []models.Submission
	for _, s := range m.submissions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockAssessmentReader struct {
	assessments map[string]models.Assessment
}

func (m *mockAssessmentReader) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	if a, ok := m.assessments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssessmentReader) FindByIDs(ctx context.Context, ids []string) (map[string]models.Assessment, error) {
	out := make(map[string]models.Assessment)
	for _, id := range ids {
		if a, ok := m.assessments[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

type mockBindingValidator struct {
	err         error
	validatedID string
}

func (m *mockBindingValidator) ValidateAnswerBindings(ctx context.Context, assessmentID string, questionIDs []string) error {
	m.validatedID = assessmentID
	return m.err
}

type mockGradeReader struct {
	grades map[string]models.Grade
}

func (m *mockGradeReader) FindBySubmissionID(ctx context.Context, submissionID string) (*models.Grade, error) {
	if g, ok := m.grades[submissionID]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeReader) MapBySubmissionIDs(ctx context.Context, submissionIDs []string) (map[string]models.Grade, error) {
	out := make(map[string]models.Grade)
	for _, id := range submissionIDs {
		if g, ok := m.grades[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

type mockGrader struct {
	repo   *mockSubmissionRepo
	grades *mockGradeReader
	graded []string
	err    error
}

func (m *mockGrader) Grade(ctx context.Context, submissionID string) (*models.Grade, error) {
	m.graded = append(m.graded, submissionID)
	if m.err != nil {
		return nil, m.err
	}
	grade := models.Grade{ID: "g-" + submissionID, SubmissionID: submissionID, TotalScore: 8, MaxScore: 10, Percentage: 80}
	if m.grades.grades == nil {
		m.grades.grades = make(map[string]models.Grade)
	}
	m.grades.grades[submissionID] = grade
	s := m.repo.submissions[submissionID]
	s.Status = models.SubmissionStatusGraded
	m.repo.submissions[submissionID] = s
	return &grade, nil
}

func openAssessment() *mockAssessmentReader {
	now := time.Now().UTC()
	return &mockAssessmentReader{assessments: map[string]models.Assessment{
		testAssessmentID: {
			ID:        testAssessmentID,
			CourseID:  testCourseID,
			Title:     "Midterm",
			StartDate: now.Add(-time.Hour),
			EndDate:   now.Add(time.Hour),
		},
	}}
}

func newSubmissionFixture(assessments *mockAssessmentReader) (*SubmissionService, *mockSubmissionRepo, *mockGradeReader, *mockGrader, *mockBindingValidator) {
	repo := &mockSubmissionRepo{nextID: testSubmissionID}
	grades := &mockGradeReader{}
	grader := &mockGrader{repo: repo, grades: grades}
	bindings := &mockBindingValidator{}
	svc := NewSubmissionService(repo, assessments, bindings, grades, grader, nil, nil)
	return svc, repo, grades, grader, bindings
}

func TestSubmissionServiceCreateGradesImmediately(t *testing.T) {
	svc, repo, _, grader, bindings := newSubmissionFixture(openAssessment())

	detail, err := svc.Create(context.Background(), CreateSubmissionRequest{
		AssessmentID: testAssessmentID,
		UserID:       testUserID,
		Answers:      []SubmissionAnswer{{QuestionID: testQuestion1ID, Answer: "paris"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusGraded, detail.Status)
	require.NotNil(t, detail.Grade)
	assert.Equal(t, 80.0, detail.Grade.Percentage)
	assert.Equal(t, []string{testSubmissionID}, grader.graded)
	assert.Equal(t, testAssessmentID, bindings.validatedID)
	assert.Equal(t, 1, len(repo.submissions))
}

func TestSubmissionServiceCreateBeforeWindow(t *testing.T) {
	now := time.Now().UTC()
	assessments := &mockAssessmentReader{assessments: map[string]models.Assessment{
		testAssessmentID: {ID: testAssessmentID, StartDate: now.Add(time.Hour), EndDate: now.Add(2 * time.Hour)},
	}}
	svc, repo, _, _, _ := newSubmissionFixture(assessments)

	_, err := svc.Create(context.Background(), CreateSubmissionRequest{
		AssessmentID: testAssessmentID,
		UserID:       testUserID,
		Answers:      []SubmissionAnswer{{QuestionID: testQuestion1ID, Answer: "x"}},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "assessment is not available at this time", appErr.Message)
	assert.Empty(t, repo.submissions)
}

func TestSubmissionServiceCreateAfterWindow(t *testing.T) {
	now := time.Now().UTC()
	assessments := &mockAssessmentReader{assessments: map[string]models.Assessment{
		testAssessmentID: {ID: testAssessmentID, StartDate: now.Add(-2 * time.Hour), EndDate: now.Add(-time.Hour)},
	}}
	svc, repo, _, _, _ := newSubmissionFixture(assessments)

	_, err := svc.Create(context.Background(), CreateSubmissionRequest{
		AssessmentID: testAssessmentID,
		UserID:       testUserID,
		Answers:      []SubmissionAnswer{{QuestionID: testQuestion1ID, Answer: "x"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.submissions)
}

func TestSubmissionServiceCreateAtWindowBoundaries(t *testing.T) {
	// The window is inclusive on both ends.
	start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 9, 17, 0, 0, 0, time.UTC)
	assessments := &mockAssessmentReader{assessments: map[string]models.Assessment{
		testAssessmentID: {ID: testAssessmentID, CourseID: testCourseID, StartDate: start, EndDate: end},
	}}

	cases := []struct {
		name string
		at   time.Time
	}{
		{name: "exactly at start", at: start},
		{name: "exactly at end", at: end},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _, _, _ := newSubmissionFixture(assessments)
			svc.now = func() time.Time { return tc.at }

			detail, err := svc.Create(context.Background(), CreateSubmissionRequest{
				AssessmentID: testAssessmentID,
				UserID:       testUserID,
				Answers:      []SubmissionAnswer{{QuestionID: testQuestion1ID, Answer: "x"}},
			})
			require.NoError(t, err)
			assert.Equal(t, models.SubmissionStatusGraded, detail.Status)
			assert.Equal(t, 1, len(repo.submissions))
		})
	}

	svc, repo, _, _, _ := newSubmissionFixture(assessments)
	svc.now = func() time.Time { return end.Add(time.Second) }
	_, err := svc.Create(context.Background(), CreateSubmissionRequest{
		AssessmentID: testAssessmentID,
		UserID:       testUserID,
		Answers:      []SubmissionAnswer{{QuestionID: testQuestion1ID, Answer: "x"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.submissions)
}

func TestSubmissionServiceCreateAssessmentNotFound(t *testing.T) {
	svc, _, _, _, _ := newSubmissionFixture(&mockAssessmentReader{})

	_, err := svc.Create(context.Background(), CreateSubmissionRequest{
		AssessmentID: testAssessmentID,
		UserID:       testUserID,
		Answers:      []SubmissionAnswer{{QuestionID: testQuestion1ID, Answer: "x"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubmissionServiceCreateRejectsForeignQuestion(t *testing.T) {
	svc, repo, _, _, bindings := newSubmissionFixture(openAssessment())
	bindings.err = appErrors.Clone(appErrors.ErrValidation, "question x does not belong to this assessment")

	_, err := svc.Create(context.Background(), CreateSubmissionRequest{
		AssessmentID: testAssessmentID,
		UserID:       testUserID,
		Answers:      []SubmissionAnswer{{QuestionID: testQuestion1ID, Answer: "x"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.submissions)
}

func TestSubmissionServiceCreateGradingFailureSurfaces(t *testing.T) {
	svc, repo, _, grader, _ := newSubmissionFixture(openAssessment())
	grader.err = appErrors.ErrInternal

	_, err := svc.Create(context.Background(), CreateSubmissionRequest{
		AssessmentID: testAssessmentID,
		UserID:       testUserID,
		Answers:      []SubmissionAnswer{{QuestionID: testQuestion1ID, Answer: "x"}},
	})
	require.Error(t, err)
	// The submission stays persisted for a grading retry.
	assert.Equal(t, 1, len(repo.submissions))
}

func TestSubmissionServiceCreateAllowsRepeatSubmissions(t *testing.T) {
	svc, repo, _, _, _ := newSubmissionFixture(openAssessment())

	_, err := svc.Create(context.Background(), CreateSubmissionRequest{
		AssessmentID: testAssessmentID,
		UserID:       testUserID,
		Answers:      []SubmissionAnswer{{QuestionID: testQuestion1ID, Answer: "first"}},
	})
	require.NoError(t, err)

	repo.nextID = "second-submission"
	_, err = svc.Create(context.Background(), CreateSubmissionRequest{
		AssessmentID: testAssessmentID,
		UserID:       testUserID,
		Answers:      []SubmissionAnswer{{QuestionID: testQuestion1ID, Answer: "second"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, len(repo.submissions))
}

func TestSubmissionServiceFindByIDWithoutGrade(t *testing.T) {
	svc, repo, _, _, _ := newSubmissionFixture(openAssessment())
	repo.submissions = map[string]models.Submission{
		testSubmissionID: {ID: testSubmissionID, AssessmentID: testAssessmentID, UserID: testUserID, Status: models.SubmissionStatusPending},
	}

	detail, err := svc.FindByID(context.Background(), testSubmissionID)
	require.NoError(t, err)
	assert.Nil(t, detail.Grade)
	assert.Equal(t, models.SubmissionStatusPending, detail.Status)
}

func TestSubmissionServiceListByUserIncludesAssessments(t *testing.T) {
	svc, repo, grades, _, _ := newSubmissionFixture(openAssessment())
	repo.submissions = map[string]models.Submission{
		testSubmissionID: {ID: testSubmissionID, AssessmentID: testAssessmentID, UserID: testUserID, Status: models.SubmissionStatusGraded},
	}
	grades.grades = map[string]models.Grade{
		testSubmissionID: {ID: "g1", SubmissionID: testSubmissionID, Percentage: 50},
	}

	details, err := svc.ListByUser(context.Background(), testUserID)
	require.NoError(t, err)
	require.Equal(t, 1, len(details))
	require.NotNil(t, details[0].Grade)
	assert.Equal(t, 50.0, details[0].Grade.Percentage)
	require.NotNil(t, details[0].Assessment)
	assert.Equal(t, "Midterm", details[0].Assessment.Title)
}

func TestSubmissionServiceListByAssessmentOmitsAssessmentBody(t *testing.T) {
	svc, repo, _, _, _ := newSubmissionFixture(openAssessment())
	repo.submissions = map[string]models.Submission{
		testSubmissionID: {ID: testSubmissionID, AssessmentID: testAssessmentID, UserID: testUserID},
	}

	details, err := svc.ListByAssessment(context.Background(), testAssessmentID)
	require.NoError(t, err)
	require.Equal(t, 1, len(details))
	assert.Nil(t, details[0].Assessment)
	assert.Nil(t, details[0].Grade)
}
