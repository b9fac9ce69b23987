package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edusphere/core-api/internal/models"
	appErrors "github.com/edusphere/core-api/pkg/errors"
)

type submissionGradingStore interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus, submittedAt *time.Time) error
}

type gradeStore interface {
	Create(ctx context.Context, grade *models.Grade) error
	FindBySubmissionID(ctx context.Context, submissionID string) (*models.Grade, error)
}

type questionSetReader interface {
	QuestionsFor(ctx context.Context, assessmentID string) ([]models.Question, error)
}

// GradingService scores a submission's answers against its assessment's
// question keys. Only OBJECTIVE questions with a configured correct answer
// contribute to the total; ESSAY questions count toward the maximum only.
type GradingService struct {
	submissions submissionGradingStore
	grades      gradeStore
	questions   questionSetReader
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewGradingService constructs GradingService.
func NewGradingService(submissions submissionGradingStore, grades gradeStore, questions questionSetReader, metrics *MetricsService, logger *zap.Logger) *GradingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{submissions: submissions, grades: grades, questions: questions, metrics: metrics, logger: logger}
}

// Grade runs one grading pass over a submission and persists the result.
// If a previous pass already wrote the grade but failed before flipping the
// submission to GRADED, the existing grade is reused so retries converge.
func (s *GradingService) Grade(ctx context.Context, submissionID string) (*models.Grade, error) {
	start := time.Now()

	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	if existing, err := s.grades.FindBySubmissionID(ctx, submissionID); err == nil {
		gradedAt := time.Now().UTC()
		if err := s.submissions.UpdateStatus(ctx, submissionID, models.SubmissionStatusGraded, &gradedAt); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize submission")
		}
		return existing, nil
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing grade")
	}

	if err := s.submissions.UpdateStatus(ctx, submissionID, models.SubmissionStatusPending, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark submission pending")
	}

	questions, err := s.questions.QuestionsFor(ctx, submission.AssessmentID)
	if err != nil {
		return nil, err
	}

	answers := make(map[string]string, len(submission.Answers))
	for _, answer := range submission.Answers {
		answers[answer.QuestionID] = answer.Answer
	}

	var totalScore, maxScore float64
	for _, question := range questions {
		maxScore += question.Points
		answer, ok := answers[question.ID]
		if !ok {
			continue
		}
		if question.Type != models.QuestionTypeObjective || question.CorrectAnswer == nil {
			continue
		}
		if answersMatch(answer, *question.CorrectAnswer) {
			totalScore += question.Points
		}
	}

	percentage := 0.0
	if maxScore > 0 {
		percentage = totalScore / maxScore * 100
	}

	grade := &models.Grade{
		SubmissionID: submissionID,
		TotalScore:   totalScore,
		MaxScore:     maxScore,
		Percentage:   percentage,
	}
	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}

	gradedAt := time.Now().UTC()
	if err := s.submissions.UpdateStatus(ctx, submissionID, models.SubmissionStatusGraded, &gradedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize submission")
	}

	s.metrics.ObserveGrading(time.Since(start))
	s.logger.Info("submission graded",
		zap.String("submission_id", submissionID),
		zap.Float64("total_score", totalScore),
		zap.Float64("max_score", maxScore))
	return grade, nil
}

// answersMatch compares a learner's answer to the key, ignoring case and
// surrounding whitespace. Answers are compared as strings only.
func answersMatch(given, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(correct))
}
