package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusphere/core-api/internal/models"
	appErrors "github.com/edusphere/core-api/pkg/errors"
)

type submissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	ListByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error)
	ListByUser(ctx context.Context, userID string) ([]models.Submission, error)
}

type assessmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Assessment, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Assessment, error)
}

type answerBindingValidator interface {
	ValidateAnswerBindings(ctx context.Context, assessmentID string, questionIDs []string) error
}

type gradeReader interface {
	FindBySubmissionID(ctx context.Context, submissionID string) (*models.Grade, error)
	MapBySubmissionIDs(ctx context.Context, submissionIDs []string) (map[string]models.Grade, error)
}

type grader interface {
	Grade(ctx context.Context, submissionID string) (*models.Grade, error)
}

// SubmissionAnswer is one answer within a submission payload.
type SubmissionAnswer struct {
	QuestionID string `json:"questionId" validate:"required,uuid4"`
	Answer     string `json:"answer" validate:"required"`
}

// CreateSubmissionRequest describes a submission payload.
type CreateSubmissionRequest struct {
	AssessmentID string             `json:"assessmentId" validate:"required,uuid4"`
	UserID       string             `json:"userId" validate:"required,uuid4"`
	Answers      []SubmissionAnswer `json:"answers" validate:"required,dive"`
}

// SubmissionService enforces the submission window and orchestrates
// grading. Creation and grading are one logical operation from the
// caller's perspective; a submission left PENDING means the grading step
// failed and should be retried, not the whole submission.
type SubmissionService struct {
	repo        submissionRepository
	assessments assessmentReader
	bindings    answerBindingValidator
	grades      gradeReader
	grader      grader
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewSubmissionService constructs SubmissionService.
func NewSubmissionService(repo submissionRepository, assessments assessmentReader, bindings answerBindingValidator, grades gradeReader, grader grader, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{repo: repo, assessments: assessments, bindings: bindings, grades: grades, grader: grader, validator: validate, logger: logger, now: time.Now}
}

// Create records a submission inside its assessment window and immediately
// grades it. The window is inclusive on both ends; the check is evaluated
// fresh on every call. Repeat submissions by the same user are allowed.
func (s *SubmissionService) Create(ctx context.Context, req CreateSubmissionRequest) (*models.SubmissionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	assessment, err := s.assessments.FindByID(ctx, req.AssessmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}

	now := s.now().UTC()
	if now.Before(assessment.StartDate) || now.After(assessment.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "assessment is not available at this time")
	}

	questionIDs := make([]string, len(req.Answers))
	for i, answer := range req.Answers {
		questionIDs[i] = answer.QuestionID
	}
	if err := s.bindings.ValidateAnswerBindings(ctx, req.AssessmentID, questionIDs); err != nil {
		return nil, err
	}

	submission := &models.Submission{
		AssessmentID: req.AssessmentID,
		UserID:       req.UserID,
		Status:       models.SubmissionStatusPending,
		Answers:      make([]models.Answer, len(req.Answers)),
	}
	for i, answer := range req.Answers {
		submission.Answers[i] = models.Answer{QuestionID: answer.QuestionID, Answer: answer.Answer}
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}

	if _, err := s.grader.Grade(ctx, submission.ID); err != nil {
		// The submission is persisted; only the grading step failed.
		s.logger.Error("grading failed after submission persisted",
			zap.String("submission_id", submission.ID), zap.Error(err))
		return nil, err
	}

	return s.FindByID(ctx, submission.ID)
}

// FindByID returns a submission with its answers and grade.
func (s *SubmissionService) FindByID(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	detail := &models.SubmissionDetail{Submission: *submission}
	grade, err := s.grades.FindBySubmissionID(ctx, id)
	if err == nil {
		detail.Grade = grade
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	return detail, nil
}

// ListByAssessment returns an assessment's submissions with grades.
func (s *SubmissionService) ListByAssessment(ctx context.Context, assessmentID string) ([]models.SubmissionDetail, error) {
	submissions, err := s.repo.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return s.withGrades(ctx, submissions, false)
}

// ListByUser returns a user's submissions with grades and their parent
// assessments.
func (s *SubmissionService) ListByUser(ctx context.Context, userID string) ([]models.SubmissionDetail, error) {
	submissions, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return s.withGrades(ctx, submissions, true)
}

func (s *SubmissionService) withGrades(ctx context.Context, submissions []models.Submission, includeAssessment bool) ([]models.SubmissionDetail, error) {
	ids := make([]string, len(submissions))
	assessmentIDs := make([]string, 0, len(submissions))
	seen := make(map[string]bool)
	for i, submission := range submissions {
		ids[i] = submission.ID
		if includeAssessment && !seen[submission.AssessmentID] {
			seen[submission.AssessmentID] = true
			assessmentIDs = append(assessmentIDs, submission.AssessmentID)
		}
	}

	grades, err := s.grades.MapBySubmissionIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	var assessments map[string]models.Assessment
	if includeAssessment {
		assessments, err = s.assessments.FindByIDs(ctx, assessmentIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessments")
		}
	}

	details := make([]models.SubmissionDetail, len(submissions))
	for i, submission := range submissions {
		detail := models.SubmissionDetail{Submission: submission}
		if grade, ok := grades[submission.ID]; ok {
			g := grade
			detail.Grade = &g
		}
		if includeAssessment {
			if assessment, ok := assessments[submission.AssessmentID]; ok {
				a := assessment
				detail.Assessment = &a
			}
		}
		details[i] = detail
	}
	return details, nil
}
