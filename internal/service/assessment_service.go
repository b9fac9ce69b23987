package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/edusphere/core-api/internal/models"
	appErrors "github.com/edusphere/core-api/pkg/errors"
)

type assessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	FindByID(ctx context.Context, id string) (*models.Assessment, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Assessment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Assessment, error)
}

type questionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	ListByAssessment(ctx context.Context, assessmentID string) ([]models.Question, error)
	ExistingIDs(ctx context.Context, assessmentID string, questionIDs []string) (map[string]bool, error)
}

// CreateAssessmentRequest describes a new time-boxed test.
type CreateAssessmentRequest struct {
	CourseID    string    `json:"courseId" validate:"required,uuid4"`
	Title       string    `json:"title" validate:"required"`
	Description *string   `json:"description,omitempty"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
}

// CreateQuestionRequest describes a question added to an assessment.
type CreateQuestionRequest struct {
	AssessmentID  string   `json:"assessmentId" validate:"required,uuid4"`
	Type          string   `json:"type" validate:"required,oneof=OBJECTIVE ESSAY"`
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer *string  `json:"correctAnswer,omitempty"`
	Points        float64  `json:"points" validate:"required,gt=0"`
	Order         int      `json:"order" validate:"min=0"`
}

// AssessmentService manages test definitions and their scored questions.
// Question sets feed the grading engine; reads go through the cache when
// enabled, invalidated on question writes.
type AssessmentService struct {
	repo      assessmentRepository
	questions questionRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssessmentService constructs AssessmentService.
func NewAssessmentService(repo assessmentRepository, questions questionRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{repo: repo, questions: questions, cache: cache, validator: validate, logger: logger}
}

// Create persists a new assessment.
func (s *AssessmentService) Create(ctx context.Context, req CreateAssessmentRequest) (*models.Assessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	assessment := &models.Assessment{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.repo.Create(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}
	return assessment, nil
}

// FindByID returns an assessment with its questions loaded.
func (s *AssessmentService) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	assessment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	questions, err := s.QuestionsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	assessment.Questions = questions
	return assessment, nil
}

// ListByCourse returns a course's assessments without question bodies.
func (s *AssessmentService) ListByCourse(ctx context.Context, courseID string) ([]models.Assessment, error) {
	assessments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}
	return assessments, nil
}

// AddQuestion appends a question to an existing assessment.
func (s *AssessmentService) AddQuestion(ctx context.Context, req CreateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	if _, err := s.repo.FindByID(ctx, req.AssessmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	question := &models.Question{
		AssessmentID:  req.AssessmentID,
		Type:          models.QuestionType(req.Type),
		Text:          req.Text,
		Options:       pq.StringArray(req.Options),
		CorrectAnswer: req.CorrectAnswer,
		Points:        req.Points,
		Order:         req.Order,
	}
	if err := s.questions.Create(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create question")
	}
	s.cache.Invalidate(ctx, questionCacheKey(req.AssessmentID))
	return question, nil
}

// QuestionsFor returns the ordered question set for an assessment,
// consulting the cache first.
func (s *AssessmentService) QuestionsFor(ctx context.Context, assessmentID string) ([]models.Question, error) {
	key := questionCacheKey(assessmentID)
	var questions []models.Question
	if s.cache.Get(ctx, key, &questions) {
		return questions, nil
	}
	questions, err := s.questions.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	s.cache.Set(ctx, key, questions)
	return questions, nil
}

// ValidateAnswerBindings ensures every answered question belongs to the
// assessment, preventing mismatched answers from silently scoring zero.
func (s *AssessmentService) ValidateAnswerBindings(ctx context.Context, assessmentID string, questionIDs []string) error {
	existing, err := s.questions.ExistingIDs(ctx, assessmentID, questionIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate answers")
	}
	for _, id := range questionIDs {
		if !existing[id] {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %s does not belong to this assessment", id))
		}
	}
	return nil
}

func questionCacheKey(assessmentID string) string {
	return "assessment:questions:" + assessmentID
}
