package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusphere/core-api/internal/service"
	appErrors "github.com/edusphere/core-api/pkg/errors"
	"github.com/edusphere/core-api/pkg/response"
)

// AssessmentHandler exposes assessment and question endpoints.
type AssessmentHandler struct {
	assessments *service.AssessmentService
	reports     *service.ReportService
}

// NewAssessmentHandler constructs AssessmentHandler.
func NewAssessmentHandler(assessments *service.AssessmentService, reports *service.ReportService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments, reports: reports}
}

// Create godoc
// @Summary Create an assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body service.CreateAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Router /assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req service.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assessment, err := h.assessments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assessment)
}

// Get godoc
// @Summary Get an assessment with its questions
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) Get(c *gin.Context) {
	assessment, err := h.assessments.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// ListByCourse godoc
// @Summary List a course's assessments
// @Tags Assessments
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/assessments [get]
func (h *AssessmentHandler) ListByCourse(c *gin.Context) {
	assessments, err := h.assessments.ListByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessments, nil)
}

// CreateQuestion godoc
// @Summary Add a question to an assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body service.CreateQuestionRequest true "Question payload"
// @Success 201 {object} response.Envelope
// @Router /questions [post]
func (h *AssessmentHandler) CreateQuestion(c *gin.Context) {
	var req service.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	question, err := h.assessments.AddQuestion(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, question)
}

// ListQuestions godoc
// @Summary List an assessment's questions in order
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id}/questions [get]
func (h *AssessmentHandler) ListQuestions(c *gin.Context) {
	questions, err := h.assessments.QuestionsFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, questions, nil)
}

// Report godoc
// @Summary Export an assessment's grades as CSV or PDF
// @Tags Assessments
// @Produce octet-stream
// @Param id path string true "Assessment ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Router /assessments/{id}/report [get]
func (h *AssessmentHandler) Report(c *gin.Context) {
	format := service.ReportFormat(c.DefaultQuery("format", "csv"))
	report, err := h.reports.AssessmentReport(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	c.Data(http.StatusOK, report.ContentType, report.Content)
}
