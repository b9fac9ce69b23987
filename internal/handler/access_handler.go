package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edusphere/core-api/internal/models"
	"github.com/edusphere/core-api/internal/service"
	appErrors "github.com/edusphere/core-api/pkg/errors"
	"github.com/edusphere/core-api/pkg/response"
)

// AccessHandler exposes the content-access log endpoints.
type AccessHandler struct {
	access *service.AccessService
}

// NewAccessHandler constructs AccessHandler.
func NewAccessHandler(access *service.AccessService) *AccessHandler {
	return &AccessHandler{access: access}
}

// Record godoc
// @Summary Record a content access against an enrollment
// @Tags Access History
// @Accept json
// @Produce json
// @Param payload body service.RecordAccessRequest true "Access payload"
// @Success 201 {object} response.Envelope
// @Router /access-history [post]
func (h *AccessHandler) Record(c *gin.Context) {
	var req service.RecordAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	access, err := h.access.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, access)
}

// List godoc
// @Summary List access events
// @Tags Access History
// @Produce json
// @Param userId query string false "Filter by user"
// @Param enrollmentId query string false "Filter by enrollment"
// @Param lessonId query string false "Filter by lesson"
// @Param liveSessionId query string false "Filter by live session"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /access-history [get]
func (h *AccessHandler) List(c *gin.Context) {
	var filter models.AccessHistoryFilter
	filter.UserID = c.Query("userId")
	filter.EnrollmentID = c.Query("enrollmentId")
	filter.LessonID = c.Query("lessonId")
	filter.LiveSessionID = c.Query("liveSessionId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	accesses, pagination, err := h.access.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, accesses, pagination)
}
