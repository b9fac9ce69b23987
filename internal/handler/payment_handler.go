package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusphere/core-api/internal/service"
	"github.com/edusphere/core-api/pkg/response"
)

// PaymentHandler exposes payment endpoints scoped to an enrollment.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Process godoc
// @Summary Process the payment for an enrollment
// @Tags Payments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/payment/process [post]
func (h *PaymentHandler) Process(c *gin.Context) {
	payment, err := h.payments.Process(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// GetByEnrollment godoc
// @Summary Get the payment tied to an enrollment
// @Tags Payments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/payment [get]
func (h *PaymentHandler) GetByEnrollment(c *gin.Context) {
	payment, err := h.payments.FindByEnrollmentID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}
