package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/infra/telemetry"
	"github.com/sepehr-mohseni/site-engagement/internal/transport/http/middleware"
	"github.com/sepehr-mohseni/site-engagement/internal/usecase"
)

// ContactHandler exposes the contact form endpoint.
type ContactHandler struct {
	contact *usecase.ContactService
	metrics *telemetry.Metrics
	logger  *zap.Logger
}

// NewContactHandler constructs a ContactHandler.
func NewContactHandler(contact *usecase.ContactService, metrics *telemetry.Metrics, logger *zap.Logger) *ContactHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactHandler{contact: contact, metrics: metrics, logger: logger}
}

type contactRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Message  string `json:"message"`
	Honeypot string `json:"honeypot"`
}

type contactResponse struct {
	OK     bool                `json:"ok"`
	Errors []domain.FieldError `json:"errors,omitempty"`
}

// Submit validates and stores the submission. Validation failures list every
// invalid field; spam only flags, it never rejects.
func (h *ContactHandler) Submit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid contact payload"})
		return
	}

	form := domain.ContactForm{
		Name:     req.Name,
		Email:    req.Email,
		Message:  req.Message,
		Honeypot: req.Honeypot,
	}

	result, err := h.contact.Submit(c.Request.Context(), form, middleware.ClientAddress(c), middleware.UserAgent(c))
	if err != nil {
		h.logger.Error("contact submission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, contactResponse{OK: false})
		return
	}

	if !result.Accepted {
		c.JSON(http.StatusBadRequest, contactResponse{OK: false, Errors: result.Errors})
		return
	}

	if h.metrics != nil {
		h.metrics.ContactSubmissions.WithLabelValues(strconv.FormatBool(result.Spam)).Inc()
	}

	c.JSON(http.StatusOK, contactResponse{OK: true})
}
