package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"eventsite_backend/internal/pdf"
	"eventsite_backend/internal/quotes/service"
	"eventsite_backend/internal/quotes/transport"
	"eventsite_backend/platform/httpkit"
	"eventsite_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest      = "invalid request"
	msgValidationFailed    = "validation failed"
	msgPDFGenerationFailed = "PDF generation failed"
)

// QuoteService is the part of the quotes service the handler drives.
type QuoteService interface {
	SendQuote(ctx context.Context, id uuid.UUID, mode transport.PaymentMode) (*transport.SendQuoteResponse, error)
	RenderQuoteDocument(ctx context.Context, id uuid.UUID) (*pdf.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to transport.QuoteStatus) (*transport.QuoteStatusResponse, error)
	ExpireOverdue(ctx context.Context, asOf time.Time) (transport.ExpireResult, error)
	NotificationHistory(ctx context.Context, id uuid.UUID) ([]transport.NotificationAttemptResponse, error)
}

// Handler handles HTTP requests for quotes
type Handler struct {
	svc QuoteService
	val *validator.Validator
}

// New creates a new quotes handler
func New(svc QuoteService, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the quote routes. sendLimit, when set, guards the
// send endpoint.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, sendLimit gin.HandlerFunc) {
	send := []gin.HandlerFunc{h.Send}
	if sendLimit != nil {
		send = append([]gin.HandlerFunc{sendLimit}, send...)
	}
	rg.POST("/:id/send", send...)
	rg.GET("/:id/pdf", h.DownloadPDF)
	rg.GET("/:id/attempts", h.ListAttempts)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.POST("/expire", h.ExpireOverdue)
}

// Send handles POST /api/v1/quotes/:id/send
//
// A delivered email answers 200 even when degraded. When no provider
// delivered it the body still carries the result, with status 503.
func (h *Handler) Send(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.SendQuoteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SendQuote(c.Request.Context(), id, req.PaymentMode)
	if errors.Is(err, service.ErrNotificationNotSent) && result != nil {
		httpkit.JSON(c, http.StatusServiceUnavailable, result)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// UpdateStatus handles PATCH /api/v1/quotes/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateQuoteStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// DownloadPDF handles GET /api/v1/quotes/:id/pdf
func (h *Handler) DownloadPDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	doc, err := h.svc.RenderQuoteDocument(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pdf.ErrRenderFailure) {
			httpkit.Error(c, http.StatusInternalServerError, msgPDFGenerationFailed, nil)
			return
		}
		httpkit.HandleError(c, err)
		return
	}

	servePDFBytes(c, doc)
}

// ListAttempts handles GET /api/v1/quotes/:id/attempts
func (h *Handler) ListAttempts(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.NotificationHistory(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// ExpireOverdue handles POST /api/v1/quotes/expire
func (h *Handler) ExpireOverdue(c *gin.Context) {
	asOf := time.Now().UTC()
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "asOf must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	result, err := h.svc.ExpireOverdue(c.Request.Context(), asOf)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
