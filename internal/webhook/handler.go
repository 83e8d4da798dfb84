package webhook

import (
	"errors"
	"io"
	"net/http"

	"eventsite_backend/platform/httpkit"
	"eventsite_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// maxPayloadBytes matches the limit Stripe documents for event bodies.
const maxPayloadBytes = int64(65536)

// Handler handles webhook HTTP requests.
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// HandleStripe processes a Stripe event.
// POST /api/v1/webhooks/stripe
//
// Events that can never apply (unknown quote, wrong status) are acknowledged
// so Stripe stops redelivering them; transient failures answer 5xx.
func (h *Handler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes+1))
	if err != nil || int64(len(payload)) > maxPayloadBytes {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, "payload too large", nil)
		return
	}

	outcome, err := h.service.HandleStripeEvent(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidSignature):
		httpkit.HandleError(c, err)
		return
	case isPermanent(err):
		h.log.WithContext(c.Request.Context()).Warn("stripe event rejected", "error", err)
		httpkit.OK(c, gin.H{"received": true, "outcome": "rejected"})
		return
	default:
		h.log.WithContext(c.Request.Context()).Error("stripe event failed, provider will retry", "error", err)
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"received": true, "outcome": outcome})
}
