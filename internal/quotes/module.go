// Package quotes provides the quotes domain module: pricing, sending and the
// quote lifecycle.
package quotes

import (
	apphttp "eventsite_backend/internal/http"
	"eventsite_backend/internal/quotes/handler"
	"eventsite_backend/internal/quotes/repository"
	"eventsite_backend/internal/quotes/service"
	"eventsite_backend/platform/logger"
	"eventsite_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies are the collaborators the quotes service needs beyond the database.
type Dependencies struct {
	Renderer  service.DocumentRenderer
	Notifier  service.Notifier
	Templates service.TemplateRenderer
	// Payments and Documents are optional.
	Payments  service.PaymentIssuer
	Documents service.DocumentStore
}

// Module represents the quotes domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new quotes module with all dependencies wired
func NewModule(pool *pgxpool.Pool, deps Dependencies, cfg service.Config, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, deps.Renderer, deps.Notifier, deps.Templates, cfg, log)
	if deps.Payments != nil {
		svc.SetPaymentIssuer(deps.Payments)
	}
	if deps.Documents != nil {
		svc.SetDocumentStore(deps.Documents)
	}

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	var sendLimit gin.HandlerFunc
	if ctx.SendRateLimiter != nil {
		sendLimit = ctx.SendRateLimiter.RateLimit()
	}
	m.handler.RegisterRoutes(ctx.V1.Group("/quotes"), sendLimit)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
