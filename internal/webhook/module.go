package webhook

import (
	apphttp "eventsite_backend/internal/http"
	"eventsite_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the webhook module with all its dependencies.
func NewModule(pool *pgxpool.Pool, secret string, payments PaymentRecorder, log *logger.Logger) *Module {
	var events EventStore
	if pool != nil {
		events = NewRepository(pool)
	}
	service := NewService(secret, payments, events, log)
	return &Module{handler: NewHandler(service, log)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/webhooks/stripe", m.handler.HandleStripe)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
