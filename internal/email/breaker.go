package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventsite_backend/platform/logger"

	"github.com/sony/gobreaker/v2"
)

// ErrProviderOpen is returned while a provider's circuit breaker is open.
var ErrProviderOpen = errors.New("email provider temporarily disabled")

// breakerProvider skips a provider after repeated consecutive failures so
// the chain moves on without waiting for another timeout.
type breakerProvider struct {
	Provider
	cb *gobreaker.CircuitBreaker[struct{}]
}

// WithBreaker wraps p in a circuit breaker. Credential invalidation is forwarded.
func WithBreaker(p Provider, log *logger.Logger) Provider {
	return &breakerProvider{
		Provider: p,
		cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        p.Name(),
			MaxRequests: 1,
			Interval:    5 * time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("email circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (b *breakerProvider) Send(ctx context.Context, msg Message) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.Provider.Send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrProviderOpen, b.Name())
	}
	return err
}

func (b *breakerProvider) InvalidateCredentials() {
	if inv, ok := b.Provider.(CredentialInvalidator); ok {
		inv.InvalidateCredentials()
	}
}
