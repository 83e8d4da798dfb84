package payments

import (
	"errors"
	"time"

	"eventsite_backend/platform/logger"

	"github.com/sony/gobreaker/v2"
)

var errEmptySession = errors.New("provider returned an empty session")

type breaker struct {
	cb *gobreaker.CircuitBreaker[ProviderSession]
}

// newBreaker opens after five consecutive provider failures and probes again
// after 30 seconds. Rejected requests do not count as provider failures.
func newBreaker(name string, log *logger.Logger) *breaker {
	return &breaker{cb: gobreaker.NewCircuitBreaker[ProviderSession](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsInvalidRequest(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("payment circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
		},
	})}
}

func (b *breaker) execute(fn func() (ProviderSession, error)) (ProviderSession, error) {
	session, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ProviderSession{}, providerUnavailable("payments.breaker", err)
	}
	return session, err
}
