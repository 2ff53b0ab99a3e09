package httpx

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreaker guards the remote detector backends so a flapping service
// fails fast instead of stalling every phase.
type CircuitBreaker interface {
	Execute(fn func() error) error
}

type breakerWrapper struct {
	breaker *gobreaker.CircuitBreaker
}

// BreakerSettings configures one backend's breaker. Zero values fall back
// to the package defaults.
type BreakerSettings struct {
	Name        string
	Timeout     time.Duration
	MaxFailures uint32
	MaxRequests uint32
}

const (
	defaultBreakerTimeout     = 30 * time.Second
	defaultBreakerMaxFailures = 5
	defaultBreakerMaxRequests = 5
)

// NewCircuitBreaker trips after MaxFailures consecutive failures, lets
// MaxRequests through while half-open, and retries once Timeout elapses.
func NewCircuitBreaker(s BreakerSettings) CircuitBreaker {
	if s.Timeout <= 0 {
		s.Timeout = defaultBreakerTimeout
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = defaultBreakerMaxFailures
	}
	if s.MaxRequests == 0 {
		s.MaxRequests = defaultBreakerMaxRequests
	}
	settings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
	}
	return &breakerWrapper{breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (w *breakerWrapper) Execute(fn func() error) error {
	_, err := w.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err != nil {
		return fmt.Errorf("breaker (%s): %w", w.breaker.Name(), err)
	}
	return nil
}
