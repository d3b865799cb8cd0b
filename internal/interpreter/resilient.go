package interpreter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/internal/metrics"
)

// ResilientProvider bounds each call with a timeout and trips a circuit
// breaker after repeated failures. An open circuit is reported as an
// unavailable provider.
type ResilientProvider struct {
	inner   domain.InterpreterProvider
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *logrus.Logger
}

// NewResilientProvider wraps inner using the breaker settings in cfg.
func NewResilientProvider(inner domain.InterpreterProvider, cfg domain.InterpreterConfig, logger *logrus.Logger) *ResilientProvider {
	if logger == nil {
		logger = logrus.New()
	}
	cb := cfg.CircuitBreaker
	maxFailures := cb.MaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}

	settings := gobreaker.Settings{
		Name:        "interpreter-" + inner.Name(),
		MaxRequests: cb.MaxRequests,
		Interval:    cb.Interval,
		Timeout:     cb.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= maxFailures {
				return true
			}
			if cb.FailureRatio <= 0 || counts.Requests < 3 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cb.FailureRatio
		},
		// Missing credentials are not the backend's fault.
		IsSuccessful: func(err error) bool {
			var pe *domain.ProviderError
			return err == nil || (errors.As(err, &pe) && pe.Kind == domain.ProviderNotConfigured)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	}

	return &ResilientProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (r *ResilientProvider) Name() string     { return r.inner.Name() }
func (r *ResilientProvider) Configured() bool { return r.inner.Configured() }

// State exposes the breaker state for health reporting.
func (r *ResilientProvider) State() gobreaker.State { return r.breaker.State() }

// Interpret calls the wrapped provider. Every error is a *domain.ProviderError.
func (r *ResilientProvider) Interpret(ctx context.Context, text string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.inner.Interpret(ctx, text)
	})
	if err != nil {
		err = r.classify(err)
		metrics.InterpreterCalls.WithLabelValues(r.Name(), "failure").Inc()
		return "", err
	}
	metrics.InterpreterCalls.WithLabelValues(r.Name(), "success").Inc()
	return out.(string), nil
}

func (r *ResilientProvider) classify(err error) error {
	var pe *domain.ProviderError
	switch {
	case errors.As(err, &pe):
		return pe
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return domain.NewProviderError(r.Name(), domain.ProviderNotConfigured, fmt.Errorf("circuit open: %w", err))
	default:
		return domain.NewProviderError(r.Name(), domain.ProviderTransport, err)
	}
}
