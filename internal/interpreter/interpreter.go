// Package interpreter turns free-text questions into structured query
// interpretations. A configured model backend is tried first; the keyword
// interpreter answers when the backend is absent or fails.
package interpreter

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/internal/logging"
)

// Interpreter runs exactly one interpretation path per query.
type Interpreter struct {
	provider   domain.InterpreterProvider
	normalizer *Normalizer
	fallback   *KeywordInterpreter
	logger     *logrus.Logger
}

// New creates an Interpreter. provider may be nil.
func New(provider domain.InterpreterProvider, normalizer *Normalizer, logger *logrus.Logger) *Interpreter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Interpreter{
		provider:   provider,
		normalizer: normalizer,
		fallback:   NewKeywordInterpreter(),
		logger:     logger,
	}
}

// Provider returns the active backend, or nil.
func (i *Interpreter) Provider() domain.InterpreterProvider { return i.provider }

// Interpret never fails. Provider errors are logged and answered by the
// keyword interpreter, whose result skips normalization.
func (i *Interpreter) Interpret(ctx context.Context, text string) domain.QueryInterpretation {
	log := logging.FromContext(ctx, i.logger)

	if i.provider == nil || !i.provider.Configured() {
		return i.fallback.Interpret(text)
	}

	raw, err := i.provider.Interpret(ctx, text)
	if err != nil {
		log.WithError(err).WithField("provider", i.provider.Name()).Warn("interpreter provider failed, using keyword fallback")
		return i.fallback.Interpret(text)
	}
	return i.normalizer.Normalize(raw)
}
